package tray

import (
	_ "embed"
)

//go:embed icon.png
var iconPNG []byte

//go:embed icon.ico
var iconICO []byte
