//go:build windows

package tray

// iconBytes returns the tray icon in the ICO container Windows expects.
func iconBytes() []byte { return iconICO }
