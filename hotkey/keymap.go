package hotkey

import (
	"fmt"
	"strings"
)

// rawcodesByKey maps normalized key names to Windows virtual-key rawcodes as
// reported by gohook. Modifiers map to both their left and right variants.
var rawcodesByKey = map[string][]uint16{
	"ctrl":  {162, 163}, // VK_LCONTROL, VK_RCONTROL
	"alt":   {164, 165}, // VK_LMENU, VK_RMENU
	"shift": {160, 161}, // VK_LSHIFT, VK_RSHIFT
	"cmd":   {91, 92},   // VK_LWIN, VK_RWIN

	"space":     {32},
	"enter":     {13},
	"return":    {13},
	"esc":       {27},
	"escape":    {27},
	"tab":       {9},
	"backspace": {8},
	"delete":    {46},
	"del":       {46},
	"insert":    {45},
	"ins":       {45},
	"home":      {36},
	"end":       {35},
	"pageup":    {33},
	"pgup":      {33},
	"pagedown":  {34},
	"pgdn":      {34},
	"left":      {37},
	"up":        {38},
	"right":     {39},
	"down":      {40},
}

func init() {
	// Letters a-z: VK 0x41-0x5A. Digits 0-9: VK 0x30-0x39. F1-F24: VK 0x70+.
	for c := 'a'; c <= 'z'; c++ {
		rawcodesByKey[string(c)] = []uint16{uint16(c - 'a' + 0x41)}
	}
	for c := '0'; c <= '9'; c++ {
		rawcodesByKey[string(c)] = []uint16{uint16(c - '0' + 0x30)}
	}
	for n := 1; n <= 24; n++ {
		rawcodesByKey[fmt.Sprintf("f%d", n)] = []uint16{uint16(0x70 + n - 1)}
	}
}

// keyNameToRawcodes returns the rawcodes for a key name, or nil when unknown.
func keyNameToRawcodes(keyName string) []uint16 {
	return rawcodesByKey[strings.ToLower(strings.TrimSpace(keyName))]
}

// parseHotkey converts a combo string like "Shift+Alt+s" to normalized key
// names.
func parseHotkey(combo string) []string {
	var keys []string
	for _, part := range strings.Split(strings.ToLower(combo), "+") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		switch part {
		case "win", "cmd", "super":
			keys = append(keys, "cmd")
		default:
			keys = append(keys, part)
		}
	}
	return keys
}
