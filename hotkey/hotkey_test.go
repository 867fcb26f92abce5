package hotkey

import (
	"reflect"
	"testing"
)

func TestParseHotkey(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"Shift+Alt+S", []string{"shift", "alt", "s"}},
		{"Ctrl+Alt+Q", []string{"ctrl", "alt", "q"}},
		{"ctrl + shift + f12", []string{"ctrl", "shift", "f12"}},
		{"Win+Space", []string{"cmd", "space"}},
		{"Super+V", []string{"cmd", "v"}},
		{"", nil},
	}
	for _, tt := range tests {
		if got := parseHotkey(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("parseHotkey(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestKeyNameToRawcodes(t *testing.T) {
	tests := []struct {
		in   string
		want []uint16
	}{
		{"shift", []uint16{160, 161}},
		{"ctrl", []uint16{162, 163}},
		{"alt", []uint16{164, 165}},
		{"s", []uint16{83}},
		{"q", []uint16{81}},
		{"0", []uint16{48}},
		{"9", []uint16{57}},
		{"f1", []uint16{112}},
		{"f24", []uint16{135}},
		{"escape", []uint16{27}},
		{" Space ", []uint16{32}},
		{"nosuchkey", nil},
	}
	for _, tt := range tests {
		if got := keyNameToRawcodes(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("keyNameToRawcodes(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestComboStateMachine(t *testing.T) {
	states := []keyState{
		{name: "shift", rawcodes: []uint16{160, 161}},
		{name: "alt", rawcodes: []uint16{164, 165}},
		{name: "s", rawcodes: []uint16{83}},
	}

	markPressed(states, 160, true)
	markPressed(states, 165, true)
	if allPressed(states) {
		t.Fatal("combo should not fire before the final key")
	}
	markPressed(states, 83, true)
	if !allPressed(states) {
		t.Fatal("combo should fire after all keys are down")
	}

	markPressed(states, 83, false)
	if allPressed(states) {
		t.Fatal("combo should not fire after a key is released")
	}

	// Unrelated rawcodes are ignored
	markPressed(states, 65, true)
	if allPressed(states) {
		t.Fatal("unrelated key must not complete the combo")
	}
}
