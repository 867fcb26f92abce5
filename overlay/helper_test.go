package overlay

import (
	"testing"

	"snipocr/screenshot"
)

func TestSelectionResultRoundTrip(t *testing.T) {
	tests := []struct {
		name      string
		region    screenshot.Region
		cancelled bool
	}{
		{"Simple", screenshot.Region{X: 10, Y: 20, Width: 300, Height: 200}, false},
		{"NegativeOrigin", screenshot.Region{X: -1920, Y: -80, Width: 640, Height: 480}, false},
		{"Cancelled", screenshot.Region{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := encodeSelection(tt.region, tt.cancelled)
			region, cancelled, err := decodeSelection(line + "\n")
			if err != nil {
				t.Fatalf("decodeSelection(%q): %v", line, err)
			}
			if cancelled != tt.cancelled {
				t.Errorf("cancelled = %v, want %v", cancelled, tt.cancelled)
			}
			if !tt.cancelled && region != tt.region {
				t.Errorf("region = %+v, want %+v", region, tt.region)
			}
		})
	}
}

func TestDecodeSelectionRejectsMalformedLines(t *testing.T) {
	lines := []string{
		"",
		"garbage",
		"1 2 3",
		"a b c d",
		"0 0 0 100",
		"0 0 100 -5",
	}
	for _, line := range lines {
		if region, cancelled, err := decodeSelection(line); err == nil {
			t.Errorf("decodeSelection(%q) = %+v cancelled=%v, want error", line, region, cancelled)
		}
	}
}
