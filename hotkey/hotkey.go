// Package hotkey detects a global key combination via gohook's raw input
// listener and invokes a callback. The callback only posts an event; the
// capture flow itself is owned by the event loop.
package hotkey

import (
	"log"
	"sync"

	gohook "github.com/robotn/gohook"
)

type keyState struct {
	name     string
	rawcodes []uint16
	pressed  bool
}

// Listen registers the hotkey combo and starts the gohook listener goroutine.
// callback is invoked once per complete combination press.
func Listen(combo string, callback func()) {
	keys := parseHotkey(combo)
	log.Printf("Parsed hotkey configuration: %v", keys)

	var states []keyState
	for _, name := range keys {
		rawcodes := keyNameToRawcodes(name)
		if len(rawcodes) == 0 {
			log.Printf("ERROR: Cannot map key %q to rawcodes, hotkey may not work correctly", name)
			continue
		}
		states = append(states, keyState{name: name, rawcodes: rawcodes})
	}
	if len(states) == 0 {
		log.Printf("ERROR: No valid keys in hotkey configuration %q", combo)
		return
	}

	log.Printf("Hotkey listener configured for: %s", combo)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("PANIC in hotkey goroutine: %v", r)
			}
		}()

		evChan := gohook.Start()
		if evChan == nil {
			log.Printf("ERROR: gohook.Start() returned nil channel")
			return
		}

		var mu sync.Mutex
		for ev := range evChan {
			switch ev.Kind {
			case gohook.KeyDown:
				mu.Lock()
				markPressed(states, ev.Rawcode, true)
				fire := allPressed(states)
				if fire {
					// Reset so holding the combo doesn't retrigger.
					for i := range states {
						states[i].pressed = false
					}
				}
				mu.Unlock()
				if fire {
					log.Printf("Hotkey combination detected: %s", combo)
					if callback != nil {
						callback()
					}
				}
			case gohook.KeyUp:
				mu.Lock()
				markPressed(states, ev.Rawcode, false)
				mu.Unlock()
			}
		}
		log.Printf("Hotkey event channel closed")
	}()
}

func markPressed(states []keyState, rawcode uint16, down bool) {
	for i := range states {
		for _, rc := range states[i].rawcodes {
			if rc == rawcode {
				states[i].pressed = down
				return
			}
		}
	}
}

func allPressed(states []keyState) bool {
	for i := range states {
		if !states[i].pressed {
			return false
		}
	}
	return true
}
