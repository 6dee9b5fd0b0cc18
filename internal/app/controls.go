package app

import "strings"

// KeyBinding maps a physical key to a roster slot and an option index.
type KeyBinding struct {
	Slot   int
	Option int
}

// keyBindings is the shared-keyboard control surface for four players.
var keyBindings = map[string]KeyBinding{
	"q": {0, 0}, "w": {0, 1}, "e": {0, 2}, "r": {0, 3},
	"u": {1, 0}, "i": {1, 1}, "o": {1, 2}, "p": {1, 3},
	"z": {2, 0}, "x": {2, 1}, "c": {2, 2}, "v": {2, 3},
	"n": {3, 0}, "m": {3, 1}, ",": {3, 2}, ".": {3, 3},
}

var slotControls = []string{"Q, W, E, R", "U, I, O, P", "Z, X, C, V", "N, M, <, >"}

// LookupKey resolves a key press, case-insensitively.
func LookupKey(key string) (KeyBinding, bool) {
	b, ok := keyBindings[strings.ToLower(key)]
	return b, ok
}

// ControlsLabel describes the keys for a roster slot, or "" when the slot
// has no keyboard binding.
func ControlsLabel(slot int) string {
	if slot < 0 || slot >= len(slotControls) {
		return ""
	}
	return slotControls[slot]
}
