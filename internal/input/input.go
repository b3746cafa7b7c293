// Package input abstracts pointer and keyboard injection behind a small
// capability interface so the computer tool stays independent of the
// concrete automation backend.
package input

import "time"

// Button identifies a pointer button.
type Button string

const (
	ButtonLeft   Button = "left"
	ButtonRight  Button = "right"
	ButtonMiddle Button = "middle"
)

// Controller synthesizes input events on the desktop. Implementations are
// constructed once at process start and owned by the dispatcher; they are
// not assumed safe for concurrent use.
type Controller interface {
	// MoveMouse moves the pointer to a physical coordinate.
	MoveMouse(x, y int) error

	// Click presses and releases a button at the current pointer position.
	Click(btn Button) error

	// ButtonDown presses and holds a button.
	ButtonDown(btn Button) error

	// ButtonUp releases a held button.
	ButtonUp(btn Button) error

	// PressKey taps a single named key (xdotool-style key names).
	PressKey(key string) error

	// KeyCombo presses keys simultaneously; the last element is the key,
	// everything before it modifiers.
	KeyCombo(keys []string) error

	// TypeText injects text character by character, sleeping delay
	// between characters.
	TypeText(text string, delay time.Duration) error

	// Location reports the current pointer position in physical
	// coordinates.
	Location() (x, y int, err error)
}
