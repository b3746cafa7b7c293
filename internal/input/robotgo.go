package input

import (
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/go-vgo/robotgo"
)

// Robot drives the desktop through robotgo. It satisfies Controller.
type Robot struct{}

// NewRobot returns the robotgo-backed controller.
func NewRobot() *Robot { return &Robot{} }

func (*Robot) MoveMouse(x, y int) error {
	robotgo.Move(x, y)
	return nil
}

func (*Robot) Click(btn Button) error {
	robotgo.Click(string(btn), false)
	return nil
}

func (*Robot) ButtonDown(btn Button) error {
	return robotgo.Toggle(string(btn), "down")
}

func (*Robot) ButtonUp(btn Button) error {
	return robotgo.Toggle(string(btn), "up")
}

func (*Robot) PressKey(key string) error {
	return robotgo.KeyTap(key)
}

func (*Robot) KeyCombo(keys []string) error {
	if len(keys) == 0 {
		return fmt.Errorf("empty key combination")
	}
	key := keys[len(keys)-1]
	mods := make([]any, len(keys)-1)
	for i, m := range keys[:len(keys)-1] {
		mods[i] = m
	}
	return robotgo.KeyTap(key, mods...)
}

func (*Robot) TypeText(text string, delay time.Duration) error {
	for _, r := range text {
		robotgo.TypeStr(string(r))
		if delay > 0 {
			time.Sleep(delay)
		}
	}
	return nil
}

func (*Robot) Location() (int, int, error) {
	x, y := robotgo.Location()
	return x, y, nil
}

// Screen grabs the primary display through robotgo. It satisfies
// display.Grabber.
type Screen struct{}

// NewScreen returns the robotgo-backed display grabber.
func NewScreen() *Screen { return &Screen{} }

func (*Screen) Capture() (image.Image, error) {
	return robotgo.CaptureImg(), nil
}

var (
	detectOnce sync.Once
	detectedW  int
	detectedH  int
)

// DetectResolution probes the primary display size once per process and
// caches it; the scaling configuration is built from this at startup and
// never refreshed.
func DetectResolution() (w, h int) {
	detectOnce.Do(func() {
		detectedW, detectedH = robotgo.GetScreenSize()
	})
	return detectedW, detectedH
}
