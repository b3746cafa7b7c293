// Package computer implements the display-automation tool: a closed
// vocabulary of pointer, keyboard, and capture actions expressed in the
// fixed logical coordinate space.
package computer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/haasonsaas/deskhand/internal/display"
	"github.com/haasonsaas/deskhand/internal/input"
	"github.com/haasonsaas/deskhand/internal/observability"
	"github.com/haasonsaas/deskhand/internal/tools"
)

// Action is one member of the closed action vocabulary.
type Action string

const (
	ActionKey            Action = "key"
	ActionType           Action = "type"
	ActionMouseMove      Action = "mouse_move"
	ActionLeftClick      Action = "left_click"
	ActionLeftClickDrag  Action = "left_click_drag"
	ActionRightClick     Action = "right_click"
	ActionMiddleClick    Action = "middle_click"
	ActionDoubleClick    Action = "double_click"
	ActionScreenshot     Action = "screenshot"
	ActionCursorPosition Action = "cursor_position"
)

func (a Action) valid() bool {
	switch a {
	case ActionKey, ActionType, ActionMouseMove, ActionLeftClick,
		ActionLeftClickDrag, ActionRightClick, ActionMiddleClick,
		ActionDoubleClick, ActionScreenshot, ActionCursorPosition:
		return true
	}
	return false
}

// TypingDelay is the default pause between injected characters for "type".
const TypingDelay = 12 * time.Millisecond

type params struct {
	Action     string `json:"action"`
	Text       string `json:"text,omitempty"`
	Coordinate []int  `json:"coordinate,omitempty"`
}

// Config assembles the tool's collaborators. Scaler, Controller, and
// Capturer are created once at startup; the tool never reconfigures them.
type Config struct {
	Scaler        display.Scaler
	Controller    input.Controller
	Capturer      *display.Capturer
	DisplayNumber int

	// TypingDelay overrides the per-character delay. Zero means the
	// TypingDelay default.
	TypingDelay time.Duration

	Metrics *observability.Metrics
	Logger  *slog.Logger
}

// Tool validates and executes computer actions. Each call is independent:
// validate, then act, with injection and capture serialized by an
// internal mutex so overlapping calls on one instance stay safe.
type Tool struct {
	scaler      display.Scaler
	ctl         input.Controller
	capturer    *display.Capturer
	displayNum  int
	typingDelay time.Duration
	metrics     *observability.Metrics
	logger      *slog.Logger

	mu sync.Mutex
}

// New builds the computer tool from its configuration.
func New(cfg Config) (*Tool, error) {
	if cfg.Controller == nil {
		return nil, fmt.Errorf("computer: controller is required")
	}
	if cfg.Capturer == nil {
		return nil, fmt.Errorf("computer: capturer is required")
	}
	if cfg.TypingDelay == 0 {
		cfg.TypingDelay = TypingDelay
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Tool{
		scaler:      cfg.Scaler,
		ctl:         cfg.Controller,
		capturer:    cfg.Capturer,
		displayNum:  cfg.DisplayNumber,
		typingDelay: cfg.TypingDelay,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger,
	}, nil
}

func (t *Tool) Name() string { return "computer" }

func (t *Tool) Description() string {
	return "Control the local display with mouse, keyboard, and screenshot actions in a fixed logical coordinate space."
}

func (t *Tool) Schema() json.RawMessage {
	return json.RawMessage(SchemaJSON)
}

// Options publishes the declared capability surface: the logical
// resolution the controller operates in and the display index.
func (t *Tool) Options() map[string]any {
	w, h := t.scaler.LogicalSize()
	return map[string]any{
		"display_width_px":  w,
		"display_height_px": h,
		"display_number":    t.displayNum,
	}
}

// Execute decodes the request and runs the validate-then-act pipeline.
// Contract violations surface as validation ToolErrors before any side
// effect; backend failures as injection/capture ToolErrors.
func (t *Tool) Execute(ctx context.Context, raw json.RawMessage) (*tools.Result, error) {
	var p params
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, tools.Validationf("invalid params: %v", err)
	}

	start := time.Now()
	res, err := t.dispatch(ctx, p)
	elapsed := time.Since(start)

	label := "invalid"
	if a := Action(p.Action); a.valid() {
		label = p.Action
	}
	if t.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		t.metrics.RecordAction(label, status, elapsed.Seconds())
	}
	if err != nil {
		t.logger.Debug("action failed", "action", label, "error", err)
		return nil, err
	}
	t.logger.Debug("action executed", "action", label, "duration", elapsed)
	return res, nil
}

func (t *Tool) dispatch(ctx context.Context, p params) (*tools.Result, error) {
	action, text, coord, err := t.validate(p)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	switch action {
	case ActionMouseMove:
		px, py := t.scaler.ToPhysical(coord[0], coord[1])
		if err := t.ctl.MoveMouse(px, py); err != nil {
			return nil, tools.WrapError(tools.KindInjection, "move pointer", err)
		}
		return &tools.Result{}, nil

	case ActionLeftClickDrag:
		px, py := t.scaler.ToPhysical(coord[0], coord[1])
		if err := t.ctl.ButtonDown(input.ButtonLeft); err != nil {
			return nil, tools.WrapError(tools.KindInjection, "press button", err)
		}
		if err := t.ctl.MoveMouse(px, py); err != nil {
			// Do not leave the button held on a failed drag.
			_ = t.ctl.ButtonUp(input.ButtonLeft)
			return nil, tools.WrapError(tools.KindInjection, "drag pointer", err)
		}
		if err := t.ctl.ButtonUp(input.ButtonLeft); err != nil {
			return nil, tools.WrapError(tools.KindInjection, "release button", err)
		}
		return &tools.Result{}, nil

	case ActionKey:
		if err := t.pressKey(text); err != nil {
			return nil, tools.WrapError(tools.KindInjection, "press key", err)
		}
		return &tools.Result{}, nil

	case ActionType:
		if err := t.ctl.TypeText(text, t.typingDelay); err != nil {
			return nil, tools.WrapError(tools.KindInjection, "type text", err)
		}
		// Typing always yields visual confirmation, never a text result.
		return t.screenshot()

	case ActionLeftClick:
		return t.clickAndCapture(input.ButtonLeft, 1)
	case ActionRightClick:
		return t.clickAndCapture(input.ButtonRight, 1)
	case ActionMiddleClick:
		return t.clickAndCapture(input.ButtonMiddle, 1)
	case ActionDoubleClick:
		// Synthesized as two rapid single clicks.
		return t.clickAndCapture(input.ButtonLeft, 2)

	case ActionScreenshot:
		return t.screenshot()

	case ActionCursorPosition:
		px, py, err := t.ctl.Location()
		if err != nil {
			return nil, tools.WrapError(tools.KindInjection, "read pointer position", err)
		}
		x, y := t.scaler.ToLogical(px, py)
		return tools.TextResult(fmt.Sprintf("X=%d,Y=%d", x, y)), nil
	}

	// validate only admits the closed vocabulary; this is unreachable.
	return nil, tools.Validationf("unknown action %q", p.Action)
}

// validate checks the full parameter contract before any side effect, so
// failures are provably side-effect free.
func (t *Tool) validate(p params) (Action, string, []int, error) {
	action := Action(p.Action)
	if !action.valid() {
		return "", "", nil, tools.Validationf("unknown action %q", p.Action)
	}

	hasText := p.Text != ""
	hasCoord := p.Coordinate != nil

	switch action {
	case ActionMouseMove, ActionLeftClickDrag:
		if hasText {
			return "", "", nil, tools.Validationf("text is not accepted for %s", action)
		}
		if !hasCoord {
			return "", "", nil, tools.Validationf("coordinate is required for %s", action)
		}
		coord, err := t.checkCoordinate(p.Coordinate)
		if err != nil {
			return "", "", nil, err
		}
		return action, "", coord, nil

	case ActionKey, ActionType:
		if hasCoord {
			return "", "", nil, tools.Validationf("coordinate is not accepted for %s", action)
		}
		if !hasText {
			return "", "", nil, tools.Validationf("text is required for %s", action)
		}
		return action, p.Text, nil, nil

	default:
		if hasText {
			return "", "", nil, tools.Validationf("text is not accepted for %s", action)
		}
		if hasCoord {
			return "", "", nil, tools.Validationf("coordinate is not accepted for %s", action)
		}
		return action, "", nil, nil
	}
}

// checkCoordinate enforces shape, sign, and the logical bounds. Bounds
// are inclusive and checked before scaling.
func (t *Tool) checkCoordinate(coord []int) ([]int, error) {
	if len(coord) != 2 {
		return nil, tools.Validationf("coordinate must be a pair [x, y], got %d elements", len(coord))
	}
	x, y := coord[0], coord[1]
	if x < 0 || y < 0 {
		return nil, tools.Validationf("coordinate (%d,%d) must be non-negative", x, y)
	}
	w, h := t.scaler.LogicalSize()
	if x > w || y > h {
		return nil, tools.Validationf("coordinate (%d,%d) is outside the %dx%d logical space", x, y, w, h)
	}
	return []int{x, y}, nil
}

// pressKey issues a single key press, or a simultaneous combination when
// the text carries a "command"-style modifier token: "Command_L+q" is
// lowered, stripped of the locale suffix, and split into ["command","q"].
func (t *Tool) pressKey(text string) error {
	if strings.Contains(strings.ToLower(text), "command") {
		keys := strings.Split(strings.ReplaceAll(strings.ToLower(text), "_l", ""), "+")
		return t.ctl.KeyCombo(keys)
	}
	return t.ctl.PressKey(text)
}

func (t *Tool) clickAndCapture(btn input.Button, clicks int) (*tools.Result, error) {
	for i := 0; i < clicks; i++ {
		if err := t.ctl.Click(btn); err != nil {
			return nil, tools.WrapError(tools.KindInjection, "click", err)
		}
	}
	return t.screenshot()
}

func (t *Tool) screenshot() (*tools.Result, error) {
	b64, err := t.capturer.Capture()
	if t.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		t.metrics.RecordCapture(status)
	}
	if err != nil {
		return nil, tools.WrapError(tools.KindCapture, "capture screen", err)
	}
	return tools.ImageResult(b64), nil
}
