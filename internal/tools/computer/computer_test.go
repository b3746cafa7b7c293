package computer

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/haasonsaas/deskhand/internal/display"
	"github.com/haasonsaas/deskhand/internal/input"
	"github.com/haasonsaas/deskhand/internal/tools"
)

type recordedCall struct {
	op    string
	x, y  int
	btn   input.Button
	key   string
	keys  []string
	text  string
	delay time.Duration
}

type fakeController struct {
	calls []recordedCall
	locX  int
	locY  int
	err   error
}

func (f *fakeController) MoveMouse(x, y int) error {
	f.calls = append(f.calls, recordedCall{op: "move", x: x, y: y})
	return f.err
}

func (f *fakeController) Click(btn input.Button) error {
	f.calls = append(f.calls, recordedCall{op: "click", btn: btn})
	return f.err
}

func (f *fakeController) ButtonDown(btn input.Button) error {
	f.calls = append(f.calls, recordedCall{op: "down", btn: btn})
	return f.err
}

func (f *fakeController) ButtonUp(btn input.Button) error {
	f.calls = append(f.calls, recordedCall{op: "up", btn: btn})
	return f.err
}

func (f *fakeController) PressKey(key string) error {
	f.calls = append(f.calls, recordedCall{op: "press", key: key})
	return f.err
}

func (f *fakeController) KeyCombo(keys []string) error {
	f.calls = append(f.calls, recordedCall{op: "combo", keys: keys})
	return f.err
}

func (f *fakeController) TypeText(text string, delay time.Duration) error {
	f.calls = append(f.calls, recordedCall{op: "type", text: text, delay: delay})
	return f.err
}

func (f *fakeController) Location() (int, int, error) {
	f.calls = append(f.calls, recordedCall{op: "location"})
	return f.locX, f.locY, f.err
}

type stubGrabber struct {
	w, h int
	err  error
}

func (s *stubGrabber) Capture() (image.Image, error) {
	if s.err != nil {
		return nil, s.err
	}
	return image.NewRGBA(image.Rect(0, 0, s.w, s.h)), nil
}

// newTestTool wires the tool to a 1920x1200 display, giving the standard
// 1.5 scaling factors against the 1280x800 logical space.
func newTestTool(t *testing.T, ctl *fakeController) *Tool {
	t.Helper()
	return newTestToolWithGrabber(t, ctl, &stubGrabber{w: 1920, h: 1200})
}

func newTestToolWithGrabber(t *testing.T, ctl *fakeController, g display.Grabber) *Tool {
	t.Helper()
	scaler := display.NewScaler(1920, 1200)
	tool, err := New(Config{
		Scaler:     scaler,
		Controller: ctl,
		Capturer:   display.NewCapturer(scaler, g),
	})
	if err != nil {
		t.Fatalf("new tool: %v", err)
	}
	return tool
}

func exec(t *testing.T, tool *Tool, input map[string]any) (*tools.Result, error) {
	t.Helper()
	raw, err := json.Marshal(input)
	if err != nil {
		t.Fatalf("marshal params: %v", err)
	}
	return tool.Execute(context.Background(), raw)
}

func mustExec(t *testing.T, tool *Tool, input map[string]any) *tools.Result {
	t.Helper()
	res, err := exec(t, tool, input)
	if err != nil {
		t.Fatalf("execute %v: %v", input, err)
	}
	return res
}

func TestMouseMoveScalesCoordinate(t *testing.T) {
	ctl := &fakeController{}
	tool := newTestTool(t, ctl)

	res := mustExec(t, tool, map[string]any{"action": "mouse_move", "coordinate": []int{640, 400}})
	if !res.Empty() {
		t.Errorf("mouse_move should return an empty result, got %+v", res)
	}
	if len(ctl.calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(ctl.calls))
	}
	if c := ctl.calls[0]; c.op != "move" || c.x != 960 || c.y != 600 {
		t.Errorf("call = %+v, want move to (960,600)", c)
	}
}

func TestMouseMoveAcceptsInclusiveBound(t *testing.T) {
	ctl := &fakeController{}
	tool := newTestTool(t, ctl)

	mustExec(t, tool, map[string]any{"action": "mouse_move", "coordinate": []int{1280, 800}})
	if c := ctl.calls[0]; c.x != 1920 || c.y != 1200 {
		t.Errorf("call = %+v, want move to (1920,1200)", c)
	}
}

func TestValidationRejectsBadRequests(t *testing.T) {
	tests := []struct {
		name  string
		input map[string]any
	}{
		{"unknown action", map[string]any{"action": "teleport"}},
		{"move without coordinate", map[string]any{"action": "mouse_move"}},
		{"move with text", map[string]any{"action": "mouse_move", "coordinate": []int{1, 1}, "text": "x"}},
		{"drag without coordinate", map[string]any{"action": "left_click_drag"}},
		{"coordinate with one element", map[string]any{"action": "mouse_move", "coordinate": []int{5}}},
		{"coordinate with three elements", map[string]any{"action": "mouse_move", "coordinate": []int{1, 2, 3}}},
		{"negative x", map[string]any{"action": "mouse_move", "coordinate": []int{-1, 5}}},
		{"negative y", map[string]any{"action": "mouse_move", "coordinate": []int{5, -1}}},
		{"x beyond logical width", map[string]any{"action": "mouse_move", "coordinate": []int{1281, 0}}},
		{"y beyond logical height", map[string]any{"action": "mouse_move", "coordinate": []int{0, 801}}},
		{"key without text", map[string]any{"action": "key"}},
		{"type without text", map[string]any{"action": "type"}},
		{"key with coordinate", map[string]any{"action": "key", "text": "a", "coordinate": []int{1, 1}}},
		{"screenshot with text", map[string]any{"action": "screenshot", "text": "x"}},
		{"screenshot with coordinate", map[string]any{"action": "screenshot", "coordinate": []int{1, 1}}},
		{"click with coordinate", map[string]any{"action": "left_click", "coordinate": []int{1, 1}}},
		{"cursor_position with text", map[string]any{"action": "cursor_position", "text": "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctl := &fakeController{}
			tool := newTestTool(t, ctl)
			_, err := exec(t, tool, tt.input)
			if !tools.IsValidation(err) {
				t.Fatalf("err = %v, want validation error", err)
			}
			if len(ctl.calls) != 0 {
				t.Errorf("validation failure caused side effects: %+v", ctl.calls)
			}
		})
	}
}

func TestLeftClickDragSequence(t *testing.T) {
	ctl := &fakeController{}
	tool := newTestTool(t, ctl)

	res := mustExec(t, tool, map[string]any{"action": "left_click_drag", "coordinate": []int{100, 100}})
	if !res.Empty() {
		t.Errorf("drag should return an empty result, got %+v", res)
	}

	want := []string{"down", "move", "up"}
	if len(ctl.calls) != len(want) {
		t.Fatalf("calls = %+v, want %v", ctl.calls, want)
	}
	for i, op := range want {
		if ctl.calls[i].op != op {
			t.Errorf("calls[%d].op = %q, want %q", i, ctl.calls[i].op, op)
		}
	}
	if c := ctl.calls[1]; c.x != 150 || c.y != 150 {
		t.Errorf("drag moved to (%d,%d), want (150,150)", c.x, c.y)
	}
	if ctl.calls[0].btn != input.ButtonLeft || ctl.calls[2].btn != input.ButtonLeft {
		t.Error("drag must hold the left button")
	}
}

func TestKeySinglePress(t *testing.T) {
	ctl := &fakeController{}
	tool := newTestTool(t, ctl)

	mustExec(t, tool, map[string]any{"action": "key", "text": "Return"})
	if len(ctl.calls) != 1 || ctl.calls[0].op != "press" || ctl.calls[0].key != "Return" {
		t.Errorf("calls = %+v, want single press of Return", ctl.calls)
	}
}

func TestKeyModifierCombination(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"Command_L+q", []string{"command", "q"}},
		{"command+shift+p", []string{"command", "shift", "p"}},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			ctl := &fakeController{}
			tool := newTestTool(t, ctl)
			mustExec(t, tool, map[string]any{"action": "key", "text": tt.text})
			if len(ctl.calls) != 1 || ctl.calls[0].op != "combo" {
				t.Fatalf("calls = %+v, want one combo", ctl.calls)
			}
			got := ctl.calls[0].keys
			if len(got) != len(tt.want) {
				t.Fatalf("combo = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("combo = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestTypeReturnsScreenshot(t *testing.T) {
	ctl := &fakeController{}
	tool := newTestTool(t, ctl)

	res := mustExec(t, tool, map[string]any{"action": "type", "text": "hello world"})
	if res.Base64Image == "" {
		t.Fatal("type must return an image payload")
	}
	if res.Output != "" {
		t.Errorf("type must never return text, got %q", res.Output)
	}
	if len(ctl.calls) != 1 || ctl.calls[0].op != "type" {
		t.Fatalf("calls = %+v, want one type", ctl.calls)
	}
	if c := ctl.calls[0]; c.text != "hello world" || c.delay != TypingDelay {
		t.Errorf("typed %q with delay %v, want %q with %v", c.text, c.delay, "hello world", TypingDelay)
	}
}

func TestClicksCaptureScreenshot(t *testing.T) {
	tests := []struct {
		action string
		btn    input.Button
		clicks int
	}{
		{"left_click", input.ButtonLeft, 1},
		{"right_click", input.ButtonRight, 1},
		{"middle_click", input.ButtonMiddle, 1},
		{"double_click", input.ButtonLeft, 2},
	}
	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			ctl := &fakeController{}
			tool := newTestTool(t, ctl)
			res := mustExec(t, tool, map[string]any{"action": tt.action})
			if res.Base64Image == "" {
				t.Error("click should return a screenshot")
			}
			if len(ctl.calls) != tt.clicks {
				t.Fatalf("calls = %+v, want %d clicks", ctl.calls, tt.clicks)
			}
			for _, c := range ctl.calls {
				if c.op != "click" || c.btn != tt.btn {
					t.Errorf("call = %+v, want click %s", c, tt.btn)
				}
			}
		})
	}
}

func TestScreenshotNormalizedToLogical(t *testing.T) {
	ctl := &fakeController{}
	tool := newTestTool(t, ctl)

	res := mustExec(t, tool, map[string]any{"action": "screenshot"})
	raw, err := base64.StdEncoding.DecodeString(res.Base64Image)
	if err != nil {
		t.Fatalf("decode base64: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 1280 || b.Dy() != 800 {
		t.Errorf("frame = %dx%d, want 1280x800", b.Dx(), b.Dy())
	}
	if len(ctl.calls) != 0 {
		t.Errorf("screenshot injected input: %+v", ctl.calls)
	}
}

func TestCursorPositionInverseScales(t *testing.T) {
	ctl := &fakeController{locX: 960, locY: 600}
	tool := newTestTool(t, ctl)

	res := mustExec(t, tool, map[string]any{"action": "cursor_position"})
	if res.Output != "X=640,Y=400" {
		t.Errorf("Output = %q, want %q", res.Output, "X=640,Y=400")
	}
	if res.Base64Image != "" {
		t.Error("cursor_position should not capture")
	}
}

func TestInjectionFailureWrapped(t *testing.T) {
	ctl := &fakeController{err: errors.New("backend down")}
	tool := newTestTool(t, ctl)

	_, err := exec(t, tool, map[string]any{"action": "left_click"})
	var te *tools.ToolError
	if !errors.As(err, &te) || te.Kind != tools.KindInjection {
		t.Fatalf("err = %v, want injection ToolError", err)
	}
}

func TestCaptureFailureWrapped(t *testing.T) {
	ctl := &fakeController{}
	tool := newTestToolWithGrabber(t, ctl, &stubGrabber{err: errors.New("no display")})

	_, err := exec(t, tool, map[string]any{"action": "screenshot"})
	var te *tools.ToolError
	if !errors.As(err, &te) || te.Kind != tools.KindCapture {
		t.Fatalf("err = %v, want capture ToolError", err)
	}
}

func TestOptionsPublishLogicalGeometry(t *testing.T) {
	ctl := &fakeController{}
	tool := newTestTool(t, ctl)

	opts := tool.Options()
	if opts["display_width_px"] != 1280 || opts["display_height_px"] != 800 {
		t.Errorf("options = %v, want logical 1280x800", opts)
	}
	if _, ok := opts["display_number"]; !ok {
		t.Error("options missing display_number")
	}
}

func TestSchemaDeclaresClosedVocabulary(t *testing.T) {
	var schema struct {
		Properties struct {
			Action struct {
				Enum []string `json:"enum"`
			} `json:"action"`
		} `json:"properties"`
	}
	if err := json.Unmarshal([]byte(SchemaJSON), &schema); err != nil {
		t.Fatalf("schema is not valid JSON: %v", err)
	}
	if len(schema.Properties.Action.Enum) != 10 {
		t.Fatalf("enum has %d actions, want 10", len(schema.Properties.Action.Enum))
	}
	for _, a := range schema.Properties.Action.Enum {
		if !Action(a).valid() {
			t.Errorf("schema action %q not accepted by dispatch", a)
		}
	}
}

func TestMalformedParams(t *testing.T) {
	ctl := &fakeController{}
	tool := newTestTool(t, ctl)
	_, err := tool.Execute(context.Background(), json.RawMessage(`{"action": 12}`))
	if !tools.IsValidation(err) {
		t.Fatalf("err = %v, want validation error", err)
	}
	if !strings.Contains(err.Error(), "invalid params") {
		t.Errorf("unexpected message: %v", err)
	}
}
