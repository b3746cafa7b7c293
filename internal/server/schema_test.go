package server

import (
	"encoding/json"
	"testing"
)

func TestInitWSSchemas(t *testing.T) {
	if err := initWSSchemas(); err != nil {
		t.Errorf("initWSSchemas() error = %v", err)
	}
	// Should be idempotent
	if err := initWSSchemas(); err != nil {
		t.Errorf("initWSSchemas() second call error = %v", err)
	}
}

func TestValidateRequestFrame(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantError bool
	}{
		{
			name:      "valid hello request",
			raw:       `{"type": "req", "id": "1", "method": "hello", "params": {"minProtocol": 1, "maxProtocol": 1}}`,
			wantError: false,
		},
		{
			name:      "hello without params",
			raw:       `{"type": "req", "id": "1", "method": "hello"}`,
			wantError: false,
		},
		{
			name:      "valid ping request",
			raw:       `{"type": "req", "id": "2", "method": "ping", "params": {}}`,
			wantError: false,
		},
		{
			name:      "valid invoke request",
			raw:       `{"type": "req", "id": "3", "method": "tools.invoke", "params": {"tool": "computer", "input": {"action": "screenshot"}}}`,
			wantError: false,
		},
		{
			name:      "invoke without tool",
			raw:       `{"type": "req", "id": "3", "method": "tools.invoke", "params": {}}`,
			wantError: true,
		},
		{
			name:      "invoke with non-object input",
			raw:       `{"type": "req", "id": "3", "method": "tools.invoke", "params": {"tool": "computer", "input": 5}}`,
			wantError: true,
		},
		{
			name:      "invalid JSON",
			raw:       `{invalid}`,
			wantError: true,
		},
		{
			name:      "missing type",
			raw:       `{"id": "1", "method": "ping"}`,
			wantError: true,
		},
		{
			name:      "missing id",
			raw:       `{"type": "req", "method": "ping"}`,
			wantError: true,
		},
		{
			name:      "missing method",
			raw:       `{"type": "req", "id": "1"}`,
			wantError: true,
		},
		{
			name:      "response frame type",
			raw:       `{"type": "res", "id": "1", "method": "ping"}`,
			wantError: true,
		},
		{
			name:      "unknown method with valid base schema",
			raw:       `{"type": "req", "id": "1", "method": "unknown.method", "params": {"anything": "goes"}}`,
			wantError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var frame wsFrame
			_ = json.Unmarshal([]byte(tt.raw), &frame)
			err := validateRequestFrame([]byte(tt.raw), &frame)
			if (err != nil) != tt.wantError {
				t.Errorf("validateRequestFrame() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestWSSchemaConstants(t *testing.T) {
	schemas := []struct {
		name   string
		schema string
	}{
		{"wsRequestSchema", wsRequestSchema},
		{"wsHelloParamsSchema", wsHelloParamsSchema},
		{"wsPingParamsSchema", wsPingParamsSchema},
		{"wsInvokeParamsSchema", wsInvokeParamsSchema},
	}

	for _, tt := range schemas {
		t.Run(tt.name, func(t *testing.T) {
			var v any
			if err := json.Unmarshal([]byte(tt.schema), &v); err != nil {
				t.Errorf("%s is not valid JSON: %v", tt.name, err)
			}
		})
	}
}
