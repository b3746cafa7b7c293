package server

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/haasonsaas/deskhand/internal/tools"
)

type wsSchemaRegistry struct {
	once    sync.Once
	initErr error
	request *jsonschema.Schema
	methods map[string]*jsonschema.Schema
}

var wsSchemas wsSchemaRegistry

func initWSSchemas() error {
	wsSchemas.once.Do(func() {
		reqSchema, err := jsonschema.CompileString("ws_request", wsRequestSchema)
		if err != nil {
			wsSchemas.initErr = err
			return
		}
		wsSchemas.request = reqSchema

		methods := map[string]string{
			"hello":        wsHelloParamsSchema,
			"ping":         wsPingParamsSchema,
			"tools.invoke": wsInvokeParamsSchema,
		}

		wsSchemas.methods = make(map[string]*jsonschema.Schema, len(methods))
		for name, schema := range methods {
			compiled, err := jsonschema.CompileString("ws_method_"+name, schema)
			if err != nil {
				wsSchemas.initErr = err
				return
			}
			wsSchemas.methods[name] = compiled
		}
	})
	return wsSchemas.initErr
}

func validateRequestFrame(raw []byte, frame *wsFrame) error {
	if err := initWSSchemas(); err != nil {
		return err
	}

	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return err
	}
	if err := wsSchemas.request.Validate(payload); err != nil {
		return err
	}
	if frame == nil {
		return fmt.Errorf("missing frame")
	}
	if schema := wsSchemas.methods[frame.Method]; schema != nil {
		var params any
		if len(frame.Params) == 0 {
			params = map[string]any{}
		} else if err := json.Unmarshal(frame.Params, &params); err != nil {
			return err
		}
		if err := schema.Validate(params); err != nil {
			return err
		}
	}
	return nil
}

// compileToolSchemas compiles the declared input schema of every
// registered tool so invocations can be checked before dispatch.
func compileToolSchemas(registry *tools.Registry) (map[string]*jsonschema.Schema, error) {
	list := registry.List()
	compiled := make(map[string]*jsonschema.Schema, len(list))
	for _, tool := range list {
		schema, err := jsonschema.CompileString("tool_"+tool.Name(), string(tool.Schema()))
		if err != nil {
			return nil, fmt.Errorf("compile schema for tool %q: %w", tool.Name(), err)
		}
		compiled[tool.Name()] = schema
	}
	return compiled, nil
}

func (s *Server) validateToolInput(name string, input json.RawMessage) error {
	schema, ok := s.toolSchemas[name]
	if !ok || schema == nil {
		return nil
	}
	var payload any
	if err := json.Unmarshal(input, &payload); err != nil {
		return err
	}
	return schema.Validate(payload)
}

const wsRequestSchema = `{
  "type": "object",
  "required": ["type", "id", "method"],
  "properties": {
    "type": { "const": "req" },
    "id": { "type": "string", "minLength": 1 },
    "method": { "type": "string", "minLength": 1 },
    "params": {}
  },
  "additionalProperties": true
}`

const wsHelloParamsSchema = `{
  "type": "object",
  "properties": {
    "minProtocol": { "type": "integer", "minimum": 1 },
    "maxProtocol": { "type": "integer", "minimum": 1 },
    "client": {
      "type": "object",
      "properties": {
        "id": { "type": "string" },
        "version": { "type": "string" },
        "platform": { "type": "string" }
      },
      "additionalProperties": true
    }
  },
  "additionalProperties": true
}`

const wsPingParamsSchema = `{
  "type": "object",
  "additionalProperties": true
}`

const wsInvokeParamsSchema = `{
  "type": "object",
  "required": ["tool"],
  "properties": {
    "tool": { "type": "string", "minLength": 1 },
    "input": { "type": "object" }
  },
  "additionalProperties": true
}`
