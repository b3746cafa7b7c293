package computer

// SchemaJSON defines the JSON schema for computer tool input.
const SchemaJSON = `{
  "type": "object",
  "properties": {
    "action": {
      "type": "string",
      "description": "Computer use action to execute.",
      "enum": [
        "key",
        "type",
        "mouse_move",
        "left_click",
        "left_click_drag",
        "right_click",
        "middle_click",
        "double_click",
        "screenshot",
        "cursor_position"
      ]
    },
    "coordinate": {
      "type": "array",
      "items": {"type": "integer", "minimum": 0},
      "minItems": 2,
      "maxItems": 2,
      "description": "Target coordinate [x,y] in the logical space."
    },
    "text": {
      "type": "string",
      "description": "Text payload for key/type actions."
    }
  },
  "required": ["action"],
  "additionalProperties": false
}`
