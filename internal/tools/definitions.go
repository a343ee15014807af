package tools

import "github.com/samiralibabic/rexterm/internal/protocol"

// Tool names, descriptions and schemas are a public contract with clients.

func typeDefinition() protocol.ToolDefinition {
	return protocol.ToolDefinition{
		Name:        ToolType,
		Description: "Send text input to the terminal. The text is written directly to the terminal as if typed by a user.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"text": map[string]any{
					"type":        "string",
					"description": "The text to type into the terminal",
				},
			},
			"required": []string{"text"},
		},
	}
}

func sendKeyDefinition() protocol.ToolDefinition {
	return protocol.ToolDefinition{
		Name: ToolSendKey,
		Description: "Send a special key or key combination to the terminal. Supports keys like Enter, Tab, Escape, " +
			"arrow keys (Up, Down, Left, Right), function keys (F1-F12), and control combinations (Ctrl+C, Ctrl+D, etc.).",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"key": map[string]any{
					"type": "string",
					"description": "The key to send. Examples: 'Enter', 'Tab', 'Escape', 'Up', 'Down', 'Left', 'Right', " +
						"'Ctrl+C', 'Ctrl+D', 'Ctrl+Z', 'F1', 'Home', 'End', 'PageUp', 'PageDown', 'Backspace', 'Delete'",
				},
			},
			"required": []string{"key"},
		},
	}
}

func getContentDefinition() protocol.ToolDefinition {
	return protocol.ToolDefinition{
		Name:        ToolGetContent,
		Description: "Get the current terminal buffer content as plain text. Returns the visible screen content without ANSI escape codes.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"start_row": map[string]any{
					"type":        "integer",
					"description": "Starting row (0-indexed). If not specified, starts from the first row.",
					"minimum":     0,
				},
				"end_row": map[string]any{
					"type":        "integer",
					"description": "Ending row (exclusive). If not specified, includes all rows to the end.",
					"minimum":     0,
				},
				"include_trailing_whitespace": map[string]any{
					"type":        "boolean",
					"description": "Whether to include trailing whitespace in the output. Default is false.",
					"default":     false,
				},
			},
		},
	}
}

func takeScreenshotDefinition() protocol.ToolDefinition {
	return protocol.ToolDefinition{
		Name: ToolTakeScreenshot,
		Description: "Capture the current terminal state as text. By default includes ANSI escape codes for colors " +
			"and formatting. Use format='plain' for plain text without escape codes.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"format": map[string]any{
					"type":        "string",
					"description": "Output format: 'ansi' (default) includes color codes, 'plain' is plain text only",
					"enum":        []string{FormatANSI, FormatPlain},
					"default":     FormatANSI,
				},
			},
		},
	}
}

func clearDefinition() protocol.ToolDefinition {
	return protocol.ToolDefinition{
		Name:        ToolClear,
		Description: "Clear the terminal screen and move cursor to the top-left position.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
	}
}
