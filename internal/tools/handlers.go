package tools

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/samiralibabic/rexterm/internal/keys"
	"github.com/samiralibabic/rexterm/internal/protocol"
	"github.com/samiralibabic/rexterm/internal/terminal"
)

const (
	ToolType           = "type"
	ToolSendKey        = "sendKey"
	ToolGetContent     = "getContent"
	ToolTakeScreenshot = "takeScreenshot"
	ToolClear          = "clear"
)

const (
	FormatANSI  = "ansi"
	FormatPlain = "plain"
)

type typeArgs struct {
	Text *string `json:"text"`
}

type sendKeyArgs struct {
	Key *string `json:"key"`
}

type getContentArgs struct {
	StartRow                  *int `json:"start_row"`
	EndRow                    *int `json:"end_row"`
	IncludeTrailingWhitespace bool `json:"include_trailing_whitespace"`
}

type screenshotArgs struct {
	Format string `json:"format"`
}

func handleType(r *Registry, raw json.RawMessage) (protocol.CallToolResult, error) {
	args, err := decodeArgs[typeArgs](ToolType, raw)
	if err != nil {
		return protocol.CallToolResult{}, err
	}
	if args.Text == nil {
		return protocol.CallToolResult{}, &ArgsError{Tool: ToolType, Err: errors.New("missing field `text`")}
	}
	n, err := r.engine.WriteString(*args.Text)
	r.wrote(n)
	if err != nil {
		return protocol.ErrorResult(fmt.Sprintf("Failed to write to terminal: %v", err)), nil
	}
	return protocol.TextResult(fmt.Sprintf("Typed %d characters", len(*args.Text))), nil
}

func handleSendKey(r *Registry, raw json.RawMessage) (protocol.CallToolResult, error) {
	args, err := decodeArgs[sendKeyArgs](ToolSendKey, raw)
	if err != nil {
		return protocol.CallToolResult{}, err
	}
	if args.Key == nil {
		return protocol.CallToolResult{}, &ArgsError{Tool: ToolSendKey, Err: errors.New("missing field `key`")}
	}
	if err := r.engine.SendKey(*args.Key); err != nil {
		return protocol.ErrorResult(fmt.Sprintf("Failed to send key: %v", err)), nil
	}
	r.wrote(len(keys.Encode(*args.Key)))
	return protocol.TextResult("Sent key: " + *args.Key), nil
}

func handleGetContent(r *Registry, raw json.RawMessage) (protocol.CallToolResult, error) {
	args, err := decodeArgs[getContentArgs](ToolGetContent, raw)
	if err != nil {
		return protocol.CallToolResult{}, err
	}
	if err := nonNegative("start_row", args.StartRow); err != nil {
		return protocol.CallToolResult{}, err
	}
	if err := nonNegative("end_row", args.EndRow); err != nil {
		return protocol.CallToolResult{}, err
	}

	var content string
	switch {
	case args.StartRow != nil && args.EndRow != nil:
		content = r.engine.ContentRange(*args.StartRow, *args.EndRow)
	case args.StartRow != nil:
		_, rows := r.engine.Size()
		content = r.engine.ContentRange(*args.StartRow, rows)
	case args.EndRow != nil:
		content = r.engine.ContentRange(0, *args.EndRow)
	default:
		content = r.engine.Content()
	}
	if !args.IncludeTrailingWhitespace {
		content = terminal.CleanOutput(content)
	}
	return protocol.TextResult(content), nil
}

func nonNegative(field string, v *int) error {
	if v != nil && *v < 0 {
		return &ArgsError{Tool: ToolGetContent, Err: fmt.Errorf("%s must be >= 0, got %d", field, *v)}
	}
	return nil
}

func handleTakeScreenshot(r *Registry, raw json.RawMessage) (protocol.CallToolResult, error) {
	args, err := decodeArgs[screenshotArgs](ToolTakeScreenshot, raw)
	if err != nil {
		return protocol.CallToolResult{}, err
	}
	if args.Format == FormatPlain {
		return protocol.TextResult(r.engine.Content()), nil
	}

	shot, row, col := r.engine.Snapshot()
	cols, rows := r.engine.Size()
	var b strings.Builder
	fmt.Fprintf(&b, "Terminal: %dx%d | Cursor: (%d, %d)\n", cols, rows, row, col)
	b.WriteString(strings.Repeat("─", cols))
	b.WriteByte('\n')
	b.WriteString(shot)
	return protocol.TextResult(b.String()), nil
}

func handleClear(r *Registry, raw json.RawMessage) (protocol.CallToolResult, error) {
	if _, err := decodeArgs[struct{}](ToolClear, raw); err != nil {
		return protocol.CallToolResult{}, err
	}
	if err := r.engine.Clear(); err != nil {
		return protocol.ErrorResult(fmt.Sprintf("Failed to clear terminal: %v", err)), nil
	}
	r.wrote(len(terminal.ClearSequence))
	return protocol.TextResult("Terminal cleared"), nil
}
