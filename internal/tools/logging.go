package tools

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	report_tool_call   = "tool.call"
	report_tool_failed = "tool.failed"
)

// logged reports every call of a tool with its arguments and duration, failures are reported as
// warnings under the same call id.
func (t Toolset) logged(name string, handler server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		callId := uuid.NewString()
		t.tel.ReportDebug(report_tool_call, name, callId, req.GetArguments())

		start := time.Now()
		result, err := handler(ctx, req)
		duration := time.Since(start).String()

		if err != nil {
			t.tel.ReportWarning(report_tool_failed, name, callId, err, duration)
			return result, err
		}
		if result != nil && result.IsError {
			t.tel.ReportWarning(report_tool_failed, name, callId, resultText(result), duration)
			return result, nil
		}

		t.tel.ReportDebug(report_tool_call, name, callId, "completed", duration)
		return result, nil
	}
}

func resultText(result *mcp.CallToolResult) string {
	for _, content := range result.Content {
		if text, ok := content.(mcp.TextContent); ok {
			return text.Text
		}
	}
	return ""
}
