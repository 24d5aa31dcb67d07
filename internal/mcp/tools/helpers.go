package tools

import (
	"encoding/json"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// textResult returns a text-only ToolResult
func textResult(msg string) *sdkmcp.CallToolResult {
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{
			&sdkmcp.TextContent{Text: msg},
		},
	}
}

// jsonResult renders v as indented JSON text
func jsonResult(v any) *sdkmcp.CallToolResult {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return textResult(err.Error())
	}
	return textResult(string(raw))
}

// errorResult reports a tool-level failure to the client
func errorResult(msg string) *sdkmcp.CallToolResult {
	res := textResult(msg)
	res.IsError = true
	return res
}
