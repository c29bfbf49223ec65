// Package mcp serves the browser agent as a Model Context Protocol tool.
package mcp

import (
	mcpgo "github.com/mark3labs/mcp-go/mcp"
)

const (
	ToolName = "run_browser_agent"

	defaultServerName = "mcp_browser_use"
)

type ServerInfo struct {
	Name    string
	Version string
}

func runBrowserAgentTool() mcpgo.Tool {
	return mcpgo.NewTool(ToolName,
		mcpgo.WithDescription("Run a browser agent on a task. The agent drives a real browser step by step "+
			"and returns the final result text."),
		mcpgo.WithString("task",
			mcpgo.Required(),
			mcpgo.Description("The main instruction or goal for the agent."),
		),
		mcpgo.WithString("add_infos",
			mcpgo.Description("Additional information or context for the agent."),
			mcpgo.DefaultString(""),
		),
	)
}
