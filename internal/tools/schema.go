package tools

import "github.com/mark3labs/mcp-go/mcp"

// Shorthands over the mcp tool options used by every definition below.

func tool(name, desc string, opts ...mcp.ToolOption) mcp.Tool {
	return mcp.NewTool(name, append([]mcp.ToolOption{mcp.WithDescription(desc)}, opts...)...)
}

func str(name, desc string, opts ...mcp.PropertyOption) mcp.ToolOption {
	return mcp.WithString(name, append(opts, mcp.Description(desc))...)
}

func num(name, desc string, opts ...mcp.PropertyOption) mcp.ToolOption {
	return mcp.WithNumber(name, append(opts, mcp.Description(desc))...)
}

func boolean(name, desc string) mcp.ToolOption {
	return mcp.WithBoolean(name, mcp.Description(desc))
}

func obj(name, desc string, opts ...mcp.PropertyOption) mcp.ToolOption {
	return mcp.WithObject(name, append(opts, mcp.Description(desc))...)
}

func enum(name, desc string, values []string, opts ...mcp.PropertyOption) mcp.ToolOption {
	return mcp.WithString(name, append(opts, mcp.Description(desc), mcp.Enum(values...))...)
}

func strs(name, desc string) mcp.ToolOption {
	return mcp.WithArray(name, mcp.Description(desc), mcp.Items(map[string]any{"type": "string"}))
}

func objects(name, desc string, opts ...mcp.PropertyOption) mcp.ToolOption {
	return mcp.WithArray(name, append(opts, mcp.Description(desc), mcp.Items(map[string]any{"type": "object"}))...)
}

var required = mcp.Required

var phases = []string{"init", "research", "plan", "impl", "review"}

// workDir is the argument every state tool accepts.
func workDir() mcp.ToolOption {
	return str("workDir", "Project directory holding .oh-my-ccg/state (default: server working directory)")
}
