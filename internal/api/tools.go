package api

import (
	"sort"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/ShayCichocki/tandem/internal/toolregistry"
)

// ToolDefinitions converts registry specs into tool schemas for the
// Messages API. Parameters and required names are emitted in sorted order.
func ToolDefinitions(specs []toolregistry.Spec) []anthropic.ToolUnionParam {
	tools := make([]anthropic.ToolUnionParam, 0, len(specs))
	for _, spec := range specs {
		tools = append(tools, anthropic.ToolUnionParam{OfTool: toolParam(spec)})
	}
	return tools
}

func toolParam(spec toolregistry.Spec) *anthropic.ToolParam {
	names := make([]string, 0, len(spec.Parameters))
	for name := range spec.Parameters {
		names = append(names, name)
	}
	sort.Strings(names)

	properties := make(map[string]interface{}, len(names))
	var required []string
	for _, name := range names {
		p := spec.Parameters[name]
		prop := map[string]interface{}{"type": string(p.Type)}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		properties[name] = prop
		if p.Required {
			required = append(required, name)
		}
	}

	return &anthropic.ToolParam{
		Name:        spec.Name,
		Description: anthropic.String(spec.Description),
		InputSchema: anthropic.ToolInputSchemaParam{
			Properties: properties,
			Required:   required,
		},
	}
}
