package tools

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/wagiedev/toolagent-go/internal/dispatch"
	"github.com/wagiedev/toolagent-go/internal/registry"
)

// Catalog is the view of the capability registry the management tools need.
type Catalog interface {
	Services() []string
	Discover(ctx context.Context, serviceID string) ([]dispatch.Descriptor, error)
	Refresh(ctx context.Context, serviceID string) ([]dispatch.Descriptor, error)
	Entry(serviceID string) (registry.Entry, bool)
}

// Management returns mcp_refresh_tools, mcp_list_operations and
// mcp_operation_info backed by catalog.
func Management(catalog Catalog) []dispatch.Descriptor {
	m := management{catalog: catalog}

	return []dispatch.Descriptor{
		{
			Name:        "mcp_refresh_tools",
			Description: "Refresh the cached list of operations offered by every configured MCP service.",
			InputSchema: &jsonschema.Schema{Type: "object", Properties: map[string]*jsonschema.Schema{}},
			Invoker:     dispatch.LocalFunc(m.refresh),
		},
		{
			Name:        "mcp_list_operations",
			Description: "List the operations offered by MCP services and their parameters.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"server_type": {
						Type:        "string",
						Description: "The service to list, or \"all\" (default) for every service.",
					},
				},
			},
			Invoker: dispatch.LocalFunc(m.list),
		},
		{
			Name:        "mcp_operation_info",
			Description: "Show the description and input parameters of one MCP operation.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"server_type": {Type: "string", Description: "The service offering the operation."},
					"operation":   {Type: "string", Description: "The operation name as listed by the service."},
				},
				Required: []string{"server_type", "operation"},
			},
			Invoker: dispatch.LocalFunc(m.info),
		},
	}
}

type management struct {
	catalog Catalog
}

func (m management) refresh(ctx context.Context, _ map[string]any) (string, error) {
	services := m.catalog.Services()
	if len(services) == 0 {
		return "No MCP services configured.", nil
	}

	lines := make([]string, 0, len(services)*4)

	for _, id := range services {
		tools, err := m.catalog.Refresh(ctx, id)
		if err == nil {
			if entry, ok := m.catalog.Entry(id); ok && entry.Err != nil {
				err = entry.Err
			}
		}

		if err != nil {
			lines = append(lines, fmt.Sprintf("%s tools discovery failed: %v", id, err))

			continue
		}

		lines = append(lines, fmt.Sprintf("%s tools discovered: %d", id, len(tools)))
		for _, tool := range tools {
			lines = append(lines, fmt.Sprintf("  - %s: %s", tool.Name, describe(tool)))
		}
	}

	return strings.Join(lines, "\n"), nil
}

func (m management) list(ctx context.Context, input map[string]any) (string, error) {
	selected, err := m.selectServices(input)
	if err != nil {
		return "", err
	}

	lines := make([]string, 0, len(selected)*8)

	for _, id := range selected {
		tools, err := m.catalog.Discover(ctx, id)
		if err == nil {
			if entry, ok := m.catalog.Entry(id); ok && entry.Err != nil {
				err = entry.Err
			}
		}

		if err != nil {
			lines = append(lines, fmt.Sprintf("%s operations discovery failed: %v", id, err))

			continue
		}

		lines = append(lines, fmt.Sprintf("%s operations (%d):", id, len(tools)))

		for _, tool := range tools {
			lines = append(lines, "  - "+tool.Name)

			if params := parameterNames(tool.InputSchema); len(params) > 0 {
				lines = append(lines, "    Parameters: "+strings.Join(params, ", "))
			}
		}

		lines = append(lines, "")
	}

	return strings.TrimRight(strings.Join(lines, "\n"), "\n"), nil
}

func (m management) selectServices(input map[string]any) ([]string, error) {
	services := m.catalog.Services()

	serverType, _ := input["server_type"].(string)
	serverType = strings.ToLower(strings.TrimSpace(serverType))

	if serverType == "" || serverType == "all" {
		if len(services) == 0 {
			return nil, fmt.Errorf("no MCP services configured")
		}

		return services, nil
	}

	if !slices.Contains(services, serverType) {
		return nil, fmt.Errorf("unsupported server type: %s (available: %s)", serverType, strings.Join(services, ", "))
	}

	return []string{serverType}, nil
}

func (m management) info(ctx context.Context, input map[string]any) (string, error) {
	selected, err := m.selectServices(input)
	if err != nil {
		return "", err
	}

	if len(selected) != 1 {
		return "", fmt.Errorf("server_type must name a single service")
	}

	id := selected[0]
	operation, _ := input["operation"].(string)

	tools, err := m.catalog.Discover(ctx, id)
	if err != nil {
		return "", err
	}

	idx := slices.IndexFunc(tools, func(d dispatch.Descriptor) bool { return d.Name == operation })
	if idx < 0 {
		names := make([]string, 0, len(tools))
		for _, tool := range tools {
			names = append(names, tool.Name)
		}

		return "", fmt.Errorf("operation %q not found; available operations: %s", operation, strings.Join(names, ", "))
	}

	tool := tools[idx]
	lines := []string{
		fmt.Sprintf("MCP %s operation: %s", id, operation),
		strings.Repeat("=", 50),
	}

	if tool.Description != "" {
		lines = append(lines, "Description: "+tool.Description)
	}

	if schema := tool.InputSchema; schema != nil && len(schema.Properties) > 0 {
		lines = append(lines, "Input schema:")

		for _, name := range parameterNames(schema) {
			prop := schema.Properties[name]

			typ := "unknown"
			if prop != nil && prop.Type != "" {
				typ = prop.Type
			}

			lines = append(lines, fmt.Sprintf("  - %s: %s", name, typ))

			if prop != nil && prop.Description != "" {
				lines = append(lines, "    Description: "+prop.Description)
			}

			required := "No"
			if slices.Contains(schema.Required, name) {
				required = "Yes"
			}

			lines = append(lines, "    Required: "+required)
		}
	}

	return strings.Join(lines, "\n"), nil
}

func describe(d dispatch.Descriptor) string {
	if d.Description == "" {
		return "No description"
	}

	return d.Description
}

func parameterNames(schema *jsonschema.Schema) []string {
	if schema == nil || len(schema.Properties) == 0 {
		return nil
	}

	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}
