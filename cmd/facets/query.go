// Query command for the facets CLI.
package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/facets/pkg/types"
)

var (
	queryTypes     string
	queryScope     string
	queryProject   string
	queryTab       string
	queryFilters   []string
	queryInherited bool
	queryGroupBy   string
)

var queryCmd = &cobra.Command{
	Use:   "query <workspace-id>",
	Short: "Find entities by property values",
	Long: `Find entities by property values.

Each --filter is <definition-id>:<operator>[:<value>] with operator one of
equals, not_equals, contains, is_empty or is_not_empty. Filters are combined
with AND. With --group-by the matches are grouped by that property's value.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filters, err := parseFilters(queryFilters)
		if err != nil {
			return err
		}
		p := types.QueryEntitiesParams{
			WorkspaceID:      args[0],
			EntityTypes:      parseEntityTypes(queryTypes),
			Scope:            types.ScopeKind(queryScope),
			ProjectID:        queryProject,
			TabID:            queryTab,
			Properties:       filters,
			IncludeInherited: queryInherited,
		}
		return withSession(cmd.Context(), func(s *session) error {
			if queryGroupBy != "" {
				return printResult(cmd.OutOrStdout(), s.actions.QueryEntitiesGroupedBy(s.ctx, p, queryGroupBy))
			}
			return printResult(cmd.OutOrStdout(), s.actions.QueryEntities(s.ctx, p))
		})
	},
}

// parseFilters turns "<definition-id>:<operator>[:<value>]" arguments into
// property filters. Values are decoded as JSON, except for contains which
// always takes the raw text.
func parseFilters(args []string) ([]types.PropertyFilter, error) {
	out := make([]types.PropertyFilter, 0, len(args))
	for _, a := range args {
		parts := strings.SplitN(a, ":", 3)
		if len(parts) < 2 || parts[0] == "" {
			return nil, fmt.Errorf("filter %q must be <definition-id>:<operator>[:<value>]", a)
		}
		f := types.PropertyFilter{PropertyDefinitionID: parts[0], Operator: types.FilterOperator(parts[1])}
		switch {
		case len(parts) < 3:
		case f.Operator == types.OpContains:
			f.Value = parts[2]
		default:
			f.Value = parseValue(parts[2])
		}
		out = append(out, f)
	}
	return out, nil
}

func init() {
	queryCmd.Flags().StringVar(&queryTypes, "types", "", "comma-separated entity types (default all)")
	queryCmd.Flags().StringVar(&queryScope, "scope", string(types.ScopeAll), "all, project or tab")
	queryCmd.Flags().StringVar(&queryProject, "project", "", "project id for --scope project")
	queryCmd.Flags().StringVar(&queryTab, "tab", "", "tab id for --scope tab")
	queryCmd.Flags().StringArrayVar(&queryFilters, "filter", nil, "property filter (repeatable)")
	queryCmd.Flags().BoolVar(&queryInherited, "inherited", false, "match inherited values too")
	queryCmd.Flags().StringVar(&queryGroupBy, "group-by", "", "definition id to group results by")
}
