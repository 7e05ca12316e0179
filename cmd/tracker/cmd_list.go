package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TiredEspressoBean/AmbacQualityManagementService-sub005/internal/api"
	"github.com/TiredEspressoBean/AmbacQualityManagementService-sub005/internal/resources"
)

var (
	listSearch  string
	listOrder   string
	listFilters []string
	listLimit   int
	listOffset  int
)

// listCmd prints one page of a collection for scripted use.
var listCmd = &cobra.Command{
	Use:   "list <resource>",
	Short: "Print one page of a collection",
	Long: `Fetches a single page from the backend and prints it as a plain table.

Examples:
  tracker list work-orders
  tracker list work-orders --search turbine --order -due_date
  tracker list parts --filter status=ACTIVE --limit 50`,
	Args: cobra.ExactArgs(1),
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVar(&listSearch, "search", "", "Search term")
	listCmd.Flags().StringVar(&listOrder, "order", "", "Ordering field (prefix - for descending)")
	listCmd.Flags().StringArrayVar(&listFilters, "filter", nil, "Filter as field=value (repeatable)")
	listCmd.Flags().IntVar(&listLimit, "limit", 25, "Page size")
	listCmd.Flags().IntVar(&listOffset, "offset", 0, "Page offset")
}

func runList(cmd *cobra.Command, args []string) error {
	res, err := lookupResource(args[0])
	if err != nil {
		return err
	}
	params, err := buildParams(listSearch, listOrder, listFilters, listLimit, listOffset)
	if err != nil {
		return err
	}

	client, err := newAPIClient()
	if err != nil {
		return err
	}
	result, err := client.List(cmd.Context(), res.Path, params)
	if err != nil {
		return fmt.Errorf("list %s: %w", res.Name, err)
	}

	printTable(cmd.OutOrStdout(), res, result, params.Offset)
	return nil
}

// lookupResource resolves a registry name, listing the alternatives on a miss.
func lookupResource(name string) (resources.Resource, error) {
	res, ok := resources.Lookup(name)
	if !ok {
		known := make([]string, 0)
		for _, r := range resources.Builtin() {
			known = append(known, r.Name)
		}
		return resources.Resource{}, fmt.Errorf("unknown resource %q (known: %s)", name, strings.Join(known, ", "))
	}
	return res, nil
}

// buildParams assembles a list query from flag values.
func buildParams(search, order string, filters []string, limit, offset int) (api.ListParams, error) {
	params := api.ListParams{
		Search:   search,
		Ordering: order,
		Limit:    limit,
		Offset:   offset,
	}
	for _, f := range filters {
		field, value, ok := strings.Cut(f, "=")
		if !ok || field == "" {
			return api.ListParams{}, fmt.Errorf("bad --filter %q (want field=value)", f)
		}
		if params.Filters == nil {
			params.Filters = make(map[string]string)
		}
		params.Filters[field] = value
	}
	return params, nil
}

func printTable(w io.Writer, res resources.Resource, result *api.ListResult, offset int) {
	widths := make([]int, len(res.Columns))
	rows := make([][]string, 0, len(result.Results))
	for i, col := range res.Columns {
		widths[i] = len(col.Title)
	}
	for _, rec := range result.Results {
		row := make([]string, len(res.Columns))
		for i, col := range res.Columns {
			row[i] = col.Render(rec)
			if len(row[i]) > widths[i] {
				widths[i] = len(row[i])
			}
		}
		rows = append(rows, row)
	}

	printRow := func(cells []string) {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			parts[i] = fmt.Sprintf("%-*s", widths[i], cell)
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(parts, "  "), " "))
	}

	titles := make([]string, len(res.Columns))
	total := 0
	for i, col := range res.Columns {
		titles[i] = col.Title
		total += widths[i] + 2
	}
	printRow(titles)
	fmt.Fprintln(w, strings.Repeat("-", total-2))
	for _, row := range rows {
		printRow(row)
	}

	from := 0
	if len(result.Results) > 0 {
		from = offset + 1
	}
	fmt.Fprintf(w, "%d-%d of %d\n", from, offset+len(result.Results), result.Count)
}
