package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TiredEspressoBean/AmbacQualityManagementService-sub005/internal/resources"
)

// resourcesCmd prints the collection registry.
var resourcesCmd = &cobra.Command{
	Use:   "resources",
	Short: "List the collections this client knows",
	RunE:  runResources,
}

func runResources(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%-18s %-18s %-8s %s\n", "NAME", "TITLE", "COLUMNS", "ACTIONS")
	for _, res := range resources.Builtin() {
		actions := []string{"view", "export"}
		if res.CanDelete {
			actions = append(actions, "delete")
		}
		fmt.Fprintf(w, "%-18s %-18s %-8d %s\n",
			res.Name, res.Title, len(res.Columns), strings.Join(actions, ","))
	}
	return nil
}
