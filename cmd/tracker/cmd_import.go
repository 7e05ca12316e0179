package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/TiredEspressoBean/AmbacQualityManagementService-sub005/internal/export"
)

var importFormat string

// importCmd creates records from an exported file.
var importCmd = &cobra.Command{
	Use:   "import <resource> <file>",
	Short: "Create records from a CSV or JSON file",
	Long: `Reads records from a file and creates them one by one through the
backend's create endpoint. Any "id" column is dropped so the backend
assigns fresh identifiers. The format is inferred from the file
extension unless --format says otherwise.

Example:
  tracker import work-orders orders.csv`,
	Args: cobra.ExactArgs(2),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importFormat, "format", "", "Input format: csv or json (default: by extension)")
}

func runImport(cmd *cobra.Command, args []string) error {
	res, err := lookupResource(args[0])
	if err != nil {
		return err
	}
	path := args[1]

	name := importFormat
	if name == "" {
		if strings.EqualFold(filepath.Ext(path), ".json") {
			name = "json"
		} else {
			name = "csv"
		}
	}
	format, err := export.ParseFormat(name)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	client, err := newAPIClient()
	if err != nil {
		return err
	}
	n, err := export.Import(cmd.Context(), client, f, format, res, logger)
	if err != nil {
		return fmt.Errorf("import %s: %w (%d records created before the failure)", res.Name, err, n)
	}

	logger.Info("import complete", zap.String("resource", res.Name), zap.Int("records", n))
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d records into %s\n", n, res.Name)
	return nil
}
