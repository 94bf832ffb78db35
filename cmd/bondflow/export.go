package main

import (
	"fmt"
	"log/slog"

	"github.com/jqliu/bondflow/internal/cli"
	"github.com/jqliu/bondflow/internal/export"
	"github.com/jqliu/bondflow/internal/service"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored bonds to CSV",
		Long: `Export previously fetched bonds from the local database to a CSV report.

Filters apply to the stored records, so repeated fetches can be sliced by
type or year without hitting the API again.`,
		RunE: runExport,
	}

	cmd.Flags().StringP("bond-type", "t", "", "filter by bond type name (e.g. \"Treasury Bond\")")
	cmd.Flags().StringP("year", "y", "", "filter by issue year")
	cmd.Flags().String("issuer", "", "filter by issuer substring")
	cmd.Flags().Int("limit", 0, "maximum records to export (0 = all)")
	cmd.Flags().StringP("output-dir", "o", "data", "directory for the CSV report")
	cmd.Flags().String("output", "", "report filename (default: generated with timestamp)")

	_ = viper.BindPFlag("export.bond_type", cmd.Flags().Lookup("bond-type"))
	_ = viper.BindPFlag("export.year", cmd.Flags().Lookup("year"))
	_ = viper.BindPFlag("export.issuer", cmd.Flags().Lookup("issuer"))
	_ = viper.BindPFlag("export.limit", cmd.Flags().Lookup("limit"))
	_ = viper.BindPFlag("export.output_dir", cmd.Flags().Lookup("output-dir"))
	_ = viper.BindPFlag("export.output", cmd.Flags().Lookup("output"))

	return cmd
}

func runExport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	query := service.BondQuery{
		BondType:  viper.GetString("export.bond_type"),
		IssueYear: viper.GetString("export.year"),
		Issuer:    viper.GetString("export.issuer"),
		Limit:     viper.GetInt("export.limit"),
	}

	bonds, err := store.ListBonds(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to list bonds: %w", err)
	}

	if len(bonds) == 0 {
		slog.Warn(cli.FormatWarning("No stored bonds matched the filter"))
		return nil
	}

	path, err := export.Write(bonds, export.WriteOptions{
		Directory: viper.GetString("export.output_dir"),
		Filename:  viper.GetString("export.output"),
		Label:     query.IssueYear,
	})
	if err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}

	slog.Info(cli.FormatSuccess("Report written"), "path", path, "records", len(bonds))
	return nil
}
