package main

import (
	"fmt"
	"os"
	"time"

	"github.com/jqliu/bondflow/internal/chinamoney"
	"github.com/jqliu/bondflow/internal/cli"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent fetch runs",
		RunE:  runHistory,
	}

	cmd.Flags().Int("limit", 20, "maximum runs to show")
	_ = viper.BindPFlag("history.limit", cmd.Flags().Lookup("limit"))

	return cmd
}

func runHistory(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	runs, err := store.ListFetchRuns(ctx, viper.GetInt("history.limit"))
	if err != nil {
		return fmt.Errorf("failed to list fetch runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Fprintln(os.Stdout, cli.FormatInfo("No fetch runs recorded yet"))
		return nil
	}

	fmt.Fprintln(os.Stdout, cli.TableHeaderStyle.Render(
		fmt.Sprintf("%-5s %-24s %-6s %-8s %-20s %s", "ID", "BOND TYPE", "YEAR", "RECORDS", "STARTED", "DURATION")))

	for _, run := range runs {
		typeName := chinamoney.BondTypeName(run.BondType)
		if typeName == "" {
			typeName = run.BondType
		}
		duration := run.CompletedAt.Sub(run.StartedAt).Round(time.Second)
		fmt.Fprintln(os.Stdout, cli.TableCellStyle.Render(
			fmt.Sprintf("%-5d %-24s %-6s %-8d %-20s %s",
				run.ID, typeName, run.IssueYear, run.Records,
				run.StartedAt.Format("2006-01-02 15:04:05"), duration)))
	}

	return nil
}
