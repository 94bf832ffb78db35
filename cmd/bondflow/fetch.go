package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jqliu/bondflow/internal/chinamoney"
	"github.com/jqliu/bondflow/internal/cli"
	"github.com/jqliu/bondflow/internal/common"
	"github.com/jqliu/bondflow/internal/export"
	"github.com/jqliu/bondflow/internal/model"
	"github.com/jqliu/bondflow/internal/service"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func fetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch bond listings from chinamoney",
		Long: `Fetch bond listings from the chinamoney market API.

This command pages through the listing endpoint for the chosen bond type and
issue year, stores the records in the local database (deduplicated), and
writes them to a CSV report.`,
		RunE: runFetch,
	}

	// Filter flags
	cmd.Flags().StringP("bond-type", "t", chinamoney.TreasuryBondCode, "bond type code (see 'bondflow types')")
	cmd.Flags().StringP("year", "y", fmt.Sprintf("%d", time.Now().Year()), "issue year")
	cmd.Flags().String("issuer", "", "filter by issuing entity")

	// Pagination flags
	cmd.Flags().Int("page-size", chinamoney.DefaultPageSize, "records per page")
	cmd.Flags().Int("max-pages", 0, "maximum pages to fetch (0 = unlimited)")
	cmd.Flags().Int("retries", 1, "attempts per page request (1 = fail fast)")

	// Output flags
	cmd.Flags().StringP("output-dir", "o", "data", "directory for the CSV report")
	cmd.Flags().String("output", "", "report filename (default: generated with timestamp)")
	cmd.Flags().Bool("dry-run", false, "show the summary without saving anything")
	cmd.Flags().Bool("no-save", false, "skip the local database, only write CSV")

	// Bind to viper
	_ = viper.BindPFlag("fetch.bond_type", cmd.Flags().Lookup("bond-type"))
	_ = viper.BindPFlag("fetch.year", cmd.Flags().Lookup("year"))
	_ = viper.BindPFlag("fetch.issuer", cmd.Flags().Lookup("issuer"))
	_ = viper.BindPFlag("fetch.page_size", cmd.Flags().Lookup("page-size"))
	_ = viper.BindPFlag("fetch.max_pages", cmd.Flags().Lookup("max-pages"))
	_ = viper.BindPFlag("fetch.retries", cmd.Flags().Lookup("retries"))
	_ = viper.BindPFlag("fetch.output_dir", cmd.Flags().Lookup("output-dir"))
	_ = viper.BindPFlag("fetch.output", cmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("fetch.dry_run", cmd.Flags().Lookup("dry-run"))
	_ = viper.BindPFlag("fetch.no_save", cmd.Flags().Lookup("no-save"))

	return cmd
}

func runFetch(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	filter := model.BondFilter{
		BondType:  viper.GetString("fetch.bond_type"),
		IssueYear: viper.GetString("fetch.year"),
		Issuer:    viper.GetString("fetch.issuer"),
	}

	client, err := chinamoney.NewClient(&chinamoney.Config{
		BaseURL:   viper.GetString("api.base_url"),
		Timeout:   viper.GetDuration("api.timeout"),
		PageDelay: viper.GetDuration("api.page_delay"),
	})
	if err != nil {
		return fmt.Errorf("failed to create chinamoney client: %w", err)
	}

	typeName := chinamoney.BondTypeName(filter.BondType)
	if typeName == "" {
		typeName = filter.BondType
	}

	slog.Info(cli.FormatTitle("Fetching bond listings"))
	slog.Info("Filter", "bond_type", typeName, "issue_year", filter.IssueYear)

	startedAt := time.Now()

	var bar *progressbar.ProgressBar
	opts := chinamoney.FetchOptions{
		PageSize:    viper.GetInt("fetch.page_size"),
		MaxPages:    viper.GetInt("fetch.max_pages"),
		MaxAttempts: viper.GetInt("fetch.retries"),
		Progress: func(fetched, total int) {
			if bar == nil {
				bar = newFetchProgressBar(total)
			}
			_ = bar.Set(fetched)
		},
	}

	bonds, err := client.FetchBonds(ctx, filter, opts)
	if err != nil {
		return common.NewUserError("failed to fetch bonds", err)
	}
	if bar != nil {
		_ = bar.Finish()
	}

	if len(bonds) == 0 {
		slog.Warn(cli.FormatWarning("No bonds matched the filter"))
		return nil
	}

	// Drop anything the server returned outside the requested issue year.
	if filter.IssueYear != "" {
		bonds = filterBondsByYear(bonds, filter.IssueYear)
		if len(bonds) == 0 {
			slog.Warn(cli.FormatWarning("No bonds issued in the requested year"))
			return nil
		}
	}

	slog.Info(cli.FormatSuccess(fmt.Sprintf("Fetched %d bonds", len(bonds))))

	summary := export.Summarize(bonds)
	fmt.Fprintln(os.Stdout, cli.RenderBox(cli.ChartIcon+" Summary", summary.String()))

	if viper.GetBool("fetch.dry_run") {
		slog.Info(cli.FormatWarning("Dry run mode - not saving anything"))
		return nil
	}

	if !viper.GetBool("fetch.no_save") {
		store, storeErr := initStorage(ctx)
		if storeErr != nil {
			return fmt.Errorf("failed to open database: %w", storeErr)
		}
		defer func() { _ = store.Close() }()

		inserted, saveErr := store.SaveBonds(ctx, bonds)
		if saveErr != nil {
			return fmt.Errorf("failed to save bonds: %w", saveErr)
		}
		common.LogInfo("Saved to database", common.Fields{
			"new":        inserted,
			"duplicates": len(bonds) - inserted,
		})

		run := &service.FetchRun{
			BondType:    filter.BondType,
			IssueYear:   filter.IssueYear,
			Records:     len(bonds),
			StartedAt:   startedAt,
			CompletedAt: time.Now(),
		}
		if recErr := store.RecordFetchRun(ctx, run); recErr != nil {
			common.LogError(recErr, "Failed to record fetch run", common.Fields{
				"bond_type": filter.BondType,
				"year":      filter.IssueYear,
			})
		}
	}

	path, err := export.Write(bonds, export.WriteOptions{
		Directory: viper.GetString("fetch.output_dir"),
		Filename:  viper.GetString("fetch.output"),
		Label:     filter.IssueYear,
	})
	if err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}

	slog.Info(cli.FormatSuccess("Report written"), "path", path, "records", len(bonds))
	return nil
}

// filterBondsByYear keeps only bonds issued in the given year.
func filterBondsByYear(bonds []model.Bond, year string) []model.Bond {
	filtered := make([]model.Bond, 0, len(bonds))
	for _, b := range bonds {
		if b.IssueYear() == year {
			filtered = append(filtered, b)
		}
	}
	if dropped := len(bonds) - len(filtered); dropped > 0 {
		slog.Debug("Dropped bonds outside issue year", "year", year, "dropped", dropped)
	}
	return filtered
}

func newFetchProgressBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Fetching bonds...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(os.Stderr)
		}),
	)
}
