package main

import (
	"fmt"
	"os"

	"github.com/jqliu/bondflow/internal/chinamoney"
	"github.com/jqliu/bondflow/internal/cli"
	"github.com/spf13/cobra"
)

func typesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List known bond type codes",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintln(os.Stdout, cli.TableHeaderStyle.Render(fmt.Sprintf("%-8s %s", "CODE", "BOND TYPE")))
			for _, bt := range chinamoney.BondTypes {
				fmt.Fprintln(os.Stdout, cli.TableCellStyle.Render(fmt.Sprintf("%-8s %s", bt.Code, bt.Name)))
			}
		},
	}
}
