package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cartwise/cart-optimizer/internal/handlers"
)

var strategiesOutput string

// strategiesCmd represents the strategies command
var strategiesCmd = &cobra.Command{
	Use:   "strategies",
	Short: "List the available optimization strategies",
	RunE:  runStrategies,
}

func init() {
	rootCmd.AddCommand(strategiesCmd)

	strategiesCmd.Flags().StringVar(&strategiesOutput, "output", "table", "Output format: table or json")
}

func runStrategies(cmd *cobra.Command, args []string) error {
	if strategiesOutput == "json" {
		return printJSON(handlers.StrategyCatalog)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TYPE\tNAME\tDESCRIPTION")
	for _, s := range handlers.StrategyCatalog {
		fmt.Fprintf(w, "%s\t%s\t%s\n", s.Type, s.Name, s.Description)
	}
	return w.Flush()
}
