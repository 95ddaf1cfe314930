package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"cafeteria-planner/internal/app"
	"cafeteria-planner/internal/export"
	"cafeteria-planner/internal/history"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List saved orders",
	Long: `List the orders saved for a user, newest first, optionally bounded by
date (YYYY-MM-DD, inclusive) and exported to xlsx.

Examples:
  cafeteria-planner history --user cocina
  cafeteria-planner history --user cocina --from 2024-03-01 --to 2024-03-31 --xlsx marzo.xlsx`,
	RunE: runHistory,
}

var (
	historyUser     string
	historyFrom     string
	historyTo       string
	historyXLSXPath string
)

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().StringVar(&historyUser, "user", "", "History owner")
	historyCmd.Flags().StringVar(&historyFrom, "from", "", "First day (YYYY-MM-DD)")
	historyCmd.Flags().StringVar(&historyTo, "to", "", "Last day (YYYY-MM-DD)")
	historyCmd.Flags().StringVar(&historyXLSXPath, "xlsx", "", "Also write the history to this xlsx file")
	_ = historyCmd.MarkFlagRequired("user")
}

func runHistory(cmd *cobra.Command, args []string) error {
	rng, err := history.ParseRange(historyFrom, historyTo)
	if err != nil {
		return err
	}

	return withApp(cmd.Context(), func(a *app.App) error {
		recs, err := a.History(cmd.Context(), historyUser, rng)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "DATE\tHEADCOUNT\tDAYS\tITEMS")
		for _, r := range recs {
			fmt.Fprintf(w, "%s\t%d\t%s\t%d\n", r.CreatedAt.Format("2006-01-02 15:04"), r.Headcount, r.DayFilter, len(r.Items))
		}
		if err := w.Flush(); err != nil {
			return err
		}

		if historyXLSXPath == "" {
			return nil
		}
		return writeFile(historyXLSXPath, func(w io.Writer) error {
			return export.WriteHistory(w, recs)
		})
	})
}
