package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"cafeteria-planner/internal/app"
	"cafeteria-planner/internal/export"
	"cafeteria-planner/internal/history"
	"cafeteria-planner/internal/menu"
	"cafeteria-planner/internal/order"
	"cafeteria-planner/internal/recipe"

	"github.com/spf13/cobra"
)

var calculateCmd = &cobra.Command{
	Use:   "calculate",
	Short: "Calculate the ingredient order for a weekly menu",
	Long: `Read a weekly menu (YAML or JSON, English or Spanish day and course keys)
and print the ingredients needed to serve it to the given headcount.

Examples:
  cafeteria-planner calculate --menu menu.yaml --headcount 120
  cafeteria-planner calculate --menu menu.yaml --headcount 120 --day lunes --xlsx pedido.xlsx
  cafeteria-planner calculate --menu menu.yaml --headcount 80 --recipes extra.json --save --user cocina`,
	RunE: runCalculate,
}

var (
	calcMenuPath    string
	calcHeadcount   int
	calcDay         string
	calcXLSXPath    string
	calcRecipesPath string
	calcSave        bool
	calcUser        string
)

func init() {
	rootCmd.AddCommand(calculateCmd)

	calculateCmd.Flags().StringVar(&calcMenuPath, "menu", "", "Menu file (YAML or JSON)")
	calculateCmd.Flags().IntVar(&calcHeadcount, "headcount", 0, "Number of diners")
	calculateCmd.Flags().StringVar(&calcDay, "day", "", "Single day to calculate (default whole week)")
	calculateCmd.Flags().StringVar(&calcXLSXPath, "xlsx", "", "Also write the order to this xlsx file")
	calculateCmd.Flags().StringVar(&calcRecipesPath, "recipes", "", "Extra recipes (JSON) used for this calculation only")
	calculateCmd.Flags().BoolVar(&calcSave, "save", false, "Save the order to history")
	calculateCmd.Flags().StringVar(&calcUser, "user", "cli", "History owner when --save is set")
	_ = calculateCmd.MarkFlagRequired("menu")
	_ = calculateCmd.MarkFlagRequired("headcount")
}

func runCalculate(cmd *cobra.Command, args []string) error {
	f, err := os.Open(calcMenuPath)
	if err != nil {
		return fmt.Errorf("failed to open menu: %w", err)
	}
	m, err := menu.Load(f)
	f.Close()
	if err != nil {
		return err
	}

	filter, err := menu.ParseDayFilter(calcDay)
	if err != nil {
		return err
	}

	var extra []recipe.Recipe
	if calcRecipesPath != "" {
		if extra, err = recipe.LoadFile(calcRecipesPath); err != nil {
			return err
		}
	}

	return withApp(cmd.Context(), func(a *app.App) error {
		res, _, err := a.Calculate(cmd.Context(), app.CalculateRequest{
			UserID:    calcUser,
			Source:    app.SourceCLI,
			Menu:      m,
			Headcount: calcHeadcount,
			Day:       filter,
			Save:      calcSave,
			Extra:     extra,
		})
		if err != nil {
			return err
		}

		if err := writeItemsTable(cmd.OutOrStdout(), res.Items); err != nil {
			return err
		}
		for _, w := range res.Warnings {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w.Message)
		}

		if calcXLSXPath == "" {
			return nil
		}
		return writeFile(calcXLSXPath, func(w io.Writer) error {
			return export.WriteOrder(w, res.Items)
		})
	})
}

func writeItemsTable(out io.Writer, items []order.Item) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INGREDIENT\tQUANTITY\tUNIT")
	for _, it := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\n", it.Name, history.FormatQuantity(it.Quantity), it.Unit)
	}
	return w.Flush()
}

func writeFile(path string, write func(w io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
