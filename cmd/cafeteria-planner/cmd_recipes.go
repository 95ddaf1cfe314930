package main

import (
	"fmt"
	"text/tabwriter"

	"cafeteria-planner/internal/app"
	"cafeteria-planner/internal/recipe"

	"github.com/spf13/cobra"
)

var recipesCmd = &cobra.Command{
	Use:   "recipes",
	Short: "List the recipe catalog",
	Long: `List preloaded and user recipes with the index used by the API to edit them.

Examples:
  cafeteria-planner recipes
  cafeteria-planner recipes --category postre`,
	RunE: runRecipes,
}

var recipesCategory string

func init() {
	rootCmd.AddCommand(recipesCmd)

	recipesCmd.Flags().StringVar(&recipesCategory, "category", "", "Only list this category (main, side, dessert, fruit or the Spanish names)")
}

func runRecipes(cmd *cobra.Command, args []string) error {
	var category recipe.Category
	if recipesCategory != "" {
		c, err := recipe.NormalizeCategory(recipesCategory)
		if err != nil {
			return err
		}
		category = c
	}

	return withApp(cmd.Context(), func(a *app.App) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "INDEX\tCATEGORY\tNAME\tORIGIN\tINGREDIENTS")
		for i, e := range a.Recipes() {
			if category != "" && e.Category != category {
				continue
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\n", i, e.Category, e.Name, e.Origin, len(e.Ingredients))
		}
		return w.Flush()
	})
}
