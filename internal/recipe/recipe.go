package recipe

import (
	"errors"
	"fmt"
	"strings"
)

// Category classifies a recipe by the menu slot it is meant to fill.
type Category string

const (
	CategoryMain    Category = "main"
	CategorySide    Category = "side"
	CategoryDessert Category = "dessert"
	CategoryFruit   Category = "fruit"
)

// Categories lists every valid category in display order.
var Categories = []Category{CategoryMain, CategorySide, CategoryDessert, CategoryFruit}

// ErrInvalidRecipe is wrapped by every validation failure.
var ErrInvalidRecipe = errors.New("invalid recipe")

// Ingredient is a per-person quantity of a single ingredient.
type Ingredient struct {
	Name     string  `json:"name"`
	Unit     string  `json:"unit"`
	Quantity float64 `json:"quantity"`
}

// Recipe is the canonical record held by the catalog and consumed by the calculator.
type Recipe struct {
	Name        string       `json:"name"`
	Category    Category     `json:"category"`
	Ingredients []Ingredient `json:"ingredients"`
}

// Validate checks the record is usable by the order calculator.
func (r Recipe) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidRecipe)
	}
	if !r.Category.Valid() {
		return fmt.Errorf("%w: %q has unknown category %q", ErrInvalidRecipe, r.Name, r.Category)
	}
	for i, ing := range r.Ingredients {
		if err := ing.Validate(); err != nil {
			return fmt.Errorf("%w: %q ingredient %d: %v", ErrInvalidRecipe, r.Name, i, err)
		}
	}
	return nil
}

// Clone returns a deep copy so callers can't mutate shared ingredient slices.
func (r Recipe) Clone() Recipe {
	out := r
	if r.Ingredients != nil {
		out.Ingredients = make([]Ingredient, len(r.Ingredients))
		copy(out.Ingredients, r.Ingredients)
	}
	return out
}

// Validate reports a missing name or unit, or a negative quantity.
func (i Ingredient) Validate() error {
	switch {
	case strings.TrimSpace(i.Name) == "":
		return errors.New("empty ingredient name")
	case strings.TrimSpace(i.Unit) == "":
		return fmt.Errorf("ingredient %q has empty unit", i.Name)
	case i.Quantity < 0:
		return fmt.Errorf("ingredient %q has negative quantity %v", i.Name, i.Quantity)
	}
	return nil
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryMain, CategorySide, CategoryDessert, CategoryFruit:
		return true
	}
	return false
}
