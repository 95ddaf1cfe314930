package recipe

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ErrUnknownCategory is returned when a category label matches no alias.
var ErrUnknownCategory = errors.New("unknown recipe category")

// categoryAliases is keyed by the accent-folded, lowercased label.
var categoryAliases = map[string]Category{
	"main":           CategoryMain,
	"principal":      CategoryMain,
	"side":           CategorySide,
	"acompanamiento": CategorySide,
	"guarnicion":     CategorySide,
	"dessert":        CategoryDessert,
	"postre":         CategoryDessert,
	"fruit":          CategoryFruit,
	"fruta":          CategoryFruit,
}

// RawIngredient is the loose shape ingredients arrive in from bundled data, user
// uploads and older exports. The name may be under any of three labels.
type RawIngredient struct {
	Name        string   `json:"name"`
	Nombre      string   `json:"nombre"`
	Ingrediente string   `json:"ingrediente"`
	Unit        string   `json:"unit"`
	Unidad      string   `json:"unidad"`
	Quantity    *float64 `json:"quantity"`
	Cantidad    *float64 `json:"cantidad"`
}

// Raw is an ingest record before normalisation.
type Raw struct {
	Name         string          `json:"name"`
	Nombre       string          `json:"nombre"`
	Category     string          `json:"category"`
	Tipo         string          `json:"tipo"`
	Ingredients  []RawIngredient `json:"ingredients"`
	Ingredientes []RawIngredient `json:"ingredientes"`
}

// FoldAccents strips combining marks, so "Acompañamiento" becomes "Acompanamiento".
func FoldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// NormalizeCategory maps any spelling of a category label to its canonical value.
func NormalizeCategory(label string) (Category, error) {
	key := strings.ToLower(FoldAccents(strings.TrimSpace(label)))
	key = strings.Join(strings.Fields(key), " ")
	if c, ok := categoryAliases[key]; ok {
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, label)
}

// Normalize turns an ingest record into a canonical, validated Recipe.
func Normalize(raw Raw) (Recipe, error) {
	name := strings.TrimSpace(firstNonEmpty(raw.Name, raw.Nombre))

	category, err := NormalizeCategory(firstNonEmpty(raw.Category, raw.Tipo))
	if err != nil {
		return Recipe{}, fmt.Errorf("%w: %q: %v", ErrInvalidRecipe, name, err)
	}

	rawIngredients := raw.Ingredients
	if len(rawIngredients) == 0 {
		rawIngredients = raw.Ingredientes
	}

	rec := Recipe{
		Name:        name,
		Category:    category,
		Ingredients: make([]Ingredient, 0, len(rawIngredients)),
	}
	for _, ri := range rawIngredients {
		rec.Ingredients = append(rec.Ingredients, ri.normalize())
	}

	if err := rec.Validate(); err != nil {
		return Recipe{}, err
	}
	return rec, nil
}

// NormalizeAll normalises every record, failing on the first bad one.
func NormalizeAll(raws []Raw) ([]Recipe, error) {
	recipes := make([]Recipe, 0, len(raws))
	for i, raw := range raws {
		rec, err := Normalize(raw)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		recipes = append(recipes, rec)
	}
	return recipes, nil
}

// DecodeRaw reads a JSON array of ingest records.
func DecodeRaw(r io.Reader) ([]Raw, error) {
	var raws []Raw
	if err := json.NewDecoder(r).Decode(&raws); err != nil {
		return nil, fmt.Errorf("failed to decode recipes: %w", err)
	}
	return raws, nil
}

func (ri RawIngredient) normalize() Ingredient {
	ing := Ingredient{
		Name: strings.TrimSpace(firstNonEmpty(ri.Name, ri.Nombre, ri.Ingrediente)),
		Unit: strings.TrimSpace(firstNonEmpty(ri.Unit, ri.Unidad)),
	}
	// A missing quantity contributes nothing.
	switch {
	case ri.Quantity != nil:
		ing.Quantity = *ri.Quantity
	case ri.Cantidad != nil:
		ing.Quantity = *ri.Cantidad
	}
	return ing
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
