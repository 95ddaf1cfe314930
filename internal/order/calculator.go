package order

import (
	"errors"
	"fmt"
	"math"

	"cafeteria-planner/internal/menu"
	"cafeteria-planner/internal/recipe"
)

// metricFactor converts g to kg and ml to l.
const metricFactor = 1000

var (
	ErrNegativeHeadcount   = errors.New("headcount must not be negative")
	ErrMalformedIngredient = errors.New("malformed ingredient")
)

// Item is one line of the consolidated shopping list.
type Item struct {
	Name     string  `json:"name"`
	Unit     string  `json:"unit"`
	Quantity float64 `json:"quantity"`
}

// WarningKind classifies a non-fatal problem found while calculating.
type WarningKind string

const WarningMissingRecipe WarningKind = "missing_recipe"

// Warning reports a slot that contributed nothing.
type Warning struct {
	Kind    WarningKind  `json:"kind"`
	Day     menu.Weekday `json:"day"`
	Slot    menu.Slot    `json:"slot"`
	Recipe  string       `json:"recipe"`
	Message string       `json:"message"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s %s: recipe %q not found in catalog", w.Day, w.Slot, w.Recipe)
}

// Result is the output of a calculation.
type Result struct {
	Items    []Item    `json:"items"`
	Warnings []Warning `json:"warnings,omitempty"`
}

// Calculator aggregates ingredient quantities for a weekly menu. It holds only
// its rules and is safe for concurrent use.
type Calculator struct {
	rules      Rules
	fruitNames map[string]struct{}
	eggNames   map[string]struct{}
	promotions map[string]string
}

// NewCalculator builds a Calculator. Zero fields of rules take their defaults.
func NewCalculator(rules Rules) *Calculator {
	rules = rules.withDefaults()
	promotions := make(map[string]string, len(rules.Promotions))
	for from, to := range rules.Promotions {
		promotions[normalizeKey(from)] = to
	}
	return &Calculator{
		rules:      rules,
		fruitNames: keySet(rules.FruitNames),
		eggNames:   keySet(rules.EggNames),
		promotions: promotions,
	}
}

// Rules returns the effective rules.
func (c *Calculator) Rules() Rules { return c.rules }

// IsFruit reports whether r contributes one unit per person.
func (c *Calculator) IsFruit(r recipe.Recipe) bool {
	if r.Category == recipe.CategoryFruit {
		return true
	}
	_, ok := c.fruitNames[normalizeKey(r.Name)]
	return ok
}

type aggregateKey struct {
	name string
	unit string
}

type aggregate struct {
	aggregateKey
	total float64
}

// Calculate consolidates the ingredients of every recipe assigned on the days
// selected by filter, scaled by headcount. Recipes are resolved by exact name,
// first match wins; unresolved names are reported as warnings. Neither catalog
// nor m is modified.
func (c *Calculator) Calculate(catalog []recipe.Recipe, m menu.WeeklyMenu, headcount int, filter menu.DayFilter) (Result, error) {
	if headcount < 0 {
		return Result{}, fmt.Errorf("%w: %d", ErrNegativeHeadcount, headcount)
	}

	index := make(map[string]int, len(catalog))
	for i, r := range catalog {
		if _, dup := index[r.Name]; !dup {
			index[r.Name] = i
		}
	}

	var (
		ordered  []*aggregate
		byKey    = make(map[aggregateKey]*aggregate)
		warnings []Warning
		people   = float64(headcount)
	)

	for _, day := range m.Selected(filter) {
		for _, slot := range menu.Slots {
			name := day.Get(slot)
			if name == "" {
				continue
			}
			i, ok := index[name]
			if !ok {
				w := Warning{Kind: WarningMissingRecipe, Day: day.Day, Slot: slot, Recipe: name}
				w.Message = w.String()
				warnings = append(warnings, w)
				continue
			}

			rec := catalog[i]
			fruit := c.IsFruit(rec)
			for j, ing := range rec.Ingredients {
				if err := ing.Validate(); err != nil {
					return Result{}, fmt.Errorf("%w: recipe %q ingredient %d: %v", ErrMalformedIngredient, rec.Name, j, err)
				}

				key := aggregateKey{name: normalizeKey(ing.Name), unit: normalizeKey(ing.Unit)}
				agg, seen := byKey[key]
				if !seen {
					agg = &aggregate{aggregateKey: key}
					byKey[key] = agg
					ordered = append(ordered, agg)
				}

				perPerson := ing.Quantity
				if fruit {
					perPerson = 1
				}
				agg.total += perPerson * people
			}
		}
	}

	items := make([]Item, 0, len(ordered))
	for _, agg := range ordered {
		items = append(items, c.finalize(agg))
	}
	return Result{Items: items, Warnings: warnings}, nil
}

// finalize applies the egg-count conversion or, failing that, unit promotion.
func (c *Calculator) finalize(agg *aggregate) Item {
	item := Item{Name: agg.name, Unit: agg.unit, Quantity: agg.total}

	if _, egg := c.eggNames[agg.name]; egg && agg.unit == normalizeKey(c.rules.EggMassUnit) {
		item.Unit = c.rules.CountUnit
		item.Quantity = math.Ceil(roundQuantity(agg.total / c.rules.GramsPerEgg))
		return item
	}

	if roundQuantity(agg.total) >= c.rules.PromotionThreshold {
		if coarser, ok := c.promotions[agg.unit]; ok {
			item.Unit = coarser
			item.Quantity = agg.total / metricFactor
		}
	}
	item.Quantity = roundQuantity(item.Quantity)
	return item
}

// roundQuantity drops floating point noise from sums like 0.1+0.2.
func roundQuantity(q float64) float64 {
	return math.Round(q*1e6) / 1e6
}
