package order

import "strings"

// Rules is the data that drives the normalisation steps of a calculation.
type Rules struct {
	// FruitNames are recipe names (case-insensitive) that always count one
	// unit per person, whatever their category.
	FruitNames []string `yaml:"fruit_names" json:"fruit_names"`

	// EggNames are ingredient names whose mass totals are turned into a count.
	EggNames    []string `yaml:"egg_names" json:"egg_names"`
	EggMassUnit string   `yaml:"egg_mass_unit" json:"egg_mass_unit"`
	GramsPerEgg float64  `yaml:"grams_per_egg" json:"grams_per_egg"`
	CountUnit   string   `yaml:"count_unit" json:"count_unit"`

	// Promotions maps a unit to the unit a thousand times larger, applied
	// once the total reaches PromotionThreshold. The threshold only decides
	// when to promote; the quantity is always divided by 1000.
	PromotionThreshold float64           `yaml:"promotion_threshold" json:"promotion_threshold"`
	Promotions         map[string]string `yaml:"promotions" json:"promotions"`
}

// DefaultRules returns the rule set the cafeteria has always used.
func DefaultRules() Rules {
	return Rules{
		FruitNames:         []string{"banana", "manzana", "naranja", "pera", "mandarina", "ciruela"},
		EggNames:           []string{"egg", "huevo"},
		EggMassUnit:        "g",
		GramsPerEgg:        45,
		CountUnit:          "unit",
		PromotionThreshold: 1000,
		Promotions:         map[string]string{"g": "kg", "ml": "l"},
	}
}

// withDefaults fills zero fields from DefaultRules. Empty name lists are kept
// as configured so a deployment can disable the whitelist entirely.
func (r Rules) withDefaults() Rules {
	def := DefaultRules()
	if r.FruitNames == nil {
		r.FruitNames = def.FruitNames
	}
	if r.EggNames == nil {
		r.EggNames = def.EggNames
	}
	if r.EggMassUnit == "" {
		r.EggMassUnit = def.EggMassUnit
	}
	if r.GramsPerEgg <= 0 {
		r.GramsPerEgg = def.GramsPerEgg
	}
	if r.CountUnit == "" {
		r.CountUnit = def.CountUnit
	}
	if r.PromotionThreshold <= 0 {
		r.PromotionThreshold = def.PromotionThreshold
	}
	if r.Promotions == nil {
		r.Promotions = def.Promotions
	}
	return r
}

// normalizeKey is the trim+lowercase form used for aggregation identity.
func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func keySet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if k := normalizeKey(v); k != "" {
			set[k] = struct{}{}
		}
	}
	return set
}
