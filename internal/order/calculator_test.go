package order

import (
	"errors"
	"testing"

	"cafeteria-planner/internal/menu"
	"cafeteria-planner/internal/recipe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rice(qty float64) recipe.Recipe {
	return recipe.Recipe{
		Name:        "Rice",
		Category:    recipe.CategoryMain,
		Ingredients: []recipe.Ingredient{{Name: "rice", Unit: "g", Quantity: qty}},
	}
}

func mondayMain(name string) menu.WeeklyMenu {
	var m menu.WeeklyMenu
	_ = m.Assign(menu.Monday, menu.SlotMain, name)
	return m
}

func calculate(t *testing.T, catalog []recipe.Recipe, m menu.WeeklyMenu, headcount int, filter menu.DayFilter) Result {
	t.Helper()
	res, err := NewCalculator(DefaultRules()).Calculate(catalog, m, headcount, filter)
	require.NoError(t, err)
	return res
}

func TestCalculateEndToEnd(t *testing.T) {
	t.Run("Plain", func(t *testing.T) {
		res := calculate(t, []recipe.Recipe{rice(80)}, mondayMain("Rice"), 10, menu.OnlyDay(menu.Monday))
		assert.Equal(t, []Item{{Name: "rice", Unit: "g", Quantity: 800}}, res.Items)
		assert.Empty(t, res.Warnings)
	})

	t.Run("Promotion", func(t *testing.T) {
		res := calculate(t, []recipe.Recipe{rice(150)}, mondayMain("Rice"), 10, menu.OnlyDay(menu.Monday))
		assert.Equal(t, []Item{{Name: "rice", Unit: "kg", Quantity: 1.5}}, res.Items)
	})
}

func TestUnitPromotionBoundary(t *testing.T) {
	res := calculate(t, []recipe.Recipe{rice(100)}, mondayMain("Rice"), 10, menu.AllDays())
	assert.Equal(t, []Item{{Name: "rice", Unit: "kg", Quantity: 1}}, res.Items)

	res = calculate(t, []recipe.Recipe{rice(999)}, mondayMain("Rice"), 1, menu.AllDays())
	assert.Equal(t, []Item{{Name: "rice", Unit: "g", Quantity: 999}}, res.Items)

	milk := recipe.Recipe{Name: "Milk", Category: recipe.CategoryDessert,
		Ingredients: []recipe.Ingredient{{Name: "leche", Unit: "ml", Quantity: 250}}}
	res = calculate(t, []recipe.Recipe{milk}, mondayMain("Milk"), 8, menu.AllDays())
	assert.Equal(t, []Item{{Name: "leche", Unit: "l", Quantity: 2}}, res.Items)

	t.Run("OtherUnitsUnchanged", func(t *testing.T) {
		bread := recipe.Recipe{Name: "Bread", Category: recipe.CategorySide,
			Ingredients: []recipe.Ingredient{{Name: "pan", Unit: "unidad", Quantity: 2}}}
		res := calculate(t, []recipe.Recipe{bread}, mondayMain("Bread"), 600, menu.AllDays())
		assert.Equal(t, []Item{{Name: "pan", Unit: "unidad", Quantity: 1200}}, res.Items)
	})

	t.Run("LowerThresholdKeepsFactor", func(t *testing.T) {
		c := NewCalculator(Rules{PromotionThreshold: 500})
		res, err := c.Calculate([]recipe.Recipe{rice(60)}, mondayMain("Rice"), 10, menu.AllDays())
		require.NoError(t, err)
		assert.Equal(t, []Item{{Name: "rice", Unit: "kg", Quantity: 0.6}}, res.Items)

		res, err = c.Calculate([]recipe.Recipe{rice(40)}, mondayMain("Rice"), 10, menu.AllDays())
		require.NoError(t, err)
		assert.Equal(t, []Item{{Name: "rice", Unit: "g", Quantity: 400}}, res.Items)
	})
}

func TestEggConversion(t *testing.T) {
	cases := []struct {
		grams float64
		want  float64
	}{
		{90, 2},
		{46, 2},
		{45, 1},
		{1, 1},
		{0, 0},
	}
	for _, tc := range cases {
		omelette := recipe.Recipe{Name: "Omelette", Category: recipe.CategoryMain,
			Ingredients: []recipe.Ingredient{{Name: "Egg", Unit: "g", Quantity: tc.grams}}}
		res := calculate(t, []recipe.Recipe{omelette}, mondayMain("Omelette"), 1, menu.AllDays())
		assert.Equal(t, []Item{{Name: "egg", Unit: "unit", Quantity: tc.want}}, res.Items, "grams=%v", tc.grams)
	}

	t.Run("SpanishName", func(t *testing.T) {
		flan := recipe.Recipe{Name: "Flan", Category: recipe.CategoryDessert,
			Ingredients: []recipe.Ingredient{{Name: "huevo", Unit: "g", Quantity: 45}}}
		res := calculate(t, []recipe.Recipe{flan}, mondayMain("Flan"), 30, menu.AllDays())
		assert.Equal(t, []Item{{Name: "huevo", Unit: "unit", Quantity: 30}}, res.Items)
	})

	t.Run("LargeTotalsAreNotPromoted", func(t *testing.T) {
		flan := recipe.Recipe{Name: "Flan", Category: recipe.CategoryDessert,
			Ingredients: []recipe.Ingredient{{Name: "egg", Unit: "g", Quantity: 45}}}
		res := calculate(t, []recipe.Recipe{flan}, mondayMain("Flan"), 100, menu.AllDays())
		assert.Equal(t, []Item{{Name: "egg", Unit: "unit", Quantity: 100}}, res.Items)
	})

	t.Run("NonMassUnitUntouched", func(t *testing.T) {
		boiled := recipe.Recipe{Name: "Boiled", Category: recipe.CategoryMain,
			Ingredients: []recipe.Ingredient{{Name: "egg", Unit: "unidad", Quantity: 2}}}
		res := calculate(t, []recipe.Recipe{boiled}, mondayMain("Boiled"), 3, menu.AllDays())
		assert.Equal(t, []Item{{Name: "egg", Unit: "unidad", Quantity: 6}}, res.Items)
	})
}

func TestFruitOverride(t *testing.T) {
	t.Run("Category", func(t *testing.T) {
		kiwi := recipe.Recipe{Name: "Kiwi", Category: recipe.CategoryFruit,
			Ingredients: []recipe.Ingredient{{Name: "kiwi", Unit: "g", Quantity: 120}}}
		res := calculate(t, []recipe.Recipe{kiwi}, mondayMain("Kiwi"), 25, menu.AllDays())
		assert.Equal(t, []Item{{Name: "kiwi", Unit: "g", Quantity: 25}}, res.Items)
	})

	for _, name := range []string{"banana", "Manzana", "NARANJA", "pera", "Mandarina", "ciruela"} {
		t.Run("Whitelist/"+name, func(t *testing.T) {
			fruit := recipe.Recipe{Name: name, Category: recipe.CategoryDessert,
				Ingredients: []recipe.Ingredient{{Name: "fruta", Unit: "unidad", Quantity: 150}}}
			res := calculate(t, []recipe.Recipe{fruit}, mondayMain(name), 12, menu.AllDays())
			assert.Equal(t, []Item{{Name: "fruta", Unit: "unidad", Quantity: 12}}, res.Items)
		})
	}

	t.Run("ConfigurableWhitelist", func(t *testing.T) {
		melon := recipe.Recipe{Name: "Melon", Category: recipe.CategoryDessert,
			Ingredients: []recipe.Ingredient{{Name: "melon", Unit: "g", Quantity: 200}}}
		rules := DefaultRules()
		rules.FruitNames = []string{"melon"}

		res, err := NewCalculator(rules).Calculate([]recipe.Recipe{melon}, mondayMain("Melon"), 4, menu.AllDays())
		require.NoError(t, err)
		assert.Equal(t, []Item{{Name: "melon", Unit: "g", Quantity: 4}}, res.Items)

		rules.FruitNames = []string{}
		banana := recipe.Recipe{Name: "banana", Category: recipe.CategoryDessert,
			Ingredients: []recipe.Ingredient{{Name: "banana", Unit: "g", Quantity: 200}}}
		res, err = NewCalculator(rules).Calculate([]recipe.Recipe{banana}, mondayMain("banana"), 4, menu.AllDays())
		require.NoError(t, err)
		assert.Equal(t, []Item{{Name: "banana", Unit: "g", Quantity: 800}}, res.Items)
	})
}

func TestMissingRecipe(t *testing.T) {
	m := mondayMain("Ghost")
	require.NoError(t, m.Assign(menu.Tuesday, menu.SlotMain, "Rice"))

	res := calculate(t, []recipe.Recipe{rice(80)}, m, 10, menu.AllDays())
	assert.Equal(t, []Item{{Name: "rice", Unit: "g", Quantity: 800}}, res.Items)
	require.Len(t, res.Warnings, 1)
	w := res.Warnings[0]
	assert.Equal(t, WarningMissingRecipe, w.Kind)
	assert.Equal(t, menu.Monday, w.Day)
	assert.Equal(t, menu.SlotMain, w.Slot)
	assert.Equal(t, "Ghost", w.Recipe)
	assert.Contains(t, w.Message, "Ghost")
}

func TestSingleDayFilter(t *testing.T) {
	pasta := recipe.Recipe{Name: "Pasta", Category: recipe.CategoryMain,
		Ingredients: []recipe.Ingredient{{Name: "pasta", Unit: "g", Quantity: 100}}}
	catalog := []recipe.Recipe{rice(80), pasta}

	var base menu.WeeklyMenu
	require.NoError(t, base.Assign(menu.Wednesday, menu.SlotMain, "Rice"))
	want := calculate(t, catalog, base, 5, menu.OnlyDay(menu.Wednesday))

	other := base
	for _, d := range []menu.Weekday{menu.Monday, menu.Tuesday, menu.Thursday, menu.Friday} {
		require.NoError(t, other.Assign(d, menu.SlotMain, "Pasta"))
		require.NoError(t, other.Assign(d, menu.SlotSide, "Ghost"))
	}
	got := calculate(t, catalog, other, 5, menu.OnlyDay(menu.Wednesday))

	assert.Equal(t, want, got)
	assert.Equal(t, []Item{{Name: "rice", Unit: "g", Quantity: 400}}, got.Items)
}

func TestAccumulationAcrossDaysAndOrder(t *testing.T) {
	stew := recipe.Recipe{Name: "Stew", Category: recipe.CategoryMain, Ingredients: []recipe.Ingredient{
		{Name: "Carrot", Unit: "g", Quantity: 40},
		{Name: "onion", Unit: "g", Quantity: 20},
	}}
	salad := recipe.Recipe{Name: "Salad", Category: recipe.CategorySide, Ingredients: []recipe.Ingredient{
		{Name: "lettuce", Unit: "g", Quantity: 30},
		{Name: " carrot ", Unit: "G", Quantity: 10},
	}}

	var m menu.WeeklyMenu
	require.NoError(t, m.Assign(menu.Monday, menu.SlotMain, "Stew"))
	require.NoError(t, m.Assign(menu.Monday, menu.SlotSide, "Salad"))
	require.NoError(t, m.Assign(menu.Thursday, menu.SlotMain, "Stew"))

	res := calculate(t, []recipe.Recipe{stew, salad}, m, 10, menu.AllDays())
	assert.Equal(t, []Item{
		{Name: "carrot", Unit: "g", Quantity: 900},
		{Name: "onion", Unit: "g", Quantity: 400},
		{Name: "lettuce", Unit: "g", Quantity: 300},
	}, res.Items)
}

func TestNamesContainingHyphen(t *testing.T) {
	r := recipe.Recipe{Name: "Mix", Category: recipe.CategoryMain, Ingredients: []recipe.Ingredient{
		{Name: "semi-skimmed milk", Unit: "ml", Quantity: 100},
		{Name: "semi", Unit: "skimmed milk-ml", Quantity: 1},
	}}
	res := calculate(t, []recipe.Recipe{r}, mondayMain("Mix"), 1, menu.AllDays())
	assert.Len(t, res.Items, 2)
	assert.Equal(t, "semi-skimmed milk", res.Items[0].Name)
}

func TestZeroHeadcount(t *testing.T) {
	res := calculate(t, []recipe.Recipe{rice(80)}, mondayMain("Rice"), 0, menu.AllDays())
	assert.Equal(t, []Item{{Name: "rice", Unit: "g", Quantity: 0}}, res.Items)
}

func TestLinearInHeadcount(t *testing.T) {
	catalog := []recipe.Recipe{
		{Name: "Soup", Category: recipe.CategoryMain, Ingredients: []recipe.Ingredient{
			{Name: "zapallo", Unit: "g", Quantity: 3},
			{Name: "caldo", Unit: "ml", Quantity: 7},
			{Name: "sal", Unit: "pizca", Quantity: 1},
		}},
	}
	m := mondayMain("Soup")
	one := calculate(t, catalog, m, 1, menu.AllDays())
	for _, h := range []int{2, 5, 17, 99} {
		res := calculate(t, catalog, m, h, menu.AllDays())
		require.Len(t, res.Items, len(one.Items))
		for i := range res.Items {
			assert.InDelta(t, one.Items[i].Quantity*float64(h), res.Items[i].Quantity, 1e-9)
		}
	}
}

func TestDeterministicAndPure(t *testing.T) {
	catalog := []recipe.Recipe{rice(80), {Name: "Banana", Category: recipe.CategoryFruit,
		Ingredients: []recipe.Ingredient{{Name: "banana", Unit: "unidad", Quantity: 1}}}}
	m := mondayMain("Rice")
	require.NoError(t, m.Assign(menu.Monday, menu.SlotDessert, "Banana"))

	snapshot := make([]recipe.Recipe, len(catalog))
	for i, r := range catalog {
		snapshot[i] = r.Clone()
	}
	menuBefore := m

	c := NewCalculator(DefaultRules())
	first, err := c.Calculate(catalog, m, 7, menu.AllDays())
	require.NoError(t, err)
	second, err := c.Calculate(catalog, m, 7, menu.AllDays())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, snapshot, catalog)
	assert.Equal(t, menuBefore, m)
}

func TestFirstMatchWins(t *testing.T) {
	catalog := []recipe.Recipe{rice(80), rice(10)}
	res := calculate(t, catalog, mondayMain("Rice"), 1, menu.AllDays())
	assert.Equal(t, []Item{{Name: "rice", Unit: "g", Quantity: 80}}, res.Items)
}

func TestErrors(t *testing.T) {
	c := NewCalculator(DefaultRules())

	_, err := c.Calculate(nil, menu.WeeklyMenu{}, -1, menu.AllDays())
	assert.True(t, errors.Is(err, ErrNegativeHeadcount))

	broken := recipe.Recipe{Name: "Broken", Category: recipe.CategoryMain,
		Ingredients: []recipe.Ingredient{{Name: "salt", Unit: "", Quantity: 1}}}
	_, err = c.Calculate([]recipe.Recipe{broken}, mondayMain("Broken"), 1, menu.AllDays())
	assert.True(t, errors.Is(err, ErrMalformedIngredient))
	assert.Contains(t, err.Error(), "Broken")

	t.Run("UnselectedMalformedRecipeIgnored", func(t *testing.T) {
		res, err := c.Calculate([]recipe.Recipe{broken, rice(1)}, mondayMain("Rice"), 1, menu.AllDays())
		require.NoError(t, err)
		assert.Len(t, res.Items, 1)
	})
}

func TestEmptyMenu(t *testing.T) {
	res := calculate(t, []recipe.Recipe{rice(80)}, menu.WeeklyMenu{}, 10, menu.AllDays())
	assert.Empty(t, res.Items)
	assert.NotNil(t, res.Items)
}

func TestRulesDefaults(t *testing.T) {
	c := NewCalculator(Rules{})
	assert.Equal(t, DefaultRules(), c.Rules())

	custom := NewCalculator(Rules{GramsPerEgg: 50, Promotions: map[string]string{"G": "kg"}})
	omelette := recipe.Recipe{Name: "O", Category: recipe.CategoryMain, Ingredients: []recipe.Ingredient{
		{Name: "egg", Unit: "g", Quantity: 100},
		{Name: "flour", Unit: "g", Quantity: 1000},
	}}
	res, err := custom.Calculate([]recipe.Recipe{omelette}, mondayMain("O"), 1, menu.AllDays())
	require.NoError(t, err)
	assert.Equal(t, []Item{
		{Name: "egg", Unit: "unit", Quantity: 2},
		{Name: "flour", Unit: "kg", Quantity: 1},
	}, res.Items)
}
