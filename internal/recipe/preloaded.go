package recipe

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
)

//go:embed data/preloaded_recipes.json
var preloadedJSON []byte

// Preloaded returns the bundled recipe set, normalised.
func Preloaded() ([]Recipe, error) {
	raws, err := DecodeRaw(bytes.NewReader(preloadedJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to read bundled recipes: %w", err)
	}
	return NormalizeAll(raws)
}

// LoadFile reads and normalises a JSON recipe file. It is used in place of the
// bundled set when PRELOADED_RECIPES_PATH is configured.
func LoadFile(path string) ([]Recipe, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open recipe file %s: %w", path, err)
	}
	defer f.Close()

	raws, err := DecodeRaw(f)
	if err != nil {
		return nil, err
	}
	return NormalizeAll(raws)
}
