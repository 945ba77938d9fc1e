package matcher

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// FoldBrand returns comparable form of brand label: case folded, letters and digits only.
func FoldBrand(label string) string {
	folded := cases.Fold().String(strings.TrimSpace(label))
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, folded)
}

// FoldAliases returns copy of aliases keyed by folded brand labels.
func FoldAliases(aliases map[string][]string) map[string][]string {
	folded := make(map[string][]string, len(aliases))
	for label, brands := range aliases {
		key := FoldBrand(label)
		folded[key] = append(folded[key], brands...)
	}
	return folded
}

// brandsFor returns canonical brands allowed for vendor reported brand.
// Unknown labels are kept as they are, default brands apply only to records without brand.
func brandsFor(brand string, cfg Config) []string {
	if brand = strings.TrimSpace(brand); brand == "" {
		return cfg.DefaultBrands
	}

	if aliases, ok := cfg.Brands[FoldBrand(brand)]; ok && len(aliases) > 0 {
		return aliases
	}

	return []string{brand}
}
