package load

import (
	"regexp"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
	"golang.org/x/text/unicode/norm"
)

var nonAlnumRe = regexp.MustCompile(`[^a-z0-9]+`)

// countryAliases covers common survey spellings that differ from the CLDR
// English region names.
var countryAliases = map[string]string{
	"usa":                              "US",
	"united states of america":         "US",
	"america":                          "US",
	"uk":                               "GB",
	"great britain":                    "GB",
	"england":                          "GB",
	"scotland":                         "GB",
	"wales":                            "GB",
	"ivory coast":                      "CI",
	"drc":                              "CD",
	"dr congo":                         "CD",
	"democratic republic of the congo": "CD",
	"republic of the congo":            "CG",
	"congo":                            "CG",
	"uae":                              "AE",
	"swaziland":                        "SZ",
	"cape verde":                       "CV",
	"south korea":                      "KR",
	"north korea":                      "KP",
	"russia":                           "RU",
	"tanzania":                         "TZ",
	"the gambia":                       "GM",
	"burma":                            "MM",
	"holland":                          "NL",
	"czech republic":                   "CZ",
}

// CountryResolver maps free-text country answers to ISO 3166-1 alpha-2 codes.
type CountryResolver struct {
	byName map[string]string
}

var defaultResolver = sync.OnceValue(func() *CountryResolver {
	return newCountryResolver()
})

// DefaultCountryResolver returns a shared resolver built from the CLDR
// English region names.
func DefaultCountryResolver() *CountryResolver {
	return defaultResolver()
}

func newCountryResolver() *CountryResolver {
	names := display.English.Regions()
	c := &CountryResolver{byName: make(map[string]string, 600)}

	for a := 'A'; a <= 'Z'; a++ {
		for b := 'A'; b <= 'Z'; b++ {
			region, err := language.ParseRegion(string([]rune{a, b}))
			if err != nil || !region.IsCountry() {
				continue
			}
			code := region.String()
			c.byName[normalizeCountry(code)] = code
			if iso3 := region.ISO3(); iso3 != "" {
				c.byName[normalizeCountry(iso3)] = code
			}
			if name := names.Name(region); name != "" {
				c.byName[normalizeCountry(name)] = code
			}
		}
	}
	for alias, code := range countryAliases {
		c.byName[normalizeCountry(alias)] = code
	}
	return c
}

// Resolve returns the alpha-2 code for raw. Names, codes and common aliases
// match regardless of case, accents and punctuation.
func (c *CountryResolver) Resolve(raw string) (string, bool) {
	key := normalizeCountry(raw)
	if key == "" {
		return "", false
	}
	if code, ok := c.byName[key]; ok {
		return code, true
	}
	if rest, ok := strings.CutPrefix(key, "the "); ok {
		code, ok := c.byName[rest]
		return code, ok
	}
	return "", false
}

// normalizeCountry lower-cases s, strips diacritics and collapses anything
// that is not a letter or digit into single spaces.
func normalizeCountry(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	for _, r := range norm.NFD.String(s) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(nonAlnumRe.ReplaceAllString(b.String(), " "))
}
