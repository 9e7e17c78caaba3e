package normalize

import (
	"strings"

	"golang.org/x/text/cases"
)

// countryCodes maps lower-case country and region names, as they appear in
// registry data, to two-letter codes. UK constituent nations are folded into GB.
var countryCodes = map[string]string{
	"united kingdom":          "GB",
	"england":                 "GB",
	"wales":                   "GB",
	"scotland":                "GB",
	"northern ireland":        "GB",
	"great britain":           "GB",
	"uk":                      "GB",
	"united states":           "US",
	"usa":                     "US",
	"ireland":                 "IE",
	"france":                  "FR",
	"germany":                 "DE",
	"netherlands":             "NL",
	"belgium":                 "BE",
	"spain":                   "ES",
	"italy":                   "IT",
	"portugal":                "PT",
	"switzerland":             "CH",
	"austria":                 "AT",
	"sweden":                  "SE",
	"norway":                  "NO",
	"denmark":                 "DK",
	"finland":                 "FI",
	"poland":                  "PL",
	"czech republic":          "CZ",
	"hungary":                 "HU",
	"romania":                 "RO",
	"bulgaria":                "BG",
	"greece":                  "GR",
	"cyprus":                  "CY",
	"malta":                   "MT",
	"luxembourg":              "LU",
	"jersey":                  "JE",
	"guernsey":                "GG",
	"isle of man":             "IM",
	"gibraltar":               "GI",
	"virgin islands, british": "VG",
	"cayman islands":          "KY",
	"bermuda":                 "BM",
	"bahamas":                 "BS",
	"hong kong":               "HK",
	"singapore":               "SG",
	"australia":               "AU",
	"new zealand":             "NZ",
	"canada":                  "CA",
	"india":                   "IN",
	"china":                   "CN",
	"japan":                   "JP",
	"south africa":            "ZA",
	"united arab emirates":    "AE",
	"israel":                  "IL",
	"russia":                  "RU",
	"ukraine":                 "UA",
	"brazil":                  "BR",
	"mexico":                  "MX",
}

// CountryCode derives a two-letter code for a free-text country name.
//
// Known names are matched case-insensitively. Unknown names fall back to the
// first two characters of the upper-cased input, so "Atlantis" becomes "AT".
// This is a best-effort heuristic, not an ISO 3166 lookup: the fallback can
// collide with real codes (Atlantis vs Austria).
func CountryCode(name string) (string, bool) {
	name, ok := CleanString(name)
	if !ok {
		return "", false
	}
	if code, found := countryCodes[cases.Fold().String(name)]; found {
		return code, true
	}
	upper := []rune(strings.ToUpper(name))
	if len(upper) > 2 {
		upper = upper[:2]
	}
	return string(upper), true
}
