package domain

import "strings"

// CoinContent is the metal content of a single coin
type CoinContent struct {
	Metal  Metal
	FineOz float64 // fine troy ounces of the metal
}

// coinRule matches a canonical denomination over an inclusive year range.
// A zero FromYear or ToYear leaves that end of the range open.
type coinRule struct {
	denomination string
	fromYear     int
	toYear       int
	content      CoinContent
}

// coinRules is the US historical coin content table, checked in order.
// Weights are actual metal weight (ASW/AGW), not gross coin weight.
var coinRules = []coinRule{
	// 95% copper cents, composition changed to zinc mid-1982
	{"cent", 0, 1982, CoinContent{MetalCopper, 0.09500}},
	// wartime nickels, 35% silver
	{"nickel", 1942, 1945, CoinContent{MetalSilver, 0.05626}},
	// 90% silver coinage through 1964
	{"dime", 0, 1964, CoinContent{MetalSilver, 0.07234}},
	{"quarter", 0, 1964, CoinContent{MetalSilver, 0.18084}},
	{"half dollar", 0, 1964, CoinContent{MetalSilver, 0.36169}},
	// 40% silver Kennedy halves
	{"half dollar", 1965, 1970, CoinContent{MetalSilver, 0.14792}},
	// Morgan and Peace dollars
	{"dollar", 0, 1935, CoinContent{MetalSilver, 0.77344}},
	// 40% silver Eisenhower collector strikes
	{"dollar", 1971, 1976, CoinContent{MetalSilver, 0.31625}},
	// pre-1933 gold coinage
	{"double eagle", 0, 1933, CoinContent{MetalGold, 0.96750}},
	{"eagle", 0, 1933, CoinContent{MetalGold, 0.48375}},
	{"half eagle", 0, 1933, CoinContent{MetalGold, 0.24187}},
	{"quarter eagle", 0, 1933, CoinContent{MetalGold, 0.12094}},
}

// denominationAliases maps common collector names to canonical denominations
var denominationAliases = map[string]string{
	"penny":        "cent",
	"1c":           "cent",
	"5c":           "nickel",
	"10c":          "dime",
	"25c":          "quarter",
	"50c":          "half dollar",
	"half":         "half dollar",
	"kennedy half": "half dollar",
	"$1":           "dollar",
	"silver dollar": "dollar",
	"morgan":       "dollar",
	"peace dollar": "dollar",
	"$20":          "double eagle",
	"$10":          "eagle",
	"$5":           "half eagle",
	"$2.5":         "quarter eagle",
	"$2.50":        "quarter eagle",
}

// CanonicalDenomination normalizes a user supplied denomination string
func CanonicalDenomination(denomination string) string {
	d := strings.ToLower(strings.TrimSpace(denomination))
	if canonical, ok := denominationAliases[d]; ok {
		return canonical
	}
	return d
}

// CoinComposition resolves the metal content of a US coin by denomination
// and mint year. Returns false for modern clad or unrecognized coins.
func CoinComposition(denomination string, year int) (CoinContent, bool) {
	d := CanonicalDenomination(denomination)
	for _, rule := range coinRules {
		if rule.denomination != d {
			continue
		}
		if rule.fromYear != 0 && year < rule.fromYear {
			continue
		}
		if rule.toYear != 0 && year > rule.toYear {
			continue
		}
		return rule.content, true
	}
	return CoinContent{}, false
}
