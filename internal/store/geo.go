package store

import "strings"

// countryByCode maps ISO 3166-1 alpha-2 codes to the country names used in
// the booking dataset. The summary tables key on the full name, so every
// code-valued filter must resolve through this map before a summary read.
var countryByCode = map[string]string{
	"ES": "Spain", "DE": "Germany", "NL": "Netherlands", "BE": "Belgium",
	"FR": "France", "IT": "Italy", "PT": "Portugal", "GB": "United Kingdom",
	"PL": "Poland", "TR": "Turkey", "MA": "Morocco", "EG": "Egypt",
	"US": "United States", "MX": "Mexico", "BR": "Brazil", "AR": "Argentina",
	"CL": "Chile", "PE": "Peru", "CO": "Colombia", "PA": "Panama",
	"CN": "China", "JP": "Japan", "KR": "South Korea", "SG": "Singapore",
	"VN": "Vietnam", "IN": "India", "ID": "Indonesia", "MY": "Malaysia",
	"TH": "Thailand", "AU": "Australia", "ZA": "South Africa",
	"AE": "United Arab Emirates", "SA": "Saudi Arabia", "CA": "Canada",
}

// countryNames holds the lowercased full names, derived from countryByCode
// so the two can never drift apart.
var countryNames = func() map[string]bool {
	m := make(map[string]bool, len(countryByCode))
	for _, name := range countryByCode {
		m[strings.ToLower(name)] = true
	}
	return m
}()

// LooksLikeCountry classifies a port filter value as a country when it is a
// 2-letter code or a known country name. Ambiguous 2-letter values can
// misclassify as countries; a miss degrades to a port-name substring match.
func LooksLikeCountry(value string) bool {
	v := strings.TrimSpace(value)
	if len(v) == 2 && v == strings.ToUpper(v) && isAlpha(v) {
		return true
	}
	return countryNames[strings.ToLower(v)]
}

// ResolveCountry canonicalizes a country filter value to the full name the
// summary tables store. ok is false for codes outside the known set; such
// values can only be matched against the code columns of the base tables.
func ResolveCountry(value string) (string, bool) {
	v := strings.TrimSpace(value)
	if len(v) == 2 && v == strings.ToUpper(v) && isAlpha(v) {
		name, ok := countryByCode[v]
		return name, ok
	}
	if countryNames[strings.ToLower(v)] {
		return v, true
	}
	return "", false
}

func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
