package translator

import "strings"

// Common function words per supported narrative language. Detection is a
// keyword-frequency heuristic and only selects the narrative language; it
// never changes filter semantics.
var languageMarkers = map[string][]string{
	"es": {"cuántos", "cuantos", "qué", "cuál", "cual", "reservas", "envíos",
		"cliente", "puerto", "mes", "año", "entre", "por", "del", "los", "las"},
	"de": {"wie", "viele", "welche", "buchungen", "sendungen", "kunde",
		"hafen", "monat", "jahr", "zwischen", "der", "die", "das", "und"},
}

// detectLanguage guesses the question language, defaulting to English.
func detectLanguage(text string) string {
	words := strings.Fields(strings.ToLower(text))
	if len(words) == 0 {
		return "en"
	}

	best, bestHits := "en", 1 // require at least two marker hits
	for lang, markers := range languageMarkers {
		set := make(map[string]bool, len(markers))
		for _, m := range markers {
			set[m] = true
		}
		hits := 0
		for _, w := range words {
			if set[strings.Trim(w, ".,;:¿?¡!")] {
				hits++
			}
		}
		if hits > bestHits {
			best, bestHits = lang, hits
		}
	}
	return best
}
