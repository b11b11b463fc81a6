package collector

import (
	"regexp"
	"strconv"
	"strings"
)

// distanceRe matches a number followed by "km", e.g. "3,5 km" inside
// "10115 Mitte (ca. 3,5 km entfernt)". The last match wins.
var distanceRe = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*km`)

// priceReplacer strips the currency sign, the "Verhandlungsbasis" marker and
// German thousands separators.
var priceReplacer = strings.NewReplacer("€", "", "VB", "", ".", "")

// ParseDistance extracts the distance in km from the top-left text of a
// listing card. It returns 0 when no "<number> km" token is present.
func ParseDistance(text string) float64 {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))
	if !strings.Contains(strings.ToLower(text), "km") {
		return 0
	}

	matches := distanceRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return 0
	}
	value := strings.ReplaceAll(matches[len(matches)-1][1], ",", ".")
	d, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return d
}

// ParsePrice normalizes the price text of a listing card: "1.250 € VB"
// becomes "1250". Non-numeric markers such as "Zu verschenken" are kept.
func ParsePrice(text string) string {
	return strings.TrimSpace(priceReplacer.Replace(text))
}
