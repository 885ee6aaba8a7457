package pt2itp

import (
	"regexp"
	"strings"
)

var (
	spaceSquasher = regexp.MustCompile(`\s+`)
	punctuation   = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
)

// streetTokens maps common street type and descriptor words to their abbreviations.
// Abbreviated tokens are also the ones dropped from tokenless form.
var streetTokens = map[string]string{
	"alley":      "aly",
	"avenue":     "ave",
	"boulevard":  "blvd",
	"circle":     "cir",
	"court":      "ct",
	"crescent":   "cres",
	"drive":      "dr",
	"east":       "e",
	"expressway": "expy",
	"freeway":    "fwy",
	"highway":    "hwy",
	"lane":       "ln",
	"north":      "n",
	"parkway":    "pkwy",
	"place":      "pl",
	"road":       "rd",
	"route":      "rte",
	"south":      "s",
	"square":     "sq",
	"street":     "st",
	"terrace":    "ter",
	"trail":      "trl",
	"valley":     "vly",
	"west":       "w",
	"way":        "wy",
}

var abbreviations = func() map[string]struct{} {
	result := make(map[string]struct{}, len(streetTokens))
	for _, abbr := range streetTokens {
		result[abbr] = struct{}{}
	}
	return result
}()

// Tokenize returns name variant for given display name
//
// "Dulaney Valley Road" -> {"Dulaney Valley Road", "dulaney vly rd", "dulaney"}
func Tokenize(display string) Name {
	normalized := strings.ToLower(strings.TrimSpace(display))
	normalized = punctuation.ReplaceAllString(normalized, "")
	normalized = spaceSquasher.ReplaceAllString(normalized, " ")
	normalized = strings.TrimSpace(normalized)

	words := strings.Fields(normalized)
	tokenized := make([]string, 0, len(words))
	tokenless := make([]string, 0, len(words))
	for _, word := range words {
		if abbr, ok := streetTokens[word]; ok {
			word = abbr
		}
		tokenized = append(tokenized, word)
		if _, ok := abbreviations[word]; !ok {
			tokenless = append(tokenless, word)
		}
	}
	// Name of street type words only keeps them
	if len(tokenless) == 0 {
		tokenless = tokenized
	}
	return Name{
		Display:   strings.TrimSpace(display),
		Tokenized: strings.Join(tokenized, " "),
		Tokenless: strings.Join(tokenless, " "),
	}
}
