package detect

import (
	"regexp"
	"strconv"
	"strings"
)

// Narrative amount patterns, checked in priority order. The `"` symbol is an
// accepted synonym for inch(es). All matching is done on lowercased text.
var (
	rangePattern  = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:to|-)\s*(\d+(?:\.\d+)?)\s*(?:inch(?:es)?|")`)
	hedgePattern  = regexp.MustCompile(`(?:around|about|near)\s*(\d+(?:\.\d+)?)\s*(?:inch(?:es)?|")`)
	singlePattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:inch(?:es)?|")`)
)

// Qualitative fallback tiers, checked in priority order when no numeric
// amount is present.
var qualitativeTiers = []struct {
	keywords  []string
	low, high float64
}{
	{[]string{"heavy snow", "significant snow"}, 6, 12},
	{[]string{"moderate snow"}, 3, 6},
	{[]string{"light snow", "flurries"}, 0.5, 2},
	{[]string{"snow"}, 1, 4},
}

// ExtractAmounts parses a forecast narrative for a snow accumulation range.
// Priority order: explicit range ("2 to 4 inches", "2-4 inches"), hedged
// single value ("around 3 inches" -> 2..4), bare single value ("3 inches" ->
// 3..3), then qualitative keywords. Returns ok=false when the text carries no
// snow signal at all.
func ExtractAmounts(text string) (low, high float64, ok bool) {
	if text == "" {
		return 0, 0, false
	}
	t := strings.ToLower(text)

	if m := rangePattern.FindStringSubmatch(t); m != nil {
		low = parseFloat(m[1])
		high = parseFloat(m[2])
		return low, high, true
	}

	if m := hedgePattern.FindStringSubmatch(t); m != nil {
		amt := parseFloat(m[1])
		low = amt - 1
		if low < 0 {
			low = 0
		}
		return low, amt + 1, true
	}

	if m := singlePattern.FindStringSubmatch(t); m != nil {
		amt := parseFloat(m[1])
		return amt, amt, true
	}

	for _, tier := range qualitativeTiers {
		for _, kw := range tier.keywords {
			if strings.Contains(t, kw) {
				return tier.low, tier.high, true
			}
		}
	}

	return 0, 0, false
}

// MidpointAmount returns the midpoint of the first amount range found in the
// text. Used by forecast change detection, which compares scalar amounts.
func MidpointAmount(text string) (float64, bool) {
	low, high, ok := ExtractAmounts(text)
	if !ok {
		return 0, false
	}
	return (low + high) / 2, true
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

// Keyword sets for qualitative winter-weather detection in narrative text.
var (
	snowKeywords   = []string{"snow", "flurries", "wintry"}
	iceKeywords    = []string{"ice", "freezing rain", "sleet"}
	windKeywords   = []string{"wind", "gusts", "blustery", "blowing"}
	winterKeywords = []string{"snow", "ice", "freezing", "sleet", "wintry", "blizzard", "frost"}
)

func containsAny(text string, keywords []string) bool {
	t := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(t, kw) {
			return true
		}
	}
	return false
}

// MentionsSnow reports whether the text mentions snowfall in any form.
func MentionsSnow(text string) bool { return containsAny(text, snowKeywords) }

// MentionsIce reports whether the text mentions ice, freezing rain, or sleet.
func MentionsIce(text string) bool { return containsAny(text, iceKeywords) }

// MentionsWind reports whether the text mentions wind.
func MentionsWind(text string) bool { return containsAny(text, windKeywords) }

// HasWinterKeywords reports whether the text mentions any winter weather.
// Broader than MentionsSnow; used by forecast change detection.
func HasWinterKeywords(text string) bool { return containsAny(text, winterKeywords) }
