package parser

import (
	"regexp"
	"strings"

	"github.com/address-completer/app/models"
)

const hanClass = `[\x{4e00}-\x{9fa5}]`

// specialPlaceRule is one institutional suffix; keepDistrict keeps the
// district name inside the returned building.
type specialPlaceRule struct {
	pattern      *regexp.Regexp
	span         *regexp.Regexp
	keepDistrict bool
}

// SpecialPlaceDetector recognizes institutions (schools, hospitals, banks...)
// whose whole name is the most useful building value.
type SpecialPlaceDetector struct {
	rules      []specialPlaceRule
	whitespace *regexp.Regexp
}

// NewSpecialPlaceDetector creates the detector with its rules in priority order.
func NewSpecialPlaceDetector() *SpecialPlaceDetector {
	rule := func(suffix string, keep bool) specialPlaceRule {
		return specialPlaceRule{
			pattern:      regexp.MustCompile(hanClass + `+` + suffix),
			span:         regexp.MustCompile(hanClass + `{1,10}` + suffix),
			keepDistrict: keep,
		}
	}
	return &SpecialPlaceDetector{
		rules: []specialPlaceRule{
			rule(`大学`, false),
			rule(`学院`, false),
			rule(`中学`, true),
			rule(`[一二三四五六七八九十]\s*中`, true),
			rule(`小学`, true),
			rule(`医院`, true),
			rule(`政府`, true),
			rule(`银行`, false),
			rule(`广场`, false),
			rule(`商场`, false),
		},
		whitespace: regexp.MustCompile(`\s+`),
	}
}

// Detect returns the building name for an institutional address. Province
// and city are always removed; the district only when the matching rule
// does not keep it. Known contact tokens are removed as well.
func (d *SpecialPlaceDetector) Detect(address string, known models.AddressComponents) (string, bool) {
	for _, r := range d.rules {
		if !r.pattern.MatchString(address) {
			continue
		}
		place := removeAll(address, known.Province, known.City)
		if !r.keepDistrict {
			place = removeAll(place, known.District)
		}
		place = removeAll(place, known.Name, known.Phone)
		place = strings.TrimSpace(d.whitespace.ReplaceAllString(place, " "))
		return place, true
	}
	return "", false
}

// MatchSpan returns the first institutional name found in address, or "".
func (d *SpecialPlaceDetector) MatchSpan(address string) string {
	for _, r := range d.rules {
		if span := r.span.FindString(address); span != "" {
			return span
		}
	}
	return ""
}

// removeAll deletes every occurrence of each non-empty token.
func removeAll(text string, tokens ...string) string {
	for _, token := range tokens {
		if token != "" {
			text = strings.ReplaceAll(text, token, "")
		}
	}
	return text
}
