package normalizer

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	"github.com/address-completer/app/models"
	"go.uber.org/zap"
	"golang.org/x/text/width"
)

// DistrictLookup resolves an administrative name to its breakdown.
type DistrictLookup interface {
	DistrictByName(ctx context.Context, name string) (models.DistrictInfo, error)
}

// TextCleaner normalizes raw address text.
type TextCleaner struct {
	lookup DistrictLookup
	logger *zap.Logger

	specialSpacePattern *regexp.Regexp
	whitespacePattern   *regexp.Regexp
	municipalityRules   []replaceRule
	countyPatterns      []*regexp.Regexp
}

type replaceRule struct {
	pattern     *regexp.Regexp
	replacement string
}

// NewTextCleaner creates a cleaner; lookup may be nil, which disables county completion.
func NewTextCleaner(lookup DistrictLookup, logger *zap.Logger) *TextCleaner {
	if logger == nil {
		logger = zap.NewNop()
	}
	tc := &TextCleaner{lookup: lookup, logger: logger}
	tc.initializePatterns()
	return tc
}

func (tc *TextCleaner) initializePatterns() {
	tc.specialSpacePattern = regexp.MustCompile(`[\r\n\t\x{3000}\x{00a0}]+`)
	tc.whitespacePattern = regexp.MustCompile(`\s+`)

	// a whole run of repeats collapses in one pass
	for _, city := range []string{"北京", "上海", "天津", "重庆"} {
		runes := []rune(city)
		head := string(runes[:len(runes)-1])
		tail := regexp.QuoteMeta(string(runes[len(runes)-1]))
		one := regexp.QuoteMeta(head) + tail + "+市?"
		tc.municipalityRules = append(tc.municipalityRules, replaceRule{
			pattern:     regexp.MustCompile("(?:" + one + "){2,}"),
			replacement: city + "市",
		})
	}

	// common county names first, then any short name ending in 县
	tc.countyPatterns = []*regexp.Regexp{
		regexp.MustCompile(`[临蒲永洪清]县`),
		regexp.MustCompile(`[\x{4e00}-\x{9fa5}]{1,3}县`),
	}
}

// Clean normalizes text and completes a bare county with its province and city.
// Clean(Clean(x)) == Clean(x) as long as the lookup answers consistently.
func (tc *TextCleaner) Clean(ctx context.Context, text string) string {
	cleaned := tc.Normalize(text)
	if tc.lookup == nil || cleaned == "" {
		return cleaned
	}

	prefix, ok := tc.countyPrefix(ctx, cleaned)
	if !ok || prefix == "" || strings.Contains(cleaned, prefix) {
		return cleaned
	}
	return tc.Normalize(prefix + cleaned)
}

// Normalize applies the pure cleaning steps until the text stops changing.
// After the first pass every change shortens the text, so the loop ends.
func (tc *TextCleaner) Normalize(text string) string {
	current := text
	for {
		next := tc.normalizeOnce(current)
		if next == current {
			return next
		}
		current = next
	}
}

func (tc *TextCleaner) normalizeOnce(text string) string {
	s := width.Fold.String(text)
	s = tc.specialSpacePattern.ReplaceAllString(s, " ")

	for _, rule := range tc.municipalityRules {
		s = rule.pattern.ReplaceAllString(s, rule.replacement)
	}

	s = collapseAdminSuffixRuns(s)
	s = collapseRepeatedRoads(s)

	s = tc.whitespacePattern.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)

	s = joinAdminSuffixSpaces(s)

	return dedupeTokens(s)
}

// countyPrefix returns the province+city text of the first county token that
// is not preceded by a province or city marker and that the lookup resolves.
func (tc *TextCleaner) countyPrefix(ctx context.Context, text string) (string, bool) {
	for _, pattern := range tc.countyPatterns {
		for _, loc := range pattern.FindAllStringIndex(text, -1) {
			if strings.ContainsAny(text[:loc[0]], "省市") {
				continue
			}
			county := text[loc[0]:loc[1]]
			info, err := tc.lookup.DistrictByName(ctx, county)
			if err != nil || info.Province == "" {
				tc.logger.Debug("County not resolved", zap.String("county", county), zap.Error(err))
				continue
			}
			prefix := info.Province
			if info.City != "" && info.City != info.Province {
				prefix += info.City
			}
			return prefix, true
		}
	}
	return "", false
}

func isAdminSuffix(r rune) bool {
	return r == '省' || r == '市' || r == '区' || r == '县'
}

func isHan(r rune) bool {
	return r >= 0x4e00 && r <= 0x9fa5
}

func isRoadSuffix(r rune) bool {
	return r == '路' || r == '街' || r == '道'
}

// collapseAdminSuffixRuns turns 市市 into 市, 区区区 into 区 and so on.
func collapseAdminSuffixRuns(s string) string {
	var b strings.Builder
	var prev rune
	for i, r := range s {
		if i > 0 && r == prev && isAdminSuffix(r) {
			continue
		}
		b.WriteRune(r)
		prev = r
	}
	return b.String()
}

// collapseRepeatedRoads collapses a road token repeated back to back, such as
// 中山路中山路, preferring the longest token at each position.
func collapseRepeatedRoads(s string) string {
	rs := []rune(s)
	out := make([]rune, 0, len(rs))
	for i := 0; i < len(rs); {
		if size, repeats := repeatedRoadAt(rs, i); repeats > 0 {
			out = append(out, rs[i:i+size]...)
			i += size * (repeats + 1)
			continue
		}
		out = append(out, rs[i])
		i++
	}
	return string(out)
}

func repeatedRoadAt(rs []rune, start int) (int, int) {
	end := start
	for end < len(rs) && isHan(rs[end]) {
		end++
	}
	run := end - start
	for size := run / 2; size >= 2; size-- {
		if !isRoadSuffix(rs[start+size-1]) {
			continue
		}
		repeats := 0
		for next := start + size; next+size <= end && equalRunes(rs[start:start+size], rs[next:next+size]); next += size {
			repeats++
		}
		if repeats > 0 {
			return size, repeats
		}
	}
	return 0, 0
}

func equalRunes(a, b []rune) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// joinAdminSuffixSpaces drops the spaces between an administrative suffix and
// the following Han character.
func joinAdminSuffixSpaces(s string) string {
	rs := []rune(s)
	out := make([]rune, 0, len(rs))
	for i := 0; i < len(rs); i++ {
		if unicode.IsSpace(rs[i]) && len(out) > 0 && isAdminSuffix(out[len(out)-1]) {
			j := i
			for j < len(rs) && unicode.IsSpace(rs[j]) {
				j++
			}
			if j < len(rs) && isHan(rs[j]) {
				i = j - 1
				continue
			}
		}
		out = append(out, rs[i])
	}
	return string(out)
}

func dedupeTokens(s string) string {
	parts := strings.Fields(s)
	seen := make(map[string]bool, len(parts))
	kept := parts[:0]
	for _, part := range parts {
		if seen[part] {
			continue
		}
		seen[part] = true
		kept = append(kept, part)
	}
	return strings.Join(kept, " ")
}
