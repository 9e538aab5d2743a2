package parser

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/address-completer/app/models"
	"github.com/agnivade/levenshtein"
	"github.com/xrash/smetrics"
)

const (
	scoreNameContained    = 5
	scoreNameExact        = 3
	scoreAddressContained = 3
	scoreAddressContains  = 2
	scoreAdname           = 2
	scoreBusinessArea     = 1
	scoreTypeTag          = 1
	scoreAlias            = 1
	scoreChild            = 2
)

// PoiMatcher picks the place candidate that best explains an address.
type PoiMatcher struct {
	jwWeight  float64
	levWeight float64
}

// NewPoiMatcher creates a matcher; the weights only affect Similarity and
// are normalized when they do not sum to one.
func NewPoiMatcher(jwWeight, levWeight float64) *PoiMatcher {
	if jwWeight < 0 || levWeight < 0 || jwWeight+levWeight == 0 {
		jwWeight, levWeight = 0.6, 0.4
	}
	total := jwWeight + levWeight
	return &PoiMatcher{jwWeight: jwWeight / total, levWeight: levWeight / total}
}

// BestMatch scores every candidate and returns the first one with the highest
// score. An empty list yields no match.
func (pm *PoiMatcher) BestMatch(candidates []models.PoiCandidate, address string) (*models.PoiCandidate, int, bool) {
	bestIdx, bestScore := -1, 0
	for i := range candidates {
		score := pm.Score(candidates[i], address)
		if bestIdx < 0 || score > bestScore {
			bestIdx, bestScore = i, score
		}
	}
	if bestIdx < 0 {
		return nil, 0, false
	}
	return &candidates[bestIdx], bestScore, true
}

// Score is the additive evidence that candidate names the place in address.
func (pm *PoiMatcher) Score(candidate models.PoiCandidate, address string) int {
	score := 0

	if contains(address, candidate.Name) {
		score += scoreNameContained
		if candidate.Name == address {
			score += scoreNameExact
		}
	}

	switch {
	case contains(address, candidate.Address):
		score += scoreAddressContained
	case contains(candidate.Address, address):
		score += scoreAddressContains
	}

	if contains(address, candidate.Adname) {
		score += scoreAdname
	}
	if contains(address, candidate.BusinessArea) {
		score += scoreBusinessArea
	}
	for _, tag := range strings.Split(candidate.Type, ";") {
		if contains(address, tag) {
			score += scoreTypeTag
			break
		}
	}
	if contains(address, candidate.Alias) {
		score += scoreAlias
	}
	for _, child := range candidate.Children {
		if contains(address, child.Name) {
			score += scoreChild
		}
	}

	return score
}

// Similarity blends Jaro-Winkler and normalized Levenshtein similarity into
// a value in [0, 1].
func (pm *PoiMatcher) Similarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}

	jaro := smetrics.JaroWinkler(a, b, 0.7, 4)

	dist := levenshtein.ComputeDistance(a, b)
	maxLen := math.Max(float64(utf8.RuneCountInString(a)), float64(utf8.RuneCountInString(b)))
	lev := 1.0 - float64(dist)/maxLen

	return pm.jwWeight*jaro + pm.levWeight*lev
}

// contains is strings.Contains where the empty needle never matches.
func contains(haystack, needle string) bool {
	return needle != "" && haystack != "" && strings.Contains(haystack, needle)
}
