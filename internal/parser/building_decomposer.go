package parser

import (
	"regexp"
	"strings"

	"github.com/address-completer/app/models"
	"github.com/address-completer/internal/normalizer"
)

// BuildingInfo is the sub-district part of an address.
type BuildingInfo struct {
	Street   string
	Building string
	Unit     string
	Room     string
}

// BuildingDecomposer splits the tail of an address into street, building,
// unit and room.
type BuildingDecomposer struct {
	cleaner *normalizer.TextCleaner
	special *SpecialPlaceDetector

	streetPatterns      []*regexp.Regexp
	unitPattern         *regexp.Regexp
	roomPatterns        []*regexp.Regexp
	trailingRoom        *regexp.Regexp
	whitespace          *regexp.Regexp
	trailingPunctuation *regexp.Regexp
}

// NewBuildingDecomposer creates a decomposer; cleaner is only used for its
// pure normalization.
func NewBuildingDecomposer(cleaner *normalizer.TextCleaner, special *SpecialPlaceDetector) *BuildingDecomposer {
	return &BuildingDecomposer{
		cleaner: cleaner,
		special: special,
		streetPatterns: []*regexp.Regexp{
			regexp.MustCompile(hanClass + `+街道`),
			regexp.MustCompile(hanClass + `+(?:路|街|道|巷|弄)`),
		},
		unitPattern: regexp.MustCompile(`\d+单元`),
		// group 1 is the room value in every pattern
		roomPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?:^|\D)(\d{2,4})(?:室|房|$)`),
			regexp.MustCompile(`([A-Za-z]\d{2,4})(?:室|房|$)`),
			regexp.MustCompile(`([东南西北]\d{2,4})(?:室|房|$)`),
			regexp.MustCompile(`-(\d{2,4})(?:室|房|$)`),
		},
		trailingRoom:        regexp.MustCompile(`室\s*$`),
		whitespace:          regexp.MustCompile(`\s+`),
		trailingPunctuation: regexp.MustCompile(`[,，。、\-]+$`),
	}
}

// Decompose returns only a building for institutional addresses and the
// full breakdown otherwise.
func (bd *BuildingDecomposer) Decompose(text string, known models.AddressComponents) BuildingInfo {
	if building, ok := bd.special.Detect(text, known); ok {
		return BuildingInfo{Building: building}
	}
	return bd.DecomposeResidual(text, known)
}

// DecomposeResidual is Decompose without the institutional short-circuit.
// District and street are left in the text since they may belong to the
// building name.
func (bd *BuildingDecomposer) DecomposeResidual(text string, known models.AddressComponents) BuildingInfo {
	var info BuildingInfo

	remaining := removeAll(text, known.Province, known.City, known.Name, known.Phone)
	remaining = bd.cleaner.Normalize(remaining)

	for _, p := range bd.streetPatterns {
		loc := p.FindStringIndex(remaining)
		if loc == nil {
			continue
		}
		street := remaining[loc[0]:loc[1]]
		if known.District != "" && street != known.District {
			street = strings.TrimPrefix(street, known.District)
		}
		info.Street = street
		remaining = remaining[:loc[0]] + remaining[loc[1]:]
		break
	}

	if loc := bd.unitPattern.FindStringIndex(remaining); loc != nil {
		info.Unit = remaining[loc[0]:loc[1]]
		remaining = remaining[:loc[0]] + remaining[loc[1]:]
	}

	for _, p := range bd.roomPatterns {
		m := p.FindStringSubmatchIndex(remaining)
		if m == nil {
			continue
		}
		info.Room = remaining[m[2]:m[3]]
		remaining = remaining[:m[2]] + remaining[m[3]:]
		remaining = bd.trailingRoom.ReplaceAllString(remaining, "")
		break
	}

	remaining = strings.TrimSpace(bd.whitespace.ReplaceAllString(remaining, " "))
	remaining = strings.TrimSpace(bd.trailingPunctuation.ReplaceAllString(remaining, ""))
	info.Building = remaining

	return info
}
