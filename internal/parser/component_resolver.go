package parser

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/address-completer/app/models"
	"github.com/address-completer/internal/amap"
	"github.com/address-completer/internal/normalizer"
	"go.uber.org/zap"
)

// Lookup is the subset of the provider gateway the resolver depends on.
type Lookup interface {
	ConvertCoordinates(ctx context.Context, locations, coordsys string) (string, error)
	ReverseGeocode(ctx context.Context, location string) (*amap.ReverseGeocode, error)
	DistrictByName(ctx context.Context, name string) (models.DistrictInfo, error)
	Geocode(ctx context.Context, address, city string) ([]amap.Geocode, error)
	Weather(ctx context.Context, adcode string) (*models.WeatherSnapshot, error)
	StreetsUnder(ctx context.Context, adcode string) ([]string, error)
}

// Request is one address to complete. Location is "lng,lat"; CoordSys names
// its coordinate system when it is not the provider's own.
type Request struct {
	Address  string
	Location string
	CoordSys string
}

type stepOutcome int

const (
	stepResolved stepOutcome = iota
	stepNotApplicable
	stepFailed
)

func (o stepOutcome) String() string {
	switch o {
	case stepResolved:
		return "resolved"
	case stepNotApplicable:
		return "not_applicable"
	default:
		return "failed"
	}
}

type stepResult struct {
	outcome    stepOutcome
	components models.AddressComponents
	err        error
}

func resolved(c models.AddressComponents) stepResult {
	return stepResult{outcome: stepResolved, components: c}
}

func notApplicable(err error) stepResult {
	return stepResult{outcome: stepNotApplicable, err: err}
}

func failed(err error) stepResult {
	return stepResult{outcome: stepFailed, err: err}
}

type resolveStep struct {
	name string
	run  func(ctx context.Context) stepResult
}

// ComponentResolver turns free text (and optionally coordinates) into
// AddressComponents by trying reverse geocoding, an exact district lookup
// and forward geocoding in that order.
type ComponentResolver struct {
	lookup     Lookup
	cleaner    *normalizer.TextCleaner
	contacts   *normalizer.ContactExtractor
	decomposer *BuildingDecomposer
	logger     *zap.Logger

	streetPatterns []*regexp.Regexp
}

// NewComponentResolver wires the text pipeline around lookup.
func NewComponentResolver(lookup Lookup, logger *zap.Logger) *ComponentResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	cleaner := normalizer.NewTextCleaner(lookup, logger)
	r := &ComponentResolver{
		lookup:     lookup,
		cleaner:    cleaner,
		contacts:   normalizer.NewContactExtractor(),
		decomposer: NewBuildingDecomposer(cleaner, NewSpecialPlaceDetector()),
		logger:     logger,
	}

	// Suffixes are character classes: [街道] ends at either 街 or 道.
	// Group 1, when present, excludes the trailing context character.
	for _, p := range []string{
		hanClass + `{2,}[街道]`,
		`(` + hanClass + `{2,}路)(?:[^口]|$)`,
		`(` + hanClass + `{2,}街)(?:[^道]|$)`,
		hanClass + `{2,}[大道]`,
		hanClass + `{2,}[广场]`,
		hanClass + `{2,}[开发区]`,
		hanClass + `{2,}[工业园]`,
		hanClass + `{2,}[科技园]`,
	} {
		r.streetPatterns = append(r.streetPatterns, regexp.MustCompile(p))
	}
	return r
}

// Cleaner exposes the text cleaner used by the resolver.
func (r *ComponentResolver) Cleaner() *normalizer.TextCleaner {
	return r.cleaner
}

// Complete resolves a bare address.
func (r *ComponentResolver) Complete(ctx context.Context, text string) models.AddressComponents {
	return r.Resolve(ctx, Request{Address: text})
}

// Resolve never fails: when every strategy is exhausted, or on panic, it
// returns the empty record. Partial results of a failed step are discarded.
func (r *ComponentResolver) Resolve(ctx context.Context, req Request) (result models.AddressComponents) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("Address resolution panicked",
				zap.Any("panic", rec),
				zap.String("address", req.Address))
			result = models.EmptyComponents()
		}
	}()

	var cleaned string
	var cleanedDone bool
	cleanedText := func(ctx context.Context) string {
		if !cleanedDone {
			cleaned = r.cleaner.Clean(ctx, req.Address)
			cleanedDone = true
		}
		return cleaned
	}

	steps := []resolveStep{
		{name: "coordinate", run: func(ctx context.Context) stepResult {
			return r.tryCoordinate(ctx, req)
		}},
		{name: "district_name", run: func(ctx context.Context) stepResult {
			return r.tryDistrictName(ctx, cleanedText(ctx))
		}},
		{name: "geocode", run: func(ctx context.Context) stepResult {
			return r.tryGeocode(ctx, cleanedText(ctx))
		}},
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			r.logger.Debug("Address resolution cancelled", zap.String("step", step.name), zap.Error(err))
			return models.EmptyComponents()
		}

		res := step.run(ctx)
		r.logger.Debug("Resolution step finished",
			zap.String("step", step.name),
			zap.String("outcome", res.outcome.String()),
			zap.Error(res.err))

		if res.outcome == stepResolved {
			return res.components
		}
	}

	return models.EmptyComponents()
}

func (r *ComponentResolver) tryCoordinate(ctx context.Context, req Request) stepResult {
	if strings.TrimSpace(req.Location) == "" {
		return notApplicable(nil)
	}

	location := req.Location
	if req.CoordSys != "" && req.CoordSys != "autonavi" {
		converted, err := r.lookup.ConvertCoordinates(ctx, location, req.CoordSys)
		if err != nil {
			r.logger.Debug("Coordinate conversion failed, using original",
				zap.String("location", location), zap.Error(err))
		} else if converted != "" {
			location = converted
		}
	}

	regeo, err := r.lookup.ReverseGeocode(ctx, location)
	if err != nil {
		return failed(err)
	}
	ac := regeo.AddressComponent
	if ac.Province == "" {
		return failed(amap.ErrNotFound)
	}

	c := models.EmptyComponents()
	c.Province = ac.Province.String()
	c.City = firstNonEmpty(ac.City.String(), c.Province)
	c.District = ac.District.String()
	c.Street = ac.Township.String()

	c.Name, c.Phone = r.contacts.Extract(req.Address)
	if req.Address != "" {
		info := r.decomposer.Decompose(req.Address, c)
		if c.Street == "" {
			c.Street = info.Street
		}
		c.Building, c.Unit, c.Room = info.Building, info.Unit, info.Room
	}

	c.Weather = r.weather(ctx, ac.Adcode.String())
	return resolved(c)
}

func (r *ComponentResolver) tryDistrictName(ctx context.Context, cleaned string) stepResult {
	if cleaned == "" {
		return notApplicable(nil)
	}

	info, err := r.lookup.DistrictByName(ctx, cleaned)
	if err != nil {
		if errors.Is(err, amap.ErrNotFound) {
			return notApplicable(err)
		}
		return failed(err)
	}
	if info.Province == "" {
		return notApplicable(amap.ErrNotFound)
	}

	c := models.EmptyComponents()
	c.Province = info.Province
	c.City = firstNonEmpty(info.City, info.Province)
	c.District = info.District
	if cleaned != info.Province && cleaned != info.City && cleaned != info.District {
		c.Building = cleaned
	}

	c.Weather = r.weather(ctx, info.Adcode)
	return resolved(c)
}

func (r *ComponentResolver) tryGeocode(ctx context.Context, cleaned string) stepResult {
	if cleaned == "" {
		return notApplicable(nil)
	}

	geocodes, err := r.lookup.Geocode(ctx, cleaned, "")
	if err != nil {
		return failed(err)
	}
	if len(geocodes) == 0 {
		return failed(amap.ErrNotFound)
	}
	top := geocodes[0]

	c := models.EmptyComponents()
	c.Province = top.Province.String()
	c.City = firstNonEmpty(top.City.String(), c.Province)
	c.District = top.District.String()

	c.Name, c.Phone = r.contacts.Extract(cleaned)
	info := r.decomposer.DecomposeResidual(cleaned, c)

	c.Street = r.possibleStreet(top.FormattedAddress.String(), c)
	if c.Street == "" {
		c.Street = r.streetFromDistrictTree(ctx, top.Adcode.String(), cleaned)
	}
	if c.Street == "" {
		c.Street = info.Street
	}
	c.Building, c.Unit, c.Room = info.Building, info.Unit, info.Room

	c.Weather = r.weather(ctx, top.Adcode.String())
	return resolved(c)
}

// possibleStreet finds a street-like span in the provider's formatted
// address once the administrative prefix is removed.
func (r *ComponentResolver) possibleStreet(formatted string, c models.AddressComponents) string {
	remaining := removeAll(formatted, c.Province, c.City, c.District)
	for _, p := range r.streetPatterns {
		m := p.FindStringSubmatch(remaining)
		if m == nil {
			continue
		}
		if len(m) > 1 && m[1] != "" {
			return m[1]
		}
		return m[0]
	}
	return ""
}

// streetFromDistrictTree returns the first street-level unit under adcode
// whose name appears in address.
func (r *ComponentResolver) streetFromDistrictTree(ctx context.Context, adcode, address string) string {
	if adcode == "" {
		return ""
	}
	streets, err := r.lookup.StreetsUnder(ctx, adcode)
	if err != nil {
		r.logger.Debug("District tree street lookup failed", zap.String("adcode", adcode), zap.Error(err))
		return ""
	}
	for _, street := range streets {
		if street != "" && strings.Contains(address, street) {
			return street
		}
	}
	return ""
}

// weather is best effort; any failure yields nil.
func (r *ComponentResolver) weather(ctx context.Context, adcode string) *models.WeatherSnapshot {
	if adcode == "" {
		return nil
	}
	snapshot, err := r.lookup.Weather(ctx, adcode)
	if err != nil {
		r.logger.Debug("Weather lookup failed", zap.String("adcode", adcode), zap.Error(err))
		return nil
	}
	return snapshot
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
