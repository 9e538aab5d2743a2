package requests

// CompleteAddressRequest asks for one address to be completed. Either
// Address or Location must be set.
type CompleteAddressRequest struct {
	Address  string          `json:"address"`
	Location string          `json:"location,omitempty"` // "lng,lat"
	CoordSys string          `json:"coordsys,omitempty"` // gps, mapbar, baidu or autonavi
	Options  CompleteOptions `json:"options,omitempty"`
}

// CompleteOptions tunes a completion.
type CompleteOptions struct {
	UseCache *bool `json:"use_cache,omitempty"`
}

// CacheEnabled defaults to true when use_cache is omitted.
func (o CompleteOptions) CacheEnabled() bool {
	return o.UseCache == nil || *o.UseCache
}

// BatchCompleteRequest submits addresses for background completion.
type BatchCompleteRequest struct {
	Addresses []string        `json:"addresses" binding:"required,min=1"`
	Options   CompleteOptions `json:"options,omitempty"`
}

// MatchPlaceRequest searches places and picks the one best matching Address.
type MatchPlaceRequest struct {
	Address  string `json:"address" binding:"required"`
	Keywords string `json:"keywords,omitempty"`
	Region   string `json:"region,omitempty"`
	Types    string `json:"types,omitempty"`
}

// ValidateKeyRequest checks an API key; Apply switches the gateway to it when valid.
type ValidateKeyRequest struct {
	Key   string `json:"key" binding:"required"`
	Apply bool   `json:"apply,omitempty"`
}

// WalkingValidateRequest checks that Destination is within walking distance of Origin.
type WalkingValidateRequest struct {
	Origin      string `json:"origin,omitempty"` // "lng,lat"
	Destination string `json:"destination" binding:"required"`
	MaxDistance int    `json:"max_distance,omitempty"`
}
