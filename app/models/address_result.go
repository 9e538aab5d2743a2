package models

// AddressResult is one completed address as returned to callers and
// stored in batch job results.
type AddressResult struct {
	Address          string            `json:"address"`
	Location         string            `json:"location,omitempty"`
	Components       AddressComponents `json:"components"`
	FullAddress      string            `json:"full_address"`
	Romanized        string            `json:"romanized"`
	ProcessingTimeMs int64             `json:"processing_time_ms"`
	CacheHit         bool              `json:"cache_hit"`
	Error            string            `json:"error,omitempty"`
}

// Resolved reports whether any component was found.
func (r *AddressResult) Resolved() bool {
	return r != nil && !r.Components.IsEmpty()
}
