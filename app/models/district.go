package models

// DistrictInfo is the administrative breakdown of a district lookup.
type DistrictInfo struct {
	Province string `json:"province"`
	City     string `json:"city"`
	District string `json:"district"`
	Adcode   string `json:"adcode"`
}

// CityInfo describes the city located from the caller's IP address.
type CityInfo struct {
	Province  string `json:"province"`
	City      string `json:"city"`
	Adcode    string `json:"adcode"`
	Rectangle string `json:"rectangle"`
}

// PoiCandidate is one point of interest returned by a place search.
type PoiCandidate struct {
	Name         string         `json:"name"`
	Address      string         `json:"address"`
	Adname       string         `json:"adname"`
	Type         string         `json:"type"`
	Alias        string         `json:"alias,omitempty"`
	BusinessArea string         `json:"business_area,omitempty"`
	Location     string         `json:"location,omitempty"`
	Children     []PoiCandidate `json:"children,omitempty"`
}
