package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AddressCache is the persisted form of a completed address.
type AddressCache struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	RawFingerprint string             `bson:"raw_fingerprint" json:"raw_fingerprint"` // sha256 of the request signature
	RawAddress     string             `bson:"raw_address" json:"raw_address"`         // request signature as received
	Romanized      string             `bson:"romanized" json:"romanized"`             // pinyin of the completed address
	Components     AddressComponents  `bson:"components" json:"components"`
	ParserVersion  string             `bson:"parser_version" json:"parser_version"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	LastAccessed   time.Time          `bson:"last_accessed" json:"last_accessed"`
	AccessCount    int                `bson:"access_count" json:"access_count"`
}

// NewAddressCache builds a cache document for a fresh result.
func NewAddressCache(fingerprint, rawAddress, romanized string, components AddressComponents, parserVersion string) *AddressCache {
	now := time.Now()
	return &AddressCache{
		RawFingerprint: fingerprint,
		RawAddress:     rawAddress,
		Romanized:      romanized,
		Components:     components,
		ParserVersion:  parserVersion,
		CreatedAt:      now,
		LastAccessed:   now,
		AccessCount:    1,
	}
}

// IsExpired checks the entry age against a TTL in hours.
func (ac *AddressCache) IsExpired(ttlHours int) bool {
	return time.Since(ac.CreatedAt) > time.Duration(ttlHours)*time.Hour
}

// IsValidParserVersion reports whether the entry was produced by the given parser version.
func (ac *AddressCache) IsValidParserVersion(currentVersion string) bool {
	return ac.ParserVersion == currentVersion
}
