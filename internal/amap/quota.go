package amap

import (
	"strings"
	"sync"
	"time"
)

const quotaDateLayout = "2006-01-02"

// QuotaTracker counts calls per path for the current local day.
type QuotaTracker struct {
	mu           sync.Mutex
	searchPrefix string
	searchLimit  int
	defaultLimit int
	date         string
	counts       map[string]int
	now          func() time.Time
}

// NewQuotaTracker creates a tracker; paths starting with searchPrefix use searchLimit.
func NewQuotaTracker(searchPrefix string, searchLimit, defaultLimit int) *QuotaTracker {
	return &QuotaTracker{
		searchPrefix: searchPrefix,
		searchLimit:  searchLimit,
		defaultLimit: defaultLimit,
		counts:       make(map[string]int),
		now:          time.Now,
	}
}

// Limit returns the daily limit that applies to path.
func (qt *QuotaTracker) Limit(path string) int {
	if qt.searchPrefix != "" && strings.HasPrefix(path, qt.searchPrefix) {
		return qt.searchLimit
	}
	return qt.defaultLimit
}

// Charge counts one attempt against path and fails once the limit is passed.
// The attempt is charged even when it is rejected.
func (qt *QuotaTracker) Charge(path string) error {
	qt.mu.Lock()
	defer qt.mu.Unlock()

	qt.rollover()
	qt.counts[path]++
	limit := qt.Limit(path)
	if qt.counts[path] > limit {
		return &QuotaExceededError{Path: path, Limit: limit}
	}
	return nil
}

// Usage returns a copy of today's counters.
func (qt *QuotaTracker) Usage() (string, map[string]int) {
	qt.mu.Lock()
	defer qt.mu.Unlock()

	qt.rollover()
	usage := make(map[string]int, len(qt.counts))
	for path, count := range qt.counts {
		usage[path] = count
	}
	return qt.date, usage
}

// rollover resets the counters when the local date changed. Caller holds mu.
func (qt *QuotaTracker) rollover() {
	today := qt.now().Format(quotaDateLayout)
	if today != qt.date {
		qt.date = today
		qt.counts = make(map[string]int)
	}
}
