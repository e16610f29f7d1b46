package ingest

import "time"

// ShouldRefreshForTest exposes the unexported shouldRefresh for this
// package's external test file.
func ShouldRefreshForTest(createdAt, lastCrawledAt, now time.Time) bool {
	return shouldRefresh(createdAt, lastCrawledAt, now)
}
