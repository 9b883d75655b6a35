package detect

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"snowtracker/internal/types"
)

// eventIDLen is the length of a minted event identity.
const eventIDLen = 12

// MintEventID derives a stable identity from a location and an event's date
// range. Identical inputs always mint the same ID; a storm whose forecast
// dates shift between fetches relies on overlap matching instead.
func MintEventID(locationID int64, startDate, endDate time.Time) string {
	key := fmt.Sprintf("%d-%s-%s", locationID, startDate.Format(isoDate), endDate.Format(isoDate))
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])[:eventIDLen]
}

// OverlapDays returns the number of calendar days two inclusive date ranges
// share. Zero or negative means no overlap.
func OverlapDays(aStart, aEnd, bStart, bEnd time.Time) int {
	start := aStart
	if bStart.After(start) {
		start = bStart
	}
	end := aEnd
	if bEnd.Before(end) {
		end = bEnd
	}
	return int(end.Sub(start).Hours()/24) + 1
}

// MatchIdentity scans previously stored event ranges for one overlapping the
// candidate range by at least one day and returns its identity. The first
// match in store order wins; when several distinct identities overlap, the
// extras are returned so the caller can log the conflict. Returns ok=false
// when nothing overlaps.
func MatchIdentity(stored []types.StoredEventRange, startDate, endDate time.Time) (id string, conflicts []string, ok bool) {
	seen := make(map[string]struct{})
	for _, existing := range stored {
		if OverlapDays(startDate, endDate, existing.StartDate, existing.EndDate) < 1 {
			continue
		}
		if _, dup := seen[existing.EventID]; dup {
			continue
		}
		seen[existing.EventID] = struct{}{}
		if id == "" {
			id = existing.EventID
		} else if existing.EventID != id {
			conflicts = append(conflicts, existing.EventID)
		}
	}
	return id, conflicts, id != ""
}
