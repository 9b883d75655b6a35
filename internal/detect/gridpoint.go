package detect

import (
	"time"

	"snowtracker/internal/types"
)

// mmPerInch converts NWS gridpoint millimeter values to inches.
const mmPerInch = 25.4

// GridpointTotals accumulates a structured snowfall series into per-day inch
// totals, keyed by UTC-midnight calendar date. Entries with a missing or
// non-positive value, or an unparseable timestamp, are skipped.
func GridpointTotals(series []types.GridpointValue) map[time.Time]float64 {
	totals := make(map[time.Time]float64)

	for _, entry := range series {
		if entry.ValueMM == nil || *entry.ValueMM <= 0 {
			continue
		}
		ts, ok := ParseValidTime(entry.ValidTime)
		if !ok {
			continue
		}
		totals[DateOf(ts)] += *entry.ValueMM / mmPerInch
	}

	return totals
}
