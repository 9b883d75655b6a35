package detect

import "snowtracker/internal/types"

// ConfidenceForLeadTime maps forecast lead time to a confidence tier. Each
// boundary is inclusive on the nearer tier: exactly 36 hours is still Very
// High, exactly 60 still High, and so on.
func ConfidenceForLeadTime(hours int) types.Confidence {
	switch {
	case hours <= 36:
		return types.ConfidenceVeryHigh
	case hours <= 60:
		return types.ConfidenceHigh
	case hours <= 96:
		return types.ConfidenceModerate
	case hours <= 144:
		return types.ConfidenceLow
	default:
		return types.ConfidenceVeryLow
	}
}
