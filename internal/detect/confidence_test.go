package detect

import (
	"testing"

	"snowtracker/internal/types"
)

func TestConfidenceForLeadTime(t *testing.T) {
	tests := []struct {
		hours int
		want  types.Confidence
	}{
		{0, types.ConfidenceVeryHigh},
		{36, types.ConfidenceVeryHigh},
		{37, types.ConfidenceHigh},
		{60, types.ConfidenceHigh},
		{61, types.ConfidenceModerate},
		{96, types.ConfidenceModerate},
		{97, types.ConfidenceLow},
		{144, types.ConfidenceLow},
		{145, types.ConfidenceVeryLow},
		{400, types.ConfidenceVeryLow},
	}

	for _, tt := range tests {
		if got := ConfidenceForLeadTime(tt.hours); got != tt.want {
			t.Errorf("ConfidenceForLeadTime(%d) = %s, want %s", tt.hours, got, tt.want)
		}
	}
}
