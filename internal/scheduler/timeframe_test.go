package scheduler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeTimeframe(t *testing.T) {
	cases := []struct {
		name       string
		count      int
		start, end string
		want       []string
	}{
		{"zero count", 0, "09:00", "17:00", []string{}},
		{"negative count", -2, "09:00", "17:00", []string{}},
		{"single reminder", 1, "09:00", "17:00", []string{"09:00"}},
		{"three evenly spaced", 3, "09:00", "11:00", []string{"09:00", "10:00", "11:00"}},
		{"two endpoints", 2, "08:30", "20:30", []string{"08:30", "20:30"}},
		{"rounds to nearest minute", 3, "09:00", "10:01", []string{"09:00", "09:31", "10:01"}},
		{"five across workday", 5, "09:00", "17:00", []string{"09:00", "11:00", "13:00", "15:00", "17:00"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ComputeTimeframe(tc.count, tc.start, tc.end)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestComputeTimeframe_BadInput(t *testing.T) {
	_, err := ComputeTimeframe(2, "morning", "17:00")
	require.Error(t, err)
	_, err = ComputeTimeframe(2, "09:00", "25:00")
	require.Error(t, err)
}
