// Package scheduler derives reminder delivery times from a stored
// configuration. Nothing here fires reminders; it only computes the plan.
package scheduler

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/brainpal/brainpal-backend/internal/model"
)

// ComputeTimeframe spaces count delivery times evenly across
// [startTime, endTime] inclusive, each rounded to the nearest minute.
// count <= 0 yields an empty plan; count == 1 yields just the start.
func ComputeTimeframe(count int, startTime, endTime string) ([]string, error) {
	if count <= 0 {
		return []string{}, nil
	}
	start, err := parseMinutes(startTime)
	if err != nil {
		return nil, err
	}
	if count == 1 {
		return []string{formatMinutes(start)}, nil
	}
	end, err := parseMinutes(endTime)
	if err != nil {
		return nil, err
	}

	interval := float64(end-start) / float64(count-1)
	out := make([]string, 0, count)
	for i := 0; i < count; i++ {
		m := int(math.Round(float64(start) + float64(i)*interval))
		out = append(out, formatMinutes(m))
	}
	return out, nil
}

func parseMinutes(clock string) (int, error) {
	parts := strings.Split(clock, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("%w: bad time %q", model.ErrValidation, clock)
	}
	hour, err1 := strconv.Atoi(parts[0])
	minute, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: bad time %q", model.ErrValidation, clock)
	}
	return hour*60 + minute, nil
}

func formatMinutes(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}
