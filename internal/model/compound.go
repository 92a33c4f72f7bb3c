package model

import (
	"fmt"
	"strings"
)

// JoinTaskID builds the compound id used to address a task from outside its
// owning analysis.
func JoinTaskID(analysisID, taskID string) string {
	return analysisID + "-" + taskID
}

// SplitTaskID splits a compound task id on the first '-' only, so task ids
// that themselves contain dashes survive a round trip. Malformed input
// yields ErrInvalidIdentifier, never a panic.
func SplitTaskID(compound string) (analysisID, taskID string, err error) {
	i := strings.Index(compound, "-")
	if i <= 0 || i == len(compound)-1 {
		return "", "", fmt.Errorf("%w: %q is not analysisId-taskId", ErrInvalidIdentifier, compound)
	}
	return compound[:i], compound[i+1:], nil
}
