package model

import (
	"errors"
	"testing"
)

func TestSplitTaskID_RoundTrip(t *testing.T) {
	a, task, err := SplitTaskID(JoinTaskID("abc123", "def456"))
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if a != "abc123" || task != "def456" {
		t.Fatalf("got (%q, %q)", a, task)
	}
}

func TestSplitTaskID_TaskIDWithDashes(t *testing.T) {
	// Only the first separator is structural.
	a, task, err := SplitTaskID(JoinTaskID("abc123", "task-with-dashes"))
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if a != "abc123" {
		t.Fatalf("analysis id corrupted: %q", a)
	}
	if task != "task-with-dashes" {
		t.Fatalf("task id corrupted: %q", task)
	}
}

func TestSplitTaskID_Malformed(t *testing.T) {
	for _, in := range []string{"", "nodash", "-leading", "trailing-", "-"} {
		if _, _, err := SplitTaskID(in); !errors.Is(err, ErrInvalidIdentifier) {
			t.Fatalf("%q: expected ErrInvalidIdentifier, got %v", in, err)
		}
	}
}

func TestNewID_NoDashes(t *testing.T) {
	for i := 0; i < 10; i++ {
		id := NewID()
		for _, r := range id {
			if r == '-' {
				t.Fatalf("id %q contains a dash", id)
			}
		}
	}
}
