package validate

import (
	"testing"

	"github.com/brainpal/brainpal-backend/internal/model"
)

func TestPriority(t *testing.T) {
	for _, p := range []model.Priority{"", model.PriorityLow, model.PriorityMedium, model.PriorityHigh} {
		if err := Priority(p); err != nil {
			t.Fatalf("%q: %v", p, err)
		}
	}
	if err := Priority("urgent"); err == nil {
		t.Fatal("expected error for unknown priority")
	}
}

func TestStatus(t *testing.T) {
	for _, s := range []model.Status{model.StatusPending, model.StatusCompleted, model.StatusPostponed} {
		if err := Status(s); err != nil {
			t.Fatalf("%q: %v", s, err)
		}
	}
	if err := Status("done"); err == nil {
		t.Fatal("expected error for unknown status")
	}
	if err := Status(""); err == nil {
		t.Fatal("expected error for empty status")
	}
}

func TestClockTime(t *testing.T) {
	for _, v := range []string{"0:00", "9:05", "09:05", "12:30", "23:59"} {
		if err := ClockTime("t", v); err != nil {
			t.Fatalf("%q: %v", v, err)
		}
	}
	for _, v := range []string{"", "24:00", "9:5", "12:60", "noon", "9.30"} {
		if err := ClockTime("t", v); err == nil {
			t.Fatalf("%q: expected error", v)
		}
	}
}

func TestDate(t *testing.T) {
	if err := Date("d", "2026-08-30"); err != nil {
		t.Fatalf("valid date rejected: %v", err)
	}
	for _, v := range []string{"", "2026-8-30", "08/30/2026", "tomorrow"} {
		if err := Date("d", v); err == nil {
			t.Fatalf("%q: expected error", v)
		}
	}
}

func TestTranscript(t *testing.T) {
	if err := Transcript("need to call the dentist and buy groceries"); err != nil {
		t.Fatalf("valid transcript rejected: %v", err)
	}
	if err := Transcript(""); err == nil {
		t.Fatal("expected error for empty transcript")
	}
}

func TestTaskPatch(t *testing.T) {
	title := "Call dentist"
	prio := model.PriorityHigh
	due := "2026-09-01"
	if err := TaskPatch(model.TaskPatch{Title: &title, Priority: &prio, DueDate: &due}); err != nil {
		t.Fatalf("valid patch rejected: %v", err)
	}

	empty := ""
	if err := TaskPatch(model.TaskPatch{Title: &empty}); err == nil {
		t.Fatal("expected error for empty title")
	}

	badDate := "next week"
	if err := TaskPatch(model.TaskPatch{DueDate: &badDate}); err == nil {
		t.Fatal("expected error for malformed dueDate")
	}

	// Empty date strings clear the field and are accepted.
	if err := TaskPatch(model.TaskPatch{DueDate: &empty}); err != nil {
		t.Fatalf("clearing patch rejected: %v", err)
	}
}

func TestCreateReminder(t *testing.T) {
	if err := CreateReminder("Morning", 3, "9:00", "17:00"); err != nil {
		t.Fatalf("valid reminder rejected: %v", err)
	}
	if err := CreateReminder("", 3, "9:00", "17:00"); err == nil {
		t.Fatal("expected error for empty name")
	}
	if err := CreateReminder("Morning", 0, "9:00", "17:00"); err == nil {
		t.Fatal("expected error for zero count")
	}
	if err := CreateReminder("Morning", 3, "morning", "17:00"); err == nil {
		t.Fatal("expected error for bad start time")
	}
}

func TestSubscribe(t *testing.T) {
	if err := Subscribe(model.PlanBasic, "txn-1"); err != nil {
		t.Fatalf("valid subscribe rejected: %v", err)
	}
	if err := Subscribe(model.PlanFree, "txn-1"); err == nil {
		t.Fatal("expected error for free plan")
	}
	if err := Subscribe(model.PlanPremium, ""); err == nil {
		t.Fatal("expected error for missing transaction id")
	}
}

func TestPurchaseCredits(t *testing.T) {
	if err := PurchaseCredits("medium", "txn-2"); err != nil {
		t.Fatalf("valid purchase rejected: %v", err)
	}
	if err := PurchaseCredits("jumbo", "txn-2"); err == nil {
		t.Fatal("expected error for unknown package")
	}
}
