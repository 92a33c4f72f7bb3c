package validate

import (
	"fmt"
	"regexp"

	"github.com/brainpal/brainpal-backend/internal/model"
)

var emailRx = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// clockRx matches 24h wall-clock times such as "9:00" or "21:30".
var clockRx = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):[0-5][0-9]$`)

// dateRx matches calendar dates in ISO form, "2026-08-30".
var dateRx = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// promptNameRx keeps prompt names shell- and URL-safe.
var promptNameRx = regexp.MustCompile(`^[a-z0-9_]{1,100}$`)

func NonEmpty(field, v string) error {
	if v == "" {
		return fmt.Errorf("%s is required", field)
	}
	return nil
}

func MaxLen(field string, v *string, limit int) error {
	if v == nil {
		return nil
	}
	if len(*v) > limit {
		return fmt.Errorf("%s exceeds %d characters", field, limit)
	}
	return nil
}

func Email(v string) error {
	if v == "" {
		return fmt.Errorf("email is required")
	}
	if len(v) > 320 || !emailRx.MatchString(v) {
		return fmt.Errorf("invalid email")
	}
	return nil
}

// Priority accepts the three task priorities; empty means "use the default".
func Priority(v model.Priority) error {
	switch v {
	case "", model.PriorityLow, model.PriorityMedium, model.PriorityHigh:
		return nil
	}
	return fmt.Errorf("priority must be low, medium or high")
}

// Status accepts the three task states.
func Status(v model.Status) error {
	switch v {
	case model.StatusPending, model.StatusCompleted, model.StatusPostponed:
		return nil
	}
	return fmt.Errorf("status must be pending, completed or postponed")
}

// ClockTime validates a 24h "HH:MM" wall-clock string.
func ClockTime(field, v string) error {
	if !clockRx.MatchString(v) {
		return fmt.Errorf("%s must be a HH:MM time", field)
	}
	return nil
}

// Date validates an ISO "YYYY-MM-DD" date string.
func Date(field, v string) error {
	if !dateRx.MatchString(v) {
		return fmt.Errorf("%s must be a YYYY-MM-DD date", field)
	}
	return nil
}

// PromptName validates an admin prompt template name.
func PromptName(v string) error {
	if v == "" {
		return fmt.Errorf("prompt name is required")
	}
	if !promptNameRx.MatchString(v) {
		return fmt.Errorf("prompt name must match %s", promptNameRx.String())
	}
	return nil
}

// -------- Request specific helpers ----------

// Transcript validates brain-dump text for the analysis and task-generation
// pipelines.
func Transcript(transcript string) error {
	if err := NonEmpty("transcript", transcript); err != nil {
		return err
	}
	if len(transcript) > 50000 {
		return fmt.Errorf("transcript exceeds 50000 characters")
	}
	return nil
}

// CreateTask validates input for manual task creation.
func CreateTask(title string, priority model.Priority) error {
	if err := MaxLen("title", &title, 500); err != nil {
		return err
	}
	return Priority(priority)
}

// TaskPatch validates the optional fields of a task update.
func TaskPatch(p model.TaskPatch) error {
	if p.Title != nil {
		if err := NonEmpty("title", *p.Title); err != nil {
			return err
		}
		if err := MaxLen("title", p.Title, 500); err != nil {
			return err
		}
	}
	if p.Priority != nil {
		if err := Priority(*p.Priority); err != nil {
			return err
		}
	}
	if p.Status != nil {
		if err := Status(*p.Status); err != nil {
			return err
		}
	}
	for field, v := range map[string]*string{
		"dueDate":        p.DueDate,
		"scheduledDate":  p.ScheduledDate,
		"postponedUntil": p.PostponedUntil,
	} {
		if v != nil && *v != "" {
			if err := Date(field, *v); err != nil {
				return err
			}
		}
	}
	if p.ScheduledTime != nil && *p.ScheduledTime != "" {
		if err := ClockTime("scheduledTime", *p.ScheduledTime); err != nil {
			return err
		}
	}
	return nil
}

// CreateReminder validates a reminder-time configuration.
func CreateReminder(name string, count int, startTime, endTime string) error {
	if err := NonEmpty("name", name); err != nil {
		return err
	}
	if count < 1 || count > 48 {
		return fmt.Errorf("count must be between 1 and 48")
	}
	if err := ClockTime("startTime", startTime); err != nil {
		return err
	}
	return ClockTime("endTime", endTime)
}

// Subscribe validates a subscription activation request.
func Subscribe(plan model.Plan, transactionID string) error {
	switch plan {
	case model.PlanBasic, model.PlanPremium:
	default:
		return fmt.Errorf("plan must be basic or premium")
	}
	return NonEmpty("transactionId", transactionID)
}

// PurchaseCredits validates a one-off credit package purchase.
func PurchaseCredits(packageSize, transactionID string) error {
	switch packageSize {
	case "small", "medium", "large":
	default:
		return fmt.Errorf("package must be small, medium or large")
	}
	return NonEmpty("transactionId", transactionID)
}
