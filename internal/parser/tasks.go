package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/brainpal/brainpal-backend/internal/model"
)

// ExtractedTask is one normalized task from a completion response.
type ExtractedTask struct {
	Title         string
	Description   string
	Priority      model.Priority
	DueDate       time.Time
	ScheduledTime *string
	Subtasks      []model.Subtask
}

type taskWire struct {
	Tasks []struct {
		Title         string `json:"title"`
		Description   string `json:"description"`
		Priority      string `json:"priority"`
		DueDate       string `json:"due_date"`
		ScheduledTime string `json:"scheduled_time"`
		Subtasks      []struct {
			Title            string `json:"title"`
			EstimatedMinutes int    `json:"estimated_minutes"`
		} `json:"subtasks"`
	} `json:"tasks"`
}

// ParseTasks extracts a task list from completion text, falling back to a
// heuristic line scan when no JSON can be recovered. Dates are resolved
// against the supplied now so the contract stays testable.
func ParseTasks(content string, now time.Time) ([]ExtractedTask, error) {
	raw, err := extractJSONObject(content)
	if err != nil {
		if errors.Is(err, model.ErrUnparseableResponse) {
			if tasks := scanTaskLines(content, now); len(tasks) > 0 {
				return tasks, nil
			}
		}
		return nil, err
	}

	var wire taskWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrUnparseableResponse, err)
	}
	if wire.Tasks == nil {
		return nil, fmt.Errorf("%w: response has no tasks array", model.ErrUnparseableResponse)
	}

	out := make([]ExtractedTask, 0, len(wire.Tasks))
	for _, w := range wire.Tasks {
		t := ExtractedTask{
			Title:       w.Title,
			Description: w.Description,
			Priority:    normalizePriority(w.Priority),
		}
		if t.Title == "" {
			t.Title = "Untitled Task"
		}

		res := ResolvePhrases(w.Title+" "+w.Description, now)
		if d, err := time.Parse("2006-01-02", w.DueDate); err == nil {
			t.DueDate = d
		} else if res.Date != nil {
			t.DueDate = *res.Date
		} else {
			t.DueDate = truncateToDay(now).AddDate(0, 0, DefaultHorizonDays)
		}

		if w.ScheduledTime != "" {
			st := w.ScheduledTime
			t.ScheduledTime = &st
		} else if res.ClockTime != nil {
			t.ScheduledTime = res.ClockTime
		}

		for _, sw := range w.Subtasks {
			st := model.Subtask{Title: sw.Title, EstimatedMinutes: sw.EstimatedMinutes}
			if st.Title == "" {
				st.Title = "Untitled step"
			}
			if st.EstimatedMinutes <= 0 {
				st.EstimatedMinutes = 10
			}
			t.Subtasks = append(t.Subtasks, st)
		}
		out = append(out, t)
	}
	return out, nil
}

func normalizePriority(s string) model.Priority {
	switch model.Priority(strings.ToLower(s)) {
	case model.PriorityLow:
		return model.PriorityLow
	case model.PriorityHigh:
		return model.PriorityHigh
	default:
		return model.PriorityMedium
	}
}

var (
	numberedLineRx = regexp.MustCompile(`^\s*\d+[.)]\s+(.*)$`)
	bulletLineRx   = regexp.MustCompile(`^([ \t]*)[-*•]\s+(.*)$`)
)

// scanTaskLines is the last ladder rung: treat numbered or bulleted lines as
// task titles, indented bullets beneath them as subtasks, and a first plain
// line after a header as the description.
func scanTaskLines(content string, now time.Time) []ExtractedTask {
	var out []ExtractedTask
	var current *ExtractedTask

	flush := func() {
		if current != nil {
			out = append(out, *current)
			current = nil
		}
	}

	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}

		var title string
		isHeader := false
		if m := numberedLineRx.FindStringSubmatch(line); m != nil {
			title = m[1]
			isHeader = true
		} else if m := bulletLineRx.FindStringSubmatch(line); m != nil {
			if m[1] == "" {
				title = m[2]
				isHeader = true
			} else if current != nil {
				current.Subtasks = append(current.Subtasks, model.Subtask{
					Title:            strings.TrimSpace(m[2]),
					EstimatedMinutes: 10,
				})
				continue
			} else {
				title = m[2]
				isHeader = true
			}
		}

		if isHeader {
			flush()
			title = strings.TrimSpace(title)
			if title == "" {
				title = "Untitled Task"
			}
			res := ResolvePhrases(title, now)
			due := truncateToDay(now).AddDate(0, 0, DefaultHorizonDays)
			if res.Date != nil {
				due = *res.Date
			}
			current = &ExtractedTask{
				Title:         title,
				Priority:      model.PriorityMedium,
				DueDate:       due,
				ScheduledTime: res.ClockTime,
			}
			continue
		}

		if current != nil && current.Description == "" {
			current.Description = strings.TrimSpace(line)
		}
	}
	flush()
	return out
}
