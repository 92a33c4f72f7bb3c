package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/brainpal/brainpal-backend/internal/model"
)

// A Monday, used wherever date resolution needs a fixed reference point.
var monday = time.Date(2026, time.March, 2, 10, 30, 0, 0, time.UTC)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseEmotion_DirectJSON(t *testing.T) {
	content := `{"empathetic_response":"That sounds heavy.","emotional_state":4,"energy_level":6,"brain_clarity":7,"reasoning":"mentions exhaustion","analysis_title":"Work Stress Management"}`
	e, err := ParseEmotion(content)
	require.NoError(t, err)
	require.Equal(t, "That sounds heavy.", e.EmpathicResponse)
	require.Equal(t, 4, e.EmotionalState)
	require.Equal(t, 6, e.EnergyLevel)
	require.Equal(t, 7, e.BrainClarity)
	require.Equal(t, "Work Stress Management", e.AnalysisTitle)
}

func TestParseEmotion_DefaultsAndClamping(t *testing.T) {
	e, err := ParseEmotion(`{"emotional_state":0,"energy_level":15}`)
	require.NoError(t, err)
	require.Equal(t, 1, e.EmotionalState)  // clamped up
	require.Equal(t, 10, e.EnergyLevel)    // clamped down
	require.Equal(t, 5, e.BrainClarity)    // absent
	require.Equal(t, "Brain Analysis", e.AnalysisTitle)
}

func TestParseEmotion_CodeBlock(t *testing.T) {
	content := "Here is my assessment:\n```json\n{\"emotional_state\": 3}\n```\nHope that helps."
	e, err := ParseEmotion(content)
	require.NoError(t, err)
	require.Equal(t, 3, e.EmotionalState)
}

func TestParseEmotion_EmbeddedWithControlChars(t *testing.T) {
	content := "Sure! {\"emotional_state\": 8, \"reasoning\": \"calm\x01 tone\"} as requested."
	e, err := ParseEmotion(content)
	require.NoError(t, err)
	require.Equal(t, 8, e.EmotionalState)
	require.Equal(t, "calm tone", e.Reasoning)
}

func TestParseEmotion_Unparseable(t *testing.T) {
	_, err := ParseEmotion("I cannot help with that.")
	require.ErrorIs(t, err, model.ErrUnparseableResponse)
}

func TestParseTasks_JSONWithDefaults(t *testing.T) {
	content := `{"tasks":[
		{"title":"Call dentist","priority":"high","due_date":"2026-03-04","scheduled_time":"14:00",
		 "subtasks":[{"title":"find number"},{"title":"make call","estimated_minutes":5}]},
		{"description":"no title on this one"}
	]}`
	tasks, err := ParseTasks(content, monday)
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	require.Equal(t, "Call dentist", tasks[0].Title)
	require.Equal(t, model.PriorityHigh, tasks[0].Priority)
	require.Equal(t, day(2026, time.March, 4), tasks[0].DueDate)
	require.NotNil(t, tasks[0].ScheduledTime)
	require.Equal(t, "14:00", *tasks[0].ScheduledTime)
	require.Equal(t, 10, tasks[0].Subtasks[0].EstimatedMinutes)
	require.Equal(t, 5, tasks[0].Subtasks[1].EstimatedMinutes)

	require.Equal(t, "Untitled Task", tasks[1].Title)
	require.Equal(t, model.PriorityMedium, tasks[1].Priority)
	// No temporal phrase at all: default horizon.
	require.Equal(t, day(2026, time.March, 5), tasks[1].DueDate)
	require.Nil(t, tasks[1].ScheduledTime)
}

func TestParseTasks_MondayScenario(t *testing.T) {
	content := `{"tasks":[
		{"title":"Finish report by Friday"},
		{"title":"Call mom this evening"}
	]}`
	tasks, err := ParseTasks(content, monday)
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	// Monday 2026-03-02 -> that week's Friday.
	require.Equal(t, day(2026, time.March, 6), tasks[0].DueDate)
	require.Nil(t, tasks[0].ScheduledTime)

	require.Equal(t, day(2026, time.March, 2), tasks[1].DueDate)
	require.NotNil(t, tasks[1].ScheduledTime)
	require.Equal(t, "19:00", *tasks[1].ScheduledTime)
}

func TestParseTasks_NoTasksArray(t *testing.T) {
	_, err := ParseTasks(`{"message":"ok"}`, monday)
	require.ErrorIs(t, err, model.ErrUnparseableResponse)
}

func TestParseTasks_HeuristicLineScan(t *testing.T) {
	content := `Here's what I'd suggest:

1. Email the landlord tomorrow
A short note about the leak is enough.
  - draft the message
  - attach photos
2. Buy groceries
- Take a walk`
	tasks, err := ParseTasks(content, monday)
	require.NoError(t, err)
	require.Len(t, tasks, 3)

	require.Equal(t, "Email the landlord tomorrow", tasks[0].Title)
	require.Equal(t, "A short note about the leak is enough.", tasks[0].Description)
	require.Len(t, tasks[0].Subtasks, 2)
	require.Equal(t, "draft the message", tasks[0].Subtasks[0].Title)
	require.Equal(t, day(2026, time.March, 3), tasks[0].DueDate)

	require.Equal(t, "Buy groceries", tasks[1].Title)
	require.Empty(t, tasks[1].Subtasks)
	require.Equal(t, "Take a walk", tasks[2].Title)
}

func TestResolvePhrases(t *testing.T) {
	cases := []struct {
		text  string
		date  *time.Time
		clock *string
	}{
		{"do it today", timePtr(day(2026, time.March, 2)), nil},
		{"do it tomorrow", timePtr(day(2026, time.March, 3)), nil},
		{"appointment in 4 days", timePtr(day(2026, time.March, 6)), nil},
		{"follow up 10 days from now", timePtr(day(2026, time.March, 12)), nil},
		{"taxes by end of the month", timePtr(day(2026, time.March, 31)), nil},
		{"clean garage this weekend", timePtr(day(2026, time.March, 8)), nil},
		{"reply ASAP", timePtr(day(2026, time.March, 3)), nil},
		{"meeting at 2:30 PM", timePtr(day(2026, time.March, 2)), strPtr("14:30")},
		{"9 AM appointment", timePtr(day(2026, time.March, 2)), strPtr("09:00")},
		{"lunch at noon", timePtr(day(2026, time.March, 2)), strPtr("12:00")},
		{"interview tomorrow at 3:30pm", timePtr(day(2026, time.March, 3)), strPtr("15:30")},
		{"water the plants", nil, nil},
	}
	for _, tc := range cases {
		res := ResolvePhrases(tc.text, monday)
		if tc.date == nil {
			require.Nil(t, res.Date, tc.text)
		} else {
			require.NotNil(t, res.Date, tc.text)
			require.Equal(t, *tc.date, *res.Date, tc.text)
		}
		if tc.clock == nil {
			require.Nil(t, res.ClockTime, tc.text)
		} else {
			require.NotNil(t, res.ClockTime, tc.text)
			require.Equal(t, *tc.clock, *res.ClockTime, tc.text)
		}
	}
}

func TestNextWeekday_SameDayMeansNextWeek(t *testing.T) {
	res := ResolvePhrases("standup by monday", monday)
	require.NotNil(t, res.Date)
	require.Equal(t, day(2026, time.March, 9), *res.Date)
}

func timePtr(t time.Time) *time.Time { return &t }
func strPtr(s string) *string        { return &s }
