package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/brainpal/brainpal-backend/internal/model"
	"github.com/brainpal/brainpal-backend/internal/scheduler"
	"github.com/brainpal/brainpal-backend/internal/store"
)

// ReminderService manages reminder schedules. At most one schedule is active
// per user: creation deactivates the rest first.
type ReminderService struct {
	store store.Store
	log   zerolog.Logger
	now   func() time.Time
}

func NewReminderService(s store.Store, log zerolog.Logger) *ReminderService {
	return &ReminderService{store: s, log: log, now: time.Now}
}

// Create materializes the evenly spaced timeframe and stores the schedule as
// the user's active one.
func (s *ReminderService) Create(ctx context.Context, userID, name string, count int, startTime, endTime string) (*model.Reminder, error) {
	timeframe, err := scheduler.ComputeTimeframe(count, startTime, endTime)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = "Daily Reminders - " + s.now().Format("1/2/2006")
	}
	r := &model.Reminder{
		ReminderID: model.NewID(),
		UserID:     userID,
		Name:       name,
		Count:      count,
		StartTime:  startTime,
		EndTime:    endTime,
		Timeframe:  timeframe,
		Active:     true,
	}
	var created *model.Reminder
	err = withUser(ctx, s.store.Users(), userID, func(u *model.User) error {
		var createErr error
		created, createErr = s.store.Reminders().Create(ctx, userID, u.Version, r)
		return createErr
	})
	return created, err
}

func (s *ReminderService) List(ctx context.Context, userID string) ([]model.Reminder, error) {
	return s.store.Reminders().List(ctx, userID)
}

// GetActive returns the authoritative active schedule: the most recently
// created one flagged active.
func (s *ReminderService) GetActive(ctx context.Context, userID string) (*model.Reminder, error) {
	return s.store.Reminders().GetActive(ctx, userID)
}

func (s *ReminderService) Deactivate(ctx context.Context, userID, reminderID string) error {
	return withUser(ctx, s.store.Users(), userID, func(u *model.User) error {
		return s.store.Reminders().Deactivate(ctx, userID, u.Version, reminderID)
	})
}
