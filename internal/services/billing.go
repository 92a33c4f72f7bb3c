package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/brainpal/brainpal-backend/internal/model"
	"github.com/brainpal/brainpal-backend/internal/store"
)

// Credits granted per subscription plan and per one-time package.
var (
	planCredits = map[model.Plan]int{
		model.PlanBasic:   100,
		model.PlanPremium: 250,
	}
	packageCredits = map[string]int{
		"small":  50,
		"medium": 100,
		"large":  250,
	}
)

// BillingService applies credit grants, cancellations, and usage reads. All
// balance changes funnel through the store's Apply, which pairs each change
// with exactly one ledger append; a repeated external transaction id makes
// the whole grant a no-op.
type BillingService struct {
	store store.Store
	log   zerolog.Logger
	now   func() time.Time
}

func NewBillingService(s store.Store, log zerolog.Logger) *BillingService {
	return &BillingService{store: s, log: log, now: time.Now}
}

// PaymentInfo identifies the external payment backing a grant. TransactionID
// must be the provider's globally unique id; an empty id records no
// transaction and performs no idempotency check (dev/admin paths only).
type PaymentInfo struct {
	TransactionID string  `json:"transactionId"`
	PaymentMethod string  `json:"paymentMethod"`
	Amount        float64 `json:"amount"`
}

// BillingState is the balance view returned by billing operations.
type BillingState struct {
	Credits      model.CreditBalance `json:"credits"`
	Subscription model.Subscription  `json:"subscription"`
}

// State returns the user's current balances and subscription.
func (s *BillingService) State(ctx context.Context, userID string) (*BillingState, error) {
	u, err := s.store.Users().Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &BillingState{Credits: u.Credits, Subscription: u.Subscription}, nil
}

// Subscribe activates a plan and grants its credits. Replays of the same
// transaction id are absorbed silently.
func (s *BillingService) Subscribe(ctx context.Context, userID string, plan model.Plan, payment PaymentInfo) (*BillingState, error) {
	credits, ok := planCredits[plan]
	if !ok {
		return nil, fmt.Errorf("%w: unknown plan %q", model.ErrValidation, plan)
	}

	err := withUser(ctx, s.store.Users(), userID, func(u *model.User) error {
		now := s.now().UTC()
		balance := u.Credits
		balance.SubscriptionBalance += credits
		sub := model.Subscription{
			Active:    true,
			Plan:      plan,
			StartDate: &now,
			AutoRenew: true,
		}
		req := store.ApplyCreditRequest{
			UserID:  userID,
			Version: u.Version,
			Balance: balance,
			Entry: model.LedgerEntry{
				Type:        model.LedgerSubscription,
				Amount:      credits,
				Description: fmt.Sprintf("Credits from %s subscription", plan),
				Timestamp:   now,
			},
			Subscription: &sub,
		}
		if payment.TransactionID != "" {
			req.Transaction = s.transaction(u, "subscription", payment, credits, req.Entry.Description, plan, "")
		}
		return s.store.Credits().Apply(ctx, req)
	})
	if err != nil && !errors.Is(err, model.ErrDuplicateTransaction) {
		return nil, err
	}
	if errors.Is(err, model.ErrDuplicateTransaction) {
		s.log.Info().Str("userId", userID).Str("transactionId", payment.TransactionID).
			Msg("duplicate subscription confirmation ignored")
	}
	return s.State(ctx, userID)
}

// PurchaseCredits grants a one-time credit package. Same idempotency rules
// as Subscribe.
func (s *BillingService) PurchaseCredits(ctx context.Context, userID, packageSize string, payment PaymentInfo) (*BillingState, error) {
	credits, ok := packageCredits[packageSize]
	if !ok {
		return nil, fmt.Errorf("%w: unknown package size %q", model.ErrValidation, packageSize)
	}

	err := withUser(ctx, s.store.Users(), userID, func(u *model.User) error {
		now := s.now().UTC()
		balance := u.Credits
		balance.PurchasedBalance += credits
		req := store.ApplyCreditRequest{
			UserID:  userID,
			Version: u.Version,
			Balance: balance,
			Entry: model.LedgerEntry{
				Type:        model.LedgerPurchase,
				Amount:      credits,
				Description: fmt.Sprintf("Purchased %s credit package", packageSize),
				Timestamp:   now,
			},
		}
		if payment.TransactionID != "" {
			req.Transaction = s.transaction(u, "purchase", payment, credits, req.Entry.Description, "", packageSize)
		}
		return s.store.Credits().Apply(ctx, req)
	})
	if err != nil && !errors.Is(err, model.ErrDuplicateTransaction) {
		return nil, err
	}
	if errors.Is(err, model.ErrDuplicateTransaction) {
		s.log.Info().Str("userId", userID).Str("transactionId", payment.TransactionID).
			Msg("duplicate purchase confirmation ignored")
	}
	return s.State(ctx, userID)
}

// CancelResult reports what a cancellation removed.
type CancelResult struct {
	PreviousPlan   model.Plan   `json:"previousPlan"`
	CreditsRemoved int          `json:"creditsRemoved"`
	State          BillingState `json:"state"`
}

// Cancel downgrades to the free plan. The subscription balance is set to
// exactly zero and the removed amount is recorded as a negative ledger
// entry; purchased credits are untouched.
func (s *BillingService) Cancel(ctx context.Context, userID string) (*CancelResult, error) {
	var result CancelResult
	err := withUser(ctx, s.store.Users(), userID, func(u *model.User) error {
		if !u.Subscription.Active || u.Subscription.Plan == model.PlanFree {
			return fmt.Errorf("%w: no active subscription to cancel", model.ErrValidation)
		}
		now := s.now().UTC()
		removed := u.Credits.SubscriptionBalance
		result.PreviousPlan = u.Subscription.Plan
		result.CreditsRemoved = removed

		balance := u.Credits
		balance.SubscriptionBalance = 0
		sub := model.Subscription{Plan: model.PlanFree, EndDate: &now}
		return s.store.Credits().Apply(ctx, store.ApplyCreditRequest{
			UserID:  userID,
			Version: u.Version,
			Balance: balance,
			Entry: model.LedgerEntry{
				Type:        model.LedgerSubscription,
				Amount:      -removed,
				Description: fmt.Sprintf("Cancelled %s subscription - %d credits removed", result.PreviousPlan, removed),
				Timestamp:   now,
			},
			Subscription: &sub,
		})
	})
	if err != nil {
		return nil, err
	}
	state, err := s.State(ctx, userID)
	if err != nil {
		return nil, err
	}
	result.State = *state
	return &result, nil
}

// History returns the most recent ledger entries, newest first.
func (s *BillingService) History(ctx context.Context, userID string, limit int) ([]model.LedgerEntry, error) {
	return s.store.Credits().History(ctx, userID, limit)
}

func (s *BillingService) transaction(u *model.User, txType string, payment PaymentInfo, credits int, description string, plan model.Plan, packageSize string) *model.Transaction {
	return &model.Transaction{
		TransactionID: payment.TransactionID,
		UserID:        u.UserID,
		UserEmail:     u.Email,
		Type:          txType,
		Plan:          plan,
		PackageSize:   packageSize,
		PaymentMethod: payment.PaymentMethod,
		Amount:        payment.Amount,
		CreditsAdded:  credits,
		Description:   description,
		Status:        "completed",
		CreationTime:  s.now().UTC(),
	}
}
