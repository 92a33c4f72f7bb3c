package services

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/brainpal/brainpal-backend/internal/model"
)

func TestBillingService_SubscribeAndCancel(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	users := NewUserService(st, zerolog.Nop())
	_, err := users.EnsureUser(ctx, "u1", "u1@example.com")
	require.NoError(t, err)

	svc := NewBillingService(st, zerolog.Nop())

	state, err := svc.Subscribe(ctx, "u1", model.PlanBasic, PaymentInfo{
		TransactionID: "txn-sub-1", PaymentMethod: "stripe", Amount: 9.99,
	})
	require.NoError(t, err)
	require.Equal(t, 100, state.Credits.SubscriptionBalance)
	require.True(t, state.Subscription.Active)
	require.Equal(t, model.PlanBasic, state.Subscription.Plan)

	// Purchased credits survive the cancellation.
	_, err = svc.PurchaseCredits(ctx, "u1", "small", PaymentInfo{
		TransactionID: "txn-pkg-1", PaymentMethod: "paypal", Amount: 4.99,
	})
	require.NoError(t, err)

	res, err := svc.Cancel(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, model.PlanBasic, res.PreviousPlan)
	require.Equal(t, 100, res.CreditsRemoved)
	require.Zero(t, res.State.Credits.SubscriptionBalance)
	require.Equal(t, 50, res.State.Credits.PurchasedBalance)
	require.Equal(t, model.PlanFree, res.State.Subscription.Plan)

	// The removal is on the ledger as a negative entry.
	history, err := svc.History(ctx, "u1", 10)
	require.NoError(t, err)
	require.Equal(t, -100, history[0].Amount)
	require.Equal(t, model.LedgerSubscription, history[0].Type)

	// A second cancel has nothing to cancel.
	_, err = svc.Cancel(ctx, "u1")
	require.ErrorIs(t, err, model.ErrValidation)
}

func TestBillingService_DuplicateTransactionIsNoOp(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	users := NewUserService(st, zerolog.Nop())
	_, err := users.EnsureUser(ctx, "u1", "u1@example.com")
	require.NoError(t, err)

	svc := NewBillingService(st, zerolog.Nop())
	payment := PaymentInfo{TransactionID: "txn-retry", PaymentMethod: "stripe", Amount: 4.99}

	state, err := svc.PurchaseCredits(ctx, "u1", "medium", payment)
	require.NoError(t, err)
	require.Equal(t, 100, state.Credits.PurchasedBalance)

	// Webhook retry with the same transaction id grants nothing more.
	state, err = svc.PurchaseCredits(ctx, "u1", "medium", payment)
	require.NoError(t, err)
	require.Equal(t, 100, state.Credits.PurchasedBalance)

	history, err := svc.History(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
}

func TestBillingService_UnknownPlanAndPackage(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	users := NewUserService(st, zerolog.Nop())
	_, err := users.EnsureUser(ctx, "u1", "u1@example.com")
	require.NoError(t, err)

	svc := NewBillingService(st, zerolog.Nop())
	_, err = svc.Subscribe(ctx, "u1", "gold", PaymentInfo{})
	require.ErrorIs(t, err, model.ErrValidation)

	_, err = svc.PurchaseCredits(ctx, "u1", "jumbo", PaymentInfo{})
	require.ErrorIs(t, err, model.ErrValidation)
}

func TestBillingService_LedgerBalanceEquivalence(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	users := NewUserService(st, zerolog.Nop())
	_, err := users.EnsureUser(ctx, "u1", "u1@example.com")
	require.NoError(t, err)

	svc := NewBillingService(st, zerolog.Nop())
	_, err = svc.Subscribe(ctx, "u1", model.PlanPremium, PaymentInfo{TransactionID: "t1", PaymentMethod: "stripe", Amount: 19.99})
	require.NoError(t, err)
	_, err = svc.PurchaseCredits(ctx, "u1", "large", PaymentInfo{TransactionID: "t2", PaymentMethod: "stripe", Amount: 14.99})
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, "u1")
	require.NoError(t, err)

	state, err := svc.State(ctx, "u1")
	require.NoError(t, err)
	history, err := svc.History(ctx, "u1", 100)
	require.NoError(t, err)

	var sub, purchased int
	for _, e := range history {
		switch e.Type {
		case model.LedgerSubscription, model.LedgerRenewal:
			sub += e.Amount
		case model.LedgerPurchase:
			purchased += e.Amount
		}
	}
	require.Equal(t, state.Credits.SubscriptionBalance, sub)
	require.Equal(t, state.Credits.PurchasedBalance, purchased)
}
