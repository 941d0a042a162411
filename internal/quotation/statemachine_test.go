package quotation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from Status
		to   Status
		ok   bool
	}{
		{StatusDraft, StatusSentToCustomer, true},
		{StatusDraft, StatusExpired, true},
		{StatusDraft, StatusCustomerApproved, false},
		{StatusDraft, StatusSalesApproved, false},
		{StatusDraft, StatusRejected, false},
		{StatusSentToCustomer, StatusSentToCustomer, true},
		{StatusSentToCustomer, StatusCustomerApproved, true},
		{StatusSentToCustomer, StatusRejected, true},
		{StatusSentToCustomer, StatusExpired, true},
		{StatusSentToCustomer, StatusSalesApproved, false},
		{StatusCustomerApproved, StatusSalesApproved, true},
		{StatusCustomerApproved, StatusRejected, true},
		{StatusCustomerApproved, StatusExpired, true},
		{StatusCustomerApproved, StatusSentToCustomer, false},
		{StatusSalesApproved, StatusRejected, false},
		{StatusSalesApproved, StatusExpired, false},
		{StatusRejected, StatusDraft, false},
		{StatusExpired, StatusSentToCustomer, false},
	}
	for _, tc := range cases {
		require.Equalf(t, tc.ok, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestStatusTerminal(t *testing.T) {
	require.True(t, StatusSalesApproved.Terminal())
	require.True(t, StatusRejected.Terminal())
	require.True(t, StatusExpired.Terminal())
	require.False(t, StatusDraft.Terminal())
	require.False(t, StatusSentToCustomer.Terminal())
	require.False(t, StatusCustomerApproved.Terminal())
}

func TestStatusValid(t *testing.T) {
	require.True(t, StatusDraft.Valid())
	require.False(t, Status("APPROVED").Valid())
	require.False(t, Status("").Valid())
}

func TestCanEditCanSend(t *testing.T) {
	for _, s := range []Status{StatusDraft, StatusSentToCustomer} {
		require.True(t, CanEdit(s))
		require.True(t, CanSend(s))
	}
	for _, s := range []Status{StatusCustomerApproved, StatusSalesApproved, StatusRejected, StatusExpired} {
		require.False(t, CanEdit(s))
		require.False(t, CanSend(s))
	}
}

func TestEffectiveStatus(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	past := now.AddDate(0, 0, -1)
	future := now.AddDate(0, 0, 30)

	require.Equal(t, StatusExpired, EffectiveStatus(StatusDraft, past, now))
	require.Equal(t, StatusExpired, EffectiveStatus(StatusSentToCustomer, past, now))
	require.Equal(t, StatusDraft, EffectiveStatus(StatusDraft, future, now))

	// Terminal states never lapse.
	require.Equal(t, StatusSalesApproved, EffectiveStatus(StatusSalesApproved, past, now))
	require.Equal(t, StatusRejected, EffectiveStatus(StatusRejected, past, now))

	// Zero validity means no expiry.
	require.Equal(t, StatusDraft, EffectiveStatus(StatusDraft, time.Time{}, now))
}
