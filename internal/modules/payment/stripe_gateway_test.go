package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStripeEvent_PaymentIntent(t *testing.T) {
	payload := intentEventPayload(t, "evt_1", EventIntentSucceeded, "pi_1", IntentSucceeded, map[string]string{"bookingId": "5"})

	ev, err := ParseStripeEvent(payload, sign(payload), testSecret)
	require.NoError(t, err)
	assert.Equal(t, "evt_1", ev.ID)
	assert.Equal(t, EventIntentSucceeded, ev.Type)
	assert.Equal(t, "pi_1", ev.IntentID)
	assert.Equal(t, IntentSucceeded, ev.Status)
	assert.Equal(t, "5", ev.Metadata[MetaBookingID])
}

func TestParseStripeEvent_ChargeRefunded(t *testing.T) {
	payload := chargeEventPayload(t, "evt_2", "pi_9")

	ev, err := ParseStripeEvent(payload, sign(payload), testSecret)
	require.NoError(t, err)
	assert.Equal(t, EventChargeRefunded, ev.Type)
	assert.Equal(t, "pi_9", ev.IntentID)
}

func TestParseStripeEvent_RejectsBadSignatures(t *testing.T) {
	payload := intentEventPayload(t, "evt_1", EventIntentSucceeded, "pi_1", IntentSucceeded, nil)

	cases := map[string]struct {
		header string
		secret string
	}{
		"missing header": {"", testSecret},
		"garbage header": {"t=1,v1=deadbeef", testSecret},
		"wrong secret":   {sign(payload), "whsec_other"},
		"no secret":      {sign(payload), ""},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseStripeEvent(payload, tc.header, tc.secret)
			assert.ErrorIs(t, err, ErrInvalidSignature)
		})
	}
}

func TestParseStripeEvent_TamperedPayload(t *testing.T) {
	payload := intentEventPayload(t, "evt_1", EventIntentSucceeded, "pi_1", IntentSucceeded, nil)
	header := sign(payload)
	tampered := intentEventPayload(t, "evt_1", EventIntentSucceeded, "pi_2", IntentSucceeded, nil)

	_, err := ParseStripeEvent(tampered, header, testSecret)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestParseStripeEvent_OtherTypesKeepIDOnly(t *testing.T) {
	payload := eventPayload(t, "evt_3", "customer.created", map[string]any{"id": "cus_1", "object": "customer"})

	ev, err := ParseStripeEvent(payload, sign(payload), testSecret)
	require.NoError(t, err)
	assert.Equal(t, "customer.created", ev.Type)
	assert.Empty(t, ev.IntentID)
}

func TestIntentOpen(t *testing.T) {
	assert.True(t, (&Intent{Status: IntentRequiresPaymentMethod}).Open())
	assert.True(t, (&Intent{Status: IntentRequiresAction}).Open())
	assert.False(t, (&Intent{Status: IntentSucceeded}).Open())
	assert.False(t, (&Intent{Status: IntentCanceled}).Open())
}

func TestProviderErrorRejected(t *testing.T) {
	assert.True(t, (&ProviderError{HTTPStatus: 402}).Rejected())
	assert.False(t, (&ProviderError{HTTPStatus: 500}).Rejected())
	assert.False(t, (&ProviderError{}).Rejected())
	assert.ErrorIs(t, &ProviderError{HTTPStatus: 400}, ErrProvider)
}
