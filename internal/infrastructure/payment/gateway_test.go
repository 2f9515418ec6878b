package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/repository"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paymentRequest() repository.PaymentRequest {
	return repository.PaymentRequest{
		DeliveryID:  uuid.New(),
		HiringID:    uuid.New(),
		Amount:      valueobject.Money{Amount: 150, Currency: "USD"},
		Description: "Оплата этапа 1: макет",
	}
}

func TestGateway_InitiatePayment(t *testing.T) {
	req := paymentRequest()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/payments", r.URL.Path)
		assert.Equal(t, "Bearer key-1", r.Header.Get("Authorization"))

		var body createPaymentRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, req.DeliveryID.String(), body.Reference)
		assert.Equal(t, 150.0, body.Amount)
		assert.Equal(t, "https://app.example.com/return", body.ReturnURL)

		_ = json.NewEncoder(w).Encode(createPaymentResponse{ID: "pay_1", RedirectURL: "https://pay.example.com/pay_1"})
	}))
	defer srv.Close()

	g := NewGateway(Config{BaseURL: srv.URL + "/", APIKey: "key-1", ReturnURL: "https://app.example.com/return"}, srv.Client())
	session, err := g.InitiatePayment(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "pay_1", session.ExternalRef)
	assert.Equal(t, "https://pay.example.com/pay_1", session.RedirectURL)
}

func TestGateway_InitiatePaymentErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{name: "ошибка шлюза", handler: func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "maintenance", http.StatusServiceUnavailable)
		}},
		{name: "пустой ответ", handler: func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"id":""}`))
		}},
		{name: "не json", handler: func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>`))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()
			g := NewGateway(Config{BaseURL: srv.URL}, srv.Client())
			_, err := g.InitiatePayment(context.Background(), paymentRequest())
			assert.Error(t, err)
		})
	}
}

func TestCallbackVerifier(t *testing.T) {
	v := NewCallbackVerifier("callback-secret")

	token, err := SignCallback("callback-secret", "pay_1", StatusSucceeded, "")
	require.NoError(t, err)
	cb, err := v.VerifyCallback(token)
	require.NoError(t, err)
	assert.Equal(t, "pay_1", cb.ExternalRef)
	assert.True(t, cb.Succeeded)

	token, err = SignCallback("callback-secret", "pay_2", StatusFailed, "card declined")
	require.NoError(t, err)
	cb, err = v.VerifyCallback(token)
	require.NoError(t, err)
	assert.False(t, cb.Succeeded)
	assert.Equal(t, "card declined", cb.Reason)
}

func TestCallbackVerifier_Rejects(t *testing.T) {
	v := NewCallbackVerifier("callback-secret")

	forged, err := SignCallback("other-secret", "pay_1", StatusSucceeded, "")
	require.NoError(t, err)
	_, err = v.VerifyCallback(forged)
	assert.Error(t, err)

	unknown, err := SignCallback("callback-secret", "pay_1", "refunded", "")
	require.NoError(t, err)
	_, err = v.VerifyCallback(unknown)
	assert.Error(t, err)

	noID, err := SignCallback("callback-secret", "", StatusSucceeded, "")
	require.NoError(t, err)
	_, err = v.VerifyCallback(noID)
	assert.Error(t, err)
}

func TestSandbox_InitiatePayment(t *testing.T) {
	s := Sandbox{ReturnURL: "http://localhost:3000/payments/return/"}
	session, err := s.InitiatePayment(context.Background(), paymentRequest())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(session.ExternalRef, "sandbox_"))
	assert.Equal(t, "http://localhost:3000/payments/return?payment_id="+session.ExternalRef, session.RedirectURL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.InitiatePayment(ctx, paymentRequest())
	assert.ErrorIs(t, err, context.Canceled)
}
