package router_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/hiring-lifecycle/internal/auth"
	"github.com/ignatzorin/hiring-lifecycle/internal/config"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/entity"
	"github.com/ignatzorin/hiring-lifecycle/internal/http/router"
	"github.com/ignatzorin/hiring-lifecycle/internal/infrastructure/payment"
	"github.com/ignatzorin/hiring-lifecycle/internal/interface/http/handler"
	"github.com/ignatzorin/hiring-lifecycle/internal/usecase/usecasetest"
)

const callbackSecret = "callback-secret"

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Pagination *struct {
		Total int `json:"total"`
	} `json:"pagination"`
}

type server struct {
	env    *usecasetest.Env
	engine *gin.Engine
	tokens *auth.TokenManager
}

func newServer(t *testing.T, rateLimit int64) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	env := usecasetest.New(t)
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	cfg := &config.Config{
		Env:             "test",
		AllowedOrigins:  []string{"https://app.example.com"},
		RateLimitLimit:  rateLimit,
		RateLimitPeriod: time.Minute,
	}
	engine := router.SetupRouter(cfg, tokens, router.Handlers{
		Health:      handler.NewHealthHandler(nil, config.StorageDriverMemory),
		Hirings:     handler.NewHiringHandler(env.UC.Hirings),
		Deliveries:  handler.NewDeliveryHandler(env.UC.Deliveries, payment.NewCallbackVerifier(callbackSecret)),
		Claims:      handler.NewClaimHandler(env.UC.Claims),
		Compliances: handler.NewComplianceHandler(env.UC.Compliances),
		Moderation:  handler.NewModerationHandler(env.UC.Moderation),
		Attachments: handler.NewAttachmentHandler(env.Files),
	})
	return &server{env: env, engine: engine, tokens: tokens}
}

func (s *server) send(t *testing.T, req *http.Request, actor *entity.Actor) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	if actor != nil {
		token, err := s.tokens.Issue(*actor)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var body envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	}
	return w, body
}

func (s *server) do(t *testing.T, method, path string, actor *entity.Actor, payload any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(payload))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return s.send(t, req, actor)
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

type idOnly struct {
	ID uuid.UUID `json:"id"`
}

func TestHealth(t *testing.T) {
	s := newServer(t, 100)
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body handler.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "memory", body.Checks["storage_driver"])
}

func TestAuthRequired(t *testing.T) {
	s := newServer(t, 100)

	w, body := s.do(t, http.MethodGet, "/api/hirings", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	require.NotNil(t, body.Error)
	assert.Equal(t, "UNAUTHORIZED", body.Error.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/hirings", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w, _ = s.send(t, req, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestErrorMapping(t *testing.T) {
	s := newServer(t, 100)
	env := s.env
	h := env.Hiring(t).Hiring
	missing := "/api/hirings/" + uuid.NewString()

	tests := []struct {
		name   string
		method string
		path   string
		actor  entity.Actor
		body   any
		status int
		code   string
	}{
		{"bad uuid", http.MethodGet, "/api/hirings/42", env.Client, nil, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"outsider", http.MethodGet, "/api/hirings/" + h.ID.String(), env.Outsider, nil, http.StatusForbidden, "FORBIDDEN"},
		{"missing for outsider", http.MethodGet, missing, env.Outsider, nil, http.StatusForbidden, "FORBIDDEN"},
		{"missing for staff", http.MethodGet, missing, env.Staff, nil, http.StatusNotFound, "NOT_FOUND"},
		{"moderation for client", http.MethodGet, "/api/moderation/analyses", env.Client, nil, http.StatusForbidden, "FORBIDDEN"},
		{"client cannot start", http.MethodPost, "/api/hirings/" + h.ID.String() + "/start", env.Client, nil, http.StatusForbidden, "FORBIDDEN"},
		{"unknown review action", http.MethodPost, "/api/deliveries/" + uuid.NewString() + "/review", env.Client,
			map[string]string{"action": "reject"}, http.StatusBadRequest, "VALIDATION_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := s.do(t, tt.method, tt.path, &tt.actor, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			require.NotNil(t, body.Error)
			assert.Equal(t, tt.code, body.Error.Code)
			assert.False(t, body.Success)
		})
	}
}

func TestDeliverablePaymentOverHTTP(t *testing.T) {
	s := newServer(t, 100)
	env := s.env

	w, body := s.do(t, http.MethodPost, "/api/hirings", &env.Client, map[string]any{
		"provider_id":      env.Provider.UserID,
		"service_id":       uuid.New(),
		"payment_modality": "by_deliverables",
		"quoted_price":     100,
		"deliverables": []map[string]any{
			{"title": "Макет", "price": 60},
			{"title": "Вёрстка", "price": 40},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[struct {
		Hiring       idOnly   `json:"hiring"`
		Deliverables []idOnly `json:"deliverables"`
	}](t, body.Data)
	require.Len(t, created.Deliverables, 2)
	hiringPath := "/api/hirings/" + created.Hiring.ID.String()

	w, body = s.do(t, http.MethodPost, hiringPath+"/deliveries", &env.Provider, map[string]any{
		"deliverable_id": created.Deliverables[1].ID,
		"content":        "Вёрстка готова",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "ORDER_VIOLATION", body.Error.Code)

	w, body = s.do(t, http.MethodPost, hiringPath+"/deliveries", &env.Provider, map[string]any{
		"deliverable_id": created.Deliverables[0].ID,
		"content":        "Макет готов",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	submitted := decode[idOnly](t, body.Data)

	session := usecasetest.Session()
	env.Gateway.On("InitiatePayment", mock.Anything, mock.Anything).Return(session, nil).Once()
	w, body = s.do(t, http.MethodPost, "/api/deliveries/"+submitted.ID.String()+"/review", &env.Client, map[string]string{"action": "approve"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	reviewed := decode[struct {
		RedirectURL string `json:"redirect_url"`
		Delivery    struct {
			Status string `json:"status"`
		} `json:"delivery"`
	}](t, body.Data)
	assert.Equal(t, session.RedirectURL, reviewed.RedirectURL)
	assert.Equal(t, "pending_payment", reviewed.Delivery.Status)
	env.Gateway.AssertExpectations(t)

	forged, err := payment.SignCallback("other-secret", session.ExternalRef, payment.StatusSucceeded, "")
	require.NoError(t, err)
	w, _ = s.do(t, http.MethodPost, "/api/payments/callback", nil, map[string]string{"token": forged})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := payment.SignCallback(callbackSecret, session.ExternalRef, payment.StatusSucceeded, "")
	require.NoError(t, err)
	w, body = s.do(t, http.MethodPost, "/api/payments/callback", nil, map[string]string{"token": token})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	confirmed := decode[struct {
		DeliveryStatus string `json:"delivery_status"`
	}](t, body.Data)
	assert.Equal(t, "approved", confirmed.DeliveryStatus)

	w, body = s.do(t, http.MethodPost, "/api/payments/callback", nil, map[string]string{"token": token})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "ALREADY_RESOLVED", body.Error.Code)

	w, body = s.do(t, http.MethodGet, hiringPath+"/deliveries", &env.Client, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, body.Pagination)
	assert.Equal(t, 1, body.Pagination.Total)
}

func TestModerationRoutes(t *testing.T) {
	s := newServer(t, 100)
	env := s.env

	w, body := s.do(t, http.MethodPost, "/api/moderation/analyses", &env.Staff, map[string]any{
		"user_id":           env.Provider.UserID,
		"classification":    "Revisar",
		"total_reports":     2,
		"offensive_reports": 1,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	analysis := decode[idOnly](t, body.Data)

	w, body = s.do(t, http.MethodGet, "/api/moderation/analyses?resolved=false", &env.Staff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, body.Pagination.Total)

	w, _ = s.do(t, http.MethodGet, "/api/moderation/analyses?resolved=maybe", &env.Staff, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	resolvePath := "/api/moderation/analyses/" + analysis.ID.String() + "/resolve"
	w, _ = s.do(t, http.MethodPost, resolvePath, &env.Staff, map[string]any{"action": "keep_monitoring"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w, body = s.do(t, http.MethodPost, resolvePath, &env.Staff, map[string]any{"action": "keep_monitoring"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "ALREADY_RESOLVED", body.Error.Code)
}

func TestAttachmentUpload(t *testing.T) {
	s := newServer(t, 100)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "notes.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("правки по макету"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/attachments", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w, body := s.send(t, req, &s.env.Provider)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	stored := decode[struct {
		Path string `json:"path"`
	}](t, body.Data)
	assert.NotEmpty(t, stored.Path)

	req = httptest.NewRequest(http.MethodPost, "/api/attachments", bytes.NewReader(nil))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	w, _ = s.send(t, req, &s.env.Provider)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRateLimitOnCommands(t *testing.T) {
	s := newServer(t, 2)
	path := "/api/hirings/" + uuid.NewString() + "/start"

	for range 2 {
		w, _ := s.do(t, http.MethodPost, path, &s.env.Provider, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.NotEmpty(t, w.Header().Get("X-RateLimit-Remaining"))
	}
	w, body := s.do(t, http.MethodPost, path, &s.env.Provider, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "RATE_LIMITED", body.Error.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// чтение не ограничивается лимитом команд
	w, _ = s.do(t, http.MethodGet, "/api/hirings", &s.env.Provider, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	s := newServer(t, 100)

	req := httptest.NewRequest(http.MethodOptions, "/api/hirings", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/hirings", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
