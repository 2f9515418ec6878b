// Package payment инициирует платежи во внешнем шлюзе и проверяет его callback.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/repository"
	"github.com/ignatzorin/hiring-lifecycle/internal/usecase/delivery"
)

const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

type Config struct {
	BaseURL        string
	APIKey         string
	CallbackSecret string
	ReturnURL      string
	Timeout        time.Duration
}

// Gateway - HTTP-клиент платёжного шлюза.
type Gateway struct {
	cfg    Config
	client *http.Client
}

func NewGateway(cfg Config, client *http.Client) *Gateway {
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Gateway{cfg: cfg, client: client}
}

type createPaymentRequest struct {
	Reference   string  `json:"reference"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Description string  `json:"description"`
	ReturnURL   string  `json:"return_url,omitempty"`
}

type createPaymentResponse struct {
	ID          string `json:"id"`
	RedirectURL string `json:"redirect_url"`
}

func (g *Gateway) InitiatePayment(ctx context.Context, req repository.PaymentRequest) (*repository.PaymentSession, error) {
	body, err := json.Marshal(createPaymentRequest{
		Reference:   req.DeliveryID.String(),
		Amount:      req.Amount.Amount,
		Currency:    req.Amount.Currency,
		Description: req.Description,
		ReturnURL:   g.cfg.ReturnURL,
	})
	if err != nil {
		return nil, fmt.Errorf("payment: не удалось сформировать запрос: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(g.cfg.BaseURL, "/")+"/payments", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("payment: не удалось создать запрос: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("payment: шлюз недоступен: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("payment: шлюз вернул %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out createPaymentResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("payment: некорректный ответ шлюза: %w", err)
	}
	if out.ID == "" || out.RedirectURL == "" {
		return nil, fmt.Errorf("payment: в ответе шлюза нет id или redirect_url")
	}
	return &repository.PaymentSession{ExternalRef: out.ID, RedirectURL: out.RedirectURL}, nil
}

type callbackClaims struct {
	PaymentID string `json:"payment_id"`
	Status    string `json:"status"`
	Reason    string `json:"reason,omitempty"`
	jwt.RegisteredClaims
}

// CallbackVerifier проверяет подпись уведомлений шлюза (HS256).
type CallbackVerifier struct {
	secret []byte
}

func NewCallbackVerifier(secret string) CallbackVerifier {
	return CallbackVerifier{secret: []byte(secret)}
}

// VerifyCallback возвращает результат платежа из подписанного уведомления.
func (v CallbackVerifier) VerifyCallback(token string) (delivery.PaymentCallback, error) {
	var claims callbackClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return delivery.PaymentCallback{}, fmt.Errorf("payment: подпись уведомления невалидна: %w", err)
	}
	if claims.PaymentID == "" {
		return delivery.PaymentCallback{}, fmt.Errorf("payment: в уведомлении нет payment_id")
	}
	switch claims.Status {
	case StatusSucceeded, StatusFailed:
	default:
		return delivery.PaymentCallback{}, fmt.Errorf("payment: неизвестный статус %q", claims.Status)
	}
	return delivery.PaymentCallback{
		ExternalRef: claims.PaymentID,
		Succeeded:   claims.Status == StatusSucceeded,
		Reason:      claims.Reason,
	}, nil
}

func (g *Gateway) VerifyCallback(token string) (delivery.PaymentCallback, error) {
	return NewCallbackVerifier(g.cfg.CallbackSecret).VerifyCallback(token)
}

// SignCallback подписывает уведомление так же, как шлюз. Нужен песочнице и тестам.
func SignCallback(secret, paymentID, status, reason string) (string, error) {
	claims := callbackClaims{
		PaymentID: paymentID,
		Status:    status,
		Reason:    reason,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// Sandbox выдаёт платёжные сессии без внешнего шлюза (драйвер memory и локальная разработка).
type Sandbox struct {
	ReturnURL string
}

func (s Sandbox) InitiatePayment(ctx context.Context, req repository.PaymentRequest) (*repository.PaymentSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ref := "sandbox_" + uuid.NewString()
	return &repository.PaymentSession{
		ExternalRef: ref,
		RedirectURL: fmt.Sprintf("%s?payment_id=%s", strings.TrimRight(s.ReturnURL, "/"), ref),
	}, nil
}
