// Package payment wraps the card-payment provider API.
package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jackson0tr/lerko-backend/internal/config"
	"github.com/jackson0tr/lerko-backend/internal/domain"
)

// Intent is the provider-side payment intent an order settles against.
type Intent struct {
	ID           string
	Status       string
	Amount       int64
	Currency     string
	ClientSecret string
}

// Succeeded reports whether the provider confirmed the charge.
func (i Intent) Succeeded() bool {
	return i.Status == "succeeded"
}

// Provider exposes the two intent operations the order flow needs.
type Provider interface {
	CreateIntent(ctx context.Context, amount int64, currency string) (Intent, error)
	GetIntent(ctx context.Context, id string) (Intent, error)
	PublishableKey() string
}

// StripeProvider talks to the Stripe-compatible form-encoded intents API.
type StripeProvider struct {
	baseURL        string
	secretKey      string
	publishableKey string
	httpClient     *http.Client
}

func NewStripeProvider(cfg *config.Config, client *http.Client) *StripeProvider {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &StripeProvider{
		baseURL:        strings.TrimRight(cfg.PaymentAPIURL, "/"),
		secretKey:      cfg.PaymentSecretKey,
		publishableKey: cfg.PaymentPublishableKey,
		httpClient:     client,
	}
}

func (p *StripeProvider) PublishableKey() string {
	return p.publishableKey
}

func (p *StripeProvider) CreateIntent(ctx context.Context, amount int64, currency string) (Intent, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amount, 10))
	form.Set("currency", currency)
	form.Set("automatic_payment_methods[enabled]", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL+"/payment_intents", strings.NewReader(form.Encode()))
	if err != nil {
		return Intent{}, fmt.Errorf("build intent request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return p.do(req)
}

func (p *StripeProvider) GetIntent(ctx context.Context, id string) (Intent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		p.baseURL+"/payment_intents/"+url.PathEscape(id), nil)
	if err != nil {
		return Intent{}, fmt.Errorf("build intent request: %w", err)
	}
	return p.do(req)
}

func (p *StripeProvider) do(req *http.Request) (Intent, error) {
	req.SetBasicAuth(p.secretKey, "")
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return Intent{}, fmt.Errorf("%w: payment provider: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Intent{}, fmt.Errorf("%w: read payment response: %v", domain.ErrUpstream, err)
	}
	if resp.StatusCode >= 300 {
		return Intent{}, fmt.Errorf("%w: payment provider status %d", domain.ErrUpstream, resp.StatusCode)
	}

	var raw struct {
		ID           string `json:"id"`
		Status       string `json:"status"`
		Amount       int64  `json:"amount"`
		Currency     string `json:"currency"`
		ClientSecret string `json:"client_secret"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return Intent{}, fmt.Errorf("%w: decode payment response: %v", domain.ErrUpstream, err)
	}
	return Intent{
		ID:           raw.ID,
		Status:       raw.Status,
		Amount:       raw.Amount,
		Currency:     raw.Currency,
		ClientSecret: raw.ClientSecret,
	}, nil
}
