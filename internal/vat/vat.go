package vat

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/restopos/api/internal/order"
	"github.com/restopos/api/internal/pricing"
	"github.com/restopos/api/internal/retry"
	"github.com/shopspring/decimal"
)

// Provider supplies the VAT rate as a fraction (0.10 = 10%).
type Provider interface {
	GetRate(ctx context.Context) (decimal.Decimal, error)
}

// RateResponse is the wire form served by GET /vat.
type RateResponse struct {
	Rate decimal.Decimal `json:"rate"`
}

// Static always returns the same rate.
type Static struct {
	Rate decimal.Decimal
}

func (s Static) GetRate(ctx context.Context) (decimal.Decimal, error) {
	return s.Rate, nil
}

// HTTP reads the rate from a remote GET /vat endpoint.
type HTTP struct {
	url     string
	client  *http.Client
	timeout time.Duration
	policy  retry.Policy
}

// NewHTTP creates a provider for the endpoint at url.
func NewHTTP(url string, timeout time.Duration, policy retry.Policy) *HTTP {
	return &HTTP{
		url:     strings.TrimRight(url, "/"),
		client:  &http.Client{},
		timeout: timeout,
		policy:  policy,
	}
}

func (h *HTTP) GetRate(ctx context.Context) (decimal.Decimal, error) {
	var out RateResponse
	err := h.policy.Do(ctx, func(ctx context.Context) error {
		actx, cancel := context.WithTimeout(ctx, h.timeout)
		defer cancel()

		req, err := http.NewRequestWithContext(actx, http.MethodGet, h.url, nil)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		resp, err := h.client.Do(req)
		if err != nil {
			return fmt.Errorf("%w: get vat: %v", order.ErrTransientNetwork, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("%w: get vat: status %d", order.ErrTransientNetwork, resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("get vat: status %d", resp.StatusCode)
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return fmt.Errorf("decode vat: %w", err)
		}
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	if out.Rate.IsNegative() {
		return decimal.Zero, fmt.Errorf("get vat: negative rate %s", out.Rate)
	}
	return out.Rate, nil
}

// Fallback wraps a provider and answers pricing.DefaultVATRate whenever it
// fails, so totals are always computable.
type Fallback struct {
	next Provider
}

func NewFallback(next Provider) *Fallback {
	return &Fallback{next: next}
}

func (f *Fallback) GetRate(ctx context.Context) (decimal.Decimal, error) {
	rate, err := f.next.GetRate(ctx)
	if err != nil {
		log.Printf("WARN: vat rate unavailable, using %s: %v", pricing.DefaultVATRate, err)
		return pricing.DefaultVATRate, nil
	}
	return rate, nil
}
