// Package ratefeed pulls daily reference rates from a Frankfurter-compatible
// API and records them as api-sourced exchange rates.
package ratefeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/mmynk/hostledger/internal/fx"
	"github.com/mmynk/hostledger/internal/metrics"
	"github.com/mmynk/hostledger/internal/money"
)

// DefaultBaseURL is the public Frankfurter endpoint (ECB reference rates).
const DefaultBaseURL = "https://api.frankfurter.dev"

var ErrUpstream = errors.New("rate feed request failed")

// Quote is one day's rates from base to each target.
type Quote struct {
	Base  string
	Date  time.Time
	Rates map[string]decimal.Decimal
}

type quoteResponse struct {
	Amount decimal.Decimal            `json:"amount"`
	Base   string                     `json:"base"`
	Date   string                     `json:"date"`
	Rates  map[string]decimal.Decimal `json:"rates"`
}

// Recorder stores a validated rate and looks up what is already stored.
// *fx.Registry satisfies it.
type Recorder interface {
	RecordRate(ctx context.Context, rate fx.ExchangeRate) (string, error)
	ResolveRate(ctx context.Context, from, to string, onDate time.Time) (fx.ExchangeRate, error)
}

// Client fetches quotes. Requests are throttled by a token bucket.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

// WithRateLimit allows perSecond requests with the given burst.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst) }
}

// New creates a client for baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(1), 2),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Fetch returns the rates from base to targets published for on. The
// upstream answers with the closest earlier publication day when on is a
// weekend or holiday; Quote.Date reflects that day.
func (c *Client) Fetch(ctx context.Context, base string, targets []string, on time.Time) (Quote, error) {
	base, err := money.NormalizeCurrency(base)
	if err != nil {
		return Quote{}, err
	}
	to := make([]string, 0, len(targets))
	for _, t := range targets {
		code, err := money.NormalizeCurrency(t)
		if err != nil {
			return Quote{}, err
		}
		if code != base {
			to = append(to, code)
		}
	}
	if len(to) == 0 {
		return Quote{}, fmt.Errorf("no target currencies besides %s", base)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return Quote{}, err
	}

	q := url.Values{}
	q.Set("from", base)
	q.Set("to", strings.Join(to, ","))
	endpoint := fmt.Sprintf("%s/v1/%s?%s", c.baseURL, fx.Day(on).Format(fx.DateLayout), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Quote{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RateFeedFetches.WithLabelValues("error").Inc()
		return Quote{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		metrics.RateFeedFetches.WithLabelValues("error").Inc()
		return Quote{}, fmt.Errorf("%w: %s: %s", ErrUpstream, resp.Status, strings.TrimSpace(string(body)))
	}

	var body quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		metrics.RateFeedFetches.WithLabelValues("error").Inc()
		return Quote{}, fmt.Errorf("%w: decode: %v", ErrUpstream, err)
	}
	day, err := fx.ParseDay(body.Date)
	if err != nil {
		metrics.RateFeedFetches.WithLabelValues("error").Inc()
		return Quote{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	// Rates are quoted per Amount units of base; normalize to one unit.
	rates := make(map[string]decimal.Decimal, len(body.Rates))
	for code, r := range body.Rates {
		if !body.Amount.IsZero() && !body.Amount.Equal(decimal.NewFromInt(1)) {
			r = r.Div(body.Amount)
		}
		rates[strings.ToUpper(code)] = r
	}
	metrics.RateFeedFetches.WithLabelValues("ok").Inc()
	return Quote{Base: strings.ToUpper(body.Base), Date: day, Rates: rates}, nil
}

// Sync fetches the rates for on and records one api-sourced rate per
// quoted currency. It returns the recorded IDs in currency-code order.
// Targets missing from the response are skipped and logged, as are quotes
// already stored with the same publication day and rate.
func (c *Client) Sync(ctx context.Context, rec Recorder, base string, targets []string, on time.Time) ([]string, error) {
	q, err := c.Fetch(ctx, base, targets, on)
	if err != nil {
		return nil, err
	}

	codes := make([]string, 0, len(q.Rates))
	for code := range q.Rates {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	var ids []string
	for _, code := range codes {
		r := q.Rates[code]
		if !r.IsPositive() {
			slog.Warn("Rate feed returned non-positive rate", "base", q.Base, "to", code, "rate", r.String())
			continue
		}
		known, err := alreadyRecorded(ctx, rec, q.Base, code, q.Date, r)
		if err != nil {
			return ids, fmt.Errorf("failed to look up %s->%s: %w", q.Base, code, err)
		}
		if known {
			slog.Debug("Rate feed quote already recorded", "base", q.Base, "to", code, "date", q.Date.Format(fx.DateLayout))
			continue
		}
		id, err := rec.RecordRate(ctx, fx.ExchangeRate{
			From:          q.Base,
			To:            code,
			Rate:          r,
			EffectiveDate: q.Date,
			Source:        fx.SourceAPI,
		})
		if err != nil {
			return ids, fmt.Errorf("failed to record %s->%s: %w", q.Base, code, err)
		}
		ids = append(ids, id)
	}
	for _, t := range targets {
		if _, ok := q.Rates[strings.ToUpper(t)]; !ok && !strings.EqualFold(t, q.Base) {
			slog.Warn("Rate feed has no quote", "base", q.Base, "to", strings.ToUpper(t), "date", q.Date.Format(fx.DateLayout))
		}
	}
	slog.Info("Rate feed synced", "base", q.Base, "date", q.Date.Format(fx.DateLayout), "recorded", len(ids))
	return ids, nil
}

func alreadyRecorded(ctx context.Context, rec Recorder, from, to string, day time.Time, r decimal.Decimal) (bool, error) {
	latest, err := rec.ResolveRate(ctx, from, to, day)
	if errors.Is(err, fx.ErrRateNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return latest.EffectiveDate.Equal(day) && latest.Rate.Equal(r), nil
}
