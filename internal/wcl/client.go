// Package wcl fetches report data from the Warcraft Logs v1 API.
package wcl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/verte-zerg/vezaxff/internal/logger"
	"github.com/verte-zerg/vezaxff/internal/model"
	"github.com/verte-zerg/vezaxff/internal/telemetry"
)

const (
	// DefaultBaseURL is the public Warcraft Logs host.
	DefaultBaseURL = "https://www.warcraftlogs.com:443"
	// DefaultTimeout bounds a single request.
	DefaultTimeout = 30 * time.Second

	// MarkDebuffAbilityID is Mark of the Faceless, the debuff.
	MarkDebuffAbilityID = 63276
	// MarkDamageAbilityID is Mark of the Faceless, the leech damage.
	MarkDamageAbilityID = 63278
)

const (
	endpointFights  = "fights"
	endpointDamage  = "damage-taken"
	endpointDebuffs = "debuffs"
)

// Client issues read-only requests against the API. Requests run one at a time.
type Client struct {
	apiKey  string
	baseURL string
	timeout time.Duration
	http    *http.Client
	log     logger.Logger
	metrics *telemetry.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides DefaultBaseURL.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithTimeout overrides DefaultTimeout. Zero or negative disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithHTTPClient replaces the default traced client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger.
func WithLogger(lg logger.Logger) Option {
	return func(c *Client) { c.log = lg }
}

// WithMetrics records request counts and latencies into m.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient builds a Client for apiKey.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		timeout: DefaultTimeout,
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport,
				otelhttp.WithSpanNameFormatter(spanName)),
		}
	}
	return c
}

// Fights fetches the fight list and the friendly players of a report.
func (c *Client) Fights(ctx context.Context, logID string) (model.Report, error) {
	u, err := c.endpointURL(logID, url.Values{}, "fights")
	if err != nil {
		return model.Report{}, err
	}
	var payload fightsResponse
	if err := c.get(ctx, endpointFights, u, &payload); err != nil {
		return model.Report{}, err
	}
	report, err := payload.toReport()
	if err != nil {
		return model.Report{}, fmt.Errorf("%s: %w", endpointFights, err)
	}
	c.metrics.AddEvents("fights", len(report.Fights))
	c.log.Debug(ctx, "fetched fights",
		logger.Int("fights", len(report.Fights)),
		logger.Int("players", len(report.Players)))
	return report, nil
}

// DamageTaken fetches Mark of the Faceless damage in [start, end].
func (c *Client) DamageTaken(ctx context.Context, logID string, start, end int64) ([]model.DamageEvent, error) {
	raw, err := c.events(ctx, endpointDamage, logID, start, end, MarkDamageAbilityID)
	if err != nil {
		return nil, err
	}
	events, err := damageEvents(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", endpointDamage, err)
	}
	c.metrics.AddEvents("damage", len(events))
	return events, nil
}

// Debuffs fetches Mark of the Faceless applications and removals in [start, end].
func (c *Client) Debuffs(ctx context.Context, logID string, start, end int64) ([]model.DebuffEvent, error) {
	raw, err := c.events(ctx, endpointDebuffs, logID, start, end, MarkDebuffAbilityID)
	if err != nil {
		return nil, err
	}
	events, err := debuffEvents(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", endpointDebuffs, err)
	}
	c.metrics.AddEvents("debuff", len(events))
	return events, nil
}

// events follows nextPageTimestamp until the window is exhausted.
func (c *Client) events(ctx context.Context, endpoint, logID string, start, end int64, abilityID int) ([]eventJSON, error) {
	var all []eventJSON
	for page := 1; ; page++ {
		q := url.Values{}
		q.Set("start", strconv.FormatInt(start, 10))
		q.Set("end", strconv.FormatInt(end, 10))
		q.Set("abilityid", strconv.Itoa(abilityID))
		u, err := c.endpointURL(logID, q, "events", endpoint)
		if err != nil {
			return nil, err
		}

		var payload eventsResponse
		if err := c.get(ctx, endpoint, u, &payload); err != nil {
			return nil, err
		}
		if payload.Events == nil {
			return nil, fmt.Errorf("%s: %w", endpoint, missingField("events"))
		}
		all = append(all, *payload.Events...)
		c.log.Debug(ctx, "fetched events page",
			logger.String("endpoint", endpoint),
			logger.Int("page", page),
			logger.Int("events", len(*payload.Events)),
			logger.Int64("start", start))

		next := payload.NextPageTimestamp
		if next == nil || *next >= end {
			return all, nil
		}
		if *next <= start {
			return nil, fmt.Errorf("%s: %w: nextPageTimestamp %d does not advance past %d",
				endpoint, ErrMalformedResponse, *next, start)
		}
		start = *next
	}
}

func (c *Client) endpointURL(logID string, q url.Values, elems ...string) (*url.URL, error) {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", c.baseURL, err)
	}
	elems = append([]string{"v1", "report"}, elems...)
	elems = append(elems, logID)
	u := base.JoinPath(elems...)
	q.Set("api_key", c.apiKey)
	u.RawQuery = q.Encode()
	return u, nil
}

func (c *Client) get(ctx context.Context, endpoint string, u *url.URL, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.ObserveRequest(endpoint, 0, time.Since(started))
		return fmt.Errorf("%w: %s %s: %v", ErrNetwork, endpoint, redact(u), transportCause(err))
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	c.metrics.ObserveRequest(endpoint, resp.StatusCode, time.Since(started))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apiError(endpoint, resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %s: reading body: %v", ErrNetwork, endpoint, err)
		}
		return fmt.Errorf("%s: %w: %v", endpoint, ErrMalformedResponse, err)
	}
	return nil
}

func apiError(endpoint string, resp *http.Response) error {
	apiErr := &APIError{Endpoint: endpoint, StatusCode: resp.StatusCode}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return apiErr
	}
	var payload errorResponse
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		apiErr.Message = payload.Error
	}
	return apiErr
}

// transportCause drops the *url.Error wrapper so the api key in the URL is
// not printed.
func transportCause(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return ue.Err
	}
	return err
}

func redact(u *url.URL) string {
	c := *u
	q := c.Query()
	if q.Has("api_key") {
		q.Set("api_key", "REDACTED")
	}
	c.RawQuery = q.Encode()
	return c.String()
}

func spanName(_ string, r *http.Request) string {
	return r.Method + " " + path.Dir(r.URL.Path)
}
