package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"jobgraph/backend/internal/constants"
	apperrors "jobgraph/backend/pkg/errors"
	"jobgraph/backend/pkg/logger"
)

// ClientConfig configures the third-party API client
type ClientConfig struct {
	JobsURL     string
	CompanyURL  string // %v is replaced with the startup id
	RatePerMin  int
	FailRatio   float64
	MinRequests uint32
	OpenTimeout time.Duration
	HTTPTimeout time.Duration
	HTTPClient  *http.Client
}

// Client reads listings and company details. Calls are paced by a limiter and stop
// for a while once enough of them fail.
type Client struct {
	http       *http.Client
	jobsURL    string
	companyURL string
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	logger     *zap.Logger
}

// NewClient creates a client
func NewClient(cfg ClientConfig) *Client {
	if cfg.RatePerMin <= 0 {
		cfg.RatePerMin = 60
	}
	if cfg.FailRatio <= 0 {
		cfg.FailRatio = 0.6
	}
	if cfg.MinRequests == 0 {
		cfg.MinRequests = 5
	}
	if cfg.OpenTimeout == 0 {
		cfg.OpenTimeout = time.Minute
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.HTTPTimeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	log := logger.Named("ingest")
	every := time.Minute / time.Duration(cfg.RatePerMin)

	return &Client{
		http:       httpClient,
		jobsURL:    cfg.JobsURL,
		companyURL: cfg.CompanyURL,
		limiter:    rate.NewLimiter(rate.Every(every), 1),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "jobs-api",
			MaxRequests: 1,
			Timeout:     cfg.OpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				if counts.Requests < cfg.MinRequests {
					return false
				}
				return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailRatio
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn("Circuit breaker state changed",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			},
		}),
		logger: log,
	}
}

// FetchPage reads one page of listings
func (c *Client) FetchPage(ctx context.Context, page int) (*Page, error) {
	u, err := url.Parse(c.jobsURL)
	if err != nil {
		return nil, apperrors.NewIngestFetchFailed(c.jobsURL, 0, err)
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()

	var out Page
	if err := c.getJSON(ctx, u.String(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchCompany reads the extra metadata of a startup
func (c *Client) FetchCompany(ctx context.Context, startupID int64) (CompanyDetails, error) {
	var out CompanyDetails
	err := c.getJSON(ctx, fmt.Sprintf(c.companyURL, startupID), &out)
	return out, err
}

func (c *Client) getJSON(ctx context.Context, target string, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return apperrors.NewIngestFetchFailed(target, 0, err)
	}

	body, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, apperrors.NewIngestFetchFailed(target, 0, err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, apperrors.NewIngestFetchFailed(target, 0, err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, apperrors.NewIngestFetchFailed(target, resp.StatusCode, err)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, apperrors.NewIngestFetchFailed(target, resp.StatusCode, fmt.Errorf("unexpected status"))
		}
		return data, nil
	})
	if err != nil {
		// an open breaker is reported like an unreachable API
		var fetchErr *apperrors.ErrIngestFetchFailed
		if !errors.As(err, &fetchErr) {
			err = apperrors.NewIngestFetchFailed(target, 0, err)
		}
		return err
	}

	if err := json.Unmarshal(body.([]byte), out); err != nil {
		return apperrors.NewIngestFetchFailed(target, http.StatusOK, fmt.Errorf("decode response: %w", err))
	}
	c.logger.Debug("Fetched", zap.String("url", target), zap.Int("bytes", len(body.([]byte))))
	return nil
}

// Poster sends reshaped jobs to the backend
type Poster struct {
	http   *http.Client
	url    string
	apiKey string
}

// NewPoster creates a poster for the backend's job endpoint
func NewPoster(httpClient *http.Client, target, apiKey string) *Poster {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Poster{http: httpClient, url: target, apiKey: apiKey}
}

// Post creates or updates one job
func (p *Poster) Post(ctx context.Context, job Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode job %s: %w", job.ID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(payload))
	if err != nil {
		return apperrors.NewIngestFetchFailed(p.url, 0, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(constants.HeaderAPIKey, p.apiKey)

	resp, err := p.http.Do(req)
	if err != nil {
		return apperrors.NewIngestFetchFailed(p.url, 0, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return apperrors.NewIngestFetchFailed(p.url, resp.StatusCode, fmt.Errorf("job %s rejected", job.ID))
	}
	return nil
}
