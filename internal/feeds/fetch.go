// Package feeds fetches remote provider catalogs and runs them through the
// ingestion pipeline, one independent outcome per provider.
package feeds

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"priceradar/internal/ingest"
	"priceradar/internal/models"
	"priceradar/pkg/config"
)

// Outcome statuses for one provider fetch.
const (
	StatusOK          = "ok"
	StatusDisabled    = "disabled"
	StatusTimeout     = "timeout"
	StatusHTTPError   = "http_error"
	StatusParseError  = "parse_error"
	StatusConfigError = "config_error"
)

// ProviderOutcome captures one provider's result independently of its
// siblings: a timeout for one provider never aborts the others.
type ProviderOutcome struct {
	Provider string                `json:"provider"`
	Status   string                `json:"status"`
	Message  string                `json:"message,omitempty"`
	Summary  *models.ImportSummary `json:"summary,omitempty"`
}

// Fetcher pulls provider feeds over HTTP and hands them to the
// orchestrator.
type Fetcher struct {
	client  *http.Client
	limiter *rate.Limiter
	service *ingest.Service
	cfg     *config.Config
}

// NewFetcher builds a Fetcher with the configured timeout and request rate.
func NewFetcher(service *ingest.Service, cfg *config.Config) *Fetcher {
	rps := cfg.FetchRPS
	if rps <= 0 {
		rps = 1
	}
	return &Fetcher{
		client:  &http.Client{Timeout: cfg.FetchTimeout},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		service: service,
		cfg:     cfg,
	}
}

// RunAll fetches and ingests every configured provider, returning one
// outcome per provider.
func (f *Fetcher) RunAll(ctx context.Context) []ProviderOutcome {
	outcomes := make([]ProviderOutcome, 0, len(f.cfg.Providers))
	for _, provider := range f.cfg.Providers {
		outcome := f.runProvider(ctx, provider)
		logrus.WithFields(logrus.Fields{
			"provider": outcome.Provider,
			"status":   outcome.Status,
		}).Info("Provider fetch finished")
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

func (f *Fetcher) runProvider(ctx context.Context, provider config.ProviderConfig) ProviderOutcome {
	outcome := ProviderOutcome{Provider: provider.Name}

	if !provider.Enabled {
		outcome.Status = StatusDisabled
		return outcome
	}
	if provider.FeedURL == "" {
		outcome.Status = StatusConfigError
		outcome.Message = "no feed URL configured"
		return outcome
	}

	body, err := f.fetch(ctx, provider.FeedURL)
	if err != nil {
		outcome.Status, outcome.Message = classifyFetchError(err)
		return outcome
	}

	result, err := parseProviderBody(provider, body)
	if err != nil {
		outcome.Status = StatusParseError
		outcome.Message = err.Error()
		return outcome
	}

	summary := f.service.ImportFeed(ctx, result.Rows, ingest.ImportOptions{
		Source:              sourceForProvider(provider),
		DefaultCountry:      f.cfg.DefaultCountry,
		ValidateURLs:        true,
		BlockedStoreDomains: f.cfg.BlockedStoreDomains,
	})
	summary.SkippedMissingFields += result.SkippedMissingFields
	for reason, count := range result.Skips {
		if summary.Skips == nil {
			summary.Skips = make(map[models.SkipReason]int)
		}
		summary.Skips[reason] += count
	}
	for _, sample := range result.SkipSamples {
		if len(summary.SkipSamples) >= models.MaxSkipSamples {
			break
		}
		summary.SkipSamples = append(summary.SkipSamples, sample)
	}

	outcome.Status = StatusOK
	outcome.Summary = summary
	return outcome
}

func (f *Fetcher) fetch(ctx context.Context, feedURL string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("accept", "text/csv, application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("feed returned HTTP %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func parseProviderBody(provider config.ProviderConfig, body []byte) (*ingest.ParseResult, error) {
	switch provider.Format {
	case "json":
		return ingest.ParseSearchJSON(body)
	default:
		if provider.Name == "sheet" {
			return ingest.ParseSheetCSV(string(body))
		}
		return ingest.ParseCSV(string(body))
	}
}

func sourceForProvider(provider config.ProviderConfig) string {
	if provider.Name == "sheet" {
		return models.SourceSheet
	}
	return models.SourceAffiliate
}

func classifyFetchError(err error) (string, string) {
	if errors.Is(err, context.DeadlineExceeded) {
		return StatusTimeout, err.Error()
	}
	var urlErr interface{ Timeout() bool }
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return StatusTimeout, err.Error()
	}
	return StatusHTTPError, err.Error()
}
