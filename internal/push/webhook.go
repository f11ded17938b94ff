package push

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/starcontent/adpulse/internal/contracts"
	"github.com/starcontent/adpulse/pkg/config"
	"github.com/starcontent/adpulse/pkg/httputil"
	"github.com/starcontent/adpulse/pkg/logger"
)

// webhookPayload is the HTTP body: the whole run's directives at once
type webhookPayload struct {
	RunID      string                    `json:"run_id"`
	Directives []contracts.PushDirective `json:"directives"`
	EmittedAt  time.Time                 `json:"emitted_at"`
}

// WebhookPublisher POSTs budget directives to an external endpoint,
// rate-limited so bursts of runs cannot flood the receiver
type WebhookPublisher struct {
	client  *httputil.Client
	url     string
	limiter *rate.Limiter
	logger  *logger.Logger
}

// NewWebhookPublisher creates a webhook publisher from config
func NewWebhookPublisher(cfg config.WebhookConfig, log *logger.Logger) *WebhookPublisher {
	rps := cfg.RateLimit
	if rps <= 0 {
		rps = 5.0
	}
	return &WebhookPublisher{
		client:  httputil.NewWithTimeout(log, cfg.Timeout),
		url:     cfg.URL,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		logger:  log,
	}
}

// Publish delivers the run's directives in one request
func (p *WebhookPublisher) Publish(ctx context.Context, runID string, directives []contracts.PushDirective) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return &contracts.ExternalPushError{Sink: "webhook", Err: err}
	}

	resp, err := p.client.PostJSON(ctx, p.url, webhookPayload{
		RunID:      runID,
		Directives: directives,
		EmittedAt:  time.Now().UTC(),
	})
	if err != nil {
		return &contracts.ExternalPushError{Sink: "webhook", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &contracts.ExternalPushError{
			Sink: "webhook",
			Err:  fmt.Errorf("endpoint returned %d", resp.StatusCode),
		}
	}

	p.logger.WithFields(map[string]interface{}{
		"run_id": runID,
		"count":  len(directives),
	}).Info("Directives delivered to webhook")

	return nil
}
