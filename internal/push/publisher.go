package push

import (
	"context"

	"github.com/starcontent/adpulse/internal/contracts"
	"github.com/starcontent/adpulse/pkg/config"
	"github.com/starcontent/adpulse/pkg/logger"
)

// Publisher delivers a run's budget directives to an external sink
type Publisher interface {
	Publish(ctx context.Context, runID string, directives []contracts.PushDirective) error
}

// multiPublisher fans a run out to every configured sink. Each sink
// failure is logged; the first error is returned after all sinks ran.
type multiPublisher struct {
	sinks  []Publisher
	logger *logger.Logger
}

func (m *multiPublisher) Publish(ctx context.Context, runID string, directives []contracts.PushDirective) error {
	var firstErr error
	for _, sink := range m.sinks {
		if err := sink.Publish(ctx, runID, directives); err != nil {
			m.logger.WithError(err).WithField("run_id", runID).Error("Directive sink failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// noopPublisher drops directives when no sink is configured
type noopPublisher struct {
	logger *logger.Logger
}

func (n *noopPublisher) Publish(ctx context.Context, runID string, directives []contracts.PushDirective) error {
	n.logger.WithFields(map[string]interface{}{
		"run_id": runID,
		"count":  len(directives),
	}).Debug("No directive sink configured, dropping directives")
	return nil
}

// FromConfig builds the directive publisher for the enabled sinks
func FromConfig(cfg *config.Config, log *logger.Logger) (Publisher, error) {
	var sinks []Publisher

	if cfg.Kafka.Enabled {
		kafka, err := NewKafkaPublisher(cfg.Kafka, log)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, kafka)
	}
	if cfg.Webhook.Enabled {
		sinks = append(sinks, NewWebhookPublisher(cfg.Webhook, log))
	}

	switch len(sinks) {
	case 0:
		return &noopPublisher{logger: log}, nil
	case 1:
		return sinks[0], nil
	default:
		return &multiPublisher{sinks: sinks, logger: log}, nil
	}
}
