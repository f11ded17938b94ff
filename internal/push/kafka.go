package push

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"

	"github.com/starcontent/adpulse/internal/contracts"
	"github.com/starcontent/adpulse/pkg/config"
	"github.com/starcontent/adpulse/pkg/logger"
)

// directiveEnvelope is the Kafka message payload: one directive plus its
// run correlation id
type directiveEnvelope struct {
	RunID     string                  `json:"run_id"`
	Directive contracts.PushDirective `json:"directive"`
	EmittedAt time.Time               `json:"emitted_at"`
}

// KafkaPublisher delivers budget directives to the platform-push
// consumers over Kafka. Messages are keyed by target so per-target
// ordering survives partitioning.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	logger   *logger.Logger
}

// NewKafkaPublisher connects a synchronous producer to the brokers
func NewKafkaPublisher(cfg config.KafkaConfig, log *logger.Logger) (*KafkaPublisher, error) {
	saramaCfg := sarama.NewConfig()
	saramaCfg.Producer.RequiredAcks = sarama.WaitForAll
	saramaCfg.Producer.Retry.Max = 3
	saramaCfg.Producer.Return.Successes = true
	saramaCfg.Producer.Idempotent = true
	saramaCfg.Net.MaxOpenRequests = 1

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	return &KafkaPublisher{
		producer: producer,
		topic:    cfg.Topic,
		logger:   log,
	}, nil
}

// Publish sends one message per directive. Delivery stops at the first
// broker error; the caller treats the whole batch as failed.
func (p *KafkaPublisher) Publish(ctx context.Context, runID string, directives []contracts.PushDirective) error {
	for _, d := range directives {
		if err := ctx.Err(); err != nil {
			return &contracts.ExternalPushError{Sink: "kafka", Err: err}
		}

		payload, err := json.Marshal(directiveEnvelope{
			RunID:     runID,
			Directive: d,
			EmittedAt: time.Now().UTC(),
		})
		if err != nil {
			return &contracts.ExternalPushError{Sink: "kafka", Err: err}
		}

		msg := &sarama.ProducerMessage{
			Topic: p.topic,
			Key:   sarama.StringEncoder(fmt.Sprintf("%s:%d", d.Kind, d.TargetID)),
			Value: sarama.ByteEncoder(payload),
		}

		partition, offset, err := p.producer.SendMessage(msg)
		if err != nil {
			return &contracts.ExternalPushError{Sink: "kafka", Err: err}
		}

		p.logger.WithFields(map[string]interface{}{
			"run_id":    runID,
			"target_id": d.TargetID,
			"partition": partition,
			"offset":    offset,
		}).Debug("Directive published to kafka")
	}

	p.logger.WithFields(map[string]interface{}{
		"run_id": runID,
		"count":  len(directives),
	}).Info("Directives published to kafka")

	return nil
}

// Close shuts the producer down
func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
