package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/pribylovaa/go-identity-service/internal/config"
	logctx "github.com/pribylovaa/go-identity-service/internal/pkg/log"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// Producer — контракт отправки событий в очередь вида kind.
type Producer interface {
	Send(ctx context.Context, kind string, env *Envelope) error
}

// SQSProducer — реализация Producer поверх AWS SQS.
type SQSProducer struct {
	client SQSAPI
	jobs   map[string]config.JobConfig
}

var _ Producer = (*SQSProducer)(nil)

// NewSQSProducer создаёт продюсер над реестром очередей из конфигурации.
func NewSQSProducer(client SQSAPI, jobs map[string]config.JobConfig) *SQSProducer {
	return &SQSProducer{
		client: client,
		jobs:   jobs,
	}
}

// Send сериализует конверт и отправляет его в очередь вида kind.
//
// DelaySeconds из конфигурации применяется только в допустимом для SQS
// диапазоне [1, 900]; значения вне диапазона игнорируются, сообщение
// уходит без задержки.
func (p *SQSProducer) Send(ctx context.Context, kind string, env *Envelope) error {
	const op = "queue.producer.Send"

	log := logctx.From(ctx)

	job, ok := p.jobs[kind]
	if !ok {
		return fmt.Errorf("%s: %q: %w", op, kind, ErrUnknownJobKind)
	}

	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	input := &sqs.SendMessageInput{
		QueueUrl:    aws.String(job.QueueURL),
		MessageBody: aws.String(string(body)),
	}

	if job.DelaySeconds >= 1 && job.DelaySeconds <= 900 {
		input.DelaySeconds = job.DelaySeconds
	}

	if _, err := p.client.SendMessage(ctx, input); err != nil {
		log.Error("queue_send_failed",
			slog.String("op", op),
			slog.String("kind", kind),
			slog.String("event_type", string(env.EventType)),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("queue_message_sent",
		slog.String("kind", kind),
		slog.String("event_type", string(env.EventType)),
	)

	return nil
}
