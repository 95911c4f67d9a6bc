package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pribylovaa/go-identity-service/internal/config"
	logctx "github.com/pribylovaa/go-identity-service/internal/pkg/log"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// Processor — обработчик валидного конверта.
//
// Обработчик обязан быть идемпотентным: из-за at-least-once семантики
// очереди и удаления после попытки одно событие может быть обработано
// более одного раза.
type Processor interface {
	Process(ctx context.Context, env *Envelope) error
}

// Consumer — long-poll консьюмер очередей SQS.
//
// Дисциплина удаления:
//   - конверт не разобрался — сообщение НЕ удаляется, брокер доставит
//     его повторно после visibility timeout;
//   - конверт разобрался — сообщение удаляется после попытки обработки
//     независимо от её исхода (повторная доставка битой бизнес-логике
//     не поможет, а идемпотентный обработчик переживёт дубль).
type Consumer struct {
	client    SQSAPI
	jobs      map[string]config.JobConfig
	processor Processor
	errPause  time.Duration
	pollPause time.Duration
}

// NewConsumer создаёт консьюмер над реестром очередей из конфигурации.
func NewConsumer(client SQSAPI, jobs map[string]config.JobConfig, processor Processor) *Consumer {
	return &Consumer{
		client:    client,
		jobs:      jobs,
		processor: processor,
		errPause:  time.Second,
		pollPause: time.Second,
	}
}

// Run — цикл одной реплики консьюмера вида kind; блокирует до отмены ctx.
// Неизвестный kind — ошибка немедленно, без входа в цикл.
func (c *Consumer) Run(ctx context.Context, kind string) error {
	const op = "queue.consumer.Run"

	log := logctx.From(ctx)

	job, ok := c.jobs[kind]
	if !ok {
		return fmt.Errorf("%s: %q: %w", op, kind, ErrUnknownJobKind)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		out, err := c.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(job.QueueURL),
			MaxNumberOfMessages: job.MaxNumberOfMessages,
			WaitTimeSeconds:     job.WaitTimeSeconds,
			VisibilityTimeout:   job.VisibilityTimeout,
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}

			log.Error("queue_receive_failed",
				slog.String("op", op),
				slog.String("kind", kind),
				slog.String("err", err.Error()),
			)

			select {
			case <-ctx.Done():
				return nil
			case <-time.After(c.errPause):
			}

			continue
		}

		for _, msg := range out.Messages {
			if msg.Body == nil {
				continue
			}

			env, err := ParseEnvelope([]byte(*msg.Body))
			if err != nil {
				// Битый конверт не удаляем: пусть брокер доставит снова,
				// вдруг это гонка с некорректным продюсером, а не мусор.
				log.Warn("queue_bad_envelope",
					slog.String("kind", kind),
					slog.String("err", err.Error()),
				)
				continue
			}

			if err := c.processor.Process(ctx, env); err != nil {
				log.Error("queue_process_failed",
					slog.String("kind", kind),
					slog.String("event_type", string(env.EventType)),
					slog.String("err", err.Error()),
				)
			}

			if msg.ReceiptHandle == nil {
				continue
			}

			if _, err := c.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
				QueueUrl:      aws.String(job.QueueURL),
				ReceiptHandle: msg.ReceiptHandle,
			}); err != nil {
				log.Error("queue_delete_failed",
					slog.String("kind", kind),
					slog.String("err", err.Error()),
				)
			}
		}

		// Передышка между циклами: без неё пустая очередь с коротким
		// wait time превращает long-poll в busy loop.
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(c.pollPause):
		}
	}
}
