package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	logctx "github.com/pribylovaa/go-identity-service/internal/pkg/log"
)

// RunReplicas запускает сконфигурированное число реплик консьюмера вида
// kind и блокирует до их завершения (то есть до отмены ctx).
//
// Реплики независимы: каждая ведёт собственный long-poll цикл, никакой
// координации между ними нет — распределение сообщений делает сам SQS.
// Replicas <= 0 трактуется как одна реплика.
func (c *Consumer) RunReplicas(ctx context.Context, kind string) error {
	const op = "queue.runner.RunReplicas"

	job, ok := c.jobs[kind]
	if !ok {
		return fmt.Errorf("%s: %q: %w", op, kind, ErrUnknownJobKind)
	}

	replicas := job.Replicas
	if replicas <= 0 {
		replicas = 1
	}

	log := logctx.From(ctx)
	log.Info("consumer_starting",
		slog.String("kind", kind),
		slog.Int("replicas", replicas),
	)

	var wg sync.WaitGroup
	for i := 0; i < replicas; i++ {
		wg.Add(1)

		replicaCtx := logctx.With(ctx,
			slog.String("kind", kind),
			slog.Int("replica", i),
		)

		go func() {
			defer wg.Done()

			if err := c.Run(replicaCtx, kind); err != nil {
				logctx.From(replicaCtx).Error("consumer_replica_failed",
					slog.String("err", err.Error()),
				)
			}
		}()
	}

	wg.Wait()
	log.Info("consumer_stopped", slog.String("kind", kind))

	return nil
}
