// processor содержит обработчики доменных событий очереди.
package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pribylovaa/go-identity-service/internal/models"
	logctx "github.com/pribylovaa/go-identity-service/internal/pkg/log"
	"github.com/pribylovaa/go-identity-service/internal/queue"
	"github.com/pribylovaa/go-identity-service/internal/storage"

	"github.com/google/uuid"
)

// UserEventProcessor — обработчик событий user_event: переводит учётку
// в статус verified.
//
// Обработчик идемпотентен: повторная верификация уже верифицированной
// учётки — no-op на уровне данных, поэтому at-least-once доставка
// очереди безопасна.
type UserEventProcessor struct {
	users storage.UserStorage
}

var _ queue.Processor = (*UserEventProcessor)(nil)

// NewUserEventProcessor создаёт обработчик над хранилищем пользователей.
func NewUserEventProcessor(users storage.UserStorage) *UserEventProcessor {
	return &UserEventProcessor{users: users}
}

// Process обрабатывает конверт.
//
// События чужих типов пропускаются молча: очередь одна на вид задач,
// но реестр тегов может расти быстрее обработчиков.
func (p *UserEventProcessor) Process(ctx context.Context, env *queue.Envelope) error {
	const op = "processor.user_event.Process"

	if env.EventType != queue.EventTypeUser {
		return nil
	}

	log := logctx.From(ctx)

	var data queue.UserEventData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return fmt.Errorf("%s: decode data: %w", op, err)
	}

	userID, err := uuid.Parse(data.ID)
	if err != nil {
		return fmt.Errorf("%s: parse user id %q: %w", op, data.ID, err)
	}

	if !data.Verified {
		log.Info("user_event_skipped",
			slog.String("user_id", userID.String()),
		)
		return nil
	}

	if err := p.users.UpdateStatus(ctx, userID, models.StatusVerified); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Пользователь мог быть удалён между событием и обработкой.
			log.Warn("user_event_user_not_found",
				slog.String("user_id", userID.String()),
			)
			return nil
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user_verified", slog.String("user_id", userID.String()))

	return nil
}
