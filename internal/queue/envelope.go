// queue реализует асинхронный конвейер доменных событий поверх AWS SQS:
// конверт сообщения, продюсер и консьюмер с фан-аутом по репликам.
//
// Гарантии доставки — у брокера (at-least-once, visibility timeout);
// пакет их не усиливает: обработчик события обязан быть идемпотентным
// либо терпимым к редким повторам.
package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrUnknownJobKind — вид задач не зарегистрирован в конфигурации.
	// Ошибка и для продюсера (enqueue-time), и для консьюмера (startup-time).
	ErrUnknownJobKind = errors.New("unknown job kind")

	// ErrBadEnvelope — тело сообщения не является валидным конвертом:
	// битый JSON, пустой или незарегистрированный event_type.
	ErrBadEnvelope = errors.New("bad event envelope")
)

// EventType — тег типа события в конверте. Закрытый реестр:
// неизвестный тег отклоняется до того, как попадёт в обработчик.
type EventType string

const (
	// EventTypeUser — события жизненного цикла пользователя
	// (сейчас — только верификация новой учётки).
	EventTypeUser EventType = "user_event"
)

// ParseEventType проверяет тег на принадлежность реестру.
func ParseEventType(s string) (EventType, error) {
	const op = "queue.envelope.ParseEventType"

	if s == "" {
		return "", fmt.Errorf("%s: empty event_type: %w", op, ErrBadEnvelope)
	}

	switch EventType(s) {
	case EventTypeUser:
		return EventTypeUser, nil
	}

	return "", fmt.Errorf("%s: unknown event_type %q: %w", op, s, ErrBadEnvelope)
}

// Envelope — единый конверт всех сообщений очереди:
// {"event_type": <тег>, "data": <полезная нагрузка тега>}.
type Envelope struct {
	EventType EventType       `json:"event_type"`
	Data      json.RawMessage `json:"data"`
}

// NewEnvelope собирает конверт, сериализуя полезную нагрузку.
func NewEnvelope(eventType EventType, data any) (*Envelope, error) {
	const op = "queue.envelope.NewEnvelope"

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Envelope{EventType: eventType, Data: raw}, nil
}

// ParseEnvelope разбирает тело сообщения и валидирует тег.
//
// Терпит дважды закодированное тело (JSON-строка, внутри которой JSON
// конверта) — исторический формат части продюсеров.
func ParseEnvelope(body []byte) (*Envelope, error) {
	const op = "queue.envelope.ParseEnvelope"

	raw := body
	if len(raw) > 0 && raw[0] == '"' {
		unquoted, err := strconv.Unquote(string(raw))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, ErrBadEnvelope)
		}
		raw = []byte(unquoted)
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrBadEnvelope)
	}

	if _, err := ParseEventType(string(env.EventType)); err != nil {
		return nil, err
	}

	return &env, nil
}

// UserEventData — полезная нагрузка события EventTypeUser.
type UserEventData struct {
	ID       string `json:"id"`
	Verified bool   `json:"verified"`
}
