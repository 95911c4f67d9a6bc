package processor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pribylovaa/go-identity-service/internal/config"
	"github.com/pribylovaa/go-identity-service/internal/models"
	"github.com/pribylovaa/go-identity-service/internal/queue"
	"github.com/pribylovaa/go-identity-service/mocks"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// memSQS — in-memory очередь: продюсер пишет, консьюмер вычитывает.
type memSQS struct {
	mu      sync.Mutex
	pending []types.Message
	deleted int
}

func (m *memSQS) SendMessage(_ context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pending = append(m.pending, types.Message{
		Body:          in.MessageBody,
		ReceiptHandle: aws.String(uuid.NewString()),
	})

	return &sqs.SendMessageOutput{}, nil
}

func (m *memSQS) ReceiveMessage(ctx context.Context, _ *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.pending) == 0 {
		return &sqs.ReceiveMessageOutput{}, nil
	}

	out := &sqs.ReceiveMessageOutput{Messages: m.pending}
	m.pending = nil

	return out, nil
}

func (m *memSQS) DeleteMessage(_ context.Context, _ *sqs.DeleteMessageInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.deleted++

	return &sqs.DeleteMessageOutput{}, nil
}

// Полный путь события: продюсер -> очередь -> консьюмер -> обработчик ->
// статус verified в хранилище.
func TestVerifyFlow_EndToEnd(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	const kind = "user_events"
	jobs := map[string]config.JobConfig{
		kind: {QueueURL: "http://localhost/queue/user-events"},
	}

	broker := &memSQS{}
	producer := queue.NewSQSProducer(broker, jobs)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	userID := uuid.New()
	st := mocks.NewMockStorage(ctrl)
	st.EXPECT().UpdateStatus(gomock.Any(), userID, models.StatusVerified).
		DoAndReturn(func(context.Context, uuid.UUID, models.Status) error {
			cancel() // событие дошло — останавливаем консьюмер
			return nil
		})

	env, err := queue.NewEnvelope(queue.EventTypeUser, queue.UserEventData{
		ID:       userID.String(),
		Verified: true,
	})
	require.NoError(t, err)
	require.NoError(t, producer.Send(ctx, kind, env))

	consumer := queue.NewConsumer(broker, jobs, NewUserEventProcessor(st))

	done := make(chan error, 1)
	go func() {
		done <- consumer.Run(ctx, kind)
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not stop")
	}

	broker.mu.Lock()
	defer broker.mu.Unlock()
	require.Equal(t, 1, broker.deleted)
}
