package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pribylovaa/go-identity-service/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/require"
)

// fakeSQS — in-memory реализация SQSAPI для тестов продюсера и консьюмера.
// Когда очередь пустеет, fakeSQS отменяет контекст теста — так цикл
// консьюмера завершается без таймеров и гонок.
type fakeSQS struct {
	mu       sync.Mutex
	sent     []sqs.SendMessageInput
	queue    []types.Message
	deleted  []string
	receives int
	cancel   context.CancelFunc
}

func (f *fakeSQS) SendMessage(_ context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.sent = append(f.sent, *params)

	return &sqs.SendMessageOutput{}, nil
}

func (f *fakeSQS) ReceiveMessage(_ context.Context, params *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.receives++

	if len(f.queue) == 0 {
		if f.cancel != nil {
			f.cancel()
		}

		return &sqs.ReceiveMessageOutput{}, nil
	}

	n := int(params.MaxNumberOfMessages)
	if n <= 0 || n > len(f.queue) {
		n = len(f.queue)
	}

	batch := f.queue[:n]
	f.queue = f.queue[n:]

	return &sqs.ReceiveMessageOutput{Messages: batch}, nil
}

func (f *fakeSQS) DeleteMessage(_ context.Context, params *sqs.DeleteMessageInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.deleted = append(f.deleted, aws.ToString(params.ReceiptHandle))

	return &sqs.DeleteMessageOutput{}, nil
}

func (f *fakeSQS) deletedHandles() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.deleted...)
}

func (f *fakeSQS) receiveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.receives
}

type fakeProcessor struct {
	mu   sync.Mutex
	seen []*Envelope
	err  error
}

func (p *fakeProcessor) Process(_ context.Context, env *Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.seen = append(p.seen, env)

	return p.err
}

func (p *fakeProcessor) envelopes() []*Envelope {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]*Envelope(nil), p.seen...)
}

func testJobs(delay int32) map[string]config.JobConfig {
	return map[string]config.JobConfig{
		"user_events": {
			QueueURL:            "http://sqs.local/queue/user-events",
			Replicas:            1,
			WaitTimeSeconds:     1,
			MaxNumberOfMessages: 10,
			VisibilityTimeout:   30,
			DelaySeconds:        delay,
		},
	}
}

func TestParseEnvelope(t *testing.T) {
	t.Parallel()

	env, err := ParseEnvelope([]byte(`{"event_type":"user_event","data":{"id":"x","verified":true}}`))
	require.NoError(t, err)
	require.Equal(t, EventTypeUser, env.EventType)

	var data UserEventData
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.True(t, data.Verified)
}

func TestParseEnvelope_DoubleEncoded(t *testing.T) {
	t.Parallel()

	inner := `{"event_type":"user_event","data":{"id":"y","verified":false}}`
	quoted, err := json.Marshal(inner)
	require.NoError(t, err)

	env, errParse := ParseEnvelope(quoted)
	require.NoError(t, errParse)
	require.Equal(t, EventTypeUser, env.EventType)
}

func TestParseEnvelope_Rejects(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		body string
	}{
		{"broken_json", `{"event_type":`},
		{"empty_event_type", `{"event_type":"","data":{}}`},
		{"unknown_event_type", `{"event_type":"billing_event","data":{}}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := ParseEnvelope([]byte(tc.body))
			require.ErrorIs(t, err, ErrBadEnvelope)
		})
	}
}

func TestProducer_Send(t *testing.T) {
	t.Parallel()

	fake := &fakeSQS{}
	producer := NewSQSProducer(fake, testJobs(30))

	env, err := NewEnvelope(EventTypeUser, UserEventData{ID: "u1", Verified: true})
	require.NoError(t, err)

	require.NoError(t, producer.Send(context.Background(), "user_events", env))

	require.Len(t, fake.sent, 1)
	require.Equal(t, "http://sqs.local/queue/user-events", aws.ToString(fake.sent[0].QueueUrl))
	require.EqualValues(t, 30, fake.sent[0].DelaySeconds)

	got, err := ParseEnvelope([]byte(aws.ToString(fake.sent[0].MessageBody)))
	require.NoError(t, err)
	require.Equal(t, EventTypeUser, got.EventType)
}

func TestProducer_Send_UnknownKind(t *testing.T) {
	t.Parallel()

	producer := NewSQSProducer(&fakeSQS{}, testJobs(0))

	env, err := NewEnvelope(EventTypeUser, UserEventData{ID: "u1"})
	require.NoError(t, err)

	err = producer.Send(context.Background(), "billing_events", env)
	require.ErrorIs(t, err, ErrUnknownJobKind)
}

func TestProducer_DelayOutOfRangeIgnored(t *testing.T) {
	t.Parallel()

	for _, delay := range []int32{0, 1000} {
		fake := &fakeSQS{}
		producer := NewSQSProducer(fake, testJobs(delay))

		env, err := NewEnvelope(EventTypeUser, UserEventData{ID: "u1"})
		require.NoError(t, err)

		require.NoError(t, producer.Send(context.Background(), "user_events", env))
		require.Len(t, fake.sent, 1)
		require.EqualValues(t, 0, fake.sent[0].DelaySeconds)
	}
}

func TestConsumer_ProcessesAndDeletes(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	fake := &fakeSQS{
		cancel: cancel,
		queue: []types.Message{
			{
				Body:          aws.String(`{"event_type":"user_event","data":{"id":"u1","verified":true}}`),
				ReceiptHandle: aws.String("rh-1"),
			},
			{
				Body:          aws.String(`{"event_type":"user_event","data":{"id":"u2","verified":true}}`),
				ReceiptHandle: aws.String("rh-2"),
			},
		},
	}

	processor := &fakeProcessor{}
	consumer := NewConsumer(fake, testJobs(0), processor)
	consumer.pollPause = time.Millisecond

	require.NoError(t, consumer.Run(ctx, "user_events"))

	require.Len(t, processor.envelopes(), 2)
	require.ElementsMatch(t, []string{"rh-1", "rh-2"}, fake.deletedHandles())
}

func TestConsumer_DeletesEvenOnProcessorError(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	fake := &fakeSQS{
		cancel: cancel,
		queue: []types.Message{
			{
				Body:          aws.String(`{"event_type":"user_event","data":{"id":"u1","verified":true}}`),
				ReceiptHandle: aws.String("rh-1"),
			},
		},
	}

	processor := &fakeProcessor{err: errors.New("boom")}
	consumer := NewConsumer(fake, testJobs(0), processor)
	consumer.pollPause = time.Millisecond

	require.NoError(t, consumer.Run(ctx, "user_events"))

	// Удаление после попытки: ошибка обработчика не возвращает сообщение в очередь.
	require.Equal(t, []string{"rh-1"}, fake.deletedHandles())
}

func TestConsumer_BadEnvelopeSkipsDelete(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	fake := &fakeSQS{
		cancel: cancel,
		queue: []types.Message{
			{
				Body:          aws.String(`{"event_type":"unknown_event","data":{}}`),
				ReceiptHandle: aws.String("rh-bad"),
			},
		},
	}

	processor := &fakeProcessor{}
	consumer := NewConsumer(fake, testJobs(0), processor)
	consumer.pollPause = time.Millisecond

	require.NoError(t, consumer.Run(ctx, "user_events"))

	// Битый конверт не обработан и не удалён — останется у брокера.
	require.Empty(t, processor.envelopes())
	require.Empty(t, fake.deletedHandles())
}

func TestConsumer_PausesBetweenPolls(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	// Пустая очередь без отмены по опустошению: цикл крутится до дедлайна.
	fake := &fakeSQS{}
	consumer := NewConsumer(fake, testJobs(0), &fakeProcessor{})
	consumer.pollPause = 20 * time.Millisecond

	require.NoError(t, consumer.Run(ctx, "user_events"))

	// С паузой 20мс за 100мс выходит горстка опросов; без паузы
	// счёт шёл бы на сотни тысяч.
	require.Less(t, fake.receiveCount(), 20)
}

func TestConsumer_UnknownKind(t *testing.T) {
	t.Parallel()

	consumer := NewConsumer(&fakeSQS{}, testJobs(0), &fakeProcessor{})

	err := consumer.Run(context.Background(), "billing_events")
	require.ErrorIs(t, err, ErrUnknownJobKind)

	err = consumer.RunReplicas(context.Background(), "billing_events")
	require.ErrorIs(t, err, ErrUnknownJobKind)
}

func TestRunReplicas_StopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	fake := &fakeSQS{cancel: cancel}
	jobs := testJobs(0)
	job := jobs["user_events"]
	job.Replicas = 3
	jobs["user_events"] = job

	consumer := NewConsumer(fake, jobs, &fakeProcessor{})

	// Очередь пуста: первый же ReceiveMessage отменит контекст,
	// все три реплики обязаны завершиться.
	require.NoError(t, consumer.RunReplicas(ctx, "user_events"))
}
