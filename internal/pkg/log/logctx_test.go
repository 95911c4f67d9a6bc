package log

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Тесты подменяют slog.Default(), поэтому без t.Parallel().

func newSilent() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setSilentDefault(t *testing.T) *slog.Logger {
	t.Helper()

	old := slog.Default()
	t.Cleanup(func() { slog.SetDefault(old) })

	def := newSilent()
	slog.SetDefault(def)

	return def
}

func TestFrom_FallsBackToDefault(t *testing.T) {
	def := setSilentDefault(t)

	// Пустой контекст.
	require.Equal(t, def, From(context.Background()))

	// Под нашим ключом лежит значение другого типа.
	ctxWrong := context.WithValue(context.Background(), ctxKey{}, "not-a-logger")
	require.Equal(t, def, From(ctxWrong))

	// Под нашим ключом лежит *slog.Logger == nil.
	var nilLogger *slog.Logger
	ctxNil := context.WithValue(context.Background(), ctxKey{}, nilLogger)
	require.Equal(t, def, From(ctxNil))
}

func TestIntoFrom_RoundTrip(t *testing.T) {
	def := setSilentDefault(t)

	l := newSilent()
	ctx := Into(context.Background(), l)

	require.Equal(t, l, From(ctx))
	// Исходный контекст логгера не получил.
	require.Equal(t, def, From(context.Background()))
}

func TestInto_ChildShadowsParent(t *testing.T) {
	parentL := newSilent()
	childL := newSilent()

	parent := Into(context.Background(), parentL)
	child := Into(parent, childL)

	require.Equal(t, childL, From(child))
	require.Equal(t, parentL, From(parent))
}

func TestInto_KeepsContextSemantics(t *testing.T) {
	type vk struct{}

	base := context.WithValue(context.Background(), vk{}, "v")
	ctx := Into(base, newSilent())

	// Прочие значения контекста на месте.
	require.Equal(t, "v", ctx.Value(vk{}))

	// Дедлайн родителя сохраняется.
	parent, cancel := context.WithTimeout(context.Background(), 40*time.Millisecond)
	defer cancel()

	child := Into(parent, newSilent())
	pdl, _ := parent.Deadline()
	cdl, ok := child.Deadline()
	require.True(t, ok)
	require.WithinDuration(t, pdl, cdl, time.Millisecond)

	// Отмена родителя доходит до ребёнка.
	parent2, cancel2 := context.WithCancel(context.Background())
	child2 := Into(parent2, newSilent())
	cancel2()

	select {
	case <-child2.Done():
		require.ErrorIs(t, child2.Err(), context.Canceled)
	case <-time.After(100 * time.Millisecond):
		t.Fatal("child context did not inherit cancellation")
	}
}

func TestWith_AppendsAttrsToContextLogger(t *testing.T) {
	setSilentDefault(t)

	base := newSilent()
	ctx := Into(context.Background(), base)

	enriched := With(ctx, slog.String("job", "user_events"))

	// With возвращает новый контекст с производным логгером,
	// исходный контекст не меняется.
	require.NotEqual(t, base, From(enriched))
	require.Equal(t, base, From(ctx))
}
