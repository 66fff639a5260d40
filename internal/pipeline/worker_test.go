package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"lingostream/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type workerFixture struct {
	queue    *Queue
	registry *Registry
	sink     *fakeSink
	worker   *Worker
	cancel   context.CancelFunc
}

func startWorker(t *testing.T, backend TranslationBackend) *workerFixture {
	t.Helper()

	f := &workerFixture{
		queue:    NewQueue(),
		registry: NewRegistry(),
		sink:     newFakeSink(),
	}
	f.worker = NewWorker(f.queue, f.registry, backend, f.sink)

	ctx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel
	go f.worker.Run(ctx)

	t.Cleanup(func() {
		cancel()
		select {
		case <-f.worker.Done():
		case <-time.After(time.Second):
			t.Error("worker did not stop")
		}
	})
	return f
}

func (f *workerFixture) enqueue(t *testing.T, id, text, speaker string) {
	t.Helper()
	f.registry.Create(id, text, speaker)
	require.NoError(t, f.queue.Put(&model.TranslationTask{TaskID: id, Text: text, SpeakerID: speaker}))
}

func (f *workerFixture) drain(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, f.queue.Join(ctx))
}

func TestWorker_ProcessesTasksInOrder(t *testing.T) {
	f := startWorker(t, &fakeBackend{})

	f.enqueue(t, "T1", "A", "spk1")
	f.enqueue(t, "T2", "B", "spk2")
	f.enqueue(t, "T3", "C", "spk3")
	f.drain(t)

	msgs := f.sink.all()
	require.Len(t, msgs, 3)
	for i, want := range []string{"TRANSLATED: A", "TRANSLATED: B", "TRANSLATED: C"} {
		assert.Equal(t, model.MessageTypeTranslated, msgs[i].Type)
		assert.Equal(t, want, msgs[i].Result)
	}

	for _, id := range []string{"T1", "T2", "T3"} {
		record, ok := f.registry.Get(id)
		require.True(t, ok)
		assert.True(t, record.IsCompleted())
	}
}

func TestWorker_BackendErrorFailsTask(t *testing.T) {
	backend := &fakeBackend{
		fn: func(text string) (string, error) {
			return "Translation failed after 2 attempts: boom",
				errors.New("translation failed after 2 attempts: boom")
		},
	}
	f := startWorker(t, backend)

	f.enqueue(t, "T1", "X", "spk1")
	f.drain(t)

	record, ok := f.registry.Get("T1")
	require.True(t, ok)
	assert.True(t, record.IsFailed())
	assert.Nil(t, record.Translation)
	require.NotNil(t, record.ErrorText)
	assert.Contains(t, *record.ErrorText, "boom")

	// The sentinel never reaches the client.
	assert.Empty(t, f.sink.all())
}

func TestWorker_EmptyTranslationNotSent(t *testing.T) {
	backend := &fakeBackend{
		fn: func(text string) (string, error) { return "", nil },
	}
	f := startWorker(t, backend)

	f.enqueue(t, "T1", "hello", "spk1")
	f.drain(t)

	assert.Empty(t, f.sink.all())
	record, ok := f.registry.Get("T1")
	require.True(t, ok)
	assert.True(t, record.IsCompleted())
}

func TestWorker_DisconnectedSinkSkipsSend(t *testing.T) {
	f := startWorker(t, &fakeBackend{})
	f.sink.setConnected(false)

	f.enqueue(t, "T1", "hello", "spk1")
	f.enqueue(t, "T2", "world", "spk1")
	f.drain(t)

	assert.Empty(t, f.sink.all())
	for _, id := range []string{"T1", "T2"} {
		record, ok := f.registry.Get(id)
		require.True(t, ok)
		assert.True(t, record.IsCompleted())
	}
}

func TestWorker_PanicFailsTaskAndLoopSurvives(t *testing.T) {
	backend := &fakeBackend{
		fn: func(text string) (string, error) {
			if text == "bomb" {
				panic("backend blew up")
			}
			return "TRANSLATED: " + text, nil
		},
	}
	f := startWorker(t, backend)

	f.enqueue(t, "T1", "bomb", "spk1")
	f.enqueue(t, "T2", "safe", "spk1")
	f.drain(t)

	record, ok := f.registry.Get("T1")
	require.True(t, ok)
	assert.True(t, record.IsFailed())
	require.NotNil(t, record.ErrorText)
	assert.Contains(t, *record.ErrorText, "panic")

	msgs := f.sink.all()
	require.Len(t, msgs, 1)
	assert.Equal(t, "TRANSLATED: safe", msgs[0].Result)
}

func TestWorker_CancellationStopsLoop(t *testing.T) {
	f := startWorker(t, &fakeBackend{})

	f.cancel()

	select {
	case <-f.worker.Done():
	case <-time.After(time.Second):
		t.Fatal("worker did not exit after cancellation")
	}
}

func TestWorker_InFlightTaskFinishesAfterCancel(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	backend := &fakeBackend{
		fn: func(text string) (string, error) {
			close(started)
			<-release
			return "TRANSLATED: " + text, nil
		},
	}
	f := startWorker(t, backend)

	f.enqueue(t, "T1", "slow", "spk1")

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("backend never invoked")
	}

	// Cancel mid-flight, then let the backend finish.
	f.cancel()
	close(release)
	f.drain(t)

	record, ok := f.registry.Get("T1")
	require.True(t, ok)
	assert.True(t, record.IsCompleted())

	msgs := f.sink.all()
	require.Len(t, msgs, 1)
	assert.Equal(t, "TRANSLATED: slow", msgs[0].Result)
}
