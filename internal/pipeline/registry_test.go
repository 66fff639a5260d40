package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_CreateAndComplete(t *testing.T) {
	r := NewRegistry()

	r.Create("T1", "hello there", "spk1")

	record, ok := r.Get("T1")
	require.True(t, ok)
	assert.True(t, record.IsPending())
	assert.Equal(t, "hello there", record.Text)
	assert.Equal(t, "spk1", record.SpeakerID)
	assert.False(t, record.EnqueuedAt.IsZero())

	r.Complete("T1", "translated text")

	record, ok = r.Get("T1")
	require.True(t, ok)
	assert.True(t, record.IsCompleted())
	assert.False(t, record.IsFailed())
	require.NotNil(t, record.Translation)
	assert.Equal(t, "translated text", *record.Translation)
	require.NotNil(t, record.Duration)
	assert.GreaterOrEqual(t, *record.Duration, 0.0)
}

func TestRegistry_Fail(t *testing.T) {
	r := NewRegistry()

	r.Create("T1", "hello", "spk1")
	r.Fail("T1", "engine unreachable")

	record, ok := r.Get("T1")
	require.True(t, ok)
	assert.True(t, record.IsFailed())
	assert.False(t, record.IsCompleted())
	require.NotNil(t, record.ErrorText)
	assert.Equal(t, "engine unreachable", *record.ErrorText)
	assert.Nil(t, record.Translation)
}

func TestRegistry_TerminalStateIsFinal(t *testing.T) {
	r := NewRegistry()

	r.Create("T1", "hello", "spk1")
	r.Complete("T1", "first result")
	r.Fail("T1", "too late")
	r.Complete("T1", "also too late")

	record, _ := r.Get("T1")
	assert.True(t, record.IsCompleted())
	assert.False(t, record.IsFailed())
	assert.Equal(t, "first result", *record.Translation)
}

func TestRegistry_DuplicateIDOverwrites(t *testing.T) {
	r := NewRegistry()

	r.Create("T1", "original", "spk1")
	r.Complete("T1", "done")
	r.Create("T1", "replacement", "spk2")

	record, ok := r.Get("T1")
	require.True(t, ok)
	assert.Equal(t, "replacement", record.Text)
	assert.True(t, record.IsPending())
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_UnknownTaskIgnored(t *testing.T) {
	r := NewRegistry()

	r.Complete("missing", "whatever")
	r.Fail("missing", "whatever")

	assert.Equal(t, 0, r.Len())
	_, ok := r.Get("missing")
	assert.False(t, ok)
}

func TestRegistry_RecordsSnapshot(t *testing.T) {
	r := NewRegistry()

	r.Create("T1", "one", "spk1")
	r.Create("T2", "two", "spk2")

	records := r.Records()
	assert.Len(t, records, 2)
}
