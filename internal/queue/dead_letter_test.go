package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeadLetterArchivesAndNotifies(t *testing.T) {
	f := newWorkerFixture(t, &fakePublisher{}, &fakeRefresher{})
	raw := []byte(`{"target_id":100}`)

	f.queue.DeadLetter(context.Background(), raw, testPayload(), "twitter publish failed (429): rate limited")

	require.Len(t, f.dl.records, 1)
	rec := f.dl.records[0]
	assert.Equal(t, int64(100), rec.PostTargetID)
	assert.Equal(t, int64(10), rec.PostID)
	assert.Equal(t, int64(1), rec.PlatformAccountID)
	assert.Equal(t, raw, rec.Payload)
	assert.False(t, rec.FailedAt.IsZero())

	require.Len(t, f.notifier.failures, 1)
	failure := f.notifier.failures[0]
	assert.Equal(t, "owner@example.com", failure.To)
	assert.Equal(t, int64(10), failure.PostID)
	assert.Equal(t, "hello world", failure.PostContent)
	require.Len(t, failure.Platforms, 1)
	assert.Equal(t, "twitter", failure.Platforms[0].Name)
}

func TestDeadLetterNotifierErrorStillArchives(t *testing.T) {
	f := newWorkerFixture(t, &fakePublisher{}, &fakeRefresher{})
	f.notifier.err = errors.New("smtp down")

	f.queue.DeadLetter(context.Background(), []byte(`{}`), testPayload(), "boom")

	assert.Len(t, f.dl.records, 1)
}

func TestDeadLetterNotifierPanicRecovered(t *testing.T) {
	f := newWorkerFixture(t, &fakePublisher{}, &fakeRefresher{})
	f.notifier.panics = true

	assert.NotPanics(t, func() {
		f.queue.DeadLetter(context.Background(), []byte(`{}`), testPayload(), "boom")
	})
	assert.Len(t, f.dl.records, 1)
}

func TestHandleFinalFailure(t *testing.T) {
	f := newWorkerFixture(t, &fakePublisher{}, &fakeRefresher{})

	f.queue.handleFinalFailure(context.Background(), []byte(`{"target_id":100}`), testPayload(), 5, errors.New("rate limited"))

	assert.Contains(t, f.pt.failedMsg, "Failed after 5 attempts")
	assert.Equal(t, 1, f.status.calls)
	assert.Len(t, f.dl.records, 1)
	assert.Len(t, f.notifier.failures, 1)
}
