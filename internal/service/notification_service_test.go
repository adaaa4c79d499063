package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSendNow(t *testing.T) {
	m := &fakeMailer{}
	svc := testNotifier(m)
	defer svc.Shutdown()

	err := svc.SendNow(Notification{Kind: "password_reset", To: "user@example.com", Subject: "Reset", Body: "link"})
	require.NoError(t, err)
	assert.Equal(t, 1, m.sentCount())
	assert.Equal(t, "user@example.com", m.lastSent().To)
}

func TestSendNowSurfacesFailure(t *testing.T) {
	m := &fakeMailer{err: assert.AnError}
	svc := testNotifier(m)
	defer svc.Shutdown()

	err := svc.SendNow(Notification{Kind: "password_reset", To: "user@example.com"})
	assert.Error(t, err)
}

func TestEnqueueAsyncDelivers(t *testing.T) {
	m := &fakeMailer{}
	svc := testNotifier(m)

	svc.EnqueueAsync(Notification{Kind: "welcome", To: "a@example.com"})
	svc.EnqueueAsync(Notification{Kind: "welcome", To: "b@example.com"})
	svc.Shutdown()

	assert.Equal(t, 2, m.sentCount())
}

// blockingMailer holds every send until released, so the queue can be
// filled deterministically.
type blockingMailer struct {
	fakeMailer
	gate chan struct{}
}

func (m *blockingMailer) Send(to, subject, body string) error {
	<-m.gate
	return m.fakeMailer.Send(to, subject, body)
}

func TestEnqueueAsyncDropsWhenFull(t *testing.T) {
	m := &blockingMailer{gate: make(chan struct{})}
	svc := NewNotificationService(m, testCollector(), zap.NewNop(), 1)

	// First message occupies the worker, second fills the buffer.
	svc.EnqueueAsync(Notification{Kind: "welcome", To: "a@example.com"})
	assert.Eventually(t, func() bool { return len(svc.queue) == 0 }, time.Second, time.Millisecond)
	svc.EnqueueAsync(Notification{Kind: "welcome", To: "b@example.com"})

	// Full buffer: this one is dropped instead of blocking the caller.
	done := make(chan struct{})
	go func() {
		svc.EnqueueAsync(Notification{Kind: "welcome", To: "c@example.com"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("EnqueueAsync blocked on a full buffer")
	}

	close(m.gate)
	svc.Shutdown()
	assert.Equal(t, 2, m.sentCount(), "the overflow message was dropped")
}
