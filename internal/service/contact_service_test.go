package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestContactSubmit(t *testing.T) {
	m := &fakeMailer{}
	notify := testNotifier(m)
	svc := NewContactService(notify, "support@vetlink.example.com", zap.NewNop())

	err := svc.Submit(context.Background(), &ContactMessage{
		Name:    "Jordan",
		Email:   "jordan@example.com",
		Message: "My dog ate my homework, is that dangerous?",
	})
	require.NoError(t, err)
	notify.Shutdown()

	require.Equal(t, 2, m.sentCount(), "support copy plus sender confirmation")
	assert.Equal(t, "support@vetlink.example.com", m.sent[0].To)
	assert.Contains(t, m.sent[0].Subject, "General inquiry", "subject defaults when omitted")
	assert.Equal(t, "jordan@example.com", m.sent[1].To)
}

func TestContactSubmitWithoutAdminInbox(t *testing.T) {
	m := &fakeMailer{}
	notify := testNotifier(m)
	svc := NewContactService(notify, "", zap.NewNop())

	err := svc.Submit(context.Background(), &ContactMessage{
		Name: "Jordan", Email: "jordan@example.com", Subject: "Billing", Message: "Question",
	})
	require.NoError(t, err)
	notify.Shutdown()

	assert.Equal(t, 1, m.sentCount(), "only the confirmation goes out")
}

func TestContactSubmitValidation(t *testing.T) {
	svc := NewContactService(testNotifier(&fakeMailer{}), "", zap.NewNop())
	ctx := context.Background()

	var verr *ValidationError
	err := svc.Submit(ctx, &ContactMessage{})
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 3)

	err = svc.Submit(ctx, &ContactMessage{Name: "Jordan", Email: "not-an-email", Message: "hi"})
	assert.ErrorAs(t, err, &verr)
}
