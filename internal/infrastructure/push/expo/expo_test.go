package expo

import (
	"context"
	"errors"
	"testing"

	"movapp-backend/internal/usecase/notification"

	expo "github.com/oliveroneill/exponent-server-sdk-golang/sdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	batches [][]expo.PushMessage
	err     error
}

func (f *fakePublisher) PublishMultiple(messages []expo.PushMessage) ([]expo.PushResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.batches = append(f.batches, messages)
	out := make([]expo.PushResponse, 0, len(messages))
	for _, m := range messages {
		out = append(out, expo.PushResponse{PushMessage: m, Status: expo.SuccessStatus})
	}
	return out, nil
}

func TestValidToken(t *testing.T) {
	s := &Sender{}
	assert.True(t, s.ValidToken("ExponentPushToken[xxxxxxxxxxxxxxxxxxxxxx]"))
	assert.False(t, s.ValidToken("not-a-token"))
	assert.False(t, s.ValidToken(""))
}

func TestSend_OneMessagePerToken(t *testing.T) {
	pub := &fakePublisher{}
	s := &Sender{client: pub}

	tickets, err := s.Send(context.Background(), notification.Message{
		Tokens: []string{"ExponentPushToken[a]", "ExponentPushToken[b]"},
		Title:  "Pago recibido",
		Body:   "Gracias",
		Data:   map[string]string{"type": "payment"},
	})
	require.NoError(t, err)

	require.Len(t, pub.batches, 1)
	require.Len(t, pub.batches[0], 2)
	assert.Equal(t, expo.ExponentPushToken("ExponentPushToken[b]"), pub.batches[0][1].To[0])
	assert.Equal(t, expo.HighPriority, pub.batches[0][0].Priority)

	require.Len(t, tickets, 2)
	assert.Equal(t, "ExponentPushToken[a]", tickets[0].Token)
	assert.Equal(t, expo.SuccessStatus, tickets[1].Status)
}

func TestSend_Chunks(t *testing.T) {
	pub := &fakePublisher{}
	s := &Sender{client: pub}

	tokens := make([]string, chunkSize+5)
	for i := range tokens {
		tokens[i] = "ExponentPushToken[x]"
	}

	tickets, err := s.Send(context.Background(), notification.Message{Tokens: tokens, Title: "t", Body: "b"})
	require.NoError(t, err)
	assert.Len(t, pub.batches, 2)
	assert.Len(t, tickets, chunkSize+5)
}

func TestSend_PublishError(t *testing.T) {
	s := &Sender{client: &fakePublisher{err: errors.New("boom")}}

	_, err := s.Send(context.Background(), notification.Message{Tokens: []string{"ExponentPushToken[a]"}})
	assert.Error(t, err)
}
