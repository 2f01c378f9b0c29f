package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1kken/SideKickCX/internal/support"
)

type published struct {
	key string
	msg amqp.Publishing
}

type fakeChannel struct {
	mu   sync.Mutex
	sent []published
	err  error
}

func (f *fakeChannel) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp.Publishing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, published{key: key, msg: msg})
	return nil
}

type fakeAck struct {
	mu       sync.Mutex
	acks     int
	nacks    int
	requeued bool
}

func (a *fakeAck) Ack(uint64, bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acks++
	return nil
}

func (a *fakeAck) Nack(_ uint64, _ bool, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nacks++
	a.requeued = requeue
	return nil
}

func (a *fakeAck) Reject(_ uint64, requeue bool) error { return a.Nack(0, false, requeue) }

type memSink struct {
	mu      sync.Mutex
	entries []support.Entry
	err     error
}

func (s *memSink) Append(_ context.Context, e support.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.entries = append(s.entries, e)
	return nil
}

func entryBody(t *testing.T) []byte {
	t.Helper()
	resp := "answer"
	b, err := json.Marshal(support.Entry{
		UserID: "u1", Question: "q", Response: &resp,
		HandledBy: support.HandledByChatbot, CreatedAt: time.Now(),
	})
	require.NoError(t, err)
	return b
}

func TestPublisher_Append(t *testing.T) {
	ch := &fakeChannel{}
	p := &Publisher{ch: ch, queue: "audit"}

	require.NoError(t, p.Append(context.Background(), support.Entry{UserID: "u1", Question: "q", HandledBy: support.HandledByAgent}))
	require.Len(t, ch.sent, 1)
	assert.Equal(t, "audit", ch.sent[0].key)
	assert.Equal(t, amqp.Persistent, ch.sent[0].msg.DeliveryMode)

	var e support.Entry
	require.NoError(t, json.Unmarshal(ch.sent[0].msg.Body, &e))
	assert.Equal(t, "u1", e.UserID)
	assert.False(t, e.CreatedAt.IsZero())

	assert.Error(t, p.Append(context.Background(), support.Entry{}))
}

func TestConsumer_StoresAndAcks(t *testing.T) {
	sink := &memSink{}
	c := &Consumer{Sink: sink}
	ack := &fakeAck{}

	c.process(context.Background(), 0, amqp.Delivery{Acknowledger: ack, Body: entryBody(t)})

	assert.Equal(t, 1, ack.acks)
	require.Len(t, sink.entries, 1)
	assert.Equal(t, "u1", sink.entries[0].UserID)
}

func TestConsumer_BadMessageDeadLetters(t *testing.T) {
	sink := &memSink{}
	c := &Consumer{Sink: sink}

	for _, body := range [][]byte{[]byte("{nope"), []byte(`{"user_id":"u1","question":"q","handled_by":"robot"}`)} {
		ack := &fakeAck{}
		c.process(context.Background(), 0, amqp.Delivery{Acknowledger: ack, Body: body})
		assert.Equal(t, 1, ack.nacks)
		assert.False(t, ack.requeued)
	}
	assert.Empty(t, sink.entries)
}

func TestConsumer_StoreFailureRetriesThenDeadLetters(t *testing.T) {
	ch := &fakeChannel{}
	c := &Consumer{
		Sink:        &memSink{err: errors.New("db down")},
		Retry:       &Publisher{ch: ch, queue: "audit"},
		MaxAttempts: 2,
		RetryDelay:  time.Second,
	}

	ack := &fakeAck{}
	c.process(context.Background(), 0, amqp.Delivery{Acknowledger: ack, Body: entryBody(t)})
	assert.Equal(t, 1, ack.acks)
	require.Len(t, ch.sent, 1)
	assert.Equal(t, "audit.retry", ch.sent[0].key)
	assert.Equal(t, "1000", ch.sent[0].msg.Expiration)
	assert.Equal(t, int32(1), ch.sent[0].msg.Headers[attemptsHeader])

	ack = &fakeAck{}
	c.process(context.Background(), 0, amqp.Delivery{
		Acknowledger: ack,
		Body:         entryBody(t),
		Headers:      amqp.Table{attemptsHeader: int32(1)},
	})
	assert.Equal(t, 1, ack.nacks)
	assert.Len(t, ch.sent, 1, "no further retry after max attempts")
}

func TestConsumer_RunDrainsAndStops(t *testing.T) {
	sink := &memSink{}
	c := &Consumer{Sink: sink, Concurrency: 3}

	msgs := make(chan amqp.Delivery, 5)
	acks := make([]*fakeAck, 5)
	for i := range acks {
		acks[i] = &fakeAck{}
		msgs <- amqp.Delivery{Acknowledger: acks[i], Body: entryBody(t)}
	}
	close(msgs)

	c.Run(context.Background(), msgs)

	assert.Len(t, sink.entries, 5)
	for _, a := range acks {
		assert.Equal(t, 1, a.acks)
	}
}
