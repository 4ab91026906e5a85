package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/MorseWayne/boutique_shop/internal/ranking"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

// fakeReader 依次返回预置消息，读完后返回 io.EOF
type fakeReader struct {
	messages  []kafka.Message
	committed []int64
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.messages) == 0 {
		return kafka.Message{}, io.EOF
	}
	m := r.messages[0]
	r.messages = r.messages[1:]
	return m, nil
}

func (r *fakeReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

// flakyRanker 前 failures 次 Incr 返回错误
type flakyRanker struct {
	*ranking.MemoryRanker
	failures int
	calls    int
}

func (r *flakyRanker) Incr(ctx context.Context, productID int64, delta float64) error {
	r.calls++
	if r.calls <= r.failures {
		return errors.New("redis: connection refused")
	}
	return r.MemoryRanker.Incr(ctx, productID, delta)
}

func TestTypeWeight(t *testing.T) {
	assert.Equal(t, 1.0, ProductViewed.Weight())
	assert.Equal(t, 3.0, WishlistAdded.Weight())
	assert.Equal(t, 5.0, CartAdded.Weight())
	assert.Equal(t, 0.0, Type("refund").Weight())
}

func TestActivityEvent_Validate(t *testing.T) {
	assert.NoError(t, NewActivityEvent(CartAdded, 3, "u1").Validate())
	assert.ErrorIs(t, NewActivityEvent("refund", 3, "u1").Validate(), ErrInvalidEvent)
	assert.ErrorIs(t, NewActivityEvent(CartAdded, 0, "u1").Validate(), ErrInvalidEvent)
}

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w}

	ev := NewActivityEvent(WishlistAdded, 42, "user-1")
	require.NoError(t, p.Publish(context.Background(), ev))
	require.Len(t, w.messages, 1)
	assert.Equal(t, "42", string(w.messages[0].Key))

	var decoded ActivityEvent
	require.NoError(t, json.Unmarshal(w.messages[0].Value, &decoded))
	assert.Equal(t, ev.ID, decoded.ID)
	assert.Equal(t, WishlistAdded, decoded.Type)

	w.err = errors.New("broker unavailable")
	assert.Error(t, p.Publish(context.Background(), ev))
}

func TestKafkaConsumer_ProjectsIntoRanking(t *testing.T) {
	ranker := ranking.NewMemoryRanker()
	projector := NewProjector(ranker, zap.NewNop())

	encode := func(ev ActivityEvent) []byte {
		b, _ := json.Marshal(ev)
		return b
	}
	reader := &fakeReader{messages: []kafka.Message{
		{Offset: 1, Value: encode(NewActivityEvent(ProductViewed, 5, ""))},
		{Offset: 2, Value: []byte("not json")},
		{Offset: 3, Value: encode(NewActivityEvent(CartAdded, 5, "u1"))},
		{Offset: 4, Value: encode(NewActivityEvent("refund", 5, "u1"))},
		{Offset: 5, Value: encode(NewActivityEvent(WishlistAdded, 8, "u1"))},
	}}
	consumer := &KafkaConsumer{reader: reader, logger: zap.NewNop()}

	require.NoError(t, consumer.Consume(context.Background(), projector.HandleMessage))

	scores, err := ranker.Scores(context.Background(), []int64{5, 8})
	require.NoError(t, err)
	assert.Equal(t, map[int64]float64{5: 6, 8: 3}, scores)
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, reader.committed)
}

func TestKafkaConsumer_RetriesBeforeCommit(t *testing.T) {
	ranker := &flakyRanker{MemoryRanker: ranking.NewMemoryRanker(), failures: 2}
	projector := NewProjector(ranker, zap.NewNop())

	body, _ := json.Marshal(NewActivityEvent(CartAdded, 7, "u1"))
	reader := &fakeReader{messages: []kafka.Message{{Offset: 1, Value: body}}}
	consumer := &KafkaConsumer{reader: reader, logger: zap.NewNop(), retryDelay: time.Millisecond}

	require.NoError(t, consumer.Consume(context.Background(), projector.HandleMessage))

	assert.Equal(t, 3, ranker.calls)
	scores, err := ranker.Scores(context.Background(), []int64{7})
	require.NoError(t, err)
	assert.Equal(t, map[int64]float64{7: 5}, scores)
	assert.Equal(t, []int64{1}, reader.committed)
}

func TestKafkaConsumer_DoesNotCommitFailedMessage(t *testing.T) {
	ranker := &flakyRanker{MemoryRanker: ranking.NewMemoryRanker(), failures: math.MaxInt}
	projector := NewProjector(ranker, zap.NewNop())

	body, _ := json.Marshal(NewActivityEvent(CartAdded, 7, "u1"))
	reader := &fakeReader{messages: []kafka.Message{
		{Offset: 1, Value: body},
		{Offset: 2, Value: body},
	}}
	consumer := &KafkaConsumer{reader: reader, logger: zap.NewNop(), retryDelay: time.Millisecond}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := consumer.Consume(ctx, projector.HandleMessage)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, reader.committed)
	assert.Len(t, reader.messages, 1)
}

func TestRankingPublisher(t *testing.T) {
	ranker := ranking.NewMemoryRanker()
	var pub Publisher = NewRankingPublisher(ranker, zap.NewNop())

	require.NoError(t, pub.Publish(context.Background(), NewActivityEvent(CartAdded, 2, "u")))
	require.NoError(t, pub.Publish(context.Background(), NewActivityEvent(ProductViewed, 2, "")))
	assert.Error(t, pub.Publish(context.Background(), NewActivityEvent(CartAdded, -1, "u")))

	top, err := ranker.Top(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []ranking.Entry{{ProductID: 2, Score: 6}}, top)
}
