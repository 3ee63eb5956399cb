package ingest

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ensightlabs/walletfeed/internal/feed/wire"
)

type fakeSession struct {
	ctx    context.Context
	marked []int64
}

func (f *fakeSession) Claims() map[string][]int32 { return nil }
func (f *fakeSession) MemberID() string           { return "test-member" }
func (f *fakeSession) GenerationID() int32        { return 1 }
func (f *fakeSession) MarkOffset(topic string, partition int32, offset int64, metadata string) {
}
func (f *fakeSession) Commit() {}
func (f *fakeSession) ResetOffset(topic string, partition int32, offset int64, metadata string) {
}
func (f *fakeSession) MarkMessage(msg *sarama.ConsumerMessage, metadata string) {
	f.marked = append(f.marked, msg.Offset)
}
func (f *fakeSession) Context() context.Context { return f.ctx }

type fakeClaim struct {
	msgs chan *sarama.ConsumerMessage
}

func (f *fakeClaim) Topic() string                            { return "wallet.events" }
func (f *fakeClaim) Partition() int32                         { return 0 }
func (f *fakeClaim) InitialOffset() int64                     { return 0 }
func (f *fakeClaim) HighWaterMarkOffset() int64               { return 0 }
func (f *fakeClaim) Messages() <-chan *sarama.ConsumerMessage { return f.msgs }

func kafkaMsg(t *testing.T, offset int64, env wire.Envelope) *sarama.ConsumerMessage {
	t.Helper()
	raw, err := json.Marshal(env)
	require.NoError(t, err)
	return &sarama.ConsumerMessage{Topic: "wallet.events", Offset: offset, Value: raw}
}

func TestConsumeClaimForwardsDecoded(t *testing.T) {
	out := make(chan wire.Inbound, 8)
	c := &Consumer{out: out}
	sess := &fakeSession{ctx: context.Background()}
	claim := &fakeClaim{msgs: make(chan *sarama.ConsumerMessage, 8)}

	loaded, err := wire.EncodeContentLoaded(3, 1000, "app.uniswap.org")
	require.NoError(t, err)
	claim.msgs <- kafkaMsg(t, 10, loaded)
	claim.msgs <- &sarama.ConsumerMessage{Topic: "wallet.events", Offset: 11, Value: []byte("garbage")}
	claim.msgs <- kafkaMsg(t, 12, wire.Envelope{Type: wire.TypeTabClosed, TabID: 3, TS: 2000})
	close(claim.msgs)

	require.NoError(t, c.ConsumeClaim(sess, claim))

	// The poisoned message is marked and skipped, not forwarded.
	require.Len(t, out, 2)
	first := <-out
	assert.Equal(t, wire.TypeContentLoaded, first.Type)
	assert.Equal(t, "app.uniswap.org", first.Hostname)
	second := <-out
	assert.Equal(t, wire.TypeTabClosed, second.Type)

	assert.Equal(t, []int64{10, 11, 12}, sess.marked)
}

func TestConsumeClaimStopsOnSessionEnd(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan wire.Inbound) // unbuffered, nobody reading
	c := &Consumer{out: out}
	sess := &fakeSession{ctx: ctx}
	claim := &fakeClaim{msgs: make(chan *sarama.ConsumerMessage, 1)}

	loaded, err := wire.EncodeContentLoaded(1, 1, "x.com")
	require.NoError(t, err)
	claim.msgs <- kafkaMsg(t, 1, loaded)

	done := make(chan error, 1)
	go func() { done <- c.ConsumeClaim(sess, claim) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("ConsumeClaim did not yield on session end")
	}
	// The unforwarded message was not marked.
	assert.Empty(t, sess.marked)
}

func TestSplitCSV(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, splitCSV(" a:9092, b:9092 ,"))
	assert.Empty(t, splitCSV(""))
}
