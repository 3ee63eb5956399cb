package out

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mockSink(t *testing.T) (*KafkaSink, *mocks.SyncProducer) {
	t.Helper()
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	p := mocks.NewSyncProducer(t, cfg)
	return &KafkaSink{topic: "wallet.sessions", p: p}, p
}

func TestEmitPublishesEnvelope(t *testing.T) {
	sink, p := mockSink(t)
	defer func() { _ = sink.Close() }()

	p.ExpectSendMessageWithCheckerFunctionAndSucceed(func(raw []byte) error {
		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return err
		}
		assert.Equal(t, TypeSessionSnapshot, env.Type)
		assert.NotZero(t, env.TS)
		assert.JSONEq(t, `{"tabId":1}`, string(env.Data))
		return nil
	})

	err := sink.Emit(context.Background(), TypeSessionSnapshot, json.RawMessage(`{"tabId":1}`))
	require.NoError(t, err)
}

func TestEmitSurfacesProducerError(t *testing.T) {
	sink, p := mockSink(t)
	defer func() { _ = sink.Close() }()

	p.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)
	err := sink.Emit(context.Background(), TypeSessionSnapshot, json.RawMessage(`{}`))
	assert.Error(t, err)
}
