package eventgen

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/IBM/sarama"

	"github.com/ensightlabs/walletfeed/internal/feed/wire"
)

type Producer struct {
	topic string
	sp    sarama.SyncProducer
}

func NewProducer(brokersCSV, topic string) (*Producer, error) {
	if topic == "" {
		return nil, errors.New("topic empty")
	}
	brokers := splitCSV(brokersCSV)
	if len(brokers) == 0 {
		return nil, errors.New("no brokers")
	}

	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 10
	cfg.Producer.Retry.Backoff = 200 * time.Millisecond
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true
	cfg.Producer.Idempotent = true
	// idempotency constrains in-flight requests to one
	cfg.Net.MaxOpenRequests = 1
	cfg.Version = sarama.V2_1_0_0

	sp, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}
	return &Producer{topic: topic, sp: sp}, nil
}

func (p *Producer) Close() error {
	if p.sp != nil {
		return p.sp.Close()
	}
	return nil
}

// Produce publishes one envelope, keyed by tab id so a tab's events stay on
// one partition.
func (p *Producer) Produce(ctx context.Context, env wire.Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(strconv.FormatInt(env.TabID, 10)),
		Value: sarama.ByteEncoder(payload),
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	_, _, err = p.sp.SendMessage(msg)
	return err
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, x := range parts {
		x = strings.TrimSpace(x)
		if x != "" {
			out = append(out, x)
		}
	}
	return out
}
