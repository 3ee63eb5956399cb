// Package ingest consumes wallet-event envelopes from Kafka and hands the
// decoded messages to the aggregator loop. Delivery is at least once and
// unordered; the merge engine's idempotence absorbs redelivery.
package ingest

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/IBM/sarama"

	"github.com/ensightlabs/walletfeed/internal/feed/ready"
	"github.com/ensightlabs/walletfeed/internal/feed/wire"
)

type Config struct {
	Brokers string // csv
	Group   string
	Topic   string

	// ReadyFifo gets one READY line once the consumer group session is
	// established. Empty disables.
	ReadyFifo string
}

type Consumer struct {
	cfg   Config
	group sarama.ConsumerGroup
	out   chan<- wire.Inbound

	readyOnce sync.Once
}

func NewConsumer(cfg Config, out chan<- wire.Inbound) (*Consumer, error) {
	sc := sarama.NewConfig()
	sc.Version = sarama.V2_1_0_0
	sc.Consumer.Group.Rebalance.Strategy = sarama.BalanceStrategyRange
	sc.Consumer.Offsets.Initial = sarama.OffsetOldest
	sc.Consumer.Return.Errors = true

	cg, err := sarama.NewConsumerGroup(splitCSV(cfg.Brokers), cfg.Group, sc)
	if err != nil {
		return nil, err
	}
	return &Consumer{cfg: cfg, group: cg, out: out}, nil
}

func (c *Consumer) Close() error { return c.group.Close() }

// Run keeps the consumer group session alive; sarama requires re-entering
// Consume after every rebalance.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		if err := c.group.Consume(ctx, []string{c.cfg.Topic}, c); err != nil {
			log.Printf("[ingest] consume err: %v", err)
			time.Sleep(300 * time.Millisecond)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

var _ sarama.ConsumerGroupHandler = (*Consumer)(nil)

func (c *Consumer) Setup(sess sarama.ConsumerGroupSession) error {
	c.readyOnce.Do(func() {
		if c.cfg.ReadyFifo != "" {
			log.Printf("[ingest] session established, signaling fifo=%s", c.cfg.ReadyFifo)
			go ready.SignalFifoCtx(sess.Context(), c.cfg.ReadyFifo, "READY\n", 8*time.Second)
		}
	})
	return nil
}

func (c *Consumer) Cleanup(sarama.ConsumerGroupSession) error { return nil }

// ConsumeClaim decodes and forwards; bad envelopes are logged, marked and
// skipped so one poisoned message cannot wedge the partition.
func (c *Consumer) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		in, err := wire.Decode(msg.Value)
		if err != nil {
			log.Printf("[ingest] drop undecodable msg: p=%d off=%d err=%v", msg.Partition, msg.Offset, err)
			sess.MarkMessage(msg, "")
			continue
		}

		select {
		case c.out <- in:
		case <-sess.Context().Done():
			return nil
		}
		sess.MarkMessage(msg, "")
	}
	return nil
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
