package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ensightlabs/walletfeed/internal/eventgen"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)
	var (
		brokers  = flag.String("brokers", "127.0.0.1:9092", "kafka brokers csv")
		topic    = flag.String("topic", "wallet.events", "events topic")
		tabs     = flag.Int("tabs", 4, "number of simulated tabs")
		interval = flag.Duration("interval", 500*time.Millisecond, "delay between steps")
		steps    = flag.Int("steps", 0, "stop after N steps (0 = run forever)")
		seed     = flag.Int64("seed", time.Now().UnixNano(), "rng seed")
		flagged  = flag.String("flagged", "", "csv of flagged addresses to mix in")
	)
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	p, err := eventgen.NewProducer(*brokers, *topic)
	if err != nil {
		log.Fatalf("producer init failed: %v", err)
	}
	defer func() { _ = p.Close() }()

	g := eventgen.New(*seed, *tabs, *flagged)

	log.Printf("[eventgen] start: topic=%s tabs=%d interval=%s", *topic, *tabs, *interval)

	produced := 0
	for step := 0; *steps == 0 || step < *steps; step++ {
		for _, env := range g.Step() {
			if err := p.Produce(ctx, env); err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Printf("[eventgen] produce failed: %v", err)
				break
			}
			produced++
		}
		select {
		case <-ctx.Done():
			log.Printf("[eventgen] exit after %d envelopes", produced)
			return
		case <-time.After(*interval):
		}
	}
	log.Printf("[eventgen] done: %d envelopes", produced)
}
