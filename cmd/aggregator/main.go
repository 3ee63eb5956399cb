package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ensightlabs/walletfeed/internal/feed/aggregator"
	"github.com/ensightlabs/walletfeed/internal/feed/api"
	"github.com/ensightlabs/walletfeed/internal/feed/archive"
	"github.com/ensightlabs/walletfeed/internal/feed/backend"
	"github.com/ensightlabs/walletfeed/internal/feed/config"
	"github.com/ensightlabs/walletfeed/internal/feed/enrich"
	"github.com/ensightlabs/walletfeed/internal/feed/ingest"
	"github.com/ensightlabs/walletfeed/internal/feed/kv"
	"github.com/ensightlabs/walletfeed/internal/feed/out"
	"github.com/ensightlabs/walletfeed/internal/feed/session"
	"github.com/ensightlabs/walletfeed/internal/feed/wire"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)
	var (
		cfgPath = flag.String("config", "", "yaml config path (optional)")
		brokers = flag.String("brokers", "", "kafka brokers csv (overrides config)")
		group   = flag.String("group", "", "kafka consumer group (overrides config)")
		topic   = flag.String("topic", "", "events topic (overrides config)")
		listen  = flag.String("listen", "", "query api listen addr (overrides config)")
	)
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if *brokers != "" {
		cfg.Brokers = *brokers
	}
	if *group != "" {
		cfg.Group = *group
	}
	if *topic != "" {
		cfg.EventsTopic = *topic
	}
	if *listen != "" {
		cfg.API.Listen = *listen
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	substrate, err := kv.Open(cfg.KV.Backend, cfg.KV.Path)
	if err != nil {
		log.Fatalf("kv open failed: backend=%s err=%v", cfg.KV.Backend, err)
	}
	defer func() { _ = substrate.Close() }()

	be := backend.NewClient(cfg.Backend.BaseURL)
	if err := config.Watch(ctx, *cfgPath, func(next config.Config) {
		be.SetBase(next.Backend.BaseURL)
	}); err != nil {
		log.Printf("[main] config watch disabled: %v", err)
	}

	// interaction archive (optional)
	var archCh chan backend.Interaction
	if cfg.Archive.Driver != "" {
		aw, err := archive.Open(cfg.Archive.Driver, cfg.Archive.DSN)
		if err != nil {
			log.Fatalf("archive open failed: %v", err)
		}
		defer func() { _ = aw.Close() }()
		if err := aw.EnsureSchema(ctx); err != nil {
			log.Fatalf("archive schema failed: %v", err)
		}
		archCh = make(chan backend.Interaction, 256)
		go func() {
			if err := aw.Run(ctx, archCh); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("[main] archive writer exit: %v", err)
			}
		}()
	}

	// snapshot sink (optional)
	var sink out.Sink
	if cfg.SessionsTopic != "" {
		ks, err := out.NewKafkaSink(splitCSV(cfg.Brokers), cfg.SessionsTopic, nil)
		if err != nil {
			log.Fatalf("sink init failed: %v", err)
		}
		defer func() { _ = ks.Close() }()
		sink = ks
	}

	store := session.NewStore(substrate)
	agg := aggregator.New(aggregator.Config{
		Store: store,
		Sink:  sink,
	})
	agg.SetEnricher(enrich.New(be, agg, archCh))

	inCh := make(chan wire.Inbound, 1024)
	cons, err := ingest.NewConsumer(ingest.Config{
		Brokers:   cfg.Brokers,
		Group:     cfg.Group,
		Topic:     cfg.EventsTopic,
		ReadyFifo: cfg.ReadyFifo,
	}, inCh)
	if err != nil {
		log.Fatalf("consumer init failed: %v", err)
	}
	defer func() { _ = cons.Close() }()

	srv := &http.Server{
		Addr:    cfg.API.Listen,
		Handler: api.NewServer(agg).Handler(),
	}
	go func() {
		log.Printf("[main] query api listening on %s", cfg.API.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[main] api server exit: %v", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutCtx, shutCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer shutCancel()
		_ = srv.Shutdown(shutCtx)
	}()

	go func() {
		if err := cons.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("[main] consumer exit: %v", err)
		}
	}()

	log.Printf("[main] aggregator start: brokers=%s topic=%s group=%s kv=%s",
		cfg.Brokers, cfg.EventsTopic, cfg.Group, cfg.KV.Backend)

	if err := agg.Run(ctx, inCh); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal(err)
	}
	log.Printf("[main] exit: %v", ctx.Err())
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
