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

	"github.com/ensightlabs/walletfeed/internal/mockbackend"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)
	var (
		listen  = flag.String("listen", "127.0.0.1:3002", "listen addr")
		flagged = flag.String("flagged", "", "csv of flagged addresses")
		names   = flag.String("names", "", "csv of addr=name reverse entries")
	)
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	s := mockbackend.NewServer()
	for _, a := range strings.Split(*flagged, ",") {
		if a = strings.TrimSpace(a); a != "" {
			s.Flag(a)
		}
	}
	for _, pair := range strings.Split(*names, ",") {
		addr, name, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if ok && addr != "" && name != "" {
			s.SetName(addr, name)
		}
	}

	srv := &http.Server{Addr: *listen, Handler: s.Handler()}
	go func() {
		<-ctx.Done()
		shutCtx, shutCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer shutCancel()
		_ = srv.Shutdown(shutCtx)
	}()

	log.Printf("[mockbackend] listening on %s", *listen)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
