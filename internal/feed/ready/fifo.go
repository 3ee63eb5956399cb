package ready

import (
	"context"
	"errors"
	"log"
	"os"
	"syscall"
	"time"
)

// SignalFifoCtx writes payload to a named FIFO at path, once a reader shows
// up. Supervisors block on the FIFO to learn the aggregator has joined its
// consumer group. Non-blocking open avoids wedging a goroutine when nobody
// ever reads; ENXIO (no reader yet) is retried until success, cancel or
// timeout. Safe to call from a goroutine.
func SignalFifoCtx(ctx context.Context, path string, payload string, timeout time.Duration) {
	if path == "" {
		return
	}
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	if payload == "" {
		payload = "READY\n"
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	tick := time.NewTicker(80 * time.Millisecond)
	defer tick.Stop()

	for {
		fd, err := syscall.Open(path, syscall.O_WRONLY|syscall.O_NONBLOCK, 0)
		if err == nil {
			f := os.NewFile(uintptr(fd), path)
			_, _ = f.WriteString(payload)
			_ = f.Close()
			return
		}

		if errors.Is(err, syscall.ENXIO) {
			select {
			case <-ctx.Done():
				log.Printf("[ready] canceled before fifo ready: path=%s err=%v", path, ctx.Err())
				return
			case <-deadline.C:
				log.Printf("[ready] timeout waiting fifo reader: path=%s timeout=%s", path, timeout)
				return
			case <-tick.C:
				continue
			}
		}

		log.Printf("[ready] fifo open failed: path=%s err=%v", path, err)
		return
	}
}
