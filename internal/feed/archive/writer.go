// Package archive keeps a local copy of the interactions sent to the
// remote knowledge graph, for offline analysis. Postgres in deployments,
// sqlite for local runs; both go through database/sql.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/ensightlabs/walletfeed/internal/feed/backend"
	"github.com/ensightlabs/walletfeed/internal/feed/retry"
)

type Writer struct {
	db     *sql.DB
	driver string
}

// Open connects with the given driver ("pgx" or "sqlite") and DSN.
func Open(driver, dsn string) (*Writer, error) {
	switch driver {
	case "pgx", "sqlite":
	default:
		return nil, fmt.Errorf("unsupported archive driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Writer{db: db, driver: driver}, nil
}

func (w *Writer) Close() error {
	if w.db != nil {
		return w.db.Close()
	}
	return nil
}

func (w *Writer) EnsureSchema(ctx context.Context) error {
	var ddl string
	if w.driver == "pgx" {
		ddl = `
CREATE TABLE IF NOT EXISTS interactions (
  id          bigserial PRIMARY KEY,
  recorded_at timestamptz NOT NULL DEFAULT now(),
  from_addr   text NOT NULL,
  to_addr     text NOT NULL,
  method      text NOT NULL,
  kind        text NOT NULL,
  hostname    text NOT NULL,
  chain_id    text,
  value       text,
  has_data    boolean
);
CREATE INDEX IF NOT EXISTS idx_interactions_to ON interactions(to_addr);
`
	} else {
		ddl = `
CREATE TABLE IF NOT EXISTS interactions (
  id          INTEGER PRIMARY KEY AUTOINCREMENT,
  recorded_at INTEGER NOT NULL,
  from_addr   TEXT NOT NULL,
  to_addr     TEXT NOT NULL,
  method      TEXT NOT NULL,
  kind        TEXT NOT NULL,
  hostname    TEXT NOT NULL,
  chain_id    TEXT,
  value       TEXT,
  has_data    INTEGER
);
CREATE INDEX IF NOT EXISTS idx_interactions_to ON interactions(to_addr);
`
	}
	_, err := w.db.ExecContext(ctx, ddl)
	return err
}

func (w *Writer) Insert(ctx context.Context, it backend.Interaction) error {
	if w.driver == "pgx" {
		_, err := w.db.ExecContext(ctx,
			`INSERT INTO interactions(from_addr, to_addr, method, kind, hostname, chain_id, value, has_data)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			it.From, it.To, it.Method, it.Kind, it.Hostname,
			nullable(it.ChainID), nullable(it.Value), it.HasData,
		)
		return err
	}
	_, err := w.db.ExecContext(ctx,
		`INSERT INTO interactions(recorded_at, from_addr, to_addr, method, kind, hostname, chain_id, value, has_data)
		 VALUES (?,?,?,?,?,?,?,?,?)`,
		time.Now().UnixMilli(), it.From, it.To, it.Method, it.Kind, it.Hostname,
		nullable(it.ChainID), nullable(it.Value), it.HasData,
	)
	return err
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Run drains the interaction channel until ctx cancels or the channel
// closes. Inserts retry briefly; a persistently broken archive only costs
// the archived copy, never the session path.
func (w *Writer) Run(ctx context.Context, in <-chan backend.Interaction) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case it, ok := <-in:
			if !ok {
				return nil
			}
			err := retry.Do(ctx, retry.Policy{
				MaxAttempts: 3,
				BaseDelay:   200 * time.Millisecond,
				MaxDelay:    2 * time.Second,
			}, func(ctx context.Context) error {
				return w.Insert(ctx, it)
			})
			if err != nil && ctx.Err() == nil {
				log.Printf("[archive] insert failed: to=%s err=%v", it.To, err)
			}
		}
	}
}
