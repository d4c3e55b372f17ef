package loader

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/resilience"
)

// PostgresSource reads the first column of every row returned by Query,
// in row order. NULL values become empty documents.
type PostgresSource struct {
	Client *postgres.Client
	Query  string
	Retry  resilience.RetryConfig
}

func (p PostgresSource) Name() string {
	return "postgres"
}

func (p PostgresSource) Documents(ctx context.Context) ([]string, error) {
	var docs []string
	err := resilience.Retry(ctx, "seed query", p.Retry, func() error {
		var err error
		docs, err = p.query(ctx)
		if isPermanent(err) {
			return resilience.Permanent(err)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

func (p PostgresSource) query(ctx context.Context) ([]string, error) {
	docs := make([]string, 0)
	opts := &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	err := p.Client.InTx(ctx, opts, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, p.Query)
		if err != nil {
			return fmt.Errorf("running seed query: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var text sql.NullString
			if err := rows.Scan(&text); err != nil {
				return fmt.Errorf("scanning seed row: %w", err)
			}
			docs = append(docs, text.String)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// isPermanent reports errors retrying cannot fix: SQL syntax and access
// rule violations (class 42) and data exceptions (class 22).
func isPermanent(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	switch pqErr.Code.Class() {
	case "42", "22":
		return true
	}
	return false
}
