package source

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vehicleml/vehicleml/internal/dataset"
	"github.com/vehicleml/vehicleml/internal/mlerr"
)

// PostgresSource fetches collections from Postgres tables. It owns the only
// connection pool to the source in the process; construct once and inject.
type PostgresSource struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

// NewPostgresSource connects a pool to dsn. The timeout bounds every query.
func NewPostgresSource(ctx context.Context, dsn string, timeout time.Duration) (*PostgresSource, error) {
	if dsn == "" {
		return nil, mlerr.Newf(mlerr.CodeSourceUnavailable, "source DSN is required")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, mlerr.New(mlerr.CodeSourceUnavailable, err)
	}
	return &PostgresSource{pool: pool, timeout: timeout}, nil
}

// Close releases the pool.
func (s *PostgresSource) Close() { s.pool.Close() }

func (s *PostgresSource) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.pool.Ping(ctx); err != nil {
		return mlerr.New(mlerr.CodeSourceUnavailable, err)
	}
	return nil
}

// FetchAll reads every row of the named table into records. Column values
// are converted to the tagged cell representation; the literal "na" counts
// as missing, matching how the training data encodes absent values.
func (s *PostgresSource) FetchAll(ctx context.Context, collection string) ([]dataset.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := fmt.Sprintf("SELECT * FROM %s", pgx.Identifier{collection}.Sanitize())
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, mlerr.New(mlerr.CodeSourceUnavailable, err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = f.Name
	}

	var records []dataset.Record
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, mlerr.New(mlerr.CodeSourceUnavailable, err)
		}
		rec := make(dataset.Record, len(columns))
		for i, col := range columns {
			rec[col] = cellValue(values[i])
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, mlerr.New(mlerr.CodeSourceUnavailable, err)
	}
	return records, nil
}

func cellValue(v any) dataset.Value {
	switch t := v.(type) {
	case nil:
		return dataset.Missing()
	case string:
		if strings.EqualFold(strings.TrimSpace(t), "na") {
			return dataset.Missing()
		}
		return dataset.String(t)
	case []byte:
		return cellValue(string(t))
	case float64:
		return dataset.Number(t)
	case float32:
		return dataset.Number(float64(t))
	case int64:
		return dataset.Number(float64(t))
	case int32:
		return dataset.Number(float64(t))
	case int16:
		return dataset.Number(float64(t))
	case bool:
		if t {
			return dataset.Number(1)
		}
		return dataset.Number(0)
	default:
		return dataset.FromAny(v)
	}
}
