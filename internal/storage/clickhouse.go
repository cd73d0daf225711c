package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/aman-zulfiqar/solana-sweep-service/internal/models"
)

// ClickHouseStore persists sweep batch records for offline analytics.
type ClickHouseStore struct {
	conn driver.Conn
}

type ClickHouseConfig struct {
	Addr     string
	Database string
	Username string
	Password string
}

func NewClickHouseStore(cfg ClickHouseConfig) (*ClickHouseStore, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	return &ClickHouseStore{conn: conn}, nil
}

func (c *ClickHouseStore) InsertBatch(ctx context.Context, rec *models.SweepBatchRecord) error {
	query := `
		INSERT INTO sweep_batches (
			owner, batch_index, total_batches, mints, swap_count,
			expected_lamports_out, admin_fee_lamports, stage,
			signature, confirmed, error, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	err := c.conn.Exec(ctx, query,
		rec.Owner,
		rec.BatchIndex,
		rec.TotalBatches,
		strings.Join(rec.Mints, ","),
		rec.SwapCount,
		rec.ExpectedLamportsOut,
		rec.AdminFeeLamports,
		rec.Stage,
		rec.Signature,
		rec.Confirmed,
		rec.Error,
		rec.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert sweep batch: %w", err)
	}
	return nil
}

func (c *ClickHouseStore) Ping(ctx context.Context) error {
	return c.conn.Ping(ctx)
}

func (c *ClickHouseStore) Close() error {
	return c.conn.Close()
}
