// Package main provides a CLI tool for creating the database schema and
// seeding demo inventory data.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"stockbook/internal/core/types"
	"stockbook/internal/domain/inventory"
	"stockbook/internal/domain/valuation"
	"stockbook/internal/infrastructure/storage/postgres"
	"stockbook/pkg/logger"
	"stockbook/pkg/sequence"
)

const schema = `
CREATE TABLE IF NOT EXISTS inv_items (
    id                  UUID PRIMARY KEY,
    version             INT NOT NULL DEFAULT 1,
    product_id          TEXT NOT NULL UNIQUE,
    product_description TEXT NOT NULL DEFAULT '',
    unit_of_measurement TEXT NOT NULL DEFAULT '',
    quantity            BIGINT NOT NULL,
    remaining_quantity  BIGINT NOT NULL,
    unit_price          NUMERIC(20, 4) NOT NULL,
    final_amount        NUMERIC(24, 4) NOT NULL,
    document_number     TEXT NOT NULL DEFAULT '',
    invoice_number_ref  TEXT NOT NULL DEFAULT '',
    document_date       TIMESTAMPTZ NOT NULL,
    seller              TEXT NOT NULL DEFAULT '',
    seller_province     TEXT NOT NULL DEFAULT '',
    activity_type       TEXT NOT NULL DEFAULT '',
    origin              TEXT NOT NULL DEFAULT '',
    item_category       TEXT NOT NULL DEFAULT '',
    remarks             TEXT NOT NULL DEFAULT '',
    created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
    CONSTRAINT inv_items_remaining_check CHECK (remaining_quantity >= 0 AND remaining_quantity <= quantity)
);

CREATE INDEX IF NOT EXISTS idx_inv_items_candidates
    ON inv_items (unit_price DESC, product_id ASC)
    WHERE remaining_quantity > 0;

CREATE TABLE IF NOT EXISTS inv_usage_log (
    id             UUID PRIMARY KEY,
    item_id        UUID NOT NULL REFERENCES inv_items (id),
    exit_date      TIMESTAMPTZ NOT NULL,
    invoice_number BIGINT NOT NULL,
    quantity_used  BIGINT NOT NULL,
    price_at_usage NUMERIC(20, 4) NOT NULL,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_inv_usage_log_item ON inv_usage_log (item_id);
CREATE INDEX IF NOT EXISTS idx_inv_usage_log_exit ON inv_usage_log (exit_date DESC);

CREATE TABLE IF NOT EXISTS inv_valuation (
    key             TEXT PRIMARY KEY,
    initial_value   NUMERIC(24, 4) NOT NULL,
    remaining_value NUMERIC(24, 4) NOT NULL,
    used_value      NUMERIC(24, 4) NOT NULL,
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS sys_sequences (
    key         TEXT PRIMARY KEY,
    current_val BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS sys_audit (
    id                 UUID PRIMARY KEY,
    entity_type        TEXT NOT NULL,
    entity_id          UUID NOT NULL,
    action             TEXT NOT NULL,
    changes            JSONB,
    changes_compressed BYTEA,
    compression_algo   TEXT NOT NULL DEFAULT 'none',
    created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_sys_audit_entity ON sys_audit (entity_type, entity_id, created_at DESC);
`

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dbURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	if _, err := pool.Exec(ctx, schema); err != nil {
		log.Fatalw("failed to apply schema", "error", err)
	}
	log.Info("schema applied")

	counter := sequence.New(pool, 0)
	if os.Getenv("INVOICE_SEQUENCE_RESET") == "true" {
		if err := counter.Set(ctx, sequence.DefaultStart); err != nil {
			log.Fatalw("failed to reset invoice sequence", "error", err)
		}
		log.Infow("invoice sequence reset", "value", sequence.DefaultStart)
	}

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		if err := seedDemoItems(ctx, pool, log); err != nil {
			log.Fatalw("failed to seed demo items", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

func seedDemoItems(ctx context.Context, pool *postgres.Pool, log *logger.Logger) error {
	txManager := postgres.NewTxManager(pool)
	store := postgres.NewInventoryRepo(txManager)
	values := valuation.NewService(store, postgres.NewValuationRepo(txManager))
	items := inventory.NewService(store, txManager, values, nil)

	demo := []struct {
		productID   string
		description string
		quantity    int64
		unitPrice   string
	}{
		{"2720000101", "steel sheet 2mm", 500, "1250000"},
		{"2720000102", "steel sheet 3mm", 300, "1780000"},
		{"2720000205", "copper wire 6mm", 1200, "420000"},
		{"2720000311", "aluminium profile", 80, "960000"},
	}

	for _, d := range demo {
		price, err := types.NewMoneyFromString(d.unitPrice)
		if err != nil {
			return fmt.Errorf("parse demo price: %w", err)
		}
		item := inventory.NewItem(d.productID, d.description, d.quantity, price)
		item.DocumentDate = time.Now().UTC()

		if err := items.Create(ctx, item); err != nil {
			// Re-runs are expected; keep existing rows.
			log.Warnw("demo item skipped", "product_id", d.productID, "error", err)
			continue
		}
		log.Infow("demo item created", "product_id", d.productID)
	}
	return nil
}
