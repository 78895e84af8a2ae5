package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the Parking store.
var Migrations = migrate.NewGroup("parking")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_parking_tariffs",
			Version: "20250101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS parking_tariffs (
    id            TEXT PRIMARY KEY,
    name          TEXT NOT NULL DEFAULT '',
    cost_cents    BIGINT NOT NULL DEFAULT 0,
    cost_currency TEXT NOT NULL DEFAULT '',
    billing       TEXT NOT NULL DEFAULT 'flat',
    metadata      JSONB NOT NULL DEFAULT '{}',
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_parking_tariffs_name ON parking_tariffs (name);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS parking_tariffs`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_parking_keys",
			Version: "20250101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS parking_keys (
    id                   TEXT PRIMARY KEY,
    token                TEXT NOT NULL DEFAULT '',
    auto_id              TEXT NOT NULL DEFAULT '',
    tariff_id            TEXT NOT NULL DEFAULT '',
    tariff_name          TEXT NOT NULL DEFAULT '',
    tariff_cost_cents    BIGINT NOT NULL DEFAULT 0,
    tariff_cost_currency TEXT NOT NULL DEFAULT '',
    tariff_billing       TEXT NOT NULL DEFAULT 'flat',
    issued_at            TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_parking_keys_token ON parking_keys (token);
CREATE UNIQUE INDEX IF NOT EXISTS idx_parking_keys_auto_id ON parking_keys (auto_id) WHERE auto_id != '';
CREATE INDEX IF NOT EXISTS idx_parking_keys_tariff ON parking_keys (tariff_name);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS parking_keys`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_parking_sellouts",
			Version: "20250101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS parking_sellouts (
    id               TEXT PRIMARY KEY,
    name             TEXT NOT NULL DEFAULT '',
    start_at         TIMESTAMPTZ NOT NULL,
    end_at           TIMESTAMPTZ NOT NULL,
    counter          BIGINT NOT NULL DEFAULT 0,
    tariffs          JSONB NOT NULL DEFAULT '[]',
    discount_type    TEXT NOT NULL DEFAULT 'free',
    discount_percent BIGINT NOT NULL DEFAULT 0,
    metadata         JSONB NOT NULL DEFAULT '{}',
    created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_parking_sellouts_window ON parking_sellouts (start_at, end_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS parking_sellouts`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_parking_statistics",
			Version: "20250101000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS parking_statistics (
    id          TEXT PRIMARY KEY,
    identifier  TEXT NOT NULL DEFAULT '',
    direction   TEXT NOT NULL DEFAULT '',
    tariff_name TEXT NOT NULL DEFAULT '',
    timestamp   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_parking_statistics_timestamp ON parking_statistics (timestamp);
CREATE INDEX IF NOT EXISTS idx_parking_statistics_direction ON parking_statistics (direction, timestamp);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS parking_statistics`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_parking_coupons",
			Version: "20250101000005",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS parking_coupons (
    id              TEXT PRIMARY KEY,
    code            TEXT NOT NULL DEFAULT '',
    name            TEXT NOT NULL DEFAULT '',
    type            TEXT NOT NULL DEFAULT '',
    amount_cents    BIGINT NOT NULL DEFAULT 0,
    amount_currency TEXT NOT NULL DEFAULT '',
    percentage      BIGINT NOT NULL DEFAULT 0,
    max_redemptions INTEGER NOT NULL DEFAULT 0,
    times_redeemed  INTEGER NOT NULL DEFAULT 0,
    valid_from      TIMESTAMPTZ,
    valid_until     TIMESTAMPTZ,
    metadata        JSONB NOT NULL DEFAULT '{}',
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_parking_coupons_code ON parking_coupons (code);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS parking_coupons`)
				return err
			},
		},
	)
}
