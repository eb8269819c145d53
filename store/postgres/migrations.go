package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the Leasehold store.
var Migrations = migrate.NewGroup("leasehold")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_leasehold_passes",
			Version: "20240101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS leasehold_passes (
    serial              BIGINT PRIMARY KEY,
    owner               TEXT NOT NULL DEFAULT '',
    approved            TEXT NOT NULL DEFAULT '',
    mint_price_cents    BIGINT NOT NULL DEFAULT 0,
    mint_price_currency TEXT NOT NULL DEFAULT '',
    metadata            JSONB NOT NULL DEFAULT '{}',
    created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_leasehold_passes_owner ON leasehold_passes (owner);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS leasehold_passes`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_leasehold_delegations",
			Version: "20240101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS leasehold_delegations (
    serial        BIGINT PRIMARY KEY,
    user_account  TEXT NOT NULL DEFAULT '',
    starts        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    expires       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    rent_cents    BIGINT NOT NULL DEFAULT 0,
    rent_currency TEXT NOT NULL DEFAULT '',
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_leasehold_delegations_user ON leasehold_delegations (user_account);
CREATE INDEX IF NOT EXISTS idx_leasehold_delegations_expires ON leasehold_delegations (expires);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS leasehold_delegations`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_leasehold_leases",
			Version: "20240101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS leasehold_leases (
    serial        BIGINT PRIMARY KEY,
    lister        TEXT NOT NULL DEFAULT '',
    rent_cents    BIGINT NOT NULL DEFAULT 0,
    rent_currency TEXT NOT NULL DEFAULT '',
    duration_days BIGINT NOT NULL DEFAULT 0,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_leasehold_leases_lister ON leasehold_leases (lister);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS leasehold_leases`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_leasehold_events",
			Version: "20240101000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS leasehold_events (
    id              TEXT PRIMARY KEY,
    kind            TEXT NOT NULL DEFAULT '',
    serial          BIGINT NOT NULL DEFAULT 0,
    actor           TEXT NOT NULL DEFAULT '',
    counterparty    TEXT NOT NULL DEFAULT '',
    amount_cents    BIGINT NOT NULL DEFAULT 0,
    amount_currency TEXT NOT NULL DEFAULT '',
    occurred_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    metadata        JSONB NOT NULL DEFAULT '{}',
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_leasehold_events_kind ON leasehold_events (kind, occurred_at);
CREATE INDEX IF NOT EXISTS idx_leasehold_events_serial ON leasehold_events (serial, occurred_at);
CREATE INDEX IF NOT EXISTS idx_leasehold_events_occurred ON leasehold_events (occurred_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS leasehold_events`)
				return err
			},
		},
	)
}
