// Package schema holds the DDL for the dashboard tables.
//
// Column names match the ids the core table registry derives from its
// field specs, so a grid column maps to a database column by name.
package schema

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Execer is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// Statement is one named DDL statement.
type Statement struct {
	Name string
	SQL  string
}

// Statements lists the DDL in dependency order. Every statement is
// idempotent.
var Statements = []Statement{
	{"stations", `CREATE TABLE IF NOT EXISTS stations (
	station_id  TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	city        TEXT,
	region      TEXT,
	opened_on   DATE,
	pump_count  INTEGER,
	active      BOOLEAN NOT NULL DEFAULT TRUE
)`},
	{"fuel_sales", `CREATE TABLE IF NOT EXISTS fuel_sales (
	transaction_id  TEXT PRIMARY KEY,
	sold_at         TIMESTAMPTZ NOT NULL,
	station_id      TEXT NOT NULL REFERENCES stations (station_id),
	pump            INTEGER,
	fuel_grade      TEXT,
	volume_l        NUMERIC(12, 3),
	price_l         NUMERIC(8, 3),
	amount          NUMERIC(12, 2),
	payment_method  TEXT,
	loyalty         BOOLEAN,
	terminal_id     TEXT
)`},
	{"fuel_sales_sold_at_idx", `CREATE INDEX IF NOT EXISTS fuel_sales_sold_at_idx ON fuel_sales (sold_at DESC)`},
	{"fuel_sales_station_idx", `CREATE INDEX IF NOT EXISTS fuel_sales_station_idx ON fuel_sales (station_id, sold_at DESC)`},
	{"tank_readings", `CREATE TABLE IF NOT EXISTS tank_readings (
	reading_id     TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	station_id     TEXT NOT NULL REFERENCES stations (station_id),
	tank_no        SMALLINT NOT NULL,
	fuel_grade     TEXT,
	read_at        TIMESTAMPTZ NOT NULL,
	volume_l       NUMERIC(12, 1),
	water_mm       NUMERIC(6, 1),
	temperature_c  NUMERIC(5, 1)
)`},
	{"fuel_deliveries", `CREATE TABLE IF NOT EXISTS fuel_deliveries (
	station_id      TEXT NOT NULL REFERENCES stations (station_id),
	delivery_ref    TEXT NOT NULL,
	delivered_at    TIMESTAMPTZ,
	supplier        TEXT,
	fuel_grade      TEXT,
	ordered_l       NUMERIC(12, 1),
	received_l      NUMERIC(12, 1),
	variance_l      NUMERIC(12, 1),
	invoice_amount  NUMERIC(12, 2),
	reconciled      BOOLEAN NOT NULL DEFAULT FALSE,
	PRIMARY KEY (station_id, delivery_ref)
)`},
}

// Ensure runs every statement in order.
func Ensure(ctx context.Context, db Execer) error {
	for _, st := range Statements {
		if _, err := db.Exec(ctx, st.SQL); err != nil {
			return fmt.Errorf("ensure %s: %w", st.Name, err)
		}
	}
	return nil
}
