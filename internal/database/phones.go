// Phoneprice - Mobile Phone Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phoneprice

// Package database reads the phone dataset through an in-process DuckDB
// connection.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/jmoiron/sqlx"

	"github.com/tomtom215/phoneprice/internal/dataset"
	"github.com/tomtom215/phoneprice/internal/logging"
)

// Source column names of the phone dataset CSV.
const (
	ColBrand     = "Brand"
	ColBattery   = "Battery capacity (mAh)"
	ColScreen    = "Screen size (inches)"
	ColProcessor = "Processor"
	ColRAM       = "RAM (MB)"
	ColStorage   = "Internal storage (GB)"
	ColRear      = "Rear camera"
	ColFront     = "Front camera"
	ColPrice     = "Price"
)

// LoadResult is the outcome of reading a dataset file.
type LoadResult struct {
	Phones []dataset.Phone
	// Incomplete counts rows skipped because a required column was empty.
	Incomplete int
	Duration   time.Duration
}

// DB wraps an in-memory DuckDB connection used for CSV ingestion.
type DB struct {
	conn *sqlx.DB
}

// Open creates an in-memory DuckDB connection.
func Open() (*DB, error) {
	conn, err := sqlx.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb: %w", err)
	}
	if err := conn.Ping(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to connect to duckdb: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close releases the connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// phoneRecord mirrors one CSV row before missing values are filtered.
type phoneRecord struct {
	Brand     sql.NullString  `db:"brand"`
	Processor sql.NullString  `db:"processor"`
	Battery   sql.NullFloat64 `db:"battery_mah"`
	Screen    sql.NullFloat64 `db:"screen_inches"`
	RAM       sql.NullFloat64 `db:"ram_mb"`
	Storage   sql.NullFloat64 `db:"storage_gb"`
	Rear      sql.NullFloat64 `db:"rear_mp"`
	Front     sql.NullFloat64 `db:"front_mp"`
	Price     sql.NullFloat64 `db:"price"`
}

func (r *phoneRecord) complete() bool {
	return r.Brand.Valid && strings.TrimSpace(r.Brand.String) != "" &&
		r.Processor.Valid && strings.TrimSpace(r.Processor.String) != "" &&
		r.Battery.Valid && r.Screen.Valid && r.RAM.Valid && r.Storage.Valid &&
		r.Rear.Valid && r.Front.Valid && r.Price.Valid
}

func (r *phoneRecord) phone() dataset.Phone {
	return dataset.Phone{
		Brand:        strings.TrimSpace(r.Brand.String),
		Processor:    strings.TrimSpace(r.Processor.String),
		BatteryMAh:   r.Battery.Float64,
		ScreenInches: r.Screen.Float64,
		RAMMB:        r.RAM.Float64,
		StorageGB:    r.Storage.Float64,
		RearMP:       r.Rear.Float64,
		FrontMP:      r.Front.Float64,
		Price:        r.Price.Float64,
	}
}

// phonesQuery builds the projection over read_csv_auto. Numeric columns are
// cast with TRY_CAST so unparsable cells surface as missing values.
func phonesQuery(path string) string {
	quoted := "'" + strings.ReplaceAll(path, "'", "''") + "'"
	col := func(name string) string {
		return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
	}
	return fmt.Sprintf(`
		SELECT
			CAST(%s AS VARCHAR)       AS brand,
			CAST(%s AS VARCHAR)       AS processor,
			TRY_CAST(%s AS DOUBLE)    AS battery_mah,
			TRY_CAST(%s AS DOUBLE)    AS screen_inches,
			TRY_CAST(%s AS DOUBLE)    AS ram_mb,
			TRY_CAST(%s AS DOUBLE)    AS storage_gb,
			TRY_CAST(%s AS DOUBLE)    AS rear_mp,
			TRY_CAST(%s AS DOUBLE)    AS front_mp,
			TRY_CAST(%s AS DOUBLE)    AS price
		FROM read_csv_auto(%s, header = true)`,
		col(ColBrand), col(ColProcessor), col(ColBattery), col(ColScreen),
		col(ColRAM), col(ColStorage), col(ColRear), col(ColFront), col(ColPrice),
		quoted)
}

// LoadPhones reads every row of the CSV at path, skipping rows with a
// missing required column.
func (db *DB) LoadPhones(ctx context.Context, path string) (*LoadResult, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("dataset file: %w", err)
	}

	start := time.Now()
	var records []phoneRecord
	if err := db.conn.SelectContext(ctx, &records, phonesQuery(path)); err != nil {
		return nil, fmt.Errorf("failed to read dataset %s: %w", path, err)
	}

	result := &LoadResult{Phones: make([]dataset.Phone, 0, len(records))}
	for i := range records {
		if !records[i].complete() {
			result.Incomplete++
			continue
		}
		result.Phones = append(result.Phones, records[i].phone())
	}
	result.Duration = time.Since(start)

	logging.Ctx(logging.ContextWithComponent(ctx, "database")).Debug().
		Str("path", path).
		Int("rows", len(records)).
		Int("incomplete", result.Incomplete).
		Int64(logging.KeyDurationMs, result.Duration.Milliseconds()).
		Msg("Dataset loaded")

	return result, nil
}

// LoadPhones opens a temporary connection and reads the CSV at path.
func LoadPhones(ctx context.Context, path string) (*LoadResult, error) {
	db, err := Open()
	if err != nil {
		return nil, err
	}
	defer closeQuietly(db)
	return db.LoadPhones(ctx, path)
}
