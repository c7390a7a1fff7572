package seed

import (
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// Catalog CSV columns, after a header row.
const (
	colBrandName = iota
	colGenericName
	colForm
	colStrength
)

// LoadMedicinesFile seeds the catalog from csvPath. A missing file is not an
// error; the seed is skipped.
func LoadMedicinesFile(ctx context.Context, db *sqlx.DB, csvPath string, logger *slog.Logger) (int, error) {
	file, err := os.Open(csvPath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn("medicine catalog not found, skipping seed", "path", csvPath)
			return 0, nil
		}
		return 0, errors.Wrapf(err, "open medicine catalog %s", csvPath)
	}
	defer file.Close()

	n, err := LoadMedicines(ctx, db, file, logger)
	if err != nil {
		return n, err
	}
	logger.Info("seeded medicine catalog", "path", csvPath, "rows", n)
	return n, nil
}

// LoadMedicines ingests CSV rows (brand_name, generic_name, form, strength)
// into the medicines table in a single transaction, ignoring duplicates.
// It returns the number of rows inserted.
func LoadMedicines(ctx context.Context, db *sqlx.DB, r io.Reader, logger *slog.Logger) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	// Skip header
	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return 0, nil
		}
		return 0, errors.Wrap(err, "read medicine header")
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "begin medicine seed")
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PreparexContext(ctx, tx.Rebind(`INSERT INTO medicines (brand_name, generic_name, form, strength)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (brand_name, generic_name, form, strength) DO NOTHING`))
	if err != nil {
		return 0, errors.Wrap(err, "prepare medicine insert")
	}
	defer stmt.Close()

	rows := 0
	line := 1
	for {
		record, err := reader.Read()
		line++
		if err == io.EOF {
			break
		}
		if err != nil {
			logger.Warn("unable to read medicine row", "line", line, "error", err)
			continue
		}

		brandName := field(record, colBrandName)
		if brandName == "" {
			continue
		}

		res, err := stmt.ExecContext(ctx, brandName,
			field(record, colGenericName), field(record, colForm), field(record, colStrength))
		if err != nil {
			return rows, errors.Wrapf(err, "insert medicine %q", brandName)
		}
		if n, err := res.RowsAffected(); err == nil {
			rows += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "commit medicine seed")
	}
	return rows, nil
}

func field(record []string, i int) string {
	if i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}
