package migrations

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/arihooper/Pharmfind/internal/database"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            email TEXT NOT NULL UNIQUE,
            password_hash TEXT NOT NULL,
            name TEXT,
            phone TEXT,
            role TEXT NOT NULL DEFAULT 'patient',
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        );`,
	`CREATE TABLE IF NOT EXISTS pharmacies (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            owner_id INTEGER UNIQUE REFERENCES users(id),
            name TEXT NOT NULL,
            latitude REAL,
            longitude REAL,
            address TEXT,
            contact_phone TEXT,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        );`,
	`CREATE TABLE IF NOT EXISTS medicines (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            brand_name TEXT NOT NULL,
            generic_name TEXT NOT NULL DEFAULT '',
            form TEXT NOT NULL DEFAULT '',
            strength TEXT NOT NULL DEFAULT '',
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            UNIQUE(brand_name, generic_name, form, strength)
        );`,
	`CREATE TABLE IF NOT EXISTS inventory (
            pharmacy_id INTEGER NOT NULL REFERENCES pharmacies(id),
            medicine_id INTEGER NOT NULL REFERENCES medicines(id),
            price REAL NOT NULL CHECK (price >= 0),
            quantity INTEGER NOT NULL CHECK (quantity >= 0),
            last_updated DATETIME DEFAULT CURRENT_TIMESTAMP,
            PRIMARY KEY (pharmacy_id, medicine_id)
        );`,
	`CREATE INDEX IF NOT EXISTS idx_pharmacies_location ON pharmacies (latitude, longitude);`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
            id SERIAL PRIMARY KEY,
            email TEXT NOT NULL UNIQUE,
            password_hash TEXT NOT NULL,
            name TEXT,
            phone TEXT,
            role TEXT NOT NULL DEFAULT 'patient',
            created_at TIMESTAMPTZ DEFAULT NOW()
        );`,
	`CREATE TABLE IF NOT EXISTS pharmacies (
            id SERIAL PRIMARY KEY,
            owner_id INTEGER REFERENCES users(id),
            name TEXT NOT NULL,
            latitude DOUBLE PRECISION,
            longitude DOUBLE PRECISION,
            address TEXT,
            contact_phone TEXT,
            created_at TIMESTAMPTZ DEFAULT NOW()
        );`,
	`CREATE UNIQUE INDEX IF NOT EXISTS pharmacies_owner_id_key ON pharmacies (owner_id);`,
	`CREATE TABLE IF NOT EXISTS medicines (
            id SERIAL PRIMARY KEY,
            brand_name TEXT NOT NULL,
            generic_name TEXT NOT NULL DEFAULT '',
            form TEXT NOT NULL DEFAULT '',
            strength TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ DEFAULT NOW(),
            UNIQUE (brand_name, generic_name, form, strength)
        );`,
	`CREATE TABLE IF NOT EXISTS inventory (
            pharmacy_id INTEGER NOT NULL REFERENCES pharmacies(id),
            medicine_id INTEGER NOT NULL REFERENCES medicines(id),
            price DOUBLE PRECISION NOT NULL CHECK (price >= 0),
            quantity INTEGER NOT NULL CHECK (quantity >= 0),
            last_updated TIMESTAMPTZ DEFAULT NOW(),
            PRIMARY KEY (pharmacy_id, medicine_id)
        );`,
	`CREATE INDEX IF NOT EXISTS idx_pharmacies_location ON pharmacies (latitude, longitude);`,
}

// Run creates the schema for the connected dialect. It is safe to run on
// every start.
func Run(ctx context.Context, db *sqlx.DB) error {
	schema := sqliteSchema
	if db.DriverName() == database.DriverPostgres {
		schema = postgresSchema
	}

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "migration failed")
		}
	}
	return nil
}
