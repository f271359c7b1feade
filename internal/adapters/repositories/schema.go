package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cargo-logistics-service/internal/domain"
)

// Tables in dependency order. The DDL sticks to types and clauses both
// Postgres and SQLite accept.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS roles (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		permissions TEXT NOT NULL DEFAULT '[]',
		is_system BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS clients (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		contact_person TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL UNIQUE,
		phone TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		country TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		phone TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		role_id TEXT NOT NULL REFERENCES roles(id),
		user_type TEXT NOT NULL,
		client_id TEXT REFERENCES clients(id),
		status TEXT NOT NULL,
		profile_photo_url TEXT NOT NULL DEFAULT '',
		last_login_at TIMESTAMP,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS suppliers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		contact_person TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		country TEXT NOT NULL DEFAULT '',
		service_type TEXT NOT NULL,
		status TEXT NOT NULL,
		rating INTEGER NOT NULL DEFAULT 0,
		notes TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS containers (
		id TEXT PRIMARY KEY,
		container_number TEXT NOT NULL UNIQUE,
		type TEXT NOT NULL,
		status TEXT NOT NULL,
		location TEXT NOT NULL DEFAULT '',
		supplier_id TEXT REFERENCES suppliers(id),
		max_weight_kg NUMERIC(14,2) NOT NULL DEFAULT 0,
		notes TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS shipments (
		id TEXT PRIMARY KEY,
		tracking_number TEXT NOT NULL UNIQUE,
		client_id TEXT NOT NULL REFERENCES clients(id),
		container_id TEXT REFERENCES containers(id),
		supplier_id TEXT REFERENCES suppliers(id),
		origin TEXT NOT NULL,
		destination TEXT NOT NULL,
		cargo_description TEXT NOT NULL DEFAULT '',
		cargo_type TEXT NOT NULL,
		weight_kg NUMERIC(14,2) NOT NULL DEFAULT 0,
		volume_cbm NUMERIC(14,2) NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		shipping_date TIMESTAMP,
		estimated_delivery TIMESTAMP,
		actual_delivery TIMESTAMP,
		consignee_name TEXT NOT NULL DEFAULT '',
		consignee_phone TEXT NOT NULL DEFAULT '',
		consignee_address TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS tracking_updates (
		id TEXT PRIMARY KEY,
		shipment_id TEXT NOT NULL REFERENCES shipments(id) ON DELETE CASCADE,
		status TEXT NOT NULL,
		location TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		latitude DOUBLE PRECISION,
		longitude DOUBLE PRECISION,
		occurred_at TIMESTAMP NOT NULL,
		created_by TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS invoices (
		id TEXT PRIMARY KEY,
		invoice_number TEXT NOT NULL UNIQUE,
		client_id TEXT NOT NULL REFERENCES clients(id),
		shipment_id TEXT REFERENCES shipments(id) ON DELETE SET NULL,
		issue_date TIMESTAMP NOT NULL,
		due_date TIMESTAMP NOT NULL,
		currency TEXT NOT NULL,
		subtotal NUMERIC(14,2) NOT NULL DEFAULT 0,
		tax_rate NUMERIC(5,2) NOT NULL DEFAULT 0,
		tax_amount NUMERIC(14,2) NOT NULL DEFAULT 0,
		discount NUMERIC(14,2) NOT NULL DEFAULT 0,
		total NUMERIC(14,2) NOT NULL DEFAULT 0,
		amount_paid NUMERIC(14,2) NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		paid_at TIMESTAMP,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS invoice_items (
		invoice_id TEXT NOT NULL REFERENCES invoices(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		description TEXT NOT NULL,
		quantity NUMERIC(14,3) NOT NULL,
		unit_price NUMERIC(14,2) NOT NULL,
		amount NUMERIC(14,2) NOT NULL,
		PRIMARY KEY (invoice_id, position)
	);`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		category TEXT NOT NULL,
		amount NUMERIC(14,2) NOT NULL,
		currency TEXT NOT NULL,
		date TIMESTAMP NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		reference TEXT NOT NULL DEFAULT '',
		payment_method TEXT NOT NULL,
		client_id TEXT REFERENCES clients(id),
		supplier_id TEXT REFERENCES suppliers(id),
		shipment_id TEXT REFERENCES shipments(id) ON DELETE SET NULL,
		invoice_id TEXT REFERENCES invoices(id) ON DELETE SET NULL,
		created_by TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS reports (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		format TEXT NOT NULL,
		parameters TEXT NOT NULL,
		result TEXT NOT NULL,
		generated_by TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS settings (
		id INTEGER PRIMARY KEY,
		data TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS support_tickets (
		id TEXT PRIMARY KEY,
		ticket_number TEXT NOT NULL UNIQUE,
		client_id TEXT NOT NULL REFERENCES clients(id),
		user_id TEXT NOT NULL REFERENCES users(id),
		subject TEXT NOT NULL,
		category TEXT NOT NULL,
		priority TEXT NOT NULL,
		status TEXT NOT NULL,
		shipment_id TEXT REFERENCES shipments(id) ON DELETE SET NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS ticket_messages (
		id TEXT PRIMARY KEY,
		ticket_id TEXT NOT NULL REFERENCES support_tickets(id) ON DELETE CASCADE,
		author_id TEXT NOT NULL,
		author_type TEXT NOT NULL,
		author_name TEXT NOT NULL DEFAULT '',
		body TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS geocode_cache (
		address TEXT PRIMARY KEY,
		lon DOUBLE PRECISION NOT NULL,
		lat DOUBLE PRECISION NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_shipments_client ON shipments(client_id);`,
	`CREATE INDEX IF NOT EXISTS idx_shipments_status ON shipments(status);`,
	`CREATE INDEX IF NOT EXISTS idx_tracking_updates_shipment ON tracking_updates(shipment_id, occurred_at);`,
	`CREATE INDEX IF NOT EXISTS idx_invoices_client ON invoices(client_id);`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(date);`,
	`CREATE INDEX IF NOT EXISTS idx_tickets_client ON support_tickets(client_id);`,
}

// InitSchema creates every table and seeds the system roles.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	now := time.Now().UTC()
	for _, r := range domain.SystemRoles() {
		perms, err := json.Marshal(r.Permissions)
		if err != nil {
			return fmt.Errorf("init schema: encode %s permissions: %w", r.Name, err)
		}
		// Existing system roles keep their stored permissions.
		_, err = tx.ExecContext(ctx, `
		INSERT INTO roles (id, name, description, permissions, is_system, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (name) DO NOTHING;
		`, domain.NewID(), r.Name, r.Description, string(perms), true, now)
		if err != nil {
			return fmt.Errorf("init schema: seed role %s: %w", r.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}
