package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"cargo-logistics-service/internal/domain"

	"github.com/shopspring/decimal"
)

type ClientSeed struct {
	Name          string `json:"name"`
	ContactPerson string `json:"contactPerson"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	City          string `json:"city"`
	Country       string `json:"country"`
}

type SupplierSeed struct {
	Name          string `json:"name"`
	ContactPerson string `json:"contactPerson"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Country       string `json:"country"`
	ServiceType   string `json:"serviceType"`
	Rating        int    `json:"rating"`
}

type ContainerSeed struct {
	ContainerNumber string          `json:"containerNumber"`
	Type            string          `json:"type"`
	Location        string          `json:"location"`
	MaxWeightKg     decimal.Decimal `json:"maxWeightKg"`
	// Name of a supplier in the same file that leases the container.
	Supplier string `json:"supplier"`
}

// SeedFile is the layout of the JSON reference-data file.
type SeedFile struct {
	Clients    []ClientSeed    `json:"clients"`
	Suppliers  []SupplierSeed  `json:"suppliers"`
	Containers []ContainerSeed `json:"containers"`
}

// SeedFromJSON loads reference data from a JSON file. Clients are keyed by
// email, suppliers by name and containers by number, so reseeding updates
// rows in place.
func SeedFromJSON(ctx context.Context, db *sql.DB, jsonPath string) error {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("seed: read %q: %w", jsonPath, err)
	}

	var data SeedFile
	if err := json.Unmarshal(bytes, &data); err != nil {
		return fmt.Errorf("seed: parse json: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()

	for i, item := range data.Clients {
		c := domain.Client{
			Name: item.Name, ContactPerson: item.ContactPerson, Email: item.Email,
			Phone: item.Phone, Address: item.Address, City: item.City, Country: item.Country,
		}
		c.Normalize()
		if err := c.Validate(); err != nil {
			return fmt.Errorf("seed clients: item at index %d: %w", i, err)
		}
		_, err := tx.ExecContext(ctx, `
		INSERT INTO clients (id, name, contact_person, email, phone, address, city, country, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, '', $10, $10)
		ON CONFLICT (email) DO UPDATE
		SET name = EXCLUDED.name,
			contact_person = EXCLUDED.contact_person,
			phone = EXCLUDED.phone,
			address = EXCLUDED.address,
			city = EXCLUDED.city,
			country = EXCLUDED.country,
			updated_at = EXCLUDED.updated_at;
		`, domain.NewID(), c.Name, c.ContactPerson, c.Email, c.Phone, c.Address, c.City, c.Country, c.Status, now)
		if err != nil {
			return fmt.Errorf("seed clients: insert email=%s: %w", c.Email, err)
		}
	}

	supplierIDs := make(map[string]string, len(data.Suppliers))
	for i, item := range data.Suppliers {
		s := domain.Supplier{
			Name: item.Name, ContactPerson: item.ContactPerson, Email: item.Email,
			Phone: item.Phone, Country: item.Country,
			ServiceType: domain.SupplierServiceType(item.ServiceType), Rating: item.Rating,
		}
		s.Normalize()
		if err := s.Validate(); err != nil {
			return fmt.Errorf("seed suppliers: item at index %d: %w", i, err)
		}

		var id string
		err := tx.QueryRowContext(ctx, `SELECT id FROM suppliers WHERE name = $1;`, s.Name).Scan(&id)
		switch {
		case err == sql.ErrNoRows:
			id = domain.NewID()
			_, err = tx.ExecContext(ctx, `
			INSERT INTO suppliers (id, name, contact_person, email, phone, address, country, service_type, status, rating, notes, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, '', $6, $7, $8, $9, '', $10, $10);
			`, id, s.Name, s.ContactPerson, s.Email, s.Phone, s.Country, s.ServiceType, s.Status, s.Rating, now)
		case err == nil:
			_, err = tx.ExecContext(ctx, `
			UPDATE suppliers
			SET contact_person = $2, email = $3, phone = $4, country = $5, service_type = $6, rating = $7, updated_at = $8
			WHERE id = $1;
			`, id, s.ContactPerson, s.Email, s.Phone, s.Country, s.ServiceType, s.Rating, now)
		}
		if err != nil {
			return fmt.Errorf("seed suppliers: upsert name=%s: %w", s.Name, err)
		}
		supplierIDs[strings.ToLower(s.Name)] = id
	}

	for i, item := range data.Containers {
		c := domain.Container{
			ContainerNumber: item.ContainerNumber, Type: domain.ContainerType(item.Type),
			Location: item.Location, MaxWeightKg: item.MaxWeightKg,
		}
		if item.Supplier != "" {
			id, ok := supplierIDs[strings.ToLower(strings.TrimSpace(item.Supplier))]
			if !ok {
				return fmt.Errorf("seed containers: item at index %d: unknown supplier %q", i, item.Supplier)
			}
			c.SupplierID = &id
		}
		c.Normalize()
		if err := c.Validate(); err != nil {
			return fmt.Errorf("seed containers: item at index %d: %w", i, err)
		}
		_, err := tx.ExecContext(ctx, `
		INSERT INTO containers (id, container_number, type, status, location, supplier_id, max_weight_kg, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, '', $8, $8)
		ON CONFLICT (container_number) DO UPDATE
		SET type = EXCLUDED.type,
			location = EXCLUDED.location,
			supplier_id = EXCLUDED.supplier_id,
			max_weight_kg = EXCLUDED.max_weight_kg,
			updated_at = EXCLUDED.updated_at;
		`, domain.NewID(), c.ContainerNumber, c.Type, c.Status, c.Location, c.SupplierID, c.MaxWeightKg, now)
		if err != nil {
			return fmt.Errorf("seed containers: insert number=%s: %w", c.ContainerNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed: commit tx: %w", err)
	}

	return nil
}
