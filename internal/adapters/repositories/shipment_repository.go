package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"cargo-logistics-service/internal/domain"
	"cargo-logistics-service/internal/platform/obs"
)

// SQLShipmentRepository implements ports.ShipmentRepository.
type SQLShipmentRepository struct{ DB *sql.DB }

func NewSQLShipmentRepository(db *sql.DB) *SQLShipmentRepository {
	return &SQLShipmentRepository{DB: db}
}

const shipmentColumns = `s.id, s.tracking_number, s.client_id, s.container_id, s.supplier_id,
	s.origin, s.destination, s.cargo_description, s.cargo_type, s.weight_kg, s.volume_cbm,
	s.status, s.shipping_date, s.estimated_delivery, s.actual_delivery,
	s.consignee_name, s.consignee_phone, s.consignee_address, s.notes,
	s.created_at, s.updated_at, c.name`

const shipmentFrom = `shipments s JOIN clients c ON c.id = s.client_id`

func scanShipment(row scanner) (domain.Shipment, error) {
	var s domain.Shipment
	err := row.Scan(&s.ID, &s.TrackingNumber, &s.ClientID, &s.ContainerID, &s.SupplierID,
		&s.Origin, &s.Destination, &s.CargoDescription, &s.CargoType, &s.WeightKg, &s.VolumeCbm,
		&s.Status, &s.ShippingDate, &s.EstimatedDelivery, &s.ActualDelivery,
		&s.Consignee.Name, &s.Consignee.Phone, &s.Consignee.Address, &s.Notes,
		&s.CreatedAt, &s.UpdatedAt, &s.ClientName)
	return s, err
}

func queryShipments(ctx context.Context, q queryer, query string, args ...any) ([]domain.Shipment, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query shipments: %w", err)
	}
	defer rows.Close()

	out := []domain.Shipment{}
	for rows.Next() {
		s, err := scanShipment(rows)
		if err != nil {
			return nil, fmt.Errorf("query shipments: scan row: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query shipments: row iteration: %w", err)
	}
	return out, nil
}

func (r *SQLShipmentRepository) ListShipments(ctx context.Context, f domain.ShipmentFilter) (_ []domain.Shipment, _ int, err error) {
	defer obs.Time(ctx, "shipments.repo.List")(&err)

	var w filter
	if f.Status != "" {
		w.add("s.status = ?", f.Status)
	}
	if f.ClientID != "" {
		w.add("s.client_id = ?", f.ClientID)
	}
	if f.ContainerID != "" {
		w.add("s.container_id = ?", f.ContainerID)
	}
	if f.From != nil {
		w.add("s.created_at >= ?", f.From.UTC())
	}
	if f.To != nil {
		w.add("s.created_at < ?", f.To.UTC())
	}
	w.search(f.Search, "s.tracking_number", "s.origin", "s.destination", "s.cargo_description", "c.name")

	total, err := w.count(ctx, r.DB, shipmentFrom)
	if err != nil {
		return nil, 0, fmt.Errorf("list shipments: count: %w", err)
	}

	limit, args := w.page(f.ListParams)
	out, err := queryShipments(ctx, r.DB,
		`SELECT `+shipmentColumns+` FROM `+shipmentFrom+w.where()+` ORDER BY s.created_at DESC, s.id`+limit, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list shipments: %w", err)
	}
	return out, total, nil
}

func (r *SQLShipmentRepository) GetShipment(ctx context.Context, id string) (*domain.Shipment, error) {
	s, err := scanShipment(r.DB.QueryRowContext(ctx,
		`SELECT `+shipmentColumns+` FROM `+shipmentFrom+` WHERE s.id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get shipment %s: %w", id, mapErr(err))
	}
	return &s, nil
}

func (r *SQLShipmentRepository) GetShipmentByTrackingNumber(ctx context.Context, trackingNumber string) (*domain.Shipment, error) {
	s, err := scanShipment(r.DB.QueryRowContext(ctx,
		`SELECT `+shipmentColumns+` FROM `+shipmentFrom+` WHERE s.tracking_number = $1`,
		strings.ToUpper(strings.TrimSpace(trackingNumber))))
	if err != nil {
		return nil, fmt.Errorf("get shipment by tracking number %s: %w", trackingNumber, mapErr(err))
	}
	return &s, nil
}

func (r *SQLShipmentRepository) CreateShipment(ctx context.Context, s *domain.Shipment) (err error) {
	defer obs.Time(ctx, "shipments.repo.Create")(&err)

	now := time.Now().UTC()
	if s.ID == "" {
		s.ID = domain.NewID()
	}
	s.CreatedAt, s.UpdatedAt = now, now

	_, err = r.DB.ExecContext(ctx, `
	INSERT INTO shipments (
		id, tracking_number, client_id, container_id, supplier_id,
		origin, destination, cargo_description, cargo_type, weight_kg, volume_cbm,
		status, shipping_date, estimated_delivery, actual_delivery,
		consignee_name, consignee_phone, consignee_address, notes, created_at, updated_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	`, s.ID, s.TrackingNumber, s.ClientID, s.ContainerID, s.SupplierID,
		s.Origin, s.Destination, s.CargoDescription, s.CargoType, s.WeightKg, s.VolumeCbm,
		s.Status, s.ShippingDate, s.EstimatedDelivery, s.ActualDelivery,
		s.Consignee.Name, s.Consignee.Phone, s.Consignee.Address, s.Notes, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create shipment: %w", mapErr(err))
	}
	return nil
}

func (r *SQLShipmentRepository) UpdateShipment(ctx context.Context, s *domain.Shipment) error {
	return updateShipment(ctx, r.DB, s)
}

func updateShipment(ctx context.Context, q queryer, s *domain.Shipment) error {
	s.UpdatedAt = time.Now().UTC()
	res, err := q.ExecContext(ctx, `
	UPDATE shipments
	SET client_id = $2, container_id = $3, supplier_id = $4, origin = $5, destination = $6,
		cargo_description = $7, cargo_type = $8, weight_kg = $9, volume_cbm = $10, status = $11,
		shipping_date = $12, estimated_delivery = $13, actual_delivery = $14,
		consignee_name = $15, consignee_phone = $16, consignee_address = $17, notes = $18,
		updated_at = $19
	WHERE id = $1
	`, s.ID, s.ClientID, s.ContainerID, s.SupplierID, s.Origin, s.Destination,
		s.CargoDescription, s.CargoType, s.WeightKg, s.VolumeCbm, s.Status,
		s.ShippingDate, s.EstimatedDelivery, s.ActualDelivery,
		s.Consignee.Name, s.Consignee.Phone, s.Consignee.Address, s.Notes, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update shipment %s: %w", s.ID, mapErr(err))
	}
	if err := affectedOne(res); err != nil {
		return fmt.Errorf("update shipment %s: %w", s.ID, err)
	}
	return nil
}

func (r *SQLShipmentRepository) DeleteShipment(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM shipments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete shipment %s: %w", id, mapErr(err))
	}
	if err := affectedOne(res); err != nil {
		return fmt.Errorf("delete shipment %s: %w", id, err)
	}
	return nil
}

func (r *SQLShipmentRepository) RecordTrackingUpdate(ctx context.Context, s *domain.Shipment, u *domain.TrackingUpdate) (err error) {
	defer obs.Time(ctx, "shipments.repo.RecordTrackingUpdate")(&err)

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record tracking update: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := updateShipment(ctx, tx, s); err != nil {
		return fmt.Errorf("record tracking update: %w", err)
	}

	if u.ID == "" {
		u.ID = domain.NewID()
	}
	u.ShipmentID = s.ID
	u.CreatedAt = time.Now().UTC()
	if u.OccurredAt.IsZero() {
		u.OccurredAt = u.CreatedAt
	}
	_, err = tx.ExecContext(ctx, `
	INSERT INTO tracking_updates (id, shipment_id, status, location, description, latitude, longitude, occurred_at, created_by, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, u.ID, u.ShipmentID, u.Status, u.Location, u.Description, u.Latitude, u.Longitude,
		u.OccurredAt.UTC(), u.CreatedBy, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("record tracking update: insert: %w", mapErr(err))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record tracking update: commit tx: %w", err)
	}
	return nil
}

const trackingColumns = `u.id, u.shipment_id, u.status, u.location, u.description, u.latitude, u.longitude,
	u.occurred_at, u.created_by, u.created_at, s.tracking_number`

func queryTrackingUpdates(ctx context.Context, q queryer, query string, args ...any) ([]domain.TrackingUpdate, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tracking updates: %w", err)
	}
	defer rows.Close()

	out := []domain.TrackingUpdate{}
	for rows.Next() {
		var u domain.TrackingUpdate
		if err := rows.Scan(&u.ID, &u.ShipmentID, &u.Status, &u.Location, &u.Description,
			&u.Latitude, &u.Longitude, &u.OccurredAt, &u.CreatedBy, &u.CreatedAt, &u.TrackingNumber); err != nil {
			return nil, fmt.Errorf("query tracking updates: scan row: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query tracking updates: row iteration: %w", err)
	}
	return out, nil
}

func (r *SQLShipmentRepository) ListTrackingUpdates(ctx context.Context, shipmentID string) ([]domain.TrackingUpdate, error) {
	out, err := queryTrackingUpdates(ctx, r.DB, `
	SELECT `+trackingColumns+`
	FROM tracking_updates u JOIN shipments s ON s.id = u.shipment_id
	WHERE u.shipment_id = $1
	ORDER BY u.occurred_at, u.created_at
	`, shipmentID)
	if err != nil {
		return nil, fmt.Errorf("list tracking updates for %s: %w", shipmentID, err)
	}
	return out, nil
}

func (r *SQLShipmentRepository) RecentTrackingUpdates(ctx context.Context, limit int) ([]domain.TrackingUpdate, error) {
	out, err := queryTrackingUpdates(ctx, r.DB, `
	SELECT `+trackingColumns+`
	FROM tracking_updates u JOIN shipments s ON s.id = u.shipment_id
	ORDER BY u.created_at DESC
	LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent tracking updates: %w", err)
	}
	return out, nil
}

func (r *SQLShipmentRepository) CountShipmentsByStatus(ctx context.Context, clientID string) (map[string]int, error) {
	if clientID == "" {
		return countByStatus(ctx, r.DB, `SELECT status, COUNT(*) FROM shipments GROUP BY status`)
	}
	return countByStatus(ctx, r.DB, `SELECT status, COUNT(*) FROM shipments WHERE client_id = $1 GROUP BY status`, clientID)
}

func (r *SQLShipmentRepository) RecentShipments(ctx context.Context, clientID string, limit int) ([]domain.Shipment, error) {
	var w filter
	if clientID != "" {
		w.add("s.client_id = ?", clientID)
	}
	out, err := queryShipments(ctx, r.DB,
		`SELECT `+shipmentColumns+` FROM `+shipmentFrom+w.where()+fmt.Sprintf(` ORDER BY s.created_at DESC LIMIT %d`, limit),
		w.args...)
	if err != nil {
		return nil, fmt.Errorf("recent shipments: %w", err)
	}
	return out, nil
}
