package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"cargo-logistics-service/internal/domain"
	"cargo-logistics-service/internal/platform/obs"
)

// SQLTicketRepository implements ports.TicketRepository.
type SQLTicketRepository struct{ DB *sql.DB }

func NewSQLTicketRepository(db *sql.DB) *SQLTicketRepository {
	return &SQLTicketRepository{DB: db}
}

const ticketColumns = `id, ticket_number, client_id, user_id, subject, category, priority, status, shipment_id, created_at, updated_at`

func scanTicket(row scanner) (domain.SupportTicket, error) {
	var t domain.SupportTicket
	err := row.Scan(&t.ID, &t.TicketNumber, &t.ClientID, &t.UserID, &t.Subject, &t.Category,
		&t.Priority, &t.Status, &t.ShipmentID, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func (r *SQLTicketRepository) ListTickets(ctx context.Context, f domain.TicketFilter) (_ []domain.SupportTicket, _ int, err error) {
	defer obs.Time(ctx, "tickets.repo.List")(&err)

	var w filter
	if f.Status != "" {
		w.add("status = ?", f.Status)
	}
	if f.ClientID != "" {
		w.add("client_id = ?", f.ClientID)
	}
	if f.Priority != "" {
		w.add("priority = ?", f.Priority)
	}
	w.search(f.Search, "ticket_number", "subject")

	total, err := w.count(ctx, r.DB, "support_tickets")
	if err != nil {
		return nil, 0, fmt.Errorf("list tickets: count: %w", err)
	}

	limit, args := w.page(f.ListParams)
	rows, err := r.DB.QueryContext(ctx, `SELECT `+ticketColumns+` FROM support_tickets`+w.where()+` ORDER BY updated_at DESC`+limit, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list tickets: query: %w", err)
	}
	defer rows.Close()

	out := make([]domain.SupportTicket, 0, f.Limit)
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("list tickets: scan row: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list tickets: row iteration: %w", err)
	}
	return out, total, nil
}

func (r *SQLTicketRepository) GetTicket(ctx context.Context, id string) (*domain.SupportTicket, error) {
	t, err := scanTicket(r.DB.QueryRowContext(ctx, `SELECT `+ticketColumns+` FROM support_tickets WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get ticket %s: %w", id, mapErr(err))
	}

	rows, err := r.DB.QueryContext(ctx, `
	SELECT id, ticket_id, author_id, author_type, author_name, body, created_at
	FROM ticket_messages
	WHERE ticket_id = $1
	ORDER BY created_at, id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("get ticket %s: query messages: %w", id, err)
	}
	defer rows.Close()

	t.Messages = []domain.TicketMessage{}
	for rows.Next() {
		var m domain.TicketMessage
		if err := rows.Scan(&m.ID, &m.TicketID, &m.AuthorID, &m.AuthorType, &m.AuthorName, &m.Body, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("get ticket %s: scan message: %w", id, err)
		}
		t.Messages = append(t.Messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get ticket %s: message iteration: %w", id, err)
	}
	return &t, nil
}

func insertTicketMessage(ctx context.Context, q queryer, m *domain.TicketMessage) error {
	if m.ID == "" {
		m.ID = domain.NewID()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	_, err := q.ExecContext(ctx, `
	INSERT INTO ticket_messages (id, ticket_id, author_id, author_type, author_name, body, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, m.ID, m.TicketID, m.AuthorID, m.AuthorType, m.AuthorName, m.Body, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert ticket message: %w", mapErr(err))
	}
	return nil
}

func (r *SQLTicketRepository) CreateTicket(ctx context.Context, t *domain.SupportTicket, first *domain.TicketMessage) error {
	now := time.Now().UTC()
	if t.ID == "" {
		t.ID = domain.NewID()
	}
	t.CreatedAt, t.UpdatedAt = now, now

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("create ticket: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
	INSERT INTO support_tickets (`+ticketColumns+`)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, t.ID, t.TicketNumber, t.ClientID, t.UserID, t.Subject, t.Category, t.Priority, t.Status,
		t.ShipmentID, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create ticket: %w", mapErr(err))
	}

	if first != nil {
		first.TicketID = t.ID
		first.CreatedAt = now
		if err := insertTicketMessage(ctx, tx, first); err != nil {
			return fmt.Errorf("create ticket: %w", err)
		}
		t.Messages = []domain.TicketMessage{*first}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("create ticket: commit tx: %w", err)
	}
	return nil
}

func (r *SQLTicketRepository) AddTicketMessage(ctx context.Context, m *domain.TicketMessage) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("add ticket message: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := insertTicketMessage(ctx, tx, m); err != nil {
		return fmt.Errorf("add ticket message: %w", err)
	}
	res, err := tx.ExecContext(ctx, `UPDATE support_tickets SET updated_at = $2 WHERE id = $1`, m.TicketID, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("add ticket message: touch ticket: %w", err)
	}
	if err := affectedOne(res); err != nil {
		return fmt.Errorf("add ticket message: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("add ticket message: commit tx: %w", err)
	}
	return nil
}

func (r *SQLTicketRepository) UpdateTicketStatus(ctx context.Context, id string, status domain.TicketStatus) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE support_tickets SET status = $2, updated_at = $3 WHERE id = $1`,
		id, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update ticket %s status: %w", id, err)
	}
	if err := affectedOne(res); err != nil {
		return fmt.Errorf("update ticket %s status: %w", id, err)
	}
	return nil
}

func (r *SQLTicketRepository) CountOpenTickets(ctx context.Context, clientID string) (int, error) {
	var w filter
	w.add("status IN ('open', 'in_progress')")
	if clientID != "" {
		w.add("client_id = ?", clientID)
	}
	n, err := w.count(ctx, r.DB, "support_tickets")
	if err != nil {
		return 0, fmt.Errorf("count open tickets: %w", err)
	}
	return n, nil
}
