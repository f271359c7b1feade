package services

import (
	"context"
	"fmt"
	"strings"

	"cargo-logistics-service/internal/domain"
	"cargo-logistics-service/internal/platform/obs"
	"cargo-logistics-service/internal/ports"

	"go.uber.org/zap"
)

const ticketNumberAttempts = 3

// SupportService runs the ticket conversation between portal users and
// support staff.
type SupportService struct {
	Repo      ports.TicketRepository
	Users     ports.UserRepository
	Shipments ports.ShipmentRepository
	Settings  *SettingsService
	Notifier  ports.Notifier
	Prefix    string
}

// List returns tickets visible to p. Portal users only see their client's.
func (s *SupportService) List(ctx context.Context, p *domain.Principal, f domain.TicketFilter) (_ domain.Page[domain.SupportTicket], err error) {
	defer obs.Time(ctx, "support.List")(&err)

	f.ListParams = f.ListParams.Normalize()
	if f.Status != "" && !domain.TicketStatus(f.Status).Valid() {
		return domain.Page[domain.SupportTicket]{}, domain.NewValidationError("status", "is not a known status")
	}
	if f.Priority != "" && !domain.TicketPriority(f.Priority).Valid() {
		return domain.Page[domain.SupportTicket]{}, domain.NewValidationError("priority", "is not a known priority")
	}
	if !p.IsStaff() {
		f.ClientID = p.ClientID
	}
	items, total, err := s.Repo.ListTickets(ctx, f)
	if err != nil {
		return domain.Page[domain.SupportTicket]{}, fmt.Errorf("list tickets: %w", err)
	}
	return domain.NewPage(items, total, f.ListParams), nil
}

// Get returns the ticket with its messages. A foreign ticket is not found
// for portal users.
func (s *SupportService) Get(ctx context.Context, p *domain.Principal, id string) (*domain.SupportTicket, error) {
	t, err := s.Repo.GetTicket(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get ticket: %w", err)
	}
	if !p.IsStaff() && t.ClientID != p.ClientID {
		return nil, fmt.Errorf("get ticket %s: %w", id, domain.ErrNotFound)
	}
	return t, nil
}

// Create opens a ticket for the caller's client with body as the first
// message, then alerts support staff.
func (s *SupportService) Create(ctx context.Context, p *domain.Principal, t *domain.SupportTicket, body string) (err error) {
	defer obs.Time(ctx, "support.Create")(&err)

	if !p.IsClient() {
		return fmt.Errorf("create ticket: %w", domain.ErrForbidden)
	}
	t.ID = ""
	t.ClientID = p.ClientID
	t.UserID = p.UserID
	t.Status = domain.TicketOpen
	t.Messages = nil
	t.Normalize()

	v := fieldErrors(t.Validate())
	if err := domain.ValidateMessage(body); err != nil {
		v.Add("message", fieldErrors(err).Fields["message"])
	}
	if t.ShipmentID != nil {
		sh, err := s.Shipments.GetShipment(ctx, *t.ShipmentID)
		switch {
		case isNotFound(err) || (err == nil && sh.ClientID != p.ClientID):
			v.Add("shipmentId", "does not exist")
		case err != nil:
			return fmt.Errorf("create ticket: check shipment: %w", err)
		}
	}
	if err := v.Err(); err != nil {
		return err
	}

	author, err := s.author(ctx, p)
	if err != nil {
		return err
	}
	first := &domain.TicketMessage{
		AuthorID:   p.UserID,
		AuthorType: p.UserType,
		AuthorName: author,
		Body:       strings.TrimSpace(body),
	}
	for attempt := 1; ; attempt++ {
		t.TicketNumber = domain.NewTicketNumber(s.Prefix)
		err = s.Repo.CreateTicket(ctx, t, first)
		if err == nil || !isConflict(err) || attempt == ticketNumberAttempts {
			break
		}
	}
	if err != nil {
		return fmt.Errorf("create ticket: %w", err)
	}

	// The ticket is stored; staff alerts are best effort from here on.
	company, err := s.Settings.Company(ctx)
	if err != nil {
		zap.L().Warn("create ticket: load company contact",
			zap.String("req_id", obs.RequestID(ctx)),
			zap.String("ticket", t.TicketNumber),
			zap.Error(err),
		)
		return nil
	}
	notify(ctx, s.Notifier, domain.Notification{
		Kind:    domain.NotifyTicketCreated,
		To:      company.Email,
		Subject: fmt.Sprintf("[%s] %s", t.TicketNumber, t.Subject),
		Body:    first.Body,
		Data: map[string]string{
			"ticketId":     t.ID,
			"ticketNumber": t.TicketNumber,
			"priority":     string(t.Priority),
			"from":         author,
		},
	})
	return nil
}

// Reply posts a message. A client reply reopens a resolved ticket and the
// first staff reply moves an open ticket to in progress.
func (s *SupportService) Reply(ctx context.Context, p *domain.Principal, id, body string) (_ *domain.TicketMessage, err error) {
	defer obs.Time(ctx, "support.Reply")(&err)

	t, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateMessage(body); err != nil {
		return nil, err
	}
	if !t.AcceptsReplies() {
		return nil, fmt.Errorf("reply to ticket %s: ticket is closed: %w", id, domain.ErrInvalidState)
	}

	author, err := s.author(ctx, p)
	if err != nil {
		return nil, err
	}
	m := &domain.TicketMessage{
		TicketID:   t.ID,
		AuthorID:   p.UserID,
		AuthorType: p.UserType,
		AuthorName: author,
		Body:       strings.TrimSpace(body),
	}
	if err := s.Repo.AddTicketMessage(ctx, m); err != nil {
		return nil, fmt.Errorf("reply to ticket %s: %w", id, err)
	}

	next := t.Status
	switch {
	case p.IsStaff() && t.Status == domain.TicketOpen:
		next = domain.TicketInProgress
	case !p.IsStaff() && t.Status == domain.TicketResolved:
		next = domain.TicketOpen
	}
	if next != t.Status {
		if err := s.Repo.UpdateTicketStatus(ctx, t.ID, next); err != nil {
			return nil, fmt.Errorf("reply to ticket %s: %w", id, err)
		}
	}

	s.notifyReply(ctx, p, t, m)
	return m, nil
}

func (s *SupportService) notifyReply(ctx context.Context, p *domain.Principal, t *domain.SupportTicket, m *domain.TicketMessage) {
	var to string
	if p.IsStaff() {
		u, err := s.Users.GetUser(ctx, t.UserID)
		if err != nil {
			return
		}
		to = u.Email
	} else {
		company, err := s.Settings.Company(ctx)
		if err != nil {
			return
		}
		to = company.Email
	}
	notify(ctx, s.Notifier, domain.Notification{
		Kind:    domain.NotifyTicketReply,
		To:      to,
		Subject: fmt.Sprintf("Re: [%s] %s", t.TicketNumber, t.Subject),
		Body:    m.Body,
		Data:    map[string]string{"ticketId": t.ID, "from": m.AuthorName},
	})
}

// SetStatus is the staff side status change.
func (s *SupportService) SetStatus(ctx context.Context, id string, status domain.TicketStatus) (*domain.SupportTicket, error) {
	if !status.Valid() {
		return nil, domain.NewValidationError("status", "is not a known status")
	}
	if err := s.Repo.UpdateTicketStatus(ctx, id, status); err != nil {
		return nil, fmt.Errorf("set ticket status: %w", err)
	}
	t, err := s.Repo.GetTicket(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("set ticket status: %w", err)
	}
	return t, nil
}

func (s *SupportService) author(ctx context.Context, p *domain.Principal) (string, error) {
	u, err := s.Users.GetUser(ctx, p.UserID)
	if err != nil {
		return "", fmt.Errorf("load ticket author: %w", err)
	}
	return u.FullName(), nil
}
