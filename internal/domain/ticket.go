package domain

import (
	"strings"
	"time"
)

type TicketCategory string

const (
	TicketShipment  TicketCategory = "shipment"
	TicketInvoice   TicketCategory = "invoice"
	TicketAccount   TicketCategory = "account"
	TicketTechnical TicketCategory = "technical"
	TicketOther     TicketCategory = "other"
)

func (c TicketCategory) Valid() bool {
	switch c {
	case TicketShipment, TicketInvoice, TicketAccount, TicketTechnical, TicketOther:
		return true
	}
	return false
}

type TicketPriority string

const (
	PriorityLow    TicketPriority = "low"
	PriorityMedium TicketPriority = "medium"
	PriorityHigh   TicketPriority = "high"
	PriorityUrgent TicketPriority = "urgent"
)

func (p TicketPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

type TicketStatus string

const (
	TicketOpen       TicketStatus = "open"
	TicketInProgress TicketStatus = "in_progress"
	TicketResolved   TicketStatus = "resolved"
	TicketClosed     TicketStatus = "closed"
)

func (s TicketStatus) Valid() bool {
	switch s {
	case TicketOpen, TicketInProgress, TicketResolved, TicketClosed:
		return true
	}
	return false
}

type TicketMessage struct {
	ID         string
	TicketID   string
	AuthorID   string
	AuthorType UserType
	AuthorName string
	Body       string
	CreatedAt  time.Time
}

type SupportTicket struct {
	ID           string
	TicketNumber string
	ClientID     string
	UserID       string
	Subject      string
	Category     TicketCategory
	Priority     TicketPriority
	Status       TicketStatus
	ShipmentID   *string
	Messages     []TicketMessage
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (t *SupportTicket) Normalize() {
	t.Subject = strings.TrimSpace(t.Subject)
	if t.Category == "" {
		t.Category = TicketOther
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if t.Status == "" {
		t.Status = TicketOpen
	}
	t.ShipmentID = blankToNil(t.ShipmentID)
}

// Validate checks the ticket header; the opening message is validated with
// ValidateMessage.
func (t *SupportTicket) Validate() error {
	v := &ValidationError{}
	requireText(v, "subject", t.Subject)
	if len(t.Subject) > 200 {
		v.Add("subject", "must be at most 200 characters")
	}
	if !t.Category.Valid() {
		v.Add("category", "is not a known category")
	}
	if !t.Priority.Valid() {
		v.Add("priority", "is not a known priority")
	}
	if !t.Status.Valid() {
		v.Add("status", "is not a known status")
	}
	return v.Err()
}

func ValidateMessage(body string) error {
	body = strings.TrimSpace(body)
	if body == "" {
		return NewValidationError("message", "is required")
	}
	if len(body) > 5000 {
		return NewValidationError("message", "must be at most 5000 characters")
	}
	return nil
}

// AcceptsReplies reports whether new messages may be posted.
func (t *SupportTicket) AcceptsReplies() bool { return t.Status != TicketClosed }

// ContactMessage is a message sent from the public website contact form.
type ContactMessage struct {
	Name    string
	Email   string
	Phone   string
	Subject string
	Message string
}

func (c *ContactMessage) Validate() error {
	v := &ValidationError{}
	requireText(v, "name", c.Name)
	checkEmail(v, "email", normalizeEmail(c.Email), true)
	checkPhone(v, "phone", strings.TrimSpace(c.Phone))
	requireText(v, "subject", c.Subject)
	requireText(v, "message", c.Message)
	return v.Err()
}
