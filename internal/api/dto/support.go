package dto

import (
	"time"

	"cargo-logistics-service/internal/domain"
)

type TicketRequest struct {
	Subject    string  `json:"subject"`
	Category   string  `json:"category"`
	Priority   string  `json:"priority"`
	ShipmentID *string `json:"shipmentId"`
	Message    string  `json:"message"`
}

func (r TicketRequest) Domain() *domain.SupportTicket {
	return &domain.SupportTicket{
		Subject:    r.Subject,
		Category:   domain.TicketCategory(r.Category),
		Priority:   domain.TicketPriority(r.Priority),
		ShipmentID: r.ShipmentID,
	}
}

type MessageRequest struct {
	Message string `json:"message"`
}

type TicketMessageResponse struct {
	ID         string    `json:"id"`
	AuthorID   string    `json:"authorId"`
	AuthorType string    `json:"authorType"`
	AuthorName string    `json:"authorName"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Staff authors are shown as "staff" to portal users.
func NewTicketMessage(m domain.TicketMessage) TicketMessageResponse {
	kind := "client"
	if m.AuthorType == domain.UserTypeAdmin {
		kind = "staff"
	}
	return TicketMessageResponse{
		ID:         m.ID,
		AuthorID:   m.AuthorID,
		AuthorType: kind,
		AuthorName: m.AuthorName,
		Body:       m.Body,
		CreatedAt:  m.CreatedAt,
	}
}

type TicketResponse struct {
	ID           string                  `json:"id"`
	TicketNumber string                  `json:"ticketNumber"`
	ClientID     string                  `json:"clientId"`
	UserID       string                  `json:"userId"`
	Subject      string                  `json:"subject"`
	Category     string                  `json:"category"`
	Priority     string                  `json:"priority"`
	Status       string                  `json:"status"`
	ShipmentID   *string                 `json:"shipmentId"`
	Messages     []TicketMessageResponse `json:"messages,omitempty"`
	CreatedAt    time.Time               `json:"createdAt"`
	UpdatedAt    time.Time               `json:"updatedAt"`
}

func NewTicket(t domain.SupportTicket) TicketResponse {
	res := TicketResponse{
		ID:           t.ID,
		TicketNumber: t.TicketNumber,
		ClientID:     t.ClientID,
		UserID:       t.UserID,
		Subject:      t.Subject,
		Category:     string(t.Category),
		Priority:     string(t.Priority),
		Status:       string(t.Status),
		ShipmentID:   t.ShipmentID,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
	if t.Messages != nil {
		res.Messages = Map(t.Messages, NewTicketMessage)
	}
	return res
}

type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func (r ContactRequest) Domain() domain.ContactMessage {
	return domain.ContactMessage(r)
}
