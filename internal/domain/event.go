package domain

import "time"

// Event types published to the shipment event stream.
const (
	EventShipmentCreated       = "shipment.created"
	EventShipmentStatusChanged = "shipment.status_changed"
	EventInvoiceSent           = "invoice.sent"
	EventInvoicePaid           = "invoice.paid"
)

// Event is an outbound domain event. Key groups events of one aggregate.
type Event struct {
	Type       string         `json:"type"`
	Key        string         `json:"key"`
	OccurredAt time.Time      `json:"occurredAt"`
	Data       map[string]any `json:"data"`
}

// Notification kinds routed by the notifier.
const (
	NotifyPasswordReset  = "password_reset"
	NotifyInvoiceSent    = "invoice_sent"
	NotifyTicketCreated  = "ticket_created"
	NotifyTicketReply    = "ticket_reply"
	NotifyContactMessage = "contact_message"
	NotifyShipmentUpdate = "shipment_update"
)

// Notification is a message for a person, delivered out of band (email, SMS).
type Notification struct {
	Kind    string            `json:"kind"`
	To      string            `json:"to"`
	Subject string            `json:"subject"`
	Body    string            `json:"body"`
	Data    map[string]string `json:"data,omitempty"`
}
