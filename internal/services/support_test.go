package services

import (
	"context"
	"errors"
	"testing"

	"cargo-logistics-service/internal/domain"
	"cargo-logistics-service/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupportConversation(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	require.NoError(t, e.settings.Update(ctx, &domain.Settings{
		CompanyName: "Cargo Co", CompanyEmail: "support@cargo.example", Currency: "USD",
		InvoicePrefix: "INV", InvoiceDueDays: 30,
	}))

	acme := e.client(t, "Acme Freight", "ops@acme.example")
	other := e.client(t, "Blue Harbor", "hello@blueharbor.example")
	customer := e.principal(t, e.portalUser(t, acme.ID, "kim@acme.example"))
	outsider := e.principal(t, e.portalUser(t, other.ID, "lee@blueharbor.example"))
	agent := e.principal(t, e.staff(t, "agent@cargo.example", domain.RoleOperator))

	tk := &domain.SupportTicket{Subject: "Where is my container?", Category: domain.TicketShipment}
	require.NoError(t, e.support.Create(ctx, customer, tk, "It was due yesterday."))
	assert.Regexp(t, `^CTC-TKT-[A-Z2-9]{8}$`, tk.TicketNumber)
	assert.Equal(t, acme.ID, tk.ClientID)
	assert.Equal(t, domain.TicketOpen, tk.Status)
	n := e.notifier.last()
	assert.Equal(t, domain.NotifyTicketCreated, n.Kind)
	assert.Equal(t, "support@cargo.example", n.To)

	_, err := e.support.Get(ctx, outsider, tk.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = e.support.Reply(ctx, agent, tk.ID, "Checking with the port.")
	require.NoError(t, err)
	assert.Equal(t, "kim@acme.example", e.notifier.last().To)

	got, err := e.support.Get(ctx, customer, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketInProgress, got.Status)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "Kim Silva", got.Messages[0].AuthorName)
	assert.Equal(t, domain.UserTypeAdmin, got.Messages[1].AuthorType)

	_, err = e.support.SetStatus(ctx, tk.ID, domain.TicketResolved)
	require.NoError(t, err)
	_, err = e.support.Reply(ctx, customer, tk.ID, "Still not here.")
	require.NoError(t, err)
	got, err = e.support.Get(ctx, agent, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketOpen, got.Status, "a client reply reopens a resolved ticket")

	_, err = e.support.SetStatus(ctx, tk.ID, domain.TicketClosed)
	require.NoError(t, err)
	_, err = e.support.Reply(ctx, customer, tk.ID, "Hello?")
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	mine, err := e.support.List(ctx, customer, domain.TicketFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, mine.Total)
	theirs, err := e.support.List(ctx, outsider, domain.TicketFilter{})
	require.NoError(t, err)
	assert.Equal(t, 0, theirs.Total)
}

func TestSupportCreateValidation(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	acme := e.client(t, "Acme Freight", "ops@acme.example")
	other := e.client(t, "Blue Harbor", "hello@blueharbor.example")
	customer := e.principal(t, e.portalUser(t, acme.ID, "kim@acme.example"))
	foreign := e.shipment(t, other.ID, nil)

	tk := &domain.SupportTicket{Subject: " ", Priority: "whenever", ShipmentID: &foreign.ID}
	err := e.support.Create(ctx, customer, tk, "")
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "subject")
	assert.Contains(t, verr.Fields, "priority")
	assert.Contains(t, verr.Fields, "message")
	assert.Contains(t, verr.Fields, "shipmentId")

	staff := e.principal(t, e.staff(t, "agent@cargo.example", domain.RoleOperator))
	err = e.support.Create(ctx, staff, &domain.SupportTicket{Subject: "x"}, "body")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestContactForm(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	require.NoError(t, e.settings.Update(ctx, &domain.Settings{
		CompanyName: "Cargo Co", CompanyEmail: "hello@cargo.example", Currency: "USD",
		InvoicePrefix: "INV", InvoiceDueDays: 30,
	}))

	err := e.contact.Send(ctx, domain.ContactMessage{Name: "Jo", Email: "not-an-email", Subject: "Quote"})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "email")
	assert.Contains(t, verr.Fields, "message")

	require.NoError(t, e.contact.Send(ctx, domain.ContactMessage{
		Name: "Jo", Email: "Jo@Example.com", Subject: "Quote", Message: "Two 40ft boxes to Hamburg.",
	}))
	n := e.notifier.last()
	assert.Equal(t, domain.NotifyContactMessage, n.Kind)
	assert.Equal(t, "hello@cargo.example", n.To)
	assert.Equal(t, "jo@example.com", n.Data["email"])
}

// unreadableSettings fails every read.
type unreadableSettings struct {
	ports.SettingsRepository
}

func (unreadableSettings) GetSettings(context.Context) (*domain.Settings, error) {
	return nil, errors.New("connection reset")
}

func TestTicketIsCreatedWhenStaffAlertFails(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	acme := e.client(t, "Acme Freight", "ops@acme.example")
	customer := e.principal(t, e.portalUser(t, acme.ID, "kim@acme.example"))
	e.support.Settings = &SettingsService{Repo: unreadableSettings{}}

	tk := &domain.SupportTicket{Subject: "Damaged pallet", Category: domain.TicketShipment}
	require.NoError(t, e.support.Create(ctx, customer, tk, "Two boxes arrived crushed."))
	require.NotEmpty(t, tk.ID)

	page, err := e.support.List(ctx, customer, domain.TicketFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
}
