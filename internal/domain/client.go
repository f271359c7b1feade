package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type ClientStatus string

const (
	ClientActive   ClientStatus = "active"
	ClientInactive ClientStatus = "inactive"
)

func (s ClientStatus) Valid() bool { return s == ClientActive || s == ClientInactive }

// Client is a customer company that ships cargo.
type Client struct {
	ID            string
	Name          string
	ContactPerson string
	Email         string
	Phone         string
	Address       string
	City          string
	Country       string
	Status        ClientStatus
	Notes         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ClientDetail adds aggregate figures shown on the client detail page.
type ClientDetail struct {
	Client
	ShipmentCount      int
	OutstandingBalance decimal.Decimal
}

func (c *Client) Normalize() {
	c.Name = strings.TrimSpace(c.Name)
	c.ContactPerson = strings.TrimSpace(c.ContactPerson)
	c.Email = normalizeEmail(c.Email)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Country = strings.TrimSpace(c.Country)
	if c.Status == "" {
		c.Status = ClientActive
	}
}

func (c *Client) Validate() error {
	v := &ValidationError{}
	requireText(v, "name", c.Name)
	checkEmail(v, "email", c.Email, true)
	checkPhone(v, "phone", c.Phone)
	if !c.Status.Valid() {
		v.Add("status", "must be one of active, inactive")
	}
	return v.Err()
}
