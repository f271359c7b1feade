package domain

import "time"

type ClientFilter struct {
	ListParams
}

type SupplierFilter struct {
	ListParams
	ServiceType string
}

type ContainerFilter struct {
	ListParams
	Type string
}

type ShipmentFilter struct {
	ListParams
	ClientID    string
	ContainerID string
	From        *time.Time
	To          *time.Time
}

type InvoiceFilter struct {
	ListParams
	ClientID string
	From     *time.Time
	To       *time.Time
	// Today is used to resolve the derived overdue status.
	Today         time.Time
	ExcludeDrafts bool
}

type UserFilter struct {
	ListParams
	UserType string
	RoleID   string
}

type TicketFilter struct {
	ListParams
	ClientID string
	Priority string
}
