package domain

import (
	"strings"
	"time"
)

type SupplierServiceType string

const (
	ServiceShippingLine     SupplierServiceType = "shipping_line"
	ServiceFreightForwarder SupplierServiceType = "freight_forwarder"
	ServiceCustomsBroker    SupplierServiceType = "customs_broker"
	ServiceTrucking         SupplierServiceType = "trucking"
	ServiceWarehousing      SupplierServiceType = "warehousing"
	ServiceOther            SupplierServiceType = "other"
)

func (t SupplierServiceType) Valid() bool {
	switch t {
	case ServiceShippingLine, ServiceFreightForwarder, ServiceCustomsBroker,
		ServiceTrucking, ServiceWarehousing, ServiceOther:
		return true
	}
	return false
}

// Supplier is a third party the company buys logistics services from.
type Supplier struct {
	ID            string
	Name          string
	ContactPerson string
	Email         string
	Phone         string
	Address       string
	Country       string
	ServiceType   SupplierServiceType
	Status        ClientStatus
	Rating        int
	Notes         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (s *Supplier) Normalize() {
	s.Name = strings.TrimSpace(s.Name)
	s.ContactPerson = strings.TrimSpace(s.ContactPerson)
	s.Email = normalizeEmail(s.Email)
	s.Phone = strings.TrimSpace(s.Phone)
	if s.ServiceType == "" {
		s.ServiceType = ServiceOther
	}
	if s.Status == "" {
		s.Status = ClientActive
	}
}

func (s *Supplier) Validate() error {
	v := &ValidationError{}
	requireText(v, "name", s.Name)
	checkEmail(v, "email", s.Email, false)
	checkPhone(v, "phone", s.Phone)
	if !s.ServiceType.Valid() {
		v.Add("serviceType", "is not a known service type")
	}
	if !s.Status.Valid() {
		v.Add("status", "must be one of active, inactive")
	}
	if s.Rating < 0 || s.Rating > 5 {
		v.Add("rating", "must be between 0 and 5")
	}
	return v.Err()
}
