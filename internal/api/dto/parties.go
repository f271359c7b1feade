package dto

import (
	"time"

	"cargo-logistics-service/internal/domain"

	"github.com/shopspring/decimal"
)

type ClientRequest struct {
	Name          string `json:"name"`
	ContactPerson string `json:"contactPerson"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	City          string `json:"city"`
	Country       string `json:"country"`
	Status        string `json:"status"`
	Notes         string `json:"notes"`
}

func (r ClientRequest) Domain() *domain.Client {
	return &domain.Client{
		Name:          r.Name,
		ContactPerson: r.ContactPerson,
		Email:         r.Email,
		Phone:         r.Phone,
		Address:       r.Address,
		City:          r.City,
		Country:       r.Country,
		Status:        domain.ClientStatus(r.Status),
		Notes:         r.Notes,
	}
}

type ClientResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	ContactPerson string    `json:"contactPerson"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	Address       string    `json:"address"`
	City          string    `json:"city"`
	Country       string    `json:"country"`
	Status        string    `json:"status"`
	Notes         string    `json:"notes"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func NewClient(c domain.Client) ClientResponse {
	return ClientResponse{
		ID:            c.ID,
		Name:          c.Name,
		ContactPerson: c.ContactPerson,
		Email:         c.Email,
		Phone:         c.Phone,
		Address:       c.Address,
		City:          c.City,
		Country:       c.Country,
		Status:        string(c.Status),
		Notes:         c.Notes,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

type ClientDetailResponse struct {
	ClientResponse
	ShipmentCount      int             `json:"shipmentCount"`
	OutstandingBalance decimal.Decimal `json:"outstandingBalance"`
}

func NewClientDetail(d domain.ClientDetail) ClientDetailResponse {
	return ClientDetailResponse{
		ClientResponse:     NewClient(d.Client),
		ShipmentCount:      d.ShipmentCount,
		OutstandingBalance: d.OutstandingBalance,
	}
}

type SupplierRequest struct {
	Name          string `json:"name"`
	ContactPerson string `json:"contactPerson"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	Country       string `json:"country"`
	ServiceType   string `json:"serviceType"`
	Status        string `json:"status"`
	Rating        int    `json:"rating"`
	Notes         string `json:"notes"`
}

func (r SupplierRequest) Domain() *domain.Supplier {
	return &domain.Supplier{
		Name:          r.Name,
		ContactPerson: r.ContactPerson,
		Email:         r.Email,
		Phone:         r.Phone,
		Address:       r.Address,
		Country:       r.Country,
		ServiceType:   domain.SupplierServiceType(r.ServiceType),
		Status:        domain.ClientStatus(r.Status),
		Rating:        r.Rating,
		Notes:         r.Notes,
	}
}

type SupplierResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	ContactPerson string    `json:"contactPerson"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	Address       string    `json:"address"`
	Country       string    `json:"country"`
	ServiceType   string    `json:"serviceType"`
	Status        string    `json:"status"`
	Rating        int       `json:"rating"`
	Notes         string    `json:"notes"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func NewSupplier(s domain.Supplier) SupplierResponse {
	return SupplierResponse{
		ID:            s.ID,
		Name:          s.Name,
		ContactPerson: s.ContactPerson,
		Email:         s.Email,
		Phone:         s.Phone,
		Address:       s.Address,
		Country:       s.Country,
		ServiceType:   string(s.ServiceType),
		Status:        string(s.Status),
		Rating:        s.Rating,
		Notes:         s.Notes,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

type ContainerRequest struct {
	ContainerNumber string          `json:"containerNumber"`
	Type            string          `json:"type"`
	Status          string          `json:"status"`
	Location        string          `json:"location"`
	SupplierID      *string         `json:"supplierId"`
	MaxWeightKg     decimal.Decimal `json:"maxWeightKg"`
	Notes           string          `json:"notes"`
}

func (r ContainerRequest) Domain() *domain.Container {
	return &domain.Container{
		ContainerNumber: r.ContainerNumber,
		Type:            domain.ContainerType(r.Type),
		Status:          domain.ContainerStatus(r.Status),
		Location:        r.Location,
		SupplierID:      r.SupplierID,
		MaxWeightKg:     r.MaxWeightKg,
		Notes:           r.Notes,
	}
}

type ContainerResponse struct {
	ID              string          `json:"id"`
	ContainerNumber string          `json:"containerNumber"`
	Type            string          `json:"type"`
	Status          string          `json:"status"`
	Location        string          `json:"location"`
	SupplierID      *string         `json:"supplierId"`
	MaxWeightKg     decimal.Decimal `json:"maxWeightKg"`
	Notes           string          `json:"notes"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

func NewContainer(c domain.Container) ContainerResponse {
	return ContainerResponse{
		ID:              c.ID,
		ContainerNumber: c.ContainerNumber,
		Type:            string(c.Type),
		Status:          string(c.Status),
		Location:        c.Location,
		SupplierID:      c.SupplierID,
		MaxWeightKg:     c.MaxWeightKg,
		Notes:           c.Notes,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}
