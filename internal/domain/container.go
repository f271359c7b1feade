package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type ContainerType string

const (
	Container20ft       ContainerType = "20ft"
	Container40ft       ContainerType = "40ft"
	Container40ftHC     ContainerType = "40ft_hc"
	Container45ft       ContainerType = "45ft"
	ContainerReefer20ft ContainerType = "reefer_20ft"
	ContainerReefer40ft ContainerType = "reefer_40ft"
)

func (t ContainerType) Valid() bool {
	switch t {
	case Container20ft, Container40ft, Container40ftHC, Container45ft,
		ContainerReefer20ft, ContainerReefer40ft:
		return true
	}
	return false
}

type ContainerStatus string

const (
	ContainerAvailable   ContainerStatus = "available"
	ContainerInUse       ContainerStatus = "in_use"
	ContainerMaintenance ContainerStatus = "maintenance"
	ContainerRetired     ContainerStatus = "retired"
)

func (s ContainerStatus) Valid() bool {
	switch s {
	case ContainerAvailable, ContainerInUse, ContainerMaintenance, ContainerRetired:
		return true
	}
	return false
}

// ISO 6346: owner code (3 letters), category (1 letter), serial + check digit.
var containerNumberRe = regexp.MustCompile(`^[A-Z]{4}[0-9]{7}$`)

type Container struct {
	ID              string
	ContainerNumber string
	Type            ContainerType
	Status          ContainerStatus
	Location        string
	SupplierID      *string
	MaxWeightKg     decimal.Decimal
	Notes           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (c *Container) Normalize() {
	c.ContainerNumber = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(c.ContainerNumber), " ", ""))
	c.Location = strings.TrimSpace(c.Location)
	if c.Status == "" {
		c.Status = ContainerAvailable
	}
	if c.SupplierID != nil && strings.TrimSpace(*c.SupplierID) == "" {
		c.SupplierID = nil
	}
}

func (c *Container) Validate() error {
	v := &ValidationError{}
	switch {
	case c.ContainerNumber == "":
		v.Add("containerNumber", "is required")
	case !containerNumberRe.MatchString(c.ContainerNumber):
		v.Add("containerNumber", "must be 4 letters followed by 7 digits")
	}
	if !c.Type.Valid() {
		v.Add("type", "is not a known container type")
	}
	if !c.Status.Valid() {
		v.Add("status", "is not a known container status")
	}
	checkNonNegative(v, "maxWeightKg", c.MaxWeightKg)
	return v.Err()
}
