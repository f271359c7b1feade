package services

import (
	"context"
	"fmt"

	"cargo-logistics-service/internal/domain"
	"cargo-logistics-service/internal/platform/obs"
	"cargo-logistics-service/internal/ports"
)

type SupplierService struct {
	Repo ports.SupplierRepository
}

func (s *SupplierService) List(ctx context.Context, f domain.SupplierFilter) (_ domain.Page[domain.Supplier], err error) {
	defer obs.Time(ctx, "suppliers.List")(&err)

	f.ListParams = f.ListParams.Normalize()
	if f.ServiceType != "" && !domain.SupplierServiceType(f.ServiceType).Valid() {
		return domain.Page[domain.Supplier]{}, domain.NewValidationError("serviceType", "is not a known service type")
	}
	items, total, err := s.Repo.ListSuppliers(ctx, f)
	if err != nil {
		return domain.Page[domain.Supplier]{}, fmt.Errorf("list suppliers: %w", err)
	}
	return domain.NewPage(items, total, f.ListParams), nil
}

func (s *SupplierService) Get(ctx context.Context, id string) (*domain.Supplier, error) {
	sup, err := s.Repo.GetSupplier(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get supplier: %w", err)
	}
	return sup, nil
}

func (s *SupplierService) Create(ctx context.Context, sup *domain.Supplier) error {
	sup.ID = ""
	sup.Normalize()
	if err := sup.Validate(); err != nil {
		return err
	}
	if err := s.Repo.CreateSupplier(ctx, sup); err != nil {
		if isConflict(err) {
			return domain.NewValidationError("name", "is already registered")
		}
		return fmt.Errorf("create supplier: %w", err)
	}
	return nil
}

func (s *SupplierService) Update(ctx context.Context, id string, sup *domain.Supplier) error {
	existing, err := s.Repo.GetSupplier(ctx, id)
	if err != nil {
		return fmt.Errorf("update supplier: %w", err)
	}

	sup.ID = id
	sup.CreatedAt = existing.CreatedAt
	sup.Normalize()
	if err := sup.Validate(); err != nil {
		return err
	}
	if err := s.Repo.UpdateSupplier(ctx, sup); err != nil {
		if isConflict(err) {
			return domain.NewValidationError("name", "is already registered")
		}
		return fmt.Errorf("update supplier: %w", err)
	}
	return nil
}

func (s *SupplierService) Delete(ctx context.Context, id string) error {
	if err := s.Repo.DeleteSupplier(ctx, id); err != nil {
		return fmt.Errorf("delete supplier: %w", err)
	}
	return nil
}
