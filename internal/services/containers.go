package services

import (
	"context"
	"fmt"

	"cargo-logistics-service/internal/domain"
	"cargo-logistics-service/internal/platform/obs"
	"cargo-logistics-service/internal/ports"
)

type ContainerService struct {
	Repo      ports.ContainerRepository
	Suppliers ports.SupplierRepository
}

func (s *ContainerService) List(ctx context.Context, f domain.ContainerFilter) (_ domain.Page[domain.Container], err error) {
	defer obs.Time(ctx, "containers.List")(&err)

	f.ListParams = f.ListParams.Normalize()
	if f.Status != "" && !domain.ContainerStatus(f.Status).Valid() {
		return domain.Page[domain.Container]{}, domain.NewValidationError("status", "is not a known container status")
	}
	if f.Type != "" && !domain.ContainerType(f.Type).Valid() {
		return domain.Page[domain.Container]{}, domain.NewValidationError("type", "is not a known container type")
	}
	items, total, err := s.Repo.ListContainers(ctx, f)
	if err != nil {
		return domain.Page[domain.Container]{}, fmt.Errorf("list containers: %w", err)
	}
	return domain.NewPage(items, total, f.ListParams), nil
}

func (s *ContainerService) Get(ctx context.Context, id string) (*domain.Container, error) {
	c, err := s.Repo.GetContainer(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get container: %w", err)
	}
	return c, nil
}

func (s *ContainerService) validate(ctx context.Context, c *domain.Container) error {
	c.Normalize()
	v := fieldErrors(c.Validate())
	err := reference(v, "supplierId", c.SupplierID, func(id string) error {
		_, err := s.Suppliers.GetSupplier(ctx, id)
		return err
	})
	if err != nil {
		return fmt.Errorf("check supplier: %w", err)
	}
	return v.Err()
}

func (s *ContainerService) Create(ctx context.Context, c *domain.Container) error {
	c.ID = ""
	if err := s.validate(ctx, c); err != nil {
		return err
	}
	if err := s.Repo.CreateContainer(ctx, c); err != nil {
		if isConflict(err) {
			return domain.NewValidationError("containerNumber", "is already registered")
		}
		return fmt.Errorf("create container: %w", err)
	}
	return nil
}

func (s *ContainerService) Update(ctx context.Context, id string, c *domain.Container) error {
	existing, err := s.Repo.GetContainer(ctx, id)
	if err != nil {
		return fmt.Errorf("update container: %w", err)
	}

	c.ID = id
	c.CreatedAt = existing.CreatedAt
	if err := s.validate(ctx, c); err != nil {
		return err
	}
	if err := s.Repo.UpdateContainer(ctx, c); err != nil {
		if isConflict(err) {
			return domain.NewValidationError("containerNumber", "is already registered")
		}
		return fmt.Errorf("update container: %w", err)
	}
	return nil
}

// Delete removes a container that no open shipment is using.
func (s *ContainerService) Delete(ctx context.Context, id string) error {
	if err := s.Repo.DeleteContainer(ctx, id); err != nil {
		return fmt.Errorf("delete container: %w", err)
	}
	return nil
}
