package services

import (
	"context"
	"fmt"

	"cargo-logistics-service/internal/domain"
	"cargo-logistics-service/internal/platform/obs"
	"cargo-logistics-service/internal/ports"
)

type ClientService struct {
	Repo ports.ClientRepository
}

func (s *ClientService) List(ctx context.Context, f domain.ClientFilter) (_ domain.Page[domain.Client], err error) {
	defer obs.Time(ctx, "clients.List")(&err)

	f.ListParams = f.ListParams.Normalize()
	items, total, err := s.Repo.ListClients(ctx, f)
	if err != nil {
		return domain.Page[domain.Client]{}, fmt.Errorf("list clients: %w", err)
	}
	return domain.NewPage(items, total, f.ListParams), nil
}

func (s *ClientService) Get(ctx context.Context, id string) (*domain.ClientDetail, error) {
	d, err := s.Repo.GetClientDetail(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}
	return d, nil
}

func (s *ClientService) Create(ctx context.Context, c *domain.Client) (err error) {
	defer obs.Time(ctx, "clients.Create")(&err)

	c.ID = ""
	c.Normalize()
	if err := c.Validate(); err != nil {
		return err
	}
	if err := s.Repo.CreateClient(ctx, c); err != nil {
		if isConflict(err) {
			return domain.NewValidationError("email", "is already registered")
		}
		return fmt.Errorf("create client: %w", err)
	}
	return nil
}

func (s *ClientService) Update(ctx context.Context, id string, c *domain.Client) (err error) {
	defer obs.Time(ctx, "clients.Update")(&err)

	existing, err := s.Repo.GetClient(ctx, id)
	if err != nil {
		return fmt.Errorf("update client: %w", err)
	}

	c.ID = id
	c.CreatedAt = existing.CreatedAt
	c.Normalize()
	if err := c.Validate(); err != nil {
		return err
	}
	if err := s.Repo.UpdateClient(ctx, c); err != nil {
		if isConflict(err) {
			return domain.NewValidationError("email", "is already registered")
		}
		return fmt.Errorf("update client: %w", err)
	}
	return nil
}

// Delete removes a client with no shipments, invoices, users or tickets.
func (s *ClientService) Delete(ctx context.Context, id string) error {
	if err := s.Repo.DeleteClient(ctx, id); err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	return nil
}
