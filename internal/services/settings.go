package services

import (
	"context"
	"fmt"

	"cargo-logistics-service/internal/domain"
	"cargo-logistics-service/internal/ports"
)

type SettingsService struct {
	Repo ports.SettingsRepository
}

// Get returns the stored settings, or the defaults when none were saved.
func (s *SettingsService) Get(ctx context.Context) (domain.Settings, error) {
	st, err := s.Repo.GetSettings(ctx)
	if isNotFound(err) {
		return domain.DefaultSettings(), nil
	}
	if err != nil {
		return domain.Settings{}, fmt.Errorf("get settings: %w", err)
	}
	return *st, nil
}

func (s *SettingsService) Update(ctx context.Context, st *domain.Settings) error {
	st.Normalize()
	if err := st.Validate(); err != nil {
		return err
	}
	if err := s.Repo.SaveSettings(ctx, st); err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	return nil
}

// CompanyInfo is the subset of settings shown on the public website.
type CompanyInfo struct {
	Name    string
	Email   string
	Phone   string
	Address string
}

func (s *SettingsService) Company(ctx context.Context) (CompanyInfo, error) {
	st, err := s.Get(ctx)
	if err != nil {
		return CompanyInfo{}, err
	}
	return CompanyInfo{
		Name:    st.CompanyName,
		Email:   st.CompanyEmail,
		Phone:   st.CompanyPhone,
		Address: st.CompanyAddress,
	}, nil
}
