package services

import (
	"context"
	"fmt"
	"strings"

	"cargo-logistics-service/internal/domain"
	"cargo-logistics-service/internal/ports"
)

// ContactService forwards website contact form messages to the company
// inbox. Nothing is stored.
type ContactService struct {
	Settings *SettingsService
	Notifier ports.Notifier
}

func (s *ContactService) Send(ctx context.Context, m domain.ContactMessage) error {
	if err := m.Validate(); err != nil {
		return err
	}
	company, err := s.Settings.Company(ctx)
	if err != nil {
		return fmt.Errorf("contact: %w", err)
	}
	if s.Notifier == nil {
		return nil
	}
	err = s.Notifier.Notify(ctx, domain.Notification{
		Kind:    domain.NotifyContactMessage,
		To:      company.Email,
		Subject: "Website enquiry: " + strings.TrimSpace(m.Subject),
		Body:    strings.TrimSpace(m.Message),
		Data: map[string]string{
			"name":  strings.TrimSpace(m.Name),
			"email": strings.ToLower(strings.TrimSpace(m.Email)),
			"phone": strings.TrimSpace(m.Phone),
		},
	})
	if err != nil {
		return fmt.Errorf("contact: deliver: %w", err)
	}
	return nil
}
