package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"cargo-logistics-service/internal/domain"
)

// SQLSettingsRepository keeps the settings document as JSON in a single row.
type SQLSettingsRepository struct{ DB *sql.DB }

func NewSQLSettingsRepository(db *sql.DB) *SQLSettingsRepository {
	return &SQLSettingsRepository{DB: db}
}

func (r *SQLSettingsRepository) GetSettings(ctx context.Context) (*domain.Settings, error) {
	var data string
	if err := r.DB.QueryRowContext(ctx, `SELECT data FROM settings WHERE id = 1`).Scan(&data); err != nil {
		return nil, fmt.Errorf("get settings: %w", mapErr(err))
	}
	var s domain.Settings
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return nil, fmt.Errorf("get settings: decode: %w", err)
	}
	return &s, nil
}

func (r *SQLSettingsRepository) SaveSettings(ctx context.Context, s *domain.Settings) error {
	s.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("save settings: encode: %w", err)
	}
	_, err = r.DB.ExecContext(ctx, `
	INSERT INTO settings (id, data, updated_at)
	VALUES (1, $1, $2)
	ON CONFLICT (id) DO UPDATE
	SET data = EXCLUDED.data,
		updated_at = EXCLUDED.updated_at;
	`, string(data), s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
