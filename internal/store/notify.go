package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/grga023/latice-erp/internal/models"
)

// GetEmailSettings returns the singleton notification settings row, creating
// it with defaults (disabled, 2-day threshold) when absent.
func (s *Store) GetEmailSettings(ctx context.Context) (*models.EmailSettings, error) {
	var settings models.EmailSettings
	err := s.db.GetContext(ctx, &settings,
		"SELECT * FROM email_config ORDER BY id LIMIT 1")
	if errors.Is(err, sql.ErrNoRows) {
		settings = models.EmailSettings{DaysBefore: models.DefaultDaysBefore}
		err = s.db.GetContext(ctx, &settings.ID, `
			INSERT INTO email_config (enabled, sender_email, app_password, receiver_email, days_before)
			VALUES (FALSE, '', '', '', $1)
			RETURNING id`, models.DefaultDaysBefore)
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// SaveEmailSettings persists the singleton settings row.
func (s *Store) SaveEmailSettings(ctx context.Context, settings *models.EmailSettings) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE email_config
		SET enabled = $1, sender_email = $2, app_password = $3, receiver_email = $4, days_before = $5
		WHERE id = $6`,
		settings.Enabled, settings.SenderEmail, settings.AppPassword,
		settings.ReceiverEmail, settings.DaysBefore, settings.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("email settings row %d does not exist", settings.ID)
	}
	return nil
}

// MarkNotified records a dedup key and reports whether it was newly inserted.
// A key that already exists permanently suppresses re-alerting for that
// order/due-date pair.
func (s *Store) MarkNotified(ctx context.Context, key string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO notification_log (notify_key) VALUES ($1) ON CONFLICT (notify_key) DO NOTHING",
		key)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
