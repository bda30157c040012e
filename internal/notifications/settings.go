package notifications

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrValidation indicates invalid settings input.
	ErrValidation = errors.New("notifications: invalid settings")
	// ErrAlreadyNotified indicates the document was already notified that day.
	ErrAlreadyNotified = errors.New("notifications: already notified")
)

// Settings configures the expiry notifications.
type Settings struct {
	Thresholds []int     `json:"thresholds" validate:"required,min=1,max=32,dive,min=1,max=3650"`
	Recipients []string  `json:"recipients" validate:"max=50,dive,required,email"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// DefaultSettings returns settings with the default thresholds and no recipients.
func DefaultSettings() Settings {
	return Settings{Thresholds: append([]int(nil), DefaultThresholds...), Recipients: []string{}}
}

// Normalize deduplicates thresholds (descending) and recipients (lower-cased).
func (s Settings) Normalize() Settings {
	seen := make(map[int]struct{}, len(s.Thresholds))
	thresholds := make([]int, 0, len(s.Thresholds))
	for _, t := range s.Thresholds {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		thresholds = append(thresholds, t)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(thresholds)))

	mails := make(map[string]struct{}, len(s.Recipients))
	recipients := make([]string, 0, len(s.Recipients))
	for _, r := range s.Recipients {
		r = strings.ToLower(strings.TrimSpace(r))
		if _, ok := mails[r]; ok {
			continue
		}
		mails[r] = struct{}{}
		recipients = append(recipients, r)
	}
	return Settings{Thresholds: thresholds, Recipients: recipients, UpdatedAt: s.UpdatedAt}
}

// Validate checks the settings with struct tags.
func (s Settings) Validate(v *validator.Validate) error {
	if v == nil {
		v = validator.New()
	}
	if err := v.Struct(s); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return nil
}

// SettingsRepository persists the single settings row.
type SettingsRepository struct {
	pool *pgxpool.Pool
}

// NewSettingsRepository constructs the repository.
func NewSettingsRepository(pool *pgxpool.Pool) *SettingsRepository {
	return &SettingsRepository{pool: pool}
}

// Load returns stored settings or the defaults when none were saved.
func (r *SettingsRepository) Load(ctx context.Context) (Settings, error) {
	var s Settings
	err := r.pool.QueryRow(ctx, `SELECT thresholds, recipients, updated_at FROM notification_settings WHERE id = 1`).
		Scan(&s.Thresholds, &s.Recipients, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return DefaultSettings(), nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("notifications: load settings: %w", err)
	}
	if s.Recipients == nil {
		s.Recipients = []string{}
	}
	return s, nil
}

// Save upserts the settings row.
func (r *SettingsRepository) Save(ctx context.Context, s Settings) (Settings, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO notification_settings (id, thresholds, recipients, updated_at)
VALUES (1, $1, $2, NOW())
ON CONFLICT (id) DO UPDATE SET thresholds = EXCLUDED.thresholds, recipients = EXCLUDED.recipients, updated_at = NOW()
RETURNING updated_at`, s.Thresholds, s.Recipients).Scan(&s.UpdatedAt)
	if err != nil {
		return Settings{}, fmt.Errorf("notifications: save settings: %w", err)
	}
	return s, nil
}
