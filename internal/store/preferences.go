package store

import (
	"context"
	"time"

	"go.uber.org/zap"

	apperrors "lg/glucose-api/internal/errors"
	"lg/glucose-api/internal/glucose"
)

// SettingsReader is the part of Store the preference resolver needs.
type SettingsReader interface {
	GetSettings(ctx context.Context, userID int) (*Settings, error)
}

// PreferenceResolver resolves a user's timezone and target range from their saved
// settings, falling back to the server default timezone.
type PreferenceResolver struct {
	settings SettingsReader
	fallback *time.Location
	log      *zap.SugaredLogger
}

var _ glucose.PreferenceSource = (*PreferenceResolver)(nil)

func NewPreferenceResolver(settings SettingsReader, fallback *time.Location, log *zap.SugaredLogger) *PreferenceResolver {
	if fallback == nil {
		fallback = time.UTC
	}
	return &PreferenceResolver{settings: settings, fallback: fallback, log: log}
}

// Preferences implements glucose.PreferenceSource. Users without saved settings get
// the defaults.
func (r *PreferenceResolver) Preferences(ctx context.Context, userID int) (glucose.Preferences, error) {
	s, err := r.settings.GetSettings(ctx, userID)
	if apperrors.IsNotFound(err) {
		return glucose.Preferences{Location: r.fallback}, nil
	}
	if err != nil {
		return glucose.Preferences{}, err
	}

	return glucose.Preferences{
		Location: r.location(userID, s.Timezone),
		Target:   s.Target(),
	}, nil
}

// Fallback is the server default timezone.
func (r *PreferenceResolver) Fallback() *time.Location {
	return r.fallback
}

func (r *PreferenceResolver) location(userID int, name string) *time.Location {
	if name == "" {
		return r.fallback
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		// Saved timezones are validated on write; this only happens if tzdata changed.
		r.log.Warnw("unknown saved timezone, using default", "userId", userID, "timezone", name)
		return r.fallback
	}
	return loc
}

// DefaultSettings are the settings reported for a user who has never saved any.
func DefaultSettings(userID int) *Settings {
	return &Settings{UserID: userID}
}

// ValidateSettings checks a settings row before it is saved.
func ValidateSettings(s *Settings) error {
	if s.Timezone != "" {
		if _, err := time.LoadLocation(s.Timezone); err != nil {
			return apperrors.NewValidationError("timezone must be a valid IANA timezone name").
				WithContext("timezone", s.Timezone)
		}
	}
	if (s.TargetLow == nil) != (s.TargetHigh == nil) {
		return apperrors.NewValidationError("target_low and target_high must be set together")
	}
	if t := s.Target(); t != nil {
		if t.Low < glucose.MinValue || t.High > glucose.MaxValue {
			return apperrors.NewValidationError("target range must be within 20 and 600 mg/dL")
		}
		if t.Low >= t.High {
			return apperrors.NewValidationError("target_low must be below target_high")
		}
	}
	return nil
}
