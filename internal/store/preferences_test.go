package store

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "lg/glucose-api/internal/errors"
)

type settingsMap map[int]*Settings

func (m settingsMap) GetSettings(_ context.Context, userID int) (*Settings, error) {
	if s, ok := m[userID]; ok {
		return s, nil
	}
	return nil, apperrors.NotFound{Resource: "glucose_settings", ID: strconv.Itoa(userID)}
}

type failingSettings struct{}

func (failingSettings) GetSettings(context.Context, int) (*Settings, error) {
	return nil, errors.New("connection reset")
}

func ptr[T any](v T) *T { return &v }

func TestPreferenceResolver(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	settings := settingsMap{
		1: {UserID: 1, Timezone: "America/Chicago", TargetLow: ptr(80.0), TargetHigh: ptr(150.0)},
		2: {UserID: 2, TargetLow: ptr(80.0)},
		3: {UserID: 3, Timezone: "Not/AZone"},
	}
	r := NewPreferenceResolver(settings, tokyo, zap.NewNop().Sugar())
	ctx := context.Background()

	p, err := r.Preferences(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "America/Chicago", p.Location.String())
	require.NotNil(t, p.Target)
	assert.Equal(t, 80.0, p.Target.Low)
	assert.Equal(t, 150.0, p.Target.High)

	p, err = r.Preferences(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, tokyo, p.Location)
	assert.Nil(t, p.Target)

	p, err = r.Preferences(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, tokyo, p.Location)

	p, err = r.Preferences(ctx, 99)
	require.NoError(t, err)
	assert.Equal(t, tokyo, p.Location)
	assert.Equal(t, tokyo, r.Fallback())
}

func TestPreferenceResolver_StoreError(t *testing.T) {
	r := NewPreferenceResolver(failingSettings{}, nil, zap.NewNop().Sugar())

	_, err := r.Preferences(context.Background(), 1)
	assert.Error(t, err)
	assert.Equal(t, time.UTC, r.Fallback())
}

func TestValidateSettings(t *testing.T) {
	cases := []struct {
		name  string
		s     Settings
		valid bool
	}{
		{"defaults", Settings{}, true},
		{"timezone", Settings{Timezone: "Europe/Berlin"}, true},
		{"bad timezone", Settings{Timezone: "Mars/Olympus"}, false},
		{"target", Settings{TargetLow: ptr(70.0), TargetHigh: ptr(180.0)}, true},
		{"half target", Settings{TargetHigh: ptr(180.0)}, false},
		{"inverted target", Settings{TargetLow: ptr(180.0), TargetHigh: ptr(70.0)}, false},
		{"target out of bounds", Settings{TargetLow: ptr(10.0), TargetHigh: ptr(180.0)}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateSettings(&tc.s)
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, apperrors.ErrValidation)
			}
		})
	}
}
