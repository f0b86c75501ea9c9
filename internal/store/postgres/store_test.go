package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "lg/glucose-api/internal/errors"
	"lg/glucose-api/internal/glucose"
	"lg/glucose-api/internal/store"
)

// newTestStore connects to TEST_DB_URL, which must point at a migrated database.
func newTestStore(t *testing.T) *Store {
	url := os.Getenv("TEST_DB_URL")
	if url == "" {
		t.Skip("TEST_DB_URL not set")
	}
	s, err := New(context.Background(), url, zap.NewNop().Sugar())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newTestUser(t *testing.T, s *Store) *store.User {
	u, err := s.CreateUser(context.Background(), &store.User{
		Username:  "user-" + uuid.NewString(),
		Email:     "test@example.com",
		AuthToken: uuid.NewString(),
		Password:  "hash",
	})
	require.NoError(t, err)
	return u
}

func TestUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := newTestUser(t, s)

	byName, err := s.UserByUsername(ctx, u.Username)
	require.NoError(t, err)
	assert.Equal(t, u.ID, byName.ID)

	byToken, err := s.UserByToken(ctx, u.AuthToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, byToken.ID)

	_, err = s.UserByToken(ctx, uuid.NewString())
	assert.True(t, apperrors.IsNotFound(err))
}

func TestSettings(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := newTestUser(t, s)

	_, err := s.GetSettings(ctx, u.ID)
	assert.True(t, apperrors.IsNotFound(err))

	low, high := 90.0, 150.0
	saved, err := s.SaveSettings(ctx, &store.Settings{UserID: u.ID, Timezone: "America/Denver", TargetLow: &low, TargetHigh: &high})
	require.NoError(t, err)
	assert.Equal(t, "America/Denver", saved.Timezone)
	assert.Equal(t, &glucose.TargetRange{Low: 90, High: 150}, saved.Target())
}

func TestReadings(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := newTestUser(t, s)

	at := time.Date(2024, 3, 9, 19, 30, 0, 0, time.UTC)
	meal := "dinner"
	r := &glucose.Reading{
		UserID:      u.ID,
		Value:       210,
		ReadingType: glucose.TypePostMeal2H,
		Response:    glucose.ClassifyResponse(210),
		ReadingAt:   at,
		ReadingDate: glucose.DateOf(at, time.UTC),
		TimeOfDay:   glucose.ClassifyTimeOfDay(at),
		RelatedMeal: &meal,
		Symptoms:    []glucose.Symptom{{Name: "fatigue", Severity: 4}},
		Factors:     &glucose.InfluencingFactors{Alcohol: true},
	}

	stored, err := s.InsertReading(ctx, r)
	require.NoError(t, err)
	assert.NotZero(t, stored.ID)
	assert.True(t, stored.ReadingAt.Equal(at))
	assert.Equal(t, "2024-03-09", stored.ReadingDate.String())
	assert.Equal(t, r.Symptoms, stored.Symptoms)
	assert.Equal(t, r.Factors, stored.Factors)

	readings, total, err := s.FindReadings(ctx, u.ID, glucose.ReadingFilter{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, readings, 1)

	stored.Value = 95
	stored.Response = glucose.ClassifyResponse(95)
	updated, err := s.UpdateReading(ctx, stored)
	require.NoError(t, err)
	assert.Equal(t, glucose.ResponseLow, updated.Response)

	require.NoError(t, s.DeleteReading(ctx, u.ID, stored.ID))
	_, err = s.GetReading(ctx, u.ID, stored.ID)
	assert.True(t, apperrors.IsNotFound(err))
}
