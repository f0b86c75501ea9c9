// Package postgres implements store.Store on PostgreSQL using a pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	apperrors "lg/glucose-api/internal/errors"
	"lg/glucose-api/internal/glucose"
	"lg/glucose-api/internal/store"
)

// Store holds the pool shared by every request.
type Store struct {
	pool *pgxpool.Pool
	log  *zap.SugaredLogger
}

var _ store.Store = (*Store)(nil)

// New creates a connection pool. A pool (not a single conn) is used because
// serverless Postgres providers close idle connections.
func New(ctx context.Context, url string, log *zap.SugaredLogger) (*Store, error) {
	config, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("unable to parse DB URL: %w", err)
	}
	// Simple protocol avoids "cached plan must not change result type" errors from
	// server-side prepared statement caches after schema changes.
	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	return &Store{pool: pool, log: log}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

/* ─── Query helpers ───────────────────────────────────────────────────── */

// queryOne runs a query and scans the first row into T using RowToStructByName.
// Logs query and scan errors for debugging (e.g. struct/column mismatches).
func queryOne[T any](ctx context.Context, s *Store, sql string, args pgx.NamedArgs) (T, error) {
	rows, err := s.pool.Query(ctx, sql, args)
	if err != nil {
		s.log.Debugw("query failed", "error", err)
		var zero T
		return zero, err
	}
	result, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[T])
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		s.log.Debugw("scan failed", "error", err)
	}
	return result, err
}

// queryMany runs a query and scans all rows into []T using RowToStructByName.
func queryMany[T any](ctx context.Context, s *Store, sql string, args pgx.NamedArgs) ([]T, error) {
	rows, err := s.pool.Query(ctx, sql, args)
	if err != nil {
		s.log.Debugw("query failed", "error", err)
		return nil, err
	}
	results, err := pgx.CollectRows(rows, pgx.RowToStructByName[T])
	if err != nil {
		s.log.Debugw("scan failed", "error", err)
	}
	return results, err
}

/* ─── Users ───────────────────────────────────────────────────────────── */

const userColumns = "id, username, email, auth_token, password, created_at"

func (s *Store) CreateUser(ctx context.Context, u *store.User) (*store.User, error) {
	created, err := queryOne[store.User](ctx, s,
		`INSERT INTO users (username, email, password, auth_token)
		 VALUES (@username, @email, @password, @authToken)
		 RETURNING `+userColumns,
		pgx.NamedArgs{"username": u.Username, "email": u.Email, "password": u.Password, "authToken": u.AuthToken})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *Store) UserByUsername(ctx context.Context, username string) (*store.User, error) {
	u, err := queryOne[store.User](ctx, s,
		"SELECT "+userColumns+" FROM users WHERE username = @username",
		pgx.NamedArgs{"username": username})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound{Resource: "user", ID: username}
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) UserByToken(ctx context.Context, token string) (*store.User, error) {
	u, err := queryOne[store.User](ctx, s,
		"SELECT "+userColumns+" FROM users WHERE auth_token = @token",
		pgx.NamedArgs{"token": token})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound{Resource: "user", ID: "token"}
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

/* ─── Settings ────────────────────────────────────────────────────────── */

const settingsColumns = "user_id, timezone, target_low, target_high, updated_at"

func (s *Store) GetSettings(ctx context.Context, userID int) (*store.Settings, error) {
	st, err := queryOne[store.Settings](ctx, s,
		"SELECT "+settingsColumns+" FROM glucose_settings WHERE user_id = @userID",
		pgx.NamedArgs{"userID": userID})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound{Resource: "glucose_settings", ID: strconv.Itoa(userID)}
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *Store) SaveSettings(ctx context.Context, st *store.Settings) (*store.Settings, error) {
	saved, err := queryOne[store.Settings](ctx, s,
		`INSERT INTO glucose_settings (user_id, timezone, target_low, target_high)
		 VALUES (@userID, @timezone, @targetLow, @targetHigh)
		 ON CONFLICT (user_id) DO UPDATE SET
			timezone    = EXCLUDED.timezone,
			target_low  = EXCLUDED.target_low,
			target_high = EXCLUDED.target_high,
			updated_at  = NOW()
		 RETURNING `+settingsColumns,
		pgx.NamedArgs{
			"userID":     st.UserID,
			"timezone":   st.Timezone,
			"targetLow":  st.TargetLow,
			"targetHigh": st.TargetHigh,
		})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

/* ─── Readings ────────────────────────────────────────────────────────── */

// readingRow maps to glucose_readings. JSONB columns scan as raw bytes and are
// decoded by toReading.
type readingRow struct {
	ID                 int64     `db:"id"`
	UserID             int       `db:"user_id"`
	Value              float64   `db:"value"`
	ReadingType        string    `db:"reading_type"`
	Response           string    `db:"response"`
	ReadingAt          time.Time `db:"reading_at"`
	ReadingDate        time.Time `db:"reading_date"`
	TimeOfDay          string    `db:"time_of_day"`
	RelatedMeal        *string   `db:"related_meal"`
	Notes              *string   `db:"notes"`
	Symptoms           []byte    `db:"symptoms"`
	InfluencingFactors []byte    `db:"influencing_factors"`
	TargetLow          *float64  `db:"target_low"`
	TargetHigh         *float64  `db:"target_high"`
	MeasurementDevice  *string   `db:"measurement_device"`
	Confidence         *string   `db:"confidence"`
	CreatedAt          time.Time `db:"created_at"`
	UpdatedAt          time.Time `db:"updated_at"`
}

const readingColumns = `id, user_id, value, reading_type, response, reading_at, reading_date,
	time_of_day, related_meal, notes, symptoms, influencing_factors, target_low, target_high,
	measurement_device, confidence, created_at, updated_at`

func (row readingRow) toReading() (*glucose.Reading, error) {
	r := &glucose.Reading{
		ID:                row.ID,
		UserID:            row.UserID,
		Value:             row.Value,
		ReadingType:       glucose.ReadingType(row.ReadingType),
		Response:          glucose.ResponseCategory(row.Response),
		ReadingAt:         row.ReadingAt.UTC(),
		ReadingDate:       glucose.NewDate(row.ReadingDate.Year(), row.ReadingDate.Month(), row.ReadingDate.Day()),
		TimeOfDay:         glucose.TimeOfDay(row.TimeOfDay),
		RelatedMeal:       row.RelatedMeal,
		Notes:             row.Notes,
		PersonalTarget:    store.TargetFromColumns(row.TargetLow, row.TargetHigh),
		MeasurementDevice: row.MeasurementDevice,
		CreatedAt:         row.CreatedAt,
		UpdatedAt:         row.UpdatedAt,
	}
	if row.Confidence != nil {
		c := glucose.Confidence(*row.Confidence)
		r.Confidence = &c
	}
	if err := store.DecodeReadingJSON(r, row.Symptoms, row.InfluencingFactors); err != nil {
		return nil, err
	}
	return r, nil
}

// readingArgs binds the writable columns of r.
func readingArgs(r *glucose.Reading) (pgx.NamedArgs, error) {
	docs, err := store.EncodeReadingJSON(r)
	if err != nil {
		return nil, err
	}
	low, high := store.TargetColumns(r.PersonalTarget)
	var confidence *string
	if r.Confidence != nil {
		c := string(*r.Confidence)
		confidence = &c
	}
	return pgx.NamedArgs{
		"id":                r.ID,
		"userID":            r.UserID,
		"value":             r.Value,
		"readingType":       string(r.ReadingType),
		"response":          string(r.Response),
		"readingAt":         r.ReadingAt,
		"readingDate":       r.ReadingDate.String(),
		"timeOfDay":         string(r.TimeOfDay),
		"relatedMeal":       r.RelatedMeal,
		"notes":             r.Notes,
		"symptoms":          docs.Symptoms,
		"factors":           docs.Factors,
		"targetLow":         low,
		"targetHigh":        high,
		"measurementDevice": r.MeasurementDevice,
		"confidence":        confidence,
	}, nil
}

func (s *Store) FindReadings(ctx context.Context, userID int, f glucose.ReadingFilter) ([]glucose.Reading, int, error) {
	// Build WHERE clause dynamically, only filtering on what the caller set
	where := []string{"user_id = @userID"}
	args := pgx.NamedArgs{"userID": userID}
	if f.Start != nil {
		where = append(where, "reading_at >= @start")
		args["start"] = *f.Start
	}
	if f.End != nil {
		where = append(where, "reading_at <= @end")
		args["end"] = *f.End
	}
	if f.Type != nil {
		where = append(where, "reading_type = @readingType")
		args["readingType"] = string(*f.Type)
	}
	if f.Response != nil {
		where = append(where, "response = @response")
		args["response"] = string(*f.Response)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM glucose_readings WHERE "+cond, args).Scan(&total); err != nil {
		return nil, 0, err
	}

	order := "ASC"
	if f.Descending {
		order = "DESC"
	}
	// LIMIT NULL is no limit
	var limit any
	if f.Limit > 0 {
		limit = f.Limit
	}
	args["limit"] = limit
	args["offset"] = f.Offset

	rows, err := queryMany[readingRow](ctx, s,
		"SELECT "+readingColumns+" FROM glucose_readings WHERE "+cond+
			" ORDER BY reading_at "+order+", id "+order+" LIMIT @limit OFFSET @offset",
		args)
	if err != nil {
		return nil, 0, err
	}

	readings := make([]glucose.Reading, 0, len(rows))
	for _, row := range rows {
		r, err := row.toReading()
		if err != nil {
			return nil, 0, err
		}
		readings = append(readings, *r)
	}
	return readings, total, nil
}

func (s *Store) InsertReading(ctx context.Context, r *glucose.Reading) (*glucose.Reading, error) {
	args, err := readingArgs(r)
	if err != nil {
		return nil, err
	}
	row, err := queryOne[readingRow](ctx, s,
		`INSERT INTO glucose_readings (user_id, value, reading_type, response, reading_at,
			reading_date, time_of_day, related_meal, notes, symptoms, influencing_factors,
			target_low, target_high, measurement_device, confidence)
		 VALUES (@userID, @value, @readingType, @response, @readingAt,
			@readingDate::date, @timeOfDay, @relatedMeal, @notes, @symptoms::jsonb, @factors::jsonb,
			@targetLow, @targetHigh, @measurementDevice, @confidence)
		 RETURNING `+readingColumns,
		args)
	if err != nil {
		return nil, err
	}
	return row.toReading()
}

func (s *Store) GetReading(ctx context.Context, userID int, id int64) (*glucose.Reading, error) {
	row, err := queryOne[readingRow](ctx, s,
		"SELECT "+readingColumns+" FROM glucose_readings WHERE id = @id AND user_id = @userID",
		pgx.NamedArgs{"id": id, "userID": userID})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound{Resource: "glucose_reading", ID: strconv.FormatInt(id, 10)}
	}
	if err != nil {
		return nil, err
	}
	return row.toReading()
}

func (s *Store) UpdateReading(ctx context.Context, r *glucose.Reading) (*glucose.Reading, error) {
	args, err := readingArgs(r)
	if err != nil {
		return nil, err
	}
	row, err := queryOne[readingRow](ctx, s,
		`UPDATE glucose_readings SET
			value               = @value,
			reading_type        = @readingType,
			response            = @response,
			reading_at          = @readingAt,
			reading_date        = @readingDate::date,
			time_of_day         = @timeOfDay,
			related_meal        = @relatedMeal,
			notes               = @notes,
			symptoms            = @symptoms::jsonb,
			influencing_factors = @factors::jsonb,
			target_low          = @targetLow,
			target_high         = @targetHigh,
			measurement_device  = @measurementDevice,
			confidence          = @confidence,
			updated_at          = NOW()
		 WHERE id = @id AND user_id = @userID
		 RETURNING `+readingColumns,
		args)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound{Resource: "glucose_reading", ID: strconv.FormatInt(r.ID, 10)}
	}
	if err != nil {
		return nil, err
	}
	return row.toReading()
}

// DeleteReading removes a reading. Ownership is enforced by requiring both id and
// user_id to match.
func (s *Store) DeleteReading(ctx context.Context, userID int, id int64) error {
	result, err := s.pool.Exec(ctx,
		"DELETE FROM glucose_readings WHERE id = @id AND user_id = @userID",
		pgx.NamedArgs{"id": id, "userID": userID})
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.NotFound{Resource: "glucose_reading", ID: strconv.FormatInt(id, 10)}
	}
	return nil
}
