// Package sqlite provides a SQLite implementation of the store.Store interface, used
// for local development and tests.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	apperrors "lg/glucose-api/internal/errors"
	"lg/glucose-api/internal/glucose"
	"lg/glucose-api/internal/store"
)

// Store is a SQLite implementation of store.Store.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ store.Store = (*Store)(nil)

// NewMemoryStore creates an in-memory SQLite store.
func NewMemoryStore() (*Store, error) {
	return newStore(":memory:")
}

// NewFileStore creates a file-based SQLite store.
func NewFileStore(path string) (*Store, error) {
	return newStore(path)
}

func newStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Each connection to :memory: is its own database.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(schema)
	return err
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) stamp() int64 {
	return s.now().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// User methods

func (s *Store) CreateUser(ctx context.Context, u *store.User) (*store.User, error) {
	created := s.stamp()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, email, auth_token, password, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, u.Username, u.Email, u.AuthToken, u.Password, created)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	user := *u
	user.ID = int(id)
	createdAt := fromMillis(created)
	user.CreatedAt = &createdAt
	return &user, nil
}

func (s *Store) UserByUsername(ctx context.Context, username string) (*store.User, error) {
	return s.userWhere(ctx, "username = ?", username)
}

func (s *Store) UserByToken(ctx context.Context, token string) (*store.User, error) {
	return s.userWhere(ctx, "auth_token = ?", token)
}

func (s *Store) userWhere(ctx context.Context, cond string, arg string) (*store.User, error) {
	var u store.User
	var created int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, email, auth_token, password, created_at FROM users WHERE `+cond,
		arg).Scan(&u.ID, &u.Username, &u.Email, &u.AuthToken, &u.Password, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound{Resource: "user", ID: arg}
	}
	if err != nil {
		return nil, err
	}
	createdAt := fromMillis(created)
	u.CreatedAt = &createdAt
	return &u, nil
}

// Settings methods

func (s *Store) GetSettings(ctx context.Context, userID int) (*store.Settings, error) {
	var st store.Settings
	var low, high sql.NullFloat64
	var updated int64
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, timezone, target_low, target_high, updated_at
		FROM glucose_settings WHERE user_id = ?
	`, userID).Scan(&st.UserID, &st.Timezone, &low, &high, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound{Resource: "glucose_settings", ID: strconv.Itoa(userID)}
	}
	if err != nil {
		return nil, err
	}
	st.TargetLow = nullFloat(low)
	st.TargetHigh = nullFloat(high)
	updatedAt := fromMillis(updated)
	st.UpdatedAt = &updatedAt
	return &st, nil
}

func (s *Store) SaveSettings(ctx context.Context, st *store.Settings) (*store.Settings, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO glucose_settings (user_id, timezone, target_low, target_high, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			timezone = excluded.timezone,
			target_low = excluded.target_low,
			target_high = excluded.target_high,
			updated_at = excluded.updated_at
	`, st.UserID, st.Timezone, st.TargetLow, st.TargetHigh, s.stamp())
	if err != nil {
		return nil, err
	}
	return s.GetSettings(ctx, st.UserID)
}

// Reading methods

const readingColumns = `id, user_id, value, reading_type, response, reading_at, reading_date,
	time_of_day, related_meal, notes, symptoms, influencing_factors, target_low, target_high,
	measurement_device, confidence, created_at, updated_at`

func (s *Store) FindReadings(ctx context.Context, userID int, f glucose.ReadingFilter) ([]glucose.Reading, int, error) {
	where := []string{"user_id = ?"}
	args := []any{userID}
	if f.Start != nil {
		where = append(where, "reading_at >= ?")
		args = append(args, f.Start.UnixMilli())
	}
	if f.End != nil {
		where = append(where, "reading_at <= ?")
		args = append(args, f.End.UnixMilli())
	}
	if f.Type != nil {
		where = append(where, "reading_type = ?")
		args = append(args, string(*f.Type))
	}
	if f.Response != nil {
		where = append(where, "response = ?")
		args = append(args, string(*f.Response))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM glucose_readings WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	order := "ASC"
	if f.Descending {
		order = "DESC"
	}
	limit := -1
	if f.Limit > 0 {
		limit = f.Limit
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+readingColumns+" FROM glucose_readings WHERE "+cond+
			" ORDER BY reading_at "+order+", id "+order+" LIMIT ? OFFSET ?",
		append(args, limit, f.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var readings []glucose.Reading
	for rows.Next() {
		r, err := scanReading(rows)
		if err != nil {
			return nil, 0, err
		}
		readings = append(readings, *r)
	}
	return readings, total, rows.Err()
}

func (s *Store) InsertReading(ctx context.Context, r *glucose.Reading) (*glucose.Reading, error) {
	docs, err := store.EncodeReadingJSON(r)
	if err != nil {
		return nil, err
	}
	low, high := store.TargetColumns(r.PersonalTarget)
	now := s.stamp()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO glucose_readings (user_id, value, reading_type, response, reading_at,
			reading_date, time_of_day, related_meal, notes, symptoms, influencing_factors,
			target_low, target_high, measurement_device, confidence, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.UserID, r.Value, string(r.ReadingType), string(r.Response), r.ReadingAt.UnixMilli(),
		r.ReadingDate.String(), string(r.TimeOfDay), r.RelatedMeal, r.Notes, docs.Symptoms,
		docs.Factors, low, high, r.MeasurementDevice, confidenceArg(r.Confidence), now, now)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return s.GetReading(ctx, r.UserID, id)
}

func (s *Store) GetReading(ctx context.Context, userID int, id int64) (*glucose.Reading, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+readingColumns+" FROM glucose_readings WHERE id = ? AND user_id = ?", id, userID)
	r, err := scanReading(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound{Resource: "glucose_reading", ID: strconv.FormatInt(id, 10)}
	}
	return r, err
}

func (s *Store) UpdateReading(ctx context.Context, r *glucose.Reading) (*glucose.Reading, error) {
	docs, err := store.EncodeReadingJSON(r)
	if err != nil {
		return nil, err
	}
	low, high := store.TargetColumns(r.PersonalTarget)

	res, err := s.db.ExecContext(ctx, `
		UPDATE glucose_readings SET
			value = ?, reading_type = ?, response = ?, reading_at = ?, reading_date = ?,
			time_of_day = ?, related_meal = ?, notes = ?, symptoms = ?, influencing_factors = ?,
			target_low = ?, target_high = ?, measurement_device = ?, confidence = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`, r.Value, string(r.ReadingType), string(r.Response), r.ReadingAt.UnixMilli(),
		r.ReadingDate.String(), string(r.TimeOfDay), r.RelatedMeal, r.Notes, docs.Symptoms,
		docs.Factors, low, high, r.MeasurementDevice, confidenceArg(r.Confidence), s.stamp(),
		r.ID, r.UserID)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, err
	} else if n == 0 {
		return nil, apperrors.NotFound{Resource: "glucose_reading", ID: strconv.FormatInt(r.ID, 10)}
	}
	return s.GetReading(ctx, r.UserID, r.ID)
}

func (s *Store) DeleteReading(ctx context.Context, userID int, id int64) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM glucose_readings WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.NotFound{Resource: "glucose_reading", ID: strconv.FormatInt(id, 10)}
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReading(row scanner) (*glucose.Reading, error) {
	var (
		r                                  glucose.Reading
		readingType, response, timeOfDay   string
		readingAt, createdAt, updatedAt    int64
		readingDate                        string
		meal, notes, device, confidence    sql.NullString
		symptoms, factors                  sql.NullString
		low, high                          sql.NullFloat64
	)
	err := row.Scan(&r.ID, &r.UserID, &r.Value, &readingType, &response, &readingAt,
		&readingDate, &timeOfDay, &meal, &notes, &symptoms, &factors, &low, &high,
		&device, &confidence, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	date, err := glucose.ParseDate(readingDate)
	if err != nil {
		return nil, fmt.Errorf("reading %d: %w", r.ID, err)
	}
	r.ReadingType = glucose.ReadingType(readingType)
	r.Response = glucose.ResponseCategory(response)
	r.ReadingAt = fromMillis(readingAt)
	r.ReadingDate = date
	r.TimeOfDay = glucose.TimeOfDay(timeOfDay)
	r.RelatedMeal = nullString(meal)
	r.Notes = nullString(notes)
	r.MeasurementDevice = nullString(device)
	if confidence.Valid {
		c := glucose.Confidence(confidence.String)
		r.Confidence = &c
	}
	r.PersonalTarget = store.TargetFromColumns(nullFloat(low), nullFloat(high))
	r.CreatedAt = fromMillis(createdAt)
	r.UpdatedAt = fromMillis(updatedAt)

	if err := store.DecodeReadingJSON(&r, []byte(symptoms.String), []byte(factors.String)); err != nil {
		return nil, err
	}
	return &r, nil
}

func confidenceArg(c *glucose.Confidence) *string {
	if c == nil {
		return nil
	}
	s := string(*c)
	return &s
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}
