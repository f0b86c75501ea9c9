package glucose

import (
	"context"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	apperrors "lg/glucose-api/internal/errors"
)

// ReadingFilter narrows a FindReadings query. Nil fields do not filter and a zero
// Limit means no limit.
type ReadingFilter struct {
	Start      *time.Time
	End        *time.Time
	Type       *ReadingType
	Response   *ResponseCategory
	Limit      int
	Offset     int
	Descending bool
}

// ReadingStore is the persistence the engine reads from and writes to.
type ReadingStore interface {
	// FindReadings returns the user's readings matching f ordered by ReadingAt, and
	// the total number of matches ignoring Limit and Offset.
	FindReadings(ctx context.Context, userID int, f ReadingFilter) ([]Reading, int, error)
	InsertReading(ctx context.Context, r *Reading) (*Reading, error)
	GetReading(ctx context.Context, userID int, id int64) (*Reading, error)
	UpdateReading(ctx context.Context, r *Reading) (*Reading, error)
	DeleteReading(ctx context.Context, userID int, id int64) error
}

// Preferences are the per-user settings the engine needs.
type Preferences struct {
	Location *time.Location
	Target   *TargetRange
}

// PreferenceSource resolves a user's preferences.
type PreferenceSource interface {
	Preferences(ctx context.Context, userID int) (Preferences, error)
}

// Engine turns a user's readings into derived metrics. It keeps no state between
// calls; every aggregate is recomputed from the store on demand.
type Engine struct {
	readings ReadingStore
	prefs    PreferenceSource
	log      *zap.SugaredLogger

	// Now is the engine's clock.
	Now func() time.Time
}

// NewEngine creates an engine.
func NewEngine(readings ReadingStore, prefs PreferenceSource, log *zap.SugaredLogger) *Engine {
	return &Engine{
		readings: readings,
		prefs:    prefs,
		log:      log,
		Now:      time.Now,
	}
}

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// PeriodMetrics is the aggregate over a trailing window of days.
type PeriodMetrics struct {
	WindowDays           int                      `json:"window_days"`
	Start                time.Time                `json:"start"`
	End                  time.Time                `json:"end"`
	TotalReadings        int                      `json:"total_readings"`
	Average              float64                  `json:"average"`
	SevenDayAvg          float64                  `json:"seven_day_avg"`
	FourteenDayAvg       float64                  `json:"fourteen_day_avg"`
	ThirtyDayAvg         float64                  `json:"thirty_day_avg"`
	TimeInRange          float64                  `json:"time_in_range"`
	TimeBelowRange       float64                  `json:"time_below_range"`
	TimeAboveRange       float64                  `json:"time_above_range"`
	GlycemicVariability  float64                  `json:"glycemic_variability"`
	StandardDeviation    float64                  `json:"standard_deviation"`
	EstimatedHbA1c       float64                  `json:"estimated_hba1c"`
	Min                  float64                  `json:"min"`
	Max                  float64                  `json:"max"`
	Median               float64                  `json:"median"`
	ResponseDistribution map[ResponseCategory]int `json:"response_distribution"`
	TimeOfDayAverages    map[TimeOfDay]float64    `json:"time_of_day_averages"`
}

// DailyReading is one entry of a daily summary.
type DailyReading struct {
	ReadingAt   time.Time   `json:"reading_at"`
	Value       float64     `json:"value"`
	ReadingType ReadingType `json:"reading_type"`
}

// BucketSummary is the count and mean of the readings in one time-of-day bucket.
type BucketSummary struct {
	Count   int     `json:"count"`
	Average float64 `json:"average"`
}

// DailySummary describes a single local calendar day.
type DailySummary struct {
	Date        Date                        `json:"date"`
	Count       int                         `json:"count"`
	Average     float64                     `json:"average"`
	TimeInRange float64                     `json:"time_in_range"`
	Min         float64                     `json:"min"`
	Max         float64                     `json:"max"`
	ByTimeOfDay map[TimeOfDay]BucketSummary `json:"by_time_of_day"`
	Readings    []DailyReading              `json:"readings"`
}

// DayAggregate is one day of a trend series.
type DayAggregate struct {
	Date        Date    `json:"date"`
	Average     float64 `json:"average"`
	Count       int     `json:"count"`
	TimeInRange float64 `json:"time_in_range"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
}

// ListQuery filters a paginated reading list. Dates are local calendar dates and
// both ends are inclusive.
type ListQuery struct {
	StartDate *Date
	EndDate   *Date
	Type      *ReadingType
	Response  *ResponseCategory
	Limit     int
	Offset    int
}

// ReadingPage is one page of a reading list, newest first.
type ReadingPage struct {
	Readings []Reading `json:"readings"`
	Total    int       `json:"total"`
	Limit    int       `json:"limit"`
	Offset   int       `json:"offset"`
	HasMore  bool      `json:"has_more"`
}

// PeriodMetrics computes aggregate statistics over the trailing windowDays days.
func (e *Engine) PeriodMetrics(ctx context.Context, userID, windowDays int) (*PeriodMetrics, error) {
	if windowDays <= 0 {
		return nil, apperrors.NewValidationError("window_days must be a positive integer").
			WithContext("windowDays", windowDays)
	}

	prefs, err := e.preferences(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := e.Now().In(prefs.Location)
	start := now.AddDate(0, 0, -windowDays)

	readings, err := e.between(ctx, userID, start, now)
	if err != nil {
		return nil, err
	}

	m := &PeriodMetrics{
		WindowDays:           windowDays,
		Start:                start,
		End:                  now,
		ResponseDistribution: make(map[ResponseCategory]int, len(responseCategories)),
		TimeOfDayAverages:    make(map[TimeOfDay]float64),
	}
	for _, c := range responseCategories {
		m.ResponseDistribution[c] = 0
	}
	if len(readings) == 0 {
		return m, nil
	}

	s := Summarize(valuesOf(readings))
	m.TotalReadings = s.Count
	m.Average = Round(s.Mean, 1)
	m.TimeInRange = Round(s.TimeInRange(), 2)
	m.TimeBelowRange = Round(s.TimeBelowRange(), 2)
	m.TimeAboveRange = Round(s.TimeAboveRange(), 2)
	m.GlycemicVariability = Round(s.CoefficientOfVariation(), 2)
	m.StandardDeviation = Round(s.StdDev, 1)
	m.EstimatedHbA1c = Round(EstimateHbA1c(s.Mean), 1)
	m.Min = s.Min
	m.Max = s.Max
	m.Median = Round(s.Median, 1)

	today := DateOf(now, prefs.Location)
	m.SevenDayAvg = Round(trailingAverage(readings, today, 7), 1)
	m.FourteenDayAvg = Round(trailingAverage(readings, today, 14), 1)
	m.ThirtyDayAvg = Round(trailingAverage(readings, today, 30), 1)

	buckets := make(map[TimeOfDay][]float64)
	for _, r := range readings {
		m.ResponseDistribution[r.Response]++
		buckets[r.TimeOfDay] = append(buckets[r.TimeOfDay], r.Value)
	}
	for tod, values := range buckets {
		m.TimeOfDayAverages[tod] = Round(Summarize(values).Mean, 1)
	}

	e.log.Debugw("computed period metrics", "userId", userID, "windowDays", windowDays, "readings", s.Count)
	return m, nil
}

// trailingAverage is the mean of the readings dated within the n calendar days
// ending on today, today included. Days outside the fetched set simply contribute
// nothing, so a short window averages over what is available.
func trailingAverage(readings []Reading, today Date, n int) float64 {
	first := today.AddDays(-(n - 1))
	var sum float64
	var count int
	for _, r := range readings {
		if r.ReadingDate.Before(first.Time) || r.ReadingDate.After(today.Time) {
			continue
		}
		sum += r.Value
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// DailySummary summarizes one local day. A nil date means today.
func (e *Engine) DailySummary(ctx context.Context, userID int, date *Date) (*DailySummary, error) {
	prefs, err := e.preferences(ctx, userID)
	if err != nil {
		return nil, err
	}

	day := DateOf(e.Now(), prefs.Location)
	if date != nil {
		day = *date
	}

	readings, err := e.between(ctx, userID, day.Start(prefs.Location), day.End(prefs.Location))
	if err != nil {
		return nil, err
	}

	summary := &DailySummary{
		Date:        day,
		ByTimeOfDay: make(map[TimeOfDay]BucketSummary),
		Readings:    make([]DailyReading, 0, len(readings)),
	}
	if len(readings) == 0 {
		return summary, nil
	}

	s := Summarize(valuesOf(readings))
	summary.Count = s.Count
	summary.Average = Round(s.Mean, 1)
	summary.TimeInRange = Round(s.TimeInRange(), 2)
	summary.Min = s.Min
	summary.Max = s.Max

	buckets := make(map[TimeOfDay][]float64)
	for _, r := range readings {
		summary.Readings = append(summary.Readings, DailyReading{
			ReadingAt:   r.ReadingAt.In(prefs.Location),
			Value:       r.Value,
			ReadingType: r.ReadingType,
		})
		buckets[r.TimeOfDay] = append(buckets[r.TimeOfDay], r.Value)
	}
	for tod, values := range buckets {
		bs := Summarize(values)
		summary.ByTimeOfDay[tod] = BucketSummary{Count: bs.Count, Average: Round(bs.Mean, 1)}
	}
	return summary, nil
}

// Trend groups the trailing days of readings by calendar day, oldest first. Days
// without readings are left out rather than reported as zero.
func (e *Engine) Trend(ctx context.Context, userID, days int) ([]DayAggregate, error) {
	if days <= 0 {
		return nil, apperrors.NewValidationError("days must be a positive integer").
			WithContext("days", days)
	}

	prefs, err := e.preferences(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := e.Now().In(prefs.Location)

	readings, err := e.between(ctx, userID, now.AddDate(0, 0, -days), now)
	if err != nil {
		return nil, err
	}

	byDate := make(map[string][]float64)
	dates := make(map[string]Date)
	for _, r := range readings {
		key := r.ReadingDate.String()
		byDate[key] = append(byDate[key], r.Value)
		dates[key] = r.ReadingDate
	}

	keys := make([]string, 0, len(byDate))
	for k := range byDate {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	trend := make([]DayAggregate, 0, len(keys))
	for _, k := range keys {
		s := Summarize(byDate[k])
		trend = append(trend, DayAggregate{
			Date:        dates[k],
			Average:     Round(s.Mean, 1),
			Count:       s.Count,
			TimeInRange: Round(s.TimeInRange(), 2),
			Min:         s.Min,
			Max:         s.Max,
		})
	}
	return trend, nil
}

// EarliestDate returns the reading date of the user's oldest reading, or nil when
// there are none.
func (e *Engine) EarliestDate(ctx context.Context, userID int) (*Date, error) {
	readings, _, err := e.readings.FindReadings(ctx, userID, ReadingFilter{Limit: 1})
	if err != nil {
		return nil, e.storeError(err, "find readings")
	}
	if len(readings) == 0 {
		return nil, nil
	}
	return &readings[0].ReadingDate, nil
}

// Create stores a new reading. ReadingAt defaults to now, the type defaults to
// RANDOM, and the date, time-of-day bucket and response are always derived here.
func (e *Engine) Create(ctx context.Context, userID int, in NewReading) (*Reading, error) {
	prefs, err := e.preferences(ctx, userID)
	if err != nil {
		return nil, err
	}

	readingAt := e.Now()
	if in.ReadingAt != nil {
		readingAt = *in.ReadingAt
	}
	readingType := in.ReadingType
	if readingType == "" {
		readingType = TypeRandom
	}
	target := in.PersonalTarget
	if target == nil {
		target = prefs.Target
	}

	r := &Reading{
		UserID:            userID,
		Value:             in.Value,
		ReadingType:       readingType,
		ReadingAt:         readingAt.Truncate(time.Millisecond),
		RelatedMeal:       in.RelatedMeal,
		Notes:             in.Notes,
		Symptoms:          in.Symptoms,
		Factors:           in.Factors,
		PersonalTarget:    target,
		MeasurementDevice: in.MeasurementDevice,
		Confidence:        in.Confidence,
	}
	r.deriveTime(prefs.Location)
	r.deriveResponse()

	stored, err := e.readings.InsertReading(ctx, r)
	if err != nil {
		return nil, e.storeError(err, "insert reading")
	}

	e.log.Infow("created glucose reading", "userId", userID, "readingId", stored.ID, "response", stored.Response)
	return stored, nil
}

// List returns one page of the user's readings, newest first.
func (e *Engine) List(ctx context.Context, userID int, q ListQuery) (*ReadingPage, error) {
	if q.Limit == 0 {
		q.Limit = DefaultListLimit
	}
	if q.Limit < 0 || q.Limit > MaxListLimit {
		return nil, apperrors.NewValidationError("limit must be between 1 and " + strconv.Itoa(MaxListLimit))
	}
	if q.Offset < 0 {
		return nil, apperrors.NewValidationError("offset must not be negative")
	}
	if q.StartDate != nil && q.EndDate != nil && q.StartDate.After(q.EndDate.Time) {
		return nil, apperrors.NewValidationError("start_date must not be after end_date")
	}

	prefs, err := e.preferences(ctx, userID)
	if err != nil {
		return nil, err
	}

	f := ReadingFilter{
		Type:       q.Type,
		Response:   q.Response,
		Limit:      q.Limit,
		Offset:     q.Offset,
		Descending: true,
	}
	if q.StartDate != nil {
		start := q.StartDate.Start(prefs.Location)
		f.Start = &start
	}
	if q.EndDate != nil {
		end := q.EndDate.End(prefs.Location)
		f.End = &end
	}

	readings, total, err := e.readings.FindReadings(ctx, userID, f)
	if err != nil {
		return nil, e.storeError(err, "find readings")
	}
	if readings == nil {
		readings = []Reading{}
	}

	return &ReadingPage{
		Readings: readings,
		Total:    total,
		Limit:    q.Limit,
		Offset:   q.Offset,
		HasMore:  q.Offset+len(readings) < total,
	}, nil
}

// Get returns a single reading owned by the user.
func (e *Engine) Get(ctx context.Context, userID int, id int64) (*Reading, error) {
	r, err := e.readings.GetReading(ctx, userID, id)
	if err != nil {
		return nil, e.storeError(err, "get reading")
	}
	return r, nil
}

// Update applies a partial update. Changing the value re-derives the response and
// changing ReadingAt re-derives the date and time-of-day bucket, so stored readings
// stay self-consistent.
func (e *Engine) Update(ctx context.Context, userID int, id int64, upd ReadingUpdate) (*Reading, error) {
	if upd.Empty() {
		return nil, apperrors.NewValidationError("no fields to update")
	}

	prefs, err := e.preferences(ctx, userID)
	if err != nil {
		return nil, err
	}

	r, err := e.readings.GetReading(ctx, userID, id)
	if err != nil {
		return nil, e.storeError(err, "get reading")
	}
	upd.apply(r, prefs.Location)

	updated, err := e.readings.UpdateReading(ctx, r)
	if err != nil {
		return nil, e.storeError(err, "update reading")
	}

	e.log.Infow("updated glucose reading", "userId", userID, "readingId", id)
	return updated, nil
}

// Delete removes a reading owned by the user.
func (e *Engine) Delete(ctx context.Context, userID int, id int64) error {
	if err := e.readings.DeleteReading(ctx, userID, id); err != nil {
		return e.storeError(err, "delete reading")
	}
	e.log.Infow("deleted glucose reading", "userId", userID, "readingId", id)
	return nil
}

// between fetches every reading in [start, end], oldest first.
func (e *Engine) between(ctx context.Context, userID int, start, end time.Time) ([]Reading, error) {
	readings, _, err := e.readings.FindReadings(ctx, userID, ReadingFilter{Start: &start, End: &end})
	if err != nil {
		return nil, e.storeError(err, "find readings")
	}
	return readings, nil
}

func (e *Engine) preferences(ctx context.Context, userID int) (Preferences, error) {
	prefs, err := e.prefs.Preferences(ctx, userID)
	if err != nil {
		return Preferences{}, e.storeError(err, "load preferences")
	}
	if prefs.Location == nil {
		prefs.Location = time.UTC
	}
	return prefs, nil
}

func (e *Engine) storeError(err error, op string) error {
	if _, ok := apperrors.As(err); ok {
		return err
	}
	if apperrors.IsNotFound(err) {
		return apperrors.Wrap(err, apperrors.ErrorTypeNotFound, "NOT_FOUND", "glucose reading not found").
			WithContext("operation", op)
	}
	return apperrors.NewDatabaseError(err).WithContext("operation", op)
}
