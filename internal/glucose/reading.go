package glucose

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a calendar date, serialized as "YYYY-MM-DD" in JSON. The embedded time is
// always midnight UTC so dates compare the same regardless of the user's timezone.
type Date struct{ time.Time }

// NewDate builds a Date from its components.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar date of t in loc.
func DateOf(t time.Time, loc *time.Location) Date {
	local := t.In(loc)
	return NewDate(local.Year(), local.Month(), local.Day())
}

// ParseDate parses a "YYYY-MM-DD" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return Date{t}, nil
}

func (d Date) String() string {
	return d.Time.Format(dateLayout)
}

// AddDays returns the date n days after d (n may be negative).
func (d Date) AddDays(n int) Date {
	return Date{d.Time.AddDate(0, 0, n)}
}

// Start is local midnight of d in loc.
func (d Date) Start(loc *time.Location) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
}

// End is the last millisecond of d in loc (23:59:59.999).
func (d Date) End(loc *time.Location) time.Time {
	return d.AddDays(1).Start(loc).Add(-time.Millisecond)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	t, err := time.Parse(`"`+dateLayout+`"`, string(b))
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// Confidence is how much the user trusts a measurement.
type Confidence string

const (
	ConfidenceLow    Confidence = "LOW"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceHigh   Confidence = "HIGH"
)

// Symptom is one symptom the user reported alongside a reading.
type Symptom struct {
	Name     string `json:"name" binding:"required,max=64"`
	Severity int    `json:"severity,omitempty" binding:"omitempty,min=1,max=10"`
}

// ExerciseBout describes exercise around the time of a reading.
type ExerciseBout struct {
	Type            string `json:"type" binding:"required,max=64"`
	DurationMinutes int    `json:"duration_minutes,omitempty" binding:"omitempty,min=0,max=1440"`
	Intensity       string `json:"intensity,omitempty" binding:"omitempty,oneof=LOW MODERATE HIGH"`
}

// MedicationDose describes a medication dose taken around the time of a reading.
type MedicationDose struct {
	Name string  `json:"name" binding:"required,max=100"`
	Dose float64 `json:"dose,omitempty" binding:"omitempty,gt=0"`
	Unit string  `json:"unit,omitempty" binding:"omitempty,max=16"`
}

// InfluencingFactors captures context that may explain a reading.
type InfluencingFactors struct {
	StressLevel *int            `json:"stress_level,omitempty" binding:"omitempty,min=1,max=10"`
	Exercise    *ExerciseBout   `json:"exercise,omitempty"`
	Medication  *MedicationDose `json:"medication,omitempty"`
	Illness     bool            `json:"illness,omitempty"`
	Alcohol     bool            `json:"alcohol,omitempty"`
	SleepHours  *float64        `json:"sleep_hours,omitempty" binding:"omitempty,min=0,max=24"`
}

// TargetRange is a personal target band in mg/dL.
type TargetRange struct {
	Low  float64 `json:"low" binding:"required,min=20,max=600"`
	High float64 `json:"high" binding:"required,min=20,max=600,gtfield=Low"`
}

// Reading is one stored blood-glucose measurement.
type Reading struct {
	ID                int64               `json:"id"`
	UserID            int                 `json:"user_id"`
	Value             float64             `json:"value"`
	ReadingType       ReadingType         `json:"reading_type"`
	Response          ResponseCategory    `json:"response"`
	ReadingAt         time.Time           `json:"reading_at"`
	ReadingDate       Date                `json:"reading_date"`
	TimeOfDay         TimeOfDay           `json:"time_of_day"`
	RelatedMeal       *string             `json:"related_meal"`
	Notes             *string             `json:"notes"`
	Symptoms          []Symptom           `json:"symptoms"`
	Factors           *InfluencingFactors `json:"influencing_factors"`
	PersonalTarget    *TargetRange        `json:"personal_target"`
	MeasurementDevice *string             `json:"measurement_device"`
	Confidence        *Confidence         `json:"confidence"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

// deriveTime sets the fields that depend on ReadingAt.
func (r *Reading) deriveTime(loc *time.Location) {
	r.ReadingDate = DateOf(r.ReadingAt, loc)
	r.TimeOfDay = ClassifyTimeOfDay(r.ReadingAt.In(loc))
}

// deriveResponse sets the field that depends on Value.
func (r *Reading) deriveResponse() {
	r.Response = ClassifyResponse(r.Value)
}

// NewReading is the input for creating a reading. Derived fields are not accepted.
type NewReading struct {
	Value             float64
	ReadingType       ReadingType
	ReadingAt         *time.Time
	RelatedMeal       *string
	Notes             *string
	Symptoms          []Symptom
	Factors           *InfluencingFactors
	PersonalTarget    *TargetRange
	MeasurementDevice *string
	Confidence        *Confidence
}

// ReadingUpdate is a partial update; nil fields keep their stored value.
type ReadingUpdate struct {
	Value             *float64
	ReadingType       *ReadingType
	ReadingAt         *time.Time
	RelatedMeal       *string
	Notes             *string
	Symptoms          *[]Symptom
	Factors           *InfluencingFactors
	PersonalTarget    *TargetRange
	MeasurementDevice *string
	Confidence        *Confidence
}

// Empty reports whether the update changes nothing.
func (u ReadingUpdate) Empty() bool {
	return u.Value == nil && u.ReadingType == nil && u.ReadingAt == nil &&
		u.RelatedMeal == nil && u.Notes == nil && u.Symptoms == nil &&
		u.Factors == nil && u.PersonalTarget == nil && u.MeasurementDevice == nil &&
		u.Confidence == nil
}

// apply copies the set fields of u onto r and re-derives whatever they affect.
func (u ReadingUpdate) apply(r *Reading, loc *time.Location) {
	if u.Value != nil {
		r.Value = *u.Value
		r.deriveResponse()
	}
	if u.ReadingType != nil {
		r.ReadingType = *u.ReadingType
	}
	if u.ReadingAt != nil {
		r.ReadingAt = u.ReadingAt.Truncate(time.Millisecond)
		r.deriveTime(loc)
	}
	if u.RelatedMeal != nil {
		r.RelatedMeal = u.RelatedMeal
	}
	if u.Notes != nil {
		r.Notes = u.Notes
	}
	if u.Symptoms != nil {
		r.Symptoms = *u.Symptoms
	}
	if u.Factors != nil {
		r.Factors = u.Factors
	}
	if u.PersonalTarget != nil {
		r.PersonalTarget = u.PersonalTarget
	}
	if u.MeasurementDevice != nil {
		r.MeasurementDevice = u.MeasurementDevice
	}
	if u.Confidence != nil {
		r.Confidence = u.Confidence
	}
}
