package main

import (
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	apperrors "lg/glucose-api/internal/errors"
	"lg/glucose-api/internal/glucose"
	"lg/glucose-api/internal/store"
)

// loginRequest is the request body for POST /api/login.
type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

/* ─── Readings ───────────────────────────────────────────────────────── */

// createReadingRequest is the request body for POST /api/glucose/readings.
// Derived fields (response, reading_date, time_of_day) are not accepted; the server
// always computes them.
type createReadingRequest struct {
	Value             float64                     `json:"value" binding:"required,min=20,max=600"`
	ReadingType       string                      `json:"reading_type" binding:"omitempty,max=32"`
	ReadingAt         *time.Time                  `json:"reading_at"`
	RelatedMeal       *string                     `json:"related_meal" binding:"omitempty,max=64"`
	Notes             *string                     `json:"notes" binding:"omitempty,max=1000"`
	Symptoms          []glucose.Symptom           `json:"symptoms" binding:"omitempty,max=20,dive"`
	Factors           *glucose.InfluencingFactors `json:"influencing_factors"`
	PersonalTarget    *glucose.TargetRange        `json:"personal_target"`
	MeasurementDevice *string                     `json:"measurement_device" binding:"omitempty,max=100"`
	Confidence        *string                     `json:"confidence" binding:"omitempty,oneof=LOW MEDIUM HIGH"`
}

func (r createReadingRequest) toNewReading() (glucose.NewReading, error) {
	in := glucose.NewReading{
		Value:             r.Value,
		ReadingAt:         r.ReadingAt,
		RelatedMeal:       r.RelatedMeal,
		Notes:             r.Notes,
		Symptoms:          r.Symptoms,
		Factors:           r.Factors,
		PersonalTarget:    r.PersonalTarget,
		MeasurementDevice: r.MeasurementDevice,
		Confidence:        confidence(r.Confidence),
	}
	if r.ReadingType != "" {
		rt, err := glucose.ParseReadingType(r.ReadingType)
		if err != nil {
			return in, apperrors.NewValidationError(err.Error())
		}
		in.ReadingType = rt
	}
	if err := uniqueSymptoms(r.Symptoms); err != nil {
		return in, err
	}
	return in, nil
}

// updateReadingRequest is the request body for PUT /api/glucose/readings/:id.
// All fields are pointers; only non-nil fields are changed.
type updateReadingRequest struct {
	Value             *float64                    `json:"value" binding:"omitempty,min=20,max=600"`
	ReadingType       *string                     `json:"reading_type" binding:"omitempty,max=32"`
	ReadingAt         *time.Time                  `json:"reading_at"`
	RelatedMeal       *string                     `json:"related_meal" binding:"omitempty,max=64"`
	Notes             *string                     `json:"notes" binding:"omitempty,max=1000"`
	Symptoms          *[]glucose.Symptom          `json:"symptoms" binding:"omitempty,max=20,dive"`
	Factors           *glucose.InfluencingFactors `json:"influencing_factors"`
	PersonalTarget    *glucose.TargetRange        `json:"personal_target"`
	MeasurementDevice *string                     `json:"measurement_device" binding:"omitempty,max=100"`
	Confidence        *string                     `json:"confidence" binding:"omitempty,oneof=LOW MEDIUM HIGH"`
}

func (r updateReadingRequest) toUpdate() (glucose.ReadingUpdate, error) {
	upd := glucose.ReadingUpdate{
		Value:             r.Value,
		ReadingAt:         r.ReadingAt,
		RelatedMeal:       r.RelatedMeal,
		Notes:             r.Notes,
		Symptoms:          r.Symptoms,
		Factors:           r.Factors,
		PersonalTarget:    r.PersonalTarget,
		MeasurementDevice: r.MeasurementDevice,
		Confidence:        confidence(r.Confidence),
	}
	if r.ReadingType != nil {
		rt, err := glucose.ParseReadingType(*r.ReadingType)
		if err != nil {
			return upd, apperrors.NewValidationError(err.Error())
		}
		upd.ReadingType = &rt
	}
	if r.Symptoms != nil {
		if err := uniqueSymptoms(*r.Symptoms); err != nil {
			return upd, err
		}
	}
	return upd, nil
}

func confidence(s *string) *glucose.Confidence {
	if s == nil {
		return nil
	}
	c := glucose.Confidence(*s)
	return &c
}

// uniqueSymptoms rejects a symptom list that names the same symptom twice.
func uniqueSymptoms(symptoms []glucose.Symptom) error {
	seen := mapset.NewThreadUnsafeSet[string]()
	for _, s := range symptoms {
		if !seen.Add(s.Name) {
			return apperrors.NewValidationError("symptom " + s.Name + " is listed more than once")
		}
	}
	return nil
}

/* ─── Settings ───────────────────────────────────────────────────────── */

// patchSettingsRequest is the request body for PATCH /api/glucose/settings.
// Nil fields keep their saved value; clear_target removes the target range.
type patchSettingsRequest struct {
	Timezone    *string  `json:"timezone" binding:"omitempty,max=64"`
	TargetLow   *float64 `json:"target_low" binding:"omitempty,min=20,max=600"`
	TargetHigh  *float64 `json:"target_high" binding:"omitempty,min=20,max=600"`
	ClearTarget bool     `json:"clear_target"`
}

func (p patchSettingsRequest) empty() bool {
	return p.Timezone == nil && p.TargetLow == nil && p.TargetHigh == nil && !p.ClearTarget
}

// apply merges the patch onto s.
func (p patchSettingsRequest) apply(s *store.Settings) {
	if p.Timezone != nil {
		s.Timezone = *p.Timezone
	}
	if p.ClearTarget {
		s.TargetLow, s.TargetHigh = nil, nil
	}
	if p.TargetLow != nil {
		s.TargetLow = p.TargetLow
	}
	if p.TargetHigh != nil {
		s.TargetHigh = p.TargetHigh
	}
}
