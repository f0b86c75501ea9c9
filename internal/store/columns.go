package store

import (
	"encoding/json"
	"fmt"

	"lg/glucose-api/internal/glucose"
)

// ReadingJSON holds a reading's document columns in their encoded form. A nil field
// is stored as NULL.
type ReadingJSON struct {
	Symptoms *string
	Factors  *string
}

// EncodeReadingJSON encodes the symptom list and influencing factors of r.
func EncodeReadingJSON(r *glucose.Reading) (ReadingJSON, error) {
	var cols ReadingJSON
	if len(r.Symptoms) > 0 {
		b, err := json.Marshal(r.Symptoms)
		if err != nil {
			return cols, fmt.Errorf("encoding symptoms: %w", err)
		}
		s := string(b)
		cols.Symptoms = &s
	}
	if r.Factors != nil {
		b, err := json.Marshal(r.Factors)
		if err != nil {
			return cols, fmt.Errorf("encoding influencing factors: %w", err)
		}
		s := string(b)
		cols.Factors = &s
	}
	return cols, nil
}

// DecodeReadingJSON fills the symptom list and influencing factors of r from their
// raw column values. Empty input leaves the field unset.
func DecodeReadingJSON(r *glucose.Reading, symptoms, factors []byte) error {
	if len(symptoms) > 0 {
		if err := json.Unmarshal(symptoms, &r.Symptoms); err != nil {
			return fmt.Errorf("decoding symptoms of reading %d: %w", r.ID, err)
		}
	}
	if len(factors) > 0 {
		var f glucose.InfluencingFactors
		if err := json.Unmarshal(factors, &f); err != nil {
			return fmt.Errorf("decoding influencing factors of reading %d: %w", r.ID, err)
		}
		r.Factors = &f
	}
	return nil
}

// TargetColumns splits an optional target range into its two nullable columns.
func TargetColumns(t *glucose.TargetRange) (low, high *float64) {
	if t == nil {
		return nil, nil
	}
	return &t.Low, &t.High
}

// TargetFromColumns joins two nullable columns back into a target range.
func TargetFromColumns(low, high *float64) *glucose.TargetRange {
	if low == nil || high == nil {
		return nil
	}
	return &glucose.TargetRange{Low: *low, High: *high}
}
