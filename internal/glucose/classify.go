// Package glucose holds the blood-glucose reading model, the reading classifier and
// the metrics engine that reduces a user's readings into derived statistics.
package glucose

import (
	"fmt"
	"strings"
	"time"
)

// ResponseCategory is the glycemic response band of a single reading.
type ResponseCategory string

const (
	ResponseHypoglycemic ResponseCategory = "HYPOGLYCEMIC"
	ResponseLow          ResponseCategory = "LOW"
	ResponseNormal       ResponseCategory = "NORMAL"
	ResponseElevated     ResponseCategory = "ELEVATED"
	ResponseHigh         ResponseCategory = "HIGH"
	ResponseVeryHigh     ResponseCategory = "VERY_HIGH"
	ResponseCritical     ResponseCategory = "CRITICAL"
)

// Response thresholds in mg/dL. Each is the exclusive upper bound of its band.
const (
	ThresholdHypoglycemic = 70
	ThresholdLow          = 100
	ThresholdNormal       = 140
	ThresholdElevated     = 180
	ThresholdHigh         = 250
	ThresholdVeryHigh     = 300
)

// Time-in-range band in mg/dL, both ends inclusive.
const (
	RangeLow  = 70
	RangeHigh = 180
)

// Accepted reading values in mg/dL.
const (
	MinValue = 20
	MaxValue = 600
)

var responseCategories = []ResponseCategory{
	ResponseHypoglycemic,
	ResponseLow,
	ResponseNormal,
	ResponseElevated,
	ResponseHigh,
	ResponseVeryHigh,
	ResponseCritical,
}

// ResponseCategories returns every category from lowest to highest.
func ResponseCategories() []ResponseCategory {
	return append([]ResponseCategory(nil), responseCategories...)
}

// ClassifyResponse maps a glucose value to its response band. Thresholds are strict,
// so a value sitting exactly on a threshold belongs to the band above it.
func ClassifyResponse(value float64) ResponseCategory {
	switch {
	case value < ThresholdHypoglycemic:
		return ResponseHypoglycemic
	case value < ThresholdLow:
		return ResponseLow
	case value < ThresholdNormal:
		return ResponseNormal
	case value < ThresholdElevated:
		return ResponseElevated
	case value < ThresholdHigh:
		return ResponseHigh
	case value < ThresholdVeryHigh:
		return ResponseVeryHigh
	default:
		return ResponseCritical
	}
}

// ParseResponseCategory validates a category name. Matching is case-insensitive.
func ParseResponseCategory(s string) (ResponseCategory, error) {
	for _, c := range responseCategories {
		if strings.EqualFold(s, string(c)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown response category %q", s)
}

// TimeOfDay is the bucket a reading falls in based on its local hour.
type TimeOfDay string

const (
	Morning   TimeOfDay = "MORNING"
	Afternoon TimeOfDay = "AFTERNOON"
	Evening   TimeOfDay = "EVENING"
	Overnight TimeOfDay = "OVERNIGHT"
)

// TimesOfDay returns the buckets in day order, starting with MORNING.
func TimesOfDay() []TimeOfDay {
	return []TimeOfDay{Morning, Afternoon, Evening, Overnight}
}

// ClassifyTimeOfDay buckets t by its hour in t's own location:
// [5,12) morning, [12,17) afternoon, [17,22) evening, anything else overnight.
func ClassifyTimeOfDay(t time.Time) TimeOfDay {
	h := t.Hour()
	switch {
	case h >= 5 && h < 12:
		return Morning
	case h >= 12 && h < 17:
		return Afternoon
	case h >= 17 && h < 22:
		return Evening
	default:
		return Overnight
	}
}

// ReadingType describes the circumstances a reading was taken in.
type ReadingType string

const (
	TypeFasting     ReadingType = "FASTING"
	TypePreMeal     ReadingType = "PRE_MEAL"
	TypePostMeal1H  ReadingType = "POST_MEAL_1H"
	TypePostMeal2H  ReadingType = "POST_MEAL_2H"
	TypePostMeal3H  ReadingType = "POST_MEAL_3H"
	TypeBeforeSleep ReadingType = "BEFORE_SLEEP"
	TypeOvernight   ReadingType = "OVERNIGHT"
	TypeRandom      ReadingType = "RANDOM"
	TypeExercise    ReadingType = "EXERCISE"
	TypeSymptomatic ReadingType = "SYMPTOMATIC"
)

var readingTypes = []ReadingType{
	TypeFasting,
	TypePreMeal,
	TypePostMeal1H,
	TypePostMeal2H,
	TypePostMeal3H,
	TypeBeforeSleep,
	TypeOvernight,
	TypeRandom,
	TypeExercise,
	TypeSymptomatic,
}

// ReadingTypes returns every reading type in declaration order.
func ReadingTypes() []ReadingType {
	return append([]ReadingType(nil), readingTypes...)
}

// ParseReadingType validates a reading type name. Matching is case-insensitive.
func ParseReadingType(s string) (ReadingType, error) {
	for _, t := range readingTypes {
		if strings.EqualFold(s, string(t)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown reading type %q", s)
}
