package main

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"lg/glucose-api/internal/glucose"
)

// seedTwoDays logs 100 mg/dL on 2024-03-09 and 200 mg/dL on 2024-03-10, both in
// the morning.
func seedTwoDays(t *testing.T, router *gin.Engine) {
	t.Helper()
	postReading(t, router, `{"value": 100, "reading_type": "FASTING", "reading_at": "2024-03-09T08:00:00Z"}`)
	postReading(t, router, `{"value": 200, "reading_type": "POST_MEAL_1H", "reading_at": "2024-03-10T08:00:00Z"}`)
}

func TestGetMetrics(t *testing.T) {
	router, _ := setupTest(t)
	seedTwoDays(t, router)

	w := doRequest(router, "GET", "/api/glucose/metrics", testToken, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var m glucose.PeriodMetrics
	decode(t, w, &m)

	if m.WindowDays != 30 {
		t.Errorf("expected default window of 30 days, got %d", m.WindowDays)
	}
	if m.TotalReadings != 2 {
		t.Errorf("expected 2 readings, got %d", m.TotalReadings)
	}
	if m.Average != 150 {
		t.Errorf("expected average 150, got %v", m.Average)
	}
	if m.TimeInRange != 50 || m.TimeAboveRange != 50 || m.TimeBelowRange != 0 {
		t.Errorf("expected 50/50/0 in/above/below range, got %v/%v/%v",
			m.TimeInRange, m.TimeAboveRange, m.TimeBelowRange)
	}
	if m.Min != 100 || m.Max != 200 {
		t.Errorf("expected min 100 max 200, got %v %v", m.Min, m.Max)
	}
	if m.SevenDayAvg != 150 {
		t.Errorf("expected 7 day average 150, got %v", m.SevenDayAvg)
	}
	if m.ResponseDistribution[glucose.ResponseNormal] != 1 || m.ResponseDistribution[glucose.ResponseHigh] != 1 {
		t.Errorf("expected one NORMAL and one HIGH, got %v", m.ResponseDistribution)
	}
	if count, ok := m.ResponseDistribution[glucose.ResponseCritical]; !ok || count != 0 {
		t.Errorf("expected every category to be reported, got %v", m.ResponseDistribution)
	}
	if m.TimeOfDayAverages[glucose.Morning] != 150 {
		t.Errorf("expected morning average 150, got %v", m.TimeOfDayAverages)
	}
}

func TestGetMetrics_Empty(t *testing.T) {
	router, _ := setupTest(t)

	w := doRequest(router, "GET", "/api/glucose/metrics?window_days=7", testToken, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var m glucose.PeriodMetrics
	decode(t, w, &m)
	if m.TotalReadings != 0 || m.Average != 0 || m.EstimatedHbA1c != 0 {
		t.Errorf("expected zeroed metrics, got %+v", m)
	}
}

func TestGetMetrics_InvalidWindow(t *testing.T) {
	router, _ := setupTest(t)

	w := doRequest(router, "GET", "/api/glucose/metrics?window_days=0", testToken, "")
	expectError(t, w, http.StatusBadRequest, "VALIDATION", "window_days must be a positive integer")

	w = doRequest(router, "GET", "/api/glucose/metrics?window_days=month", testToken, "")
	expectError(t, w, http.StatusBadRequest, "VALIDATION", "invalid window_days")
}

func TestGetDailySummary(t *testing.T) {
	router, _ := setupTest(t)
	seedTwoDays(t, router)

	// no date means today, 2024-03-10
	w := doRequest(router, "GET", "/api/glucose/daily", testToken, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var s glucose.DailySummary
	decode(t, w, &s)
	if s.Date.String() != "2024-03-10" || s.Count != 1 || s.Average != 200 {
		t.Errorf("expected one 200 reading on 2024-03-10, got %+v", s)
	}

	w = doRequest(router, "GET", "/api/glucose/daily?date=2024-03-09", testToken, "")
	s = glucose.DailySummary{}
	decode(t, w, &s)
	if s.Count != 1 || s.Average != 100 || s.TimeInRange != 100 {
		t.Errorf("expected one in-range 100 reading, got %+v", s)
	}
	if b := s.ByTimeOfDay[glucose.Morning]; b.Count != 1 || b.Average != 100 {
		t.Errorf("expected one morning reading averaging 100, got %+v", s.ByTimeOfDay)
	}
	if len(s.Readings) != 1 || s.Readings[0].ReadingType != glucose.TypeFasting {
		t.Errorf("expected the fasting reading, got %+v", s.Readings)
	}

	w = doRequest(router, "GET", "/api/glucose/daily?date=yesterday", testToken, "")
	expectError(t, w, http.StatusBadRequest, "VALIDATION", "invalid date")
}

func TestGetTrend(t *testing.T) {
	router, _ := setupTest(t)
	seedTwoDays(t, router)

	w := doRequest(router, "GET", "/api/glucose/trend", testToken, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var trend []glucose.DayAggregate
	decode(t, w, &trend)

	if len(trend) != 2 {
		t.Fatalf("expected 2 days, got %d", len(trend))
	}
	if trend[0].Date.String() != "2024-03-09" || trend[0].Average != 100 {
		t.Errorf("expected 2024-03-09 averaging 100 first, got %+v", trend[0])
	}
	if trend[1].Date.String() != "2024-03-10" || trend[1].Average != 200 || trend[1].TimeInRange != 0 {
		t.Errorf("expected 2024-03-10 averaging 200 out of range, got %+v", trend[1])
	}

	w = doRequest(router, "GET", "/api/glucose/trend?days=-3", testToken, "")
	expectError(t, w, http.StatusBadRequest, "VALIDATION", "days must be a positive integer")
}

func TestGetEarliestReadingDate(t *testing.T) {
	router, _ := setupTest(t)

	w := doRequest(router, "GET", "/api/glucose/earliest-date", testToken, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Date *glucose.Date `json:"date"`
	}
	decode(t, w, &resp)
	if resp.Date != nil {
		t.Errorf("expected null date without readings, got %s", resp.Date)
	}

	seedTwoDays(t, router)
	w = doRequest(router, "GET", "/api/glucose/earliest-date", testToken, "")
	resp.Date = nil
	decode(t, w, &resp)
	if resp.Date == nil || resp.Date.String() != "2024-03-09" {
		t.Errorf("expected 2024-03-09, got %v", resp.Date)
	}
}
