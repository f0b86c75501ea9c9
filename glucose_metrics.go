package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lg/glucose-api/internal/glucose"
)

const (
	defaultMetricsWindowDays = 30
	defaultTrendDays         = 7
)

// getMetrics returns aggregate statistics over a trailing window.
// GET /api/glucose/metrics?window_days=N (default 30).
func (h *Handler) getMetrics(c *gin.Context) {
	userID := c.GetInt("user_id")
	days, ok := intQuery(c, "window_days", defaultMetricsWindowDays)
	if !ok {
		return
	}

	m, err := h.engine.PeriodMetrics(c.Request.Context(), userID, days)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, m)
}

// getDailySummary summarizes one day of readings.
// GET /api/glucose/daily?date=YYYY-MM-DD. Defaults to today in the user's timezone.
func (h *Handler) getDailySummary(c *gin.Context) {
	userID := c.GetInt("user_id")

	var date *glucose.Date
	if s := c.Query("date"); s != "" {
		d, err := glucose.ParseDate(s)
		if err != nil {
			apiError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
			return
		}
		date = &d
	}

	s, err := h.engine.DailySummary(c.Request.Context(), userID, date)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, s)
}

// getTrend returns per-day aggregates, oldest first. Days without readings are
// omitted rather than returned as zeros.
// GET /api/glucose/trend?days=N (default 7).
func (h *Handler) getTrend(c *gin.Context) {
	userID := c.GetInt("user_id")
	days, ok := intQuery(c, "days", defaultTrendDays)
	if !ok {
		return
	}

	trend, err := h.engine.Trend(c.Request.Context(), userID, days)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, trend)
}

// getEarliestReadingDate returns the local date of the user's first reading.
// GET /api/glucose/earliest-date. Returns {"date": null} if there are no readings.
func (h *Handler) getEarliestReadingDate(c *gin.Context) {
	userID := c.GetInt("user_id")

	d, err := h.engine.EarliestDate(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"date": d})
}
