package main

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"lg/glucose-api/internal/glucose"
)

// listReadings returns one page of the authenticated user's readings, newest first.
// GET /api/glucose/readings?start_date&end_date&reading_type&response&limit&offset.
// All params are optional; dates are YYYY-MM-DD in the user's timezone and inclusive.
func (h *Handler) listReadings(c *gin.Context) {
	userID := c.GetInt("user_id")
	var q glucose.ListQuery

	if s := c.Query("start_date"); s != "" {
		d, err := glucose.ParseDate(s)
		if err != nil {
			apiError(c, http.StatusBadRequest, "invalid start_date, expected YYYY-MM-DD")
			return
		}
		q.StartDate = &d
	}
	if s := c.Query("end_date"); s != "" {
		d, err := glucose.ParseDate(s)
		if err != nil {
			apiError(c, http.StatusBadRequest, "invalid end_date, expected YYYY-MM-DD")
			return
		}
		q.EndDate = &d
	}
	if s := c.Query("reading_type"); s != "" {
		rt, err := glucose.ParseReadingType(s)
		if err != nil {
			apiError(c, http.StatusBadRequest, err.Error())
			return
		}
		q.Type = &rt
	}
	if s := c.Query("response"); s != "" {
		rc, err := glucose.ParseResponseCategory(s)
		if err != nil {
			apiError(c, http.StatusBadRequest, err.Error())
			return
		}
		q.Response = &rc
	}
	var ok bool
	if q.Limit, ok = intQuery(c, "limit", 0); !ok {
		return
	}
	if q.Offset, ok = intQuery(c, "offset", 0); !ok {
		return
	}

	page, err := h.engine.List(c.Request.Context(), userID, q)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// createReading logs a new reading. The response category, local date and
// time-of-day bucket are derived server-side.
// POST /api/glucose/readings. Returns 201 with the stored reading.
func (h *Handler) createReading(c *gin.Context) {
	userID := c.GetInt("user_id")

	var body createReadingRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		bindError(c, err)
		return
	}
	in, err := body.toNewReading()
	if err != nil {
		h.writeError(c, err)
		return
	}

	r, err := h.engine.Create(c.Request.Context(), userID, in)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, r)
}

// getReading returns one reading.
// GET /api/glucose/readings/:id. 404 if it doesn't exist or belongs to someone else.
func (h *Handler) getReading(c *gin.Context) {
	userID := c.GetInt("user_id")
	id, ok := idParam(c)
	if !ok {
		return
	}

	r, err := h.engine.Get(c.Request.Context(), userID, id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, r)
}

// updateReading partially updates a reading.
// PUT /api/glucose/readings/:id. Omitted fields keep their current values; changing
// value or reading_at re-derives the fields computed from them.
func (h *Handler) updateReading(c *gin.Context) {
	userID := c.GetInt("user_id")
	id, ok := idParam(c)
	if !ok {
		return
	}

	var body updateReadingRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		bindError(c, err)
		return
	}
	upd, err := body.toUpdate()
	if err != nil {
		h.writeError(c, err)
		return
	}

	r, err := h.engine.Update(c.Request.Context(), userID, id, upd)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, r)
}

// deleteReading removes a reading.
// DELETE /api/glucose/readings/:id. Returns 204 on success, 404 if not found.
func (h *Handler) deleteReading(c *gin.Context) {
	userID := c.GetInt("user_id")
	id, ok := idParam(c)
	if !ok {
		return
	}

	if err := h.engine.Delete(c.Request.Context(), userID, id); err != nil {
		h.writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// idParam parses the :id path param, writing a 400 when it isn't a positive integer.
func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		apiError(c, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

// intQuery parses an optional integer query param, writing a 400 when it is malformed.
func intQuery(c *gin.Context, name string, def int) (int, bool) {
	s := c.Query(name)
	if s == "" {
		return def, true
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid "+name+", expected an integer")
		return 0, false
	}
	return n, true
}
