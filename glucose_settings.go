package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "lg/glucose-api/internal/errors"
	"lg/glucose-api/internal/store"
)

// getSettings returns the glucose settings for the authenticated user. Users who
// never saved settings get the defaults (server timezone, no target range).
// GET /api/glucose/settings.
func (h *Handler) getSettings(c *gin.Context) {
	userID := c.GetInt("user_id")

	s, err := h.loadSettings(c, userID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, s)
}

// patchSettings updates only the provided settings fields.
// PATCH /api/glucose/settings. Uses pointer fields in the request body to
// distinguish "not provided" from zero. The merged result is validated as a whole,
// so target_low and target_high may be sent separately as long as low < high.
func (h *Handler) patchSettings(c *gin.Context) {
	userID := c.GetInt("user_id")

	var body patchSettingsRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		bindError(c, err)
		return
	}
	if body.empty() {
		apiError(c, http.StatusBadRequest, "no fields to update")
		return
	}

	s, err := h.loadSettings(c, userID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	body.apply(s)
	if err := store.ValidateSettings(s); err != nil {
		h.writeError(c, err)
		return
	}

	saved, err := h.store.SaveSettings(c.Request.Context(), s)
	if err != nil {
		h.writeError(c, apperrors.NewDatabaseError(err).WithContext("operation", "save settings"))
		return
	}

	h.log.Infow("updated glucose settings", "userId", userID, "timezone", saved.Timezone)
	c.JSON(http.StatusOK, saved)
}

func (h *Handler) loadSettings(c *gin.Context, userID int) (*store.Settings, error) {
	s, err := h.store.GetSettings(c.Request.Context(), userID)
	if apperrors.IsNotFound(err) {
		return store.DefaultSettings(userID), nil
	}
	if err != nil {
		return nil, apperrors.NewDatabaseError(err).WithContext("operation", "load settings")
	}
	return s, nil
}
