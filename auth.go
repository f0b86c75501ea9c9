package main

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	apperrors "lg/glucose-api/internal/errors"
)

// dummyHash is compared against when a login username isn't found, so unknown
// usernames take as long as wrong passwords.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy"), bcrypt.DefaultCost)

// login verifies username/password and returns the user's auth token.
// POST /api/login (public, no auth required).
func (h *Handler) login(c *gin.Context) {
	var body loginRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		bindError(c, err)
		return
	}

	u, lookupErr := h.store.UserByUsername(c.Request.Context(), body.Username)
	if lookupErr != nil && !apperrors.IsNotFound(lookupErr) {
		h.writeError(c, apperrors.NewDatabaseError(lookupErr))
		return
	}

	hashToCheck := string(dummyHash)
	if lookupErr == nil {
		hashToCheck = u.Password
	}
	compareErr := bcrypt.CompareHashAndPassword([]byte(hashToCheck), []byte(body.Password))

	if lookupErr != nil || compareErr != nil {
		apiError(c, http.StatusUnauthorized, "invalid credentials")
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": u.AuthToken, "user_id": u.ID})
}

// authMiddleware validates the Bearer token and sets user_id on the context.
func (h *Handler) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			apiError(c, http.StatusUnauthorized, "missing or invalid authorization header")
			c.Abort()
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")

		if userID, ok := h.tokens.get(token); ok {
			c.Set("user_id", userID)
			c.Next()
			return
		}

		u, err := h.store.UserByToken(c.Request.Context(), token)
		if apperrors.IsNotFound(err) {
			apiError(c, http.StatusUnauthorized, "invalid token")
			c.Abort()
			return
		}
		if err != nil {
			h.writeError(c, apperrors.NewDatabaseError(err))
			c.Abort()
			return
		}

		h.tokens.set(token, u.ID)
		c.Set("user_id", u.ID)
		c.Next()
	}
}
