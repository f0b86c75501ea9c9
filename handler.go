package main

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"lg/glucose-api/internal/bootstrap"
	apperrors "lg/glucose-api/internal/errors"
	"lg/glucose-api/internal/glucose"
	"lg/glucose-api/internal/logger"
	"lg/glucose-api/internal/store"
)

// Handler holds shared dependencies (store, engine, logger) for all route handlers.
type Handler struct {
	store  store.Store
	engine *glucose.Engine
	log    *zap.SugaredLogger
	tokens *tokenCache
}

func newHandler(app *bootstrap.App) (*Handler, error) {
	tokens, err := newTokenCache(defaultTokenCacheSize, defaultTokenCacheExpiry)
	if err != nil {
		return nil, err
	}
	return &Handler{
		store:  app.Store,
		engine: app.Engine,
		log:    app.Log,
		tokens: tokens,
	}, nil
}

/* ─── Error responses ─────────────────────────────────────────────────── */

// apiError returns a consistent JSON error response: {"error": "message", "code": "CODE"}.
func apiError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message, "code": codeForStatus(status)})
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return apperrors.ErrValidation.Code
	case http.StatusUnauthorized:
		return apperrors.ErrUnauthorized.Code
	case http.StatusNotFound:
		return apperrors.ErrNotFound.Code
	case http.StatusServiceUnavailable:
		return apperrors.ErrDatabase.Code
	default:
		return apperrors.ErrInternal.Code
	}
}

// writeError maps an engine or store error to its response. Server-side failures are
// logged at error level; caller mistakes only at debug.
func (h *Handler) writeError(c *gin.Context, err error) {
	appErr, ok := apperrors.As(err)
	if !ok {
		appErr = apperrors.NewInternalError(err)
	}

	status := appErr.HTTPStatus()
	fields := append(appErr.LogFields(), "path", c.FullPath(), "userId", c.GetInt("user_id"))
	if status >= http.StatusInternalServerError {
		h.log.Errorw("request failed", fields...)
	} else {
		h.log.Debugw("request rejected", fields...)
	}

	c.JSON(status, gin.H{"error": appErr.Message, "code": appErr.Code})
}

// bindError reports a ShouldBindJSON failure. Validator errors name each offending
// field and the constraint it broke.
func bindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	apiError(c, http.StatusBadRequest, strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max", "lte":
		switch fe.Kind() {
		case reflect.String:
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		case reflect.Slice:
			return fmt.Sprintf("%s must have at most %s entries", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gtfield":
		return fmt.Sprintf("%s must be greater than %s", field, strings.ToLower(fe.Param()))
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

// useJSONFieldNames makes validator errors name fields by their JSON keys.
func useJSONFieldNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
}

/* ─── Server setup ────────────────────────────────────────────────────── */

// newRouter builds the gin engine with request logging and every route.
func (h *Handler) newRouter() *gin.Engine {
	useJSONFieldNames()

	router := gin.New()
	router.Use(gin.Recovery(), logger.Gin(h.log))
	_ = router.SetTrustedProxies(nil)
	h.registerRoutes(router)
	return router
}

// registerRoutes registers all API routes on the router.
func (h *Handler) registerRoutes(router *gin.Engine) {
	// Public routes
	router.GET("/healthz", h.healthz)
	router.POST("/api/login", h.login)

	// Authenticated routes
	api := router.Group("/api/glucose", h.authMiddleware())
	api.GET("/readings", h.listReadings)
	api.POST("/readings", h.createReading)
	api.GET("/readings/:id", h.getReading)
	api.PUT("/readings/:id", h.updateReading)
	api.DELETE("/readings/:id", h.deleteReading)
	api.GET("/metrics", h.getMetrics)
	api.GET("/daily", h.getDailySummary)
	api.GET("/trend", h.getTrend)
	api.GET("/earliest-date", h.getEarliestReadingDate)
	api.GET("/settings", h.getSettings)
	api.PATCH("/settings", h.patchSettings)
}

// healthz reports whether the store is reachable.
// GET /healthz (public).
func (h *Handler) healthz(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		h.writeError(c, apperrors.NewDatabaseError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
