// Package routes is the HTTP intake surface: submit, status, cancel and the
// operational endpoints.
package routes

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"compressd/config"
	"compressd/history"
	"compressd/models"
	"compressd/scheduler"
	"compressd/utils"
)

var (
	cfg   *config.Config
	sched *scheduler.Scheduler
	store *history.Store
)

// Setup wires the handlers' dependencies. Call once before registering.
func Setup(c *config.Config, s *scheduler.Scheduler, h *history.Store) {
	cfg = c
	sched = s
	store = h
}

// Register attaches all handlers to the default mux.
func Register() {
	http.HandleFunc("/submit", SubmitHandler)
	http.HandleFunc("/status", StatusHandler)
	http.HandleFunc("/cancel", CancelHandler)
	http.HandleFunc("/jobs", JobQueryHandler)
	http.HandleFunc("/jobs/list", JobListHandler)
	http.HandleFunc("/health", HealthHandler)
	http.HandleFunc("/version", VersionHandler)
}

// verifyAuth checks the bearer token when a JWT secret is configured. With
// no secret set the API is open (development mode).
func verifyAuth(r *http.Request) (*models.AuthClaims, error) {
	if cfg.JWTSecret == "" {
		return &models.AuthClaims{}, nil
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, fmt.Errorf("authorization header required")
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == authHeader {
		return nil, fmt.Errorf("invalid authorization header format")
	}

	return utils.VerifyToken(token, utils.VerifyConfig{
		SecretKey: []byte(cfg.JWTSecret),
	})
}

// statusFor maps pipeline errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrCapacityExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, models.ErrJobNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrJobTerminal):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
