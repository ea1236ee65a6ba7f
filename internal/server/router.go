package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/l0p7/regiond/internal/hierarchy"
)

// Client-facing messages are a contract consumed by external integrations and
// must stay stable.
const (
	msgMissingLocation  = "Missing required parameter: location_id"
	msgInvalidLocation  = "Invalid location_id: must be numeric"
	msgInvalidLevel     = "Invalid level: must be an integer between 0 and 5"
	msgLevelAboveRoot   = "Invalid level: must be below the requested location's level"
	msgStoreUnavailable = "Location store unavailable"
)

// LookupService is the minimal surface the router needs from the hierarchy
// service.
type LookupService interface {
	Lookup(ctx context.Context, req hierarchy.Request) ([]byte, bool, error)
}

// NewHandler wires the HTTP routing facade to the resolution service. Routes:
//
//	GET /ldata/{location_id}            children of the location
//	GET /ldata/{location_id}/{level}    descendants at the given level
//	GET /healthz                        liveness probe
//
// The language query parameter selects the translation overlay.
func NewHandler(svc LookupService, logger *slog.Logger) http.Handler {
	if svc == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		})
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	routerLogger := logger.With(slog.String("component", "router"))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		trimmed := strings.Trim(r.URL.Path, "/")
		parts := strings.Split(trimmed, "/")
		switch {
		case trimmed == "":
			http.NotFound(w, r)
		case parts[0] == "healthz" || parts[0] == "health":
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		case parts[0] == "ldata":
			serveLdata(w, r, svc, routerLogger, parts[1:])
		default:
			http.NotFound(w, r)
		}
	})
}

func serveLdata(w http.ResponseWriter, r *http.Request, svc LookupService, logger *slog.Logger, args []string) {
	if len(args) == 0 || args[0] == "" {
		writeError(w, http.StatusBadRequest, msgMissingLocation)
		return
	}
	if len(args) > 2 {
		http.NotFound(w, r)
		return
	}

	rootID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || rootID <= 0 {
		writeError(w, http.StatusBadRequest, msgInvalidLocation)
		return
	}

	var level *int
	if len(args) == 2 {
		parsed, err := strconv.Atoi(args[1])
		if err != nil || parsed < hierarchy.MinLevel || parsed > hierarchy.MaxLevel {
			writeError(w, http.StatusBadRequest, msgInvalidLevel)
			return
		}
		level = &parsed
	}

	req := hierarchy.Request{
		RootID:   rootID,
		Level:    level,
		Language: r.URL.Query().Get("language"),
	}
	payload, hit, err := svc.Lookup(r.Context(), req)
	if err != nil {
		status, message := mapServiceError(err, rootID)
		if status >= http.StatusInternalServerError {
			logger.Error("lookup failed", slog.Int64("root_id", rootID), slog.Any("error", err))
		}
		writeError(w, status, message)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if hit {
		w.Header().Set("X-Cache", "hit")
	} else {
		w.Header().Set("X-Cache", "miss")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

func mapServiceError(err error, rootID int64) (int, string) {
	var notFound *hierarchy.NotFoundError
	if errors.As(err, &notFound) {
		return http.StatusNotFound, fmt.Sprintf("Location not found: %d", notFound.ID)
	}
	var invalidLevel *hierarchy.InvalidLevelError
	if errors.As(err, &invalidLevel) {
		return http.StatusBadRequest, msgLevelAboveRoot
	}
	var storeErr *hierarchy.StoreError
	if errors.As(err, &storeErr) {
		return http.StatusServiceUnavailable, msgStoreUnavailable
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 499, "request cancelled"
	}
	return http.StatusInternalServerError, fmt.Sprintf("Internal error resolving location %d", rootID)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
