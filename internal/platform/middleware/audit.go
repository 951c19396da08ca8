package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/careflow/hms/internal/platform/auth"
)

// AuditEntry captures who performed which action on what, when, and from where.
type AuditEntry struct {
	UserID       string
	UserRoles    []string
	ResourceType string
	ResourceID   string
	Action       string // read, create, update, delete
	IPAddress    string
	Path         string
	Method       string
	Timestamp    time.Time
	RequestID    string
	StatusCode   int
}

// AuditRecorder persists audit entries. The middleware is decoupled from the
// concrete sink so tests can provide a mock implementation.
type AuditRecorder interface {
	RecordAction(entry AuditEntry) error
}

// AuditRecorderFunc is a function adapter for AuditRecorder.
type AuditRecorderFunc func(entry AuditEntry) error

func (f AuditRecorderFunc) RecordAction(entry AuditEntry) error {
	return f(entry)
}

// Audit returns middleware that records every mutating call under /api/v1 to
// the audit trail and emits a structured log line. Recorder failures are
// logged and never fail the request.
func Audit(logger zerolog.Logger, recorders ...AuditRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			path := req.URL.Path

			if !strings.HasPrefix(path, "/api/v1/") {
				return next(c)
			}

			// Execute the handler first so the response status is known.
			err := next(c)

			entry := AuditEntry{
				Timestamp:  time.Now().UTC(),
				Path:       path,
				Method:     req.Method,
				IPAddress:  c.RealIP(),
				StatusCode: c.Response().Status,
				Action:     httpMethodToAction(req.Method),
			}

			ctx := req.Context()
			entry.UserID = auth.UserIDFromContext(ctx)
			entry.UserRoles = auth.RolesFromContext(ctx)

			if rid, ok := c.Get("request_id").(string); ok {
				entry.RequestID = rid
			}

			entry.ResourceType, entry.ResourceID = splitResourcePath(path)

			// The trail only keeps mutations; reads are log-only.
			if entry.Action != "read" {
				for _, rec := range recorders {
					if rec == nil {
						continue
					}
					if recErr := rec.RecordAction(entry); recErr != nil {
						logger.Error().Err(recErr).
							Str("request_id", entry.RequestID).
							Msg("failed to record audit entry")
					}
				}
			}

			logger.Info().
				Str("type", "audit").
				Str("request_id", entry.RequestID).
				Str("user_id", entry.UserID).
				Strs("user_roles", entry.UserRoles).
				Str("resource_type", entry.ResourceType).
				Str("resource_id", entry.ResourceID).
				Str("action", entry.Action).
				Str("method", entry.Method).
				Str("path", entry.Path).
				Str("remote_ip", entry.IPAddress).
				Int("status", entry.StatusCode).
				Msg("api_access")

			return err
		}
	}
}

// httpMethodToAction maps HTTP methods to audit action codes.
func httpMethodToAction(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead:
		return "read"
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return "read"
	}
}

// splitResourcePath parses "/api/v1/visits/123/vitals" into ("visits", "123").
func splitResourcePath(path string) (string, string) {
	segments := strings.Split(strings.TrimPrefix(path, "/api/v1/"), "/")
	resource := "unknown"
	id := ""
	if len(segments) > 0 && segments[0] != "" {
		resource = segments[0]
	}
	if len(segments) > 1 && segments[1] != "" {
		id = segments[1]
	}
	return resource, id
}
