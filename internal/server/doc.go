// Package server implements the HTTP server using Echo framework.
//
// Routes: public ranking reads (/api/themes/:id/ranking), internal counter
// hooks and jobs (/internal/...), observability (/health, /metrics, /version).
// Handlers split by concern: handlers_api.go, handlers_health.go.
package server
