package api

import (
	"time"

	"github.com/starford/coursepress/internal/ingest"
	"github.com/starford/coursepress/internal/models"
	"github.com/starford/coursepress/internal/store"
)

// SyncResponse is returned by POST /sync-markdown.
type SyncResponse struct {
	Success   bool               `json:"success"`
	Message   string             `json:"message"`
	RunID     string             `json:"runId"`
	Posts     []models.Summary   `json:"posts"`
	Errors    []ingest.FileError `json:"errors"`
	Warnings  []ingest.Warning   `json:"warnings"`
	Timestamp time.Time          `json:"timestamp"`
}

// StoreHealth reports store connectivity.
type StoreHealth struct {
	Driver    string `json:"driver"`
	Connected bool   `json:"connected"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status      string      `json:"status"`
	Service     string      `json:"service"`
	Version     string      `json:"version"`
	Environment string      `json:"environment"`
	Uptime      float64     `json:"uptime"`
	Timestamp   time.Time   `json:"timestamp"`
	Store       StoreHealth `json:"store"`
}

// IndexResponse is returned by GET /.
type IndexResponse struct {
	Service   string            `json:"service"`
	Version   string            `json:"version"`
	Status    string            `json:"status"`
	Endpoints map[string]string `json:"endpoints"`
}

// PostListResponse wraps post collections.
type PostListResponse struct {
	Posts []models.Post `json:"posts"`
	Total int           `json:"total"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []store.SearchResult `json:"results"`
}
