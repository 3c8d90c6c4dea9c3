// Package service is the client for the external download/search service.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/llehouerou/crate/internal/catalog"
)

// Service is the download/search collaborator the client state core drives.
type Service interface {
	SearchArtists(ctx context.Context, query string) ([]catalog.Artist, error)
	GetArtistAlbums(ctx context.Context, artistID string) ([]catalog.Album, error)
	InitiateDownload(ctx context.Context, albumIDs []string, opts Options) (Initiation, error)
	GetDownloadStatus(ctx context.Context, downloadID string) (catalog.DownloadRecord, error)
	CancelDownload(ctx context.Context, downloadID string) error
}

// Options are passed along with a download request.
type Options struct {
	Quality   string `json:"quality,omitempty"`
	Format    string `json:"format,omitempty"`
	OutputDir string `json:"outputDir,omitempty"`
}

// Initiation is the service's answer to a download request.
type Initiation struct {
	DownloadID string         `json:"downloadId"`
	Status     catalog.Status `json:"status"`
	Message    string         `json:"message"`
}

// ErrNotFound reports that the requested resource no longer exists.
var ErrNotFound = errors.New("resource not found")

// ValidationError is returned before any request is made when input is unusable.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NetworkError wraps a transport failure.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// APIError is a non-success response from the service.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("API returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("API returned status %d: %s", e.StatusCode, e.Message)
}

// Is makes a 404 match ErrNotFound.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Retryable reports whether the failure is on the server side.
func (e *APIError) Retryable() bool {
	return e.StatusCode >= 500
}
