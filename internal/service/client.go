package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"

	"github.com/llehouerou/crate/internal/catalog"
)

const apiPrefix = "/api/v1"

// Client provides access to the download service API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	now        func() time.Time
}

// NewClient creates a new service API client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		now:        time.Now,
	}
}

// SearchArtists returns the artists matching query.
func (c *Client) SearchArtists(ctx context.Context, query string) ([]catalog.Artist, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &ValidationError{Field: "query", Reason: "must not be empty"}
	}

	var result searchResponse
	path := apiPrefix + "/search/artists?q=" + url.QueryEscape(query)
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return result.Artists, nil
}

// GetArtistAlbums returns the albums of an artist.
func (c *Client) GetArtistAlbums(ctx context.Context, artistID string) ([]catalog.Album, error) {
	if artistID == "" {
		return nil, &ValidationError{Field: "artistId", Reason: "must not be empty"}
	}

	var result []catalog.Album
	path := apiPrefix + "/artists/" + url.PathEscape(artistID) + "/albums"
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// InitiateDownload asks the service to download the given albums.
func (c *Client) InitiateDownload(ctx context.Context, albumIDs []string, opts Options) (Initiation, error) {
	if len(albumIDs) == 0 {
		return Initiation{}, &ValidationError{Field: "albumIds", Reason: "at least one album is required"}
	}

	var result Initiation
	body := initiateRequest{AlbumIDs: albumIDs, Options: opts}
	if err := c.do(ctx, http.MethodPost, apiPrefix+"/downloads", body, &result); err != nil {
		return Initiation{}, err
	}
	if result.DownloadID == "" {
		return Initiation{}, &APIError{StatusCode: http.StatusOK, Message: "response is missing downloadId"}
	}
	if !result.Status.IsValid() {
		result.Status = catalog.StatusPending
	}
	return result, nil
}

// GetDownloadStatus fetches the current state of a download.
func (c *Client) GetDownloadStatus(ctx context.Context, downloadID string) (catalog.DownloadRecord, error) {
	if downloadID == "" {
		return catalog.DownloadRecord{}, &ValidationError{Field: "downloadId", Reason: "must not be empty"}
	}

	var result downloadStatus
	path := apiPrefix + "/downloads/" + url.PathEscape(downloadID)
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return catalog.DownloadRecord{}, err
	}
	if result.ID == "" {
		result.ID = downloadID
	}
	return result.record(c.now()), nil
}

// CancelDownload cancels a download on the service.
func (c *Client) CancelDownload(ctx context.Context, downloadID string) error {
	if downloadID == "" {
		return &ValidationError{Field: "downloadId", Reason: "must not be empty"}
	}
	return c.do(ctx, http.MethodDelete, apiPrefix+"/downloads/"+url.PathEscape(downloadID), nil, nil)
}

// do sends a request and decodes a JSON response into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	body := io.Reader(http.NoBody)
	if in != nil {
		jsonBody, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return &NetworkError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(data)}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
}

// errorMessage extracts a readable message from an error body.
func errorMessage(body []byte) string {
	if gjson.ValidBytes(body) {
		for _, path := range []string{"message", "error", "title"} {
			if v := gjson.GetBytes(body, path); v.Type == gjson.String && v.Str != "" {
				return v.Str
			}
		}
	}
	return strings.TrimSpace(string(body))
}
