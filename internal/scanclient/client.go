// Package scanclient calls the detection/matching backend over HTTP.
package scanclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"roomscan/pkg/domain"
)

const (
	defaultTimeout    = 15 * time.Second
	matchConcurrency  = 4
	backendMatchCap   = 10
	defaultMatchLimit = 3
)

// Client calls the scan service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// APIError represents a scan service error response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// NewClient constructs a scan service client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type detectResponse struct {
	Success    bool                       `json:"success"`
	Detections []domain.DetectedFurniture `json:"detections"`
	Error      string                     `json:"error"`
}

type matchResponse struct {
	Success  bool                  `json:"success"`
	Products []domain.ProductMatch `json:"products"`
	Category string                `json:"category"`
	Error    string                `json:"error"`
}

// Detect uploads an image and returns the furniture found in it.
func (c *Client) Detect(ctx context.Context, image []byte, filename, contentType string) ([]domain.DetectedFurniture, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", filename)
	if err != nil {
		return nil, fmt.Errorf("build upload: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, fmt.Errorf("build upload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("build upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/detect", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var resp detectResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("detection failed: %s", orUnknown(resp.Error))
	}
	return resp.Detections, nil
}

// Matches returns product matches for a furniture category. The
// backend caps limit at 10; limits at or below zero use the free-tier
// default.
func (c *Client) Matches(ctx context.Context, category string, limit int) ([]domain.ProductMatch, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, fmt.Errorf("category required")
	}
	if limit <= 0 {
		limit = defaultMatchLimit
	}
	if limit > backendMatchCap {
		limit = backendMatchCap
	}

	query := url.Values{}
	query.Set("category", category)
	query.Set("limit", strconv.Itoa(limit))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/products/match?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var resp matchResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("matching failed: %s", orUnknown(resp.Error))
	}
	return resp.Products, nil
}

// MatchAll fetches matches for every detection concurrently, preserving
// input order in the result.
func (c *Client) MatchAll(ctx context.Context, detections []domain.DetectedFurniture, limit int) ([][]domain.ProductMatch, error) {
	results := make([][]domain.ProductMatch, len(detections))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(matchConcurrency)
	for i, det := range detections {
		g.Go(func() error {
			matches, err := c.Matches(gctx, det.Label, limit)
			if err != nil {
				return fmt.Errorf("match %q: %w", det.Label, err)
			}
			results[i] = matches
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(data))
		var envelope struct {
			Detail string `json:"detail"`
			Error  string `json:"error"`
		}
		if json.Unmarshal(data, &envelope) == nil {
			if envelope.Detail != "" {
				msg = envelope.Detail
			} else if envelope.Error != "" {
				msg = envelope.Error
			}
		}
		return &APIError{Status: resp.StatusCode, Message: orUnknown(msg)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func orUnknown(msg string) string {
	if strings.TrimSpace(msg) == "" {
		return "unknown error"
	}
	return msg
}
