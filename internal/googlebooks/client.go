// Package googlebooks looks catalog records up in the Google Books volumes
// API and writes the matches as the bibliographic landing file.
package googlebooks

import (
	"context"
	"fmt"
	"time"

	books "google.golang.org/api/books/v1"
	"google.golang.org/api/option"
)

// VolumeSearcher returns the best matching volume for a query, or nil when
// nothing matches.
type VolumeSearcher interface {
	Search(ctx context.Context, query string) (*books.Volume, error)
}

// Client searches the volumes API
type Client struct {
	service *books.Service
	timeout time.Duration
}

// NewClient creates a volumes API client. An empty apiKey makes
// unauthenticated calls, which Google throttles harder.
func NewClient(ctx context.Context, apiKey string, timeout time.Duration) (*Client, error) {
	opt := option.WithoutAuthentication()
	if apiKey != "" {
		opt = option.WithAPIKey(apiKey)
	}

	service, err := books.NewService(ctx, opt)
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Books client: %w", err)
	}

	return &Client{service: service, timeout: timeout}, nil
}

// Search runs a volumes.list call with maxResults=1
func (c *Client) Search(ctx context.Context, query string) (*books.Volume, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.service.Volumes.List(query).MaxResults(1).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	if resp.TotalItems == 0 || len(resp.Items) == 0 {
		return nil, nil
	}
	return resp.Items[0], nil
}
