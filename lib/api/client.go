// Copyright 2026 The JobFunnel Authors
// SPDX-License-Identifier: Apache-2.0

// Package api is the HTTP client for the funnel tracker backend.
//
// Authentication is a session cookie set by the backend's login flow;
// the client carries a cookie jar so the session survives across
// calls. For local development the client can instead stamp an
// X-User-Id header, matching the backend's dev-header mode.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"strings"
	"time"
)

// Error is a non-2xx backend response. Body holds the response text,
// usually a JSON detail message.
type Error struct {
	Status int
	Body   string
}

func (apiError *Error) Error() string {
	if apiError.Body != "" {
		return fmt.Sprintf("backend returned %d: %s", apiError.Status, apiError.Body)
	}
	return fmt.Sprintf("backend returned %d", apiError.Status)
}

// IsAuthRequired reports whether err is a 401 from the backend.
func IsAuthRequired(err error) bool {
	var apiError *Error
	return errors.As(err, &apiError) && apiError.Status == http.StatusUnauthorized
}

// Client talks to one backend instance. Safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	devUserID  int
}

// Option configures a Client.
type Option func(*Client)

// WithDevUser makes the client send an X-User-Id header on every
// request. Only honored by backends running with dev-header auth.
func WithDevUser(userID int) Option {
	return func(client *Client) {
		client.devUserID = userID
	}
}

// WithHTTPClient replaces the underlying HTTP client. The cookie jar
// of the replacement is used as-is.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(client *Client) {
		client.httpClient = httpClient
	}
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string, options ...Option) *Client {
	jar, _ := cookiejar.New(nil)
	client := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Jar:     jar,
			Timeout: 30 * time.Second,
		},
	}
	for _, option := range options {
		option(client)
	}
	return client
}

// BaseURL returns the backend base address. Surfaced in error notices
// so a misconfigured address is diagnosable from the UI alone.
func (client *Client) BaseURL() string {
	return client.baseURL
}

// request performs one JSON round trip. A nil result pointer discards
// the body. An empty 2xx body leaves the result untouched, which
// models the backend's "null means success with no payload" responses.
func (client *Client) request(ctx context.Context, method, path string, payload, result any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encoding %s %s payload: %w", method, path, err)
		}
		body = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, client.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("building %s %s request: %w", method, path, err)
	}
	request.Header.Set("Content-Type", "application/json")
	if client.devUserID != 0 {
		request.Header.Set("X-User-Id", strconv.Itoa(client.devUserID))
	}

	response, err := client.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer response.Body.Close()

	responseBody, err := io.ReadAll(response.Body)
	if err != nil {
		return fmt.Errorf("reading %s %s response: %w", method, path, err)
	}

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return &Error{
			Status: response.StatusCode,
			Body:   strings.TrimSpace(string(responseBody)),
		}
	}

	if result == nil || len(bytes.TrimSpace(responseBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(responseBody, result); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", method, path, err)
	}
	return nil
}

// Me returns the authenticated user, or a 401 Error when the session
// is absent or expired.
func (client *Client) Me(ctx context.Context) (User, error) {
	var user User
	err := client.request(ctx, http.MethodGet, "/me", nil, &user)
	return user, err
}

// Stages returns the backend stage catalog.
func (client *Client) Stages(ctx context.Context) (Stages, error) {
	var stages Stages
	err := client.request(ctx, http.MethodGet, "/stages", nil, &stages)
	return stages, err
}

// Jobs returns the authenticated user's applications, most recently
// updated first.
func (client *Client) Jobs(ctx context.Context) ([]JobRecord, error) {
	var jobs []JobRecord
	err := client.request(ctx, http.MethodGet, "/jobs", nil, &jobs)
	return jobs, err
}

// Metrics returns the funnel metrics aggregate.
func (client *Client) Metrics(ctx context.Context) (Metrics, error) {
	var metrics Metrics
	err := client.request(ctx, http.MethodGet, "/metrics", nil, &metrics)
	return metrics, err
}

// CreateJob creates an application and returns the stored record.
func (client *Client) CreateJob(ctx context.Context, payload JobPayload) (JobRecord, error) {
	var job JobRecord
	err := client.request(ctx, http.MethodPost, "/jobs", payload, &job)
	return job, err
}

// UpdateJob applies a partial update and returns the full updated
// record.
func (client *Client) UpdateJob(ctx context.Context, jobID int, payload JobPayload) (JobRecord, error) {
	var job JobRecord
	err := client.request(ctx, http.MethodPatch, "/jobs/"+strconv.Itoa(jobID), payload, &job)
	return job, err
}

// Logout clears the backend session.
func (client *Client) Logout(ctx context.Context) error {
	return client.request(ctx, http.MethodPost, "/auth/logout", nil, nil)
}
