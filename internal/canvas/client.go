// Package canvas is the gateway to the Canvas LMS REST API. It hides
// pagination and auth; callers receive complete, already-filtered lists or a
// single aggregate error.
package canvas

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const defaultPerPage = 100

// Course is a Canvas course record with optional fields normalized.
type Course struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	CourseCode string  `json:"course_code"`
	StartAt    *string `json:"start_at"`
	EndAt      *string `json:"end_at"`
}

// Assignment is a Canvas assignment record with optional fields normalized.
type Assignment struct {
	ID                      int64   `json:"id"`
	Name                    string  `json:"name"`
	DueAt                   *string `json:"due_at"`
	HTMLURL                 string  `json:"html_url"`
	HasSubmittedSubmissions bool    `json:"has_submitted_submissions"`
}

// Client makes authenticated, paginated requests against the Canvas API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient constructs a Canvas API client.
func NewClient(baseURL, token string, logger zerolog.Logger) (*Client, error) {
	if baseURL == "" || token == "" {
		return nil, fmt.Errorf("canvas base url and token are required")
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger.With().Str("component", "canvas_client").Logger(),
	}, nil
}

// FetchCourses returns the current user's courses, skipping malformed
// entries that lack an id or name.
func (c *Client) FetchCourses(ctx context.Context) ([]Course, error) {
	raw, err := getAll[Course](ctx, c, "courses")
	if err != nil {
		return nil, fmt.Errorf("fetch courses: %w", err)
	}

	courses := make([]Course, 0, len(raw))
	for _, course := range raw {
		if course.ID == 0 || course.Name == "" {
			continue
		}
		courses = append(courses, course)
	}

	return courses, nil
}

// FetchAssignments returns all assignments for a course, skipping malformed
// entries that lack an id or name.
func (c *Client) FetchAssignments(ctx context.Context, courseID int64) ([]Assignment, error) {
	raw, err := getAll[Assignment](ctx, c, fmt.Sprintf("courses/%d/assignments", courseID))
	if err != nil {
		return nil, fmt.Errorf("fetch assignments for course %d: %w", courseID, err)
	}

	assignments := make([]Assignment, 0, len(raw))
	for _, assignment := range raw {
		if assignment.ID == 0 || assignment.Name == "" {
			continue
		}
		assignments = append(assignments, assignment)
	}

	return assignments, nil
}

// getAll follows RFC 5988 Link headers until the last page, accumulating
// every page into a single slice.
func getAll[T any](ctx context.Context, c *Client, endpoint string) ([]T, error) {
	next := fmt.Sprintf("%s/%s?per_page=%d", c.baseURL, strings.TrimLeft(endpoint, "/"), defaultPerPage)

	var results []T
	for next != "" {
		payload, links, err := c.getPage(ctx, next)
		if err != nil {
			return nil, err
		}

		var page []T
		if err := json.Unmarshal(payload, &page); err != nil {
			return nil, fmt.Errorf("decode canvas response: %w", err)
		}
		results = append(results, page...)

		next = links["next"]
	}

	return results, nil
}

func (c *Client) getPage(ctx context.Context, rawURL string) ([]byte, map[string]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("build canvas request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("canvas request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read canvas response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("canvas request failed: %s returned %d", rawURL, resp.StatusCode)
	}

	return body, parseLinkHeader(resp.Header.Get("Link")), nil
}

// parseLinkHeader extracts rel -> url pairs from a Canvas Link header.
func parseLinkHeader(header string) map[string]string {
	links := make(map[string]string)
	for _, part := range strings.Split(header, ",") {
		segments := strings.Split(strings.TrimSpace(part), ";")
		if len(segments) < 2 {
			continue
		}

		target := strings.Trim(strings.TrimSpace(segments[0]), "<>")
		if _, err := url.Parse(target); err != nil {
			continue
		}

		for _, attr := range segments[1:] {
			attr = strings.TrimSpace(attr)
			if rel, ok := strings.CutPrefix(attr, `rel="`); ok {
				links[strings.TrimSuffix(rel, `"`)] = target
			}
		}
	}

	return links
}
