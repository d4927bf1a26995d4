package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"scout/pkg/api"
)

// ScoutClient handles API calls to the scout controller.
type ScoutClient struct {
	BaseURL    string
	UserID     string
	HTTPClient *http.Client
}

// NewScoutClient creates a new client with the given base URL and user ID.
func NewScoutClient(baseURL, userID string) *ScoutClient {
	return &ScoutClient{
		BaseURL: baseURL,
		UserID:  userID,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError represents an error response from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

// do issues one request with the standard headers and decodes the response
// into out when the status is accepted.
func (c *ScoutClient) do(method, endpoint string, reqBody, out interface{}, okStatuses ...int) error {
	var body io.Reader
	if reqBody != nil {
		bodyBytes, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(bodyBytes)
	}

	httpReq, err := http.NewRequest(method, c.BaseURL+endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Add("X-User-ID", c.UserID)
	httpReq.Header.Add("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	ok := false
	for _, s := range okStatuses {
		if resp.StatusCode == s {
			ok = true
			break
		}
	}
	if !ok {
		return &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}

// Chat sends POST /chat with a user message.
func (c *ScoutClient) Chat(req api.ChatRequest) (*api.ChatResponse, error) {
	var result api.ChatResponse
	if err := c.do(http.MethodPost, "/chat", req, &result, http.StatusOK, http.StatusAccepted); err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateAssignment sends POST /assignments to file a research assignment.
func (c *ScoutClient) CreateAssignment(req api.CreateAssignmentRequest) (*api.AssignmentResponse, error) {
	var result api.AssignmentResponse
	if err := c.do(http.MethodPost, "/assignments", req, &result, http.StatusCreated); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetAssignment sends GET /assignments/{id} to retrieve assignment details.
func (c *ScoutClient) GetAssignment(assignmentID string) (*api.AssignmentResponse, error) {
	var result api.AssignmentResponse
	endpoint := "/assignments/" + url.PathEscape(assignmentID)
	if err := c.do(http.MethodGet, endpoint, nil, &result, http.StatusOK); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListAssignments sends GET /assignments with optional filters.
func (c *ScoutClient) ListAssignments(status string, limit int) ([]api.AssignmentResponse, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	endpoint := "/assignments"
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	var result []api.AssignmentResponse
	if err := c.do(http.MethodGet, endpoint, nil, &result, http.StatusOK); err != nil {
		return nil, err
	}
	return result, nil
}

// GetStats sends GET /assignments/stats.
func (c *ScoutClient) GetStats() (*api.StatsResponse, error) {
	var result api.StatsResponse
	if err := c.do(http.MethodGet, "/assignments/stats", nil, &result, http.StatusOK); err != nil {
		return nil, err
	}
	return &result, nil
}

// RetryAssignment sends POST /assignments/{id}/retry.
func (c *ScoutClient) RetryAssignment(assignmentID string) (*api.AssignmentResponse, error) {
	var result api.AssignmentResponse
	endpoint := "/assignments/" + url.PathEscape(assignmentID) + "/retry"
	if err := c.do(http.MethodPost, endpoint, nil, &result, http.StatusOK); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListNotifications sends GET /notifications.
func (c *ScoutClient) ListNotifications(limit int) ([]api.NotificationResponse, error) {
	endpoint := "/notifications"
	if limit > 0 {
		endpoint += "?limit=" + strconv.Itoa(limit)
	}

	var result []api.NotificationResponse
	if err := c.do(http.MethodGet, endpoint, nil, &result, http.StatusOK); err != nil {
		return nil, err
	}
	return result, nil
}
