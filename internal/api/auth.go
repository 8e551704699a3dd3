package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"mediacraft/internal/tasks"
)

// Profile describes the authenticated user.
type Profile struct {
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Stats summarizes the user's task history.
type Stats struct {
	TotalTasks     int `json:"total_tasks"`
	CompletedTasks int `json:"completed_tasks"`
	FailedTasks    int `json:"failed_tasks"`
	ActiveTasks    int `json:"active_tasks"`
}

// Register creates a new account. Email is optional.
func (c *Client) Register(ctx context.Context, username, password, email string) (*Profile, error) {
	payload := map[string]string{
		"username": strings.TrimSpace(username),
		"password": password,
		"email":    strings.TrimSpace(email),
	}
	var profile Profile
	if err := c.doJSON(ctx, http.MethodPost, "/api/user/register", payload, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Login authenticates and persists the resulting session.
func (c *Client) Login(ctx context.Context, username, password string) (*Profile, error) {
	payload := map[string]string{
		"username": strings.TrimSpace(username),
		"password": password,
	}
	var profile Profile
	if err := c.doJSON(ctx, http.MethodPost, "/api/user/login", payload, &profile); err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.sessionReady = true
	c.mu.Unlock()
	c.persistSession()
	return &profile, nil
}

// Logout terminates the server session and clears the persisted one.
func (c *Client) Logout(ctx context.Context) error {
	err := c.doJSON(ctx, http.MethodPost, "/api/user/logout", nil, nil)
	c.resetSession()
	if c.sessions != nil {
		if clearErr := c.sessions.Clear(); clearErr != nil && err == nil {
			err = clearErr
		}
	}
	return err
}

// Profile fetches the authenticated user's profile. A 401 means no login.
func (c *Client) Profile(ctx context.Context) (*Profile, error) {
	var profile Profile
	if err := c.doJSON(ctx, http.MethodGet, "/api/user/profile", nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Stats fetches aggregate task counts for the authenticated user.
func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	var stats Stats
	if err := c.doJSON(ctx, http.MethodGet, "/api/user/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// UserTasks fetches the full task list for the authenticated user.
func (c *Client) UserTasks(ctx context.Context) ([]tasks.Task, error) {
	var payload struct {
		Tasks []tasks.Task `json:"tasks"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/user/tasks", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Tasks, nil
}
