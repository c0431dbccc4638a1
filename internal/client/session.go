package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"
)

var (
	ErrAlreadyLoggedIn = errors.New("already logged in to a news service, please log out first")
	ErrNotLoggedIn     = errors.New("not logged in to a news service")
)

// StoryDraft is the client-supplied part of a new story. Author and date are
// assigned by the agency.
type StoryDraft struct {
	Headline string `json:"headline"`
	Category string `json:"category"`
	Region   string `json:"region"`
	Details  string `json:"details"`
}

// Session holds at most one logged-in agency at a time. The session cookie
// lives in the HTTP client's jar; the mutex guards the single URL slot.
type Session struct {
	mu      sync.Mutex
	baseURL string
	http    *http.Client
}

func NewSession() *Session {
	jar, _ := cookiejar.New(nil)
	return &Session{
		http: &http.Client{Jar: jar, Timeout: 10 * time.Second},
	}
}

// LoggedInURL returns the active agency URL, or "" when logged out.
func (s *Session) LoggedInURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.baseURL
}

// Login authenticates against the agency at rawURL. A second login while one
// is active is rejected locally, without contacting any server.
func (s *Session) Login(ctx context.Context, rawURL, username, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.baseURL != "" {
		return ErrAlreadyLoggedIn
	}
	if rawURL == "" {
		return errors.New("no login url provided")
	}
	base := strings.TrimSuffix(rawURL, "/")

	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/api/login",
		strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("unable to connect to news service @ %s", base)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("login failed (code %d): %s", resp.StatusCode, readBody(resp.Body))
	}

	s.baseURL = base
	return nil
}

// Logout ends the active session. Held state is only cleared on confirmed
// success.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.baseURL == "" {
		return ErrNotLoggedIn
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/logout", nil)
	if err != nil {
		return err
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("unable to connect to news service @ %s", s.baseURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("logout failed (code %d): %s", resp.StatusCode, readBody(resp.Body))
	}

	s.baseURL = ""
	return nil
}

// PostStory submits a new story to the logged-in agency.
func (s *Session) PostStory(ctx context.Context, draft StoryDraft) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.baseURL == "" {
		return ErrNotLoggedIn
	}

	payload, err := json.Marshal(draft)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/stories",
		bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("unable to connect to news service @ %s", s.baseURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("failed to post story (code %d): %s", resp.StatusCode, readBody(resp.Body))
	}
	return nil
}

// DeleteStory removes a story by key from the logged-in agency.
func (s *Session) DeleteStory(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.baseURL == "" {
		return ErrNotLoggedIn
	}
	if key == "" {
		return errors.New("no story key provided")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.baseURL+"/api/stories/"+key, nil)
	if err != nil {
		return err
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("unable to connect to news service @ %s", s.baseURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to delete story (code %d): %s", resp.StatusCode, readBody(resp.Body))
	}
	return nil
}

func readBody(r io.Reader) string {
	body, _ := io.ReadAll(io.LimitReader(r, 1024))
	return strings.TrimSpace(string(body))
}
