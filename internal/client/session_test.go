package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAgency is a minimal agency that accepts one credential pair and tracks
// how often each endpoint is hit.
func fakeAgency(t *testing.T) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var loginHits atomic.Int64

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/login", func(w http.ResponseWriter, r *http.Request) {
		loginHits.Add(1)
		if r.PostFormValue("username") != "joe" || r.PostFormValue("password") != "hunter2" {
			http.Error(w, "Authentication failed, username or password incorrect.", http.StatusUnauthorized)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: "tok", Path: "/"})
		fmt.Fprint(w, "Welcome Joe")
	})
	mux.HandleFunc("POST /api/logout", func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("sessionid"); err != nil || c.Value != "tok" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		fmt.Fprint(w, "Goodbye.")
	})
	mux.HandleFunc("POST /api/stories", func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("sessionid"); err != nil || c.Value != "tok" {
			http.Error(w, "login required", http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, "story created with key 1")
	})
	mux.HandleFunc("DELETE /api/stories/{key}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("key") != "1" {
			http.Error(w, "story with key does not exist", http.StatusNotFound)
			return
		}
		fmt.Fprint(w, "story 1 deleted")
	})

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts, &loginHits
}

func TestSessionLogin(t *testing.T) {
	ts, loginHits := fakeAgency(t)
	ctx := context.Background()

	s := NewSession()
	require.NoError(t, s.Login(ctx, ts.URL+"/", "joe", "hunter2"))
	assert.Equal(t, ts.URL, s.LoggedInURL(), "trailing slash is normalized away")

	// A second login is rejected locally, without contacting any server.
	before := loginHits.Load()
	assert.ErrorIs(t, s.Login(ctx, "http://other.example", "joe", "hunter2"), ErrAlreadyLoggedIn)
	assert.Equal(t, before, loginHits.Load())
}

func TestSessionLoginFailureLeavesStateUntouched(t *testing.T) {
	ts, _ := fakeAgency(t)
	ctx := context.Background()

	s := NewSession()
	err := s.Login(ctx, ts.URL, "joe", "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "code 401")
	assert.Empty(t, s.LoggedInURL())

	// A failed attempt must not block a later successful one.
	require.NoError(t, s.Login(ctx, ts.URL, "joe", "hunter2"))
}

func TestSessionLogout(t *testing.T) {
	ts, _ := fakeAgency(t)
	ctx := context.Background()

	s := NewSession()
	assert.ErrorIs(t, s.Logout(ctx), ErrNotLoggedIn)

	require.NoError(t, s.Login(ctx, ts.URL, "joe", "hunter2"))
	require.NoError(t, s.Logout(ctx))
	assert.Empty(t, s.LoggedInURL())
}

func TestSessionLogoutFailureKeepsState(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/login" {
			http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: "tok", Path: "/"})
			fmt.Fprint(w, "Welcome Joe")
			return
		}
		http.Error(w, "unable to process request", http.StatusServiceUnavailable)
	}))
	t.Cleanup(broken.Close)
	ctx := context.Background()

	s := NewSession()
	require.NoError(t, s.Login(ctx, broken.URL, "joe", "hunter2"))

	require.Error(t, s.Logout(ctx))
	assert.Equal(t, broken.URL, s.LoggedInURL(), "failed logout must not clear the held URL")
}

func TestSessionMutations(t *testing.T) {
	ts, _ := fakeAgency(t)
	ctx := context.Background()

	s := NewSession()
	draft := StoryDraft{Headline: "h", Category: "tech", Region: "uk", Details: "d"}

	assert.ErrorIs(t, s.PostStory(ctx, draft), ErrNotLoggedIn)
	assert.ErrorIs(t, s.DeleteStory(ctx, "1"), ErrNotLoggedIn)

	require.NoError(t, s.Login(ctx, ts.URL, "joe", "hunter2"))

	require.NoError(t, s.PostStory(ctx, draft), "session cookie should authenticate the post")
	require.NoError(t, s.DeleteStory(ctx, "1"))

	err := s.DeleteStory(ctx, "999")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "code 404")
}
