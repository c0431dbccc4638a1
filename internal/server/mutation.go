package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/JoeWakeling/newswire/internal/auth"
	"github.com/JoeWakeling/newswire/internal/model"
	"github.com/JoeWakeling/newswire/internal/store"
)

// handleCreateStory implements POST /api/stories. The author and publication
// date are server-assigned; clients only supply the four text fields.
func (s *Server) handleCreateStory(w http.ResponseWriter, r *http.Request) {
	user, err := s.authenticate(r)
	if err != nil {
		textError(w, "login required to post a story", http.StatusUnauthorized)
		return
	}

	var body map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		textError(w, "invalid JSON body", http.StatusServiceUnavailable)
		return
	}

	fields := make(map[string]string, 4)
	for _, name := range []string{"headline", "category", "region", "details"} {
		raw, ok := body[name]
		if !ok {
			textError(w, "missing required field "+name, http.StatusServiceUnavailable)
			return
		}
		var val string
		if err := json.Unmarshal(raw, &val); err != nil {
			textError(w, "invalid field value type: "+name+" must be a string", http.StatusServiceUnavailable)
			return
		}
		fields[name] = val
	}

	if len(fields["headline"]) > model.MaxHeadlineLen {
		textError(w, fmt.Sprintf("headline exceeds maximum length of %d", model.MaxHeadlineLen), http.StatusServiceUnavailable)
		return
	}
	if len(fields["details"]) > model.MaxDetailsLen {
		textError(w, fmt.Sprintf("details exceeds maximum length of %d", model.MaxDetailsLen), http.StatusServiceUnavailable)
		return
	}

	category := model.Category(fields["category"])
	if !category.Valid() {
		textError(w, "invalid category "+strconv.Quote(fields["category"]), http.StatusServiceUnavailable)
		return
	}
	region := model.Region(fields["region"])
	if !region.Valid() {
		textError(w, "invalid region "+strconv.Quote(fields["region"]), http.StatusServiceUnavailable)
		return
	}

	story := model.Story{
		Headline: fields["headline"],
		Category: category,
		Region:   region,
		AuthorID: user.ID,
		Author:   user.DisplayName,
		Date:     time.Now(),
		Details:  fields["details"],
	}
	if err := s.store.CreateStory(r.Context(), &story); err != nil {
		s.logger.Error("Failed to save story", zap.Error(err))
		textError(w, "unable to save story", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusCreated)
	fmt.Fprintf(w, "story created with key %d", story.Key)
}

// handleDeleteStory implements DELETE /api/stories/{key}. Only the owning
// author may delete.
func (s *Server) handleDeleteStory(w http.ResponseWriter, r *http.Request) {
	user, err := s.authenticate(r)
	if err != nil {
		if !errors.Is(err, auth.ErrNoSession) {
			s.logger.Error("Session lookup failed", zap.Error(err))
		}
		textError(w, "login required to delete a story", http.StatusUnauthorized)
		return
	}

	key, err := strconv.ParseInt(mux.Vars(r)["key"], 10, 64)
	if err != nil {
		textError(w, "invalid story key", http.StatusServiceUnavailable)
		return
	}

	story, err := s.store.GetStory(r.Context(), key)
	if errors.Is(err, store.ErrNotFound) {
		textError(w, fmt.Sprintf("story with key %d does not exist", key), http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Error("Story lookup failed", zap.Error(err))
		textError(w, "unable to process request", http.StatusServiceUnavailable)
		return
	}

	if story.AuthorID != user.ID {
		textError(w, "only the author of a story can delete it", http.StatusServiceUnavailable)
		return
	}

	if err := s.store.DeleteStory(r.Context(), key); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			textError(w, fmt.Sprintf("story with key %d does not exist", key), http.StatusNotFound)
			return
		}
		s.logger.Error("Failed to delete story", zap.Error(err))
		textError(w, "unable to delete story", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "story %d deleted", key)
}
