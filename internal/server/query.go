package web

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/JoeWakeling/newswire/internal/model"
)

// handleQueryStories implements GET /api/stories. All three parameters are
// required; each is a concrete value or the wildcard token.
func (s *Server) handleQueryStories(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !q.Has("story_cat") || !q.Has("story_region") || !q.Has("story_date") {
		textError(w, "missing required fields: story_cat, story_region and story_date must all be provided", http.StatusServiceUnavailable)
		return
	}

	filter, err := model.ParseFilter(q.Get("story_cat"), q.Get("story_region"), q.Get("story_date"))
	if err != nil {
		textError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	stories, err := s.store.QueryStories(r.Context(), filter)
	if err != nil {
		s.logger.Error("Story query failed", zap.Error(err))
		textError(w, "unable to process request", http.StatusServiceUnavailable)
		return
	}

	if len(stories) == 0 {
		textError(w, "no stories found matching query", http.StatusNotFound)
		return
	}

	envelope := model.Envelope{Stories: make([]model.StoryJSON, 0, len(stories))}
	for _, story := range stories {
		envelope.Stories = append(envelope.Stories, model.ToWire(story))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(envelope)
}
