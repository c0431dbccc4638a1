// Package client implements the aggregation side of the news protocol: agency
// discovery fan-out, per-agency response classification, and the single
// logged-in session used for posting and deleting stories.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/JoeWakeling/newswire/internal/directory"
	"github.com/JoeWakeling/newswire/internal/model"
)

// ErrNoMatchingAgency signals that the directory answered but no entry
// matched the requested agency code.
var ErrNoMatchingAgency = errors.New("no agencies found matching id provided")

// maxAgencies caps how many directory entries a single query fans out to.
const maxAgencies = 20

const defaultTimeout = 10 * time.Second

// maxBodyBytes bounds how much of an agency response is read. Agencies are
// untrusted; a misbehaving one must not exhaust the client.
const maxBodyBytes = 1 << 20

// NewsQuery selects agencies and filters their stories. Empty fields mean
// the wildcard.
type NewsQuery struct {
	AgencyCode string
	Category   string
	Region     string
	Date       string
}

// Outcome classifies one agency's response.
type Outcome int

const (
	// OutcomeOK: stories decoded and rendered.
	OutcomeOK Outcome = iota
	// OutcomeNoStories: the agency answered with the empty-result status.
	OutcomeNoStories
	// OutcomeUnreachable: connection failure or timeout.
	OutcomeUnreachable
	// OutcomeFailed: a non-success status; Status and a sanitized Message
	// are set.
	OutcomeFailed
	// OutcomeHTML: success status but an HTML page instead of JSON.
	OutcomeHTML
	// OutcomeInvalid: undecodable JSON or a missing expected key; Message
	// is set.
	OutcomeInvalid
)

// RenderedStory is one story with every field flattened to display text and
// the date normalized.
type RenderedStory struct {
	Key      string
	Headline string
	Category string
	Region   string
	Author   string
	Date     string
	Details  string
}

// AgencyReport is the isolated result of querying one agency.
type AgencyReport struct {
	Agency  model.Agency
	Outcome Outcome
	Status  int
	Message string
	Stories []RenderedStory
	// Malformed is set when a story missing a required key aborted
	// rendering of this agency's remaining stories.
	Malformed bool
}

// Aggregator queries every selected agency and classifies each response in
// isolation.
type Aggregator struct {
	directory directory.Lister
	http      *http.Client
	timeout   time.Duration
}

func NewAggregator(dir directory.Lister) *Aggregator {
	return &Aggregator{
		directory: dir,
		http:      &http.Client{},
		timeout:   defaultTimeout,
	}
}

// Query resolves the target agencies and fans the story request out to each
// of them concurrently. Reports come back in directory order regardless of
// completion order. Only discovery failures return an error; per-agency
// failures are folded into their reports.
func (a *Aggregator) Query(ctx context.Context, q NewsQuery) ([]AgencyReport, error) {
	agencies, err := a.directory.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	if q.AgencyCode != "" {
		var matched []model.Agency
		for _, agency := range agencies {
			if agency.Code == q.AgencyCode {
				matched = append(matched, agency)
			}
		}
		if len(matched) == 0 {
			return nil, ErrNoMatchingAgency
		}
		agencies = matched
	}
	if len(agencies) > maxAgencies {
		agencies = agencies[:maxAgencies]
	}

	cat, reg, date := q.Category, q.Region, q.Date
	if cat == "" {
		cat = model.Wildcard
	}
	if reg == "" {
		reg = model.Wildcard
	}
	if date == "" {
		date = model.Wildcard
	}

	reports := make([]AgencyReport, len(agencies))
	var wg sync.WaitGroup
	for i, agency := range agencies {
		wg.Add(1)
		go func(i int, agency model.Agency) {
			defer wg.Done()
			reports[i] = a.queryAgency(ctx, agency, cat, reg, date)
		}(i, agency)
	}
	wg.Wait()

	return reports, nil
}

// queryAgency issues one story request and classifies the response. The
// precedence order is fixed: transport failure, empty result, failed status,
// HTML body, invalid JSON, success.
func (a *Aggregator) queryAgency(ctx context.Context, agency model.Agency, cat, reg, date string) AgencyReport {
	report := AgencyReport{Agency: agency}

	params := url.Values{}
	params.Set("story_cat", cat)
	params.Set("story_region", reg)
	params.Set("story_date", date)
	endpoint := strings.TrimSuffix(agency.URL, "/") + "/api/stories?" + params.Encode()

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		report.Outcome = OutcomeUnreachable
		return report
	}

	resp, err := a.http.Do(req)
	if err != nil {
		report.Outcome = OutcomeUnreachable
		return report
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		report.Outcome = OutcomeUnreachable
		return report
	}
	report.Status = resp.StatusCode

	if resp.StatusCode == http.StatusNotFound {
		report.Outcome = OutcomeNoStories
		return report
	}
	if resp.StatusCode != http.StatusOK {
		report.Outcome = OutcomeFailed
		if looksLikeHTML(body) {
			report.Message = "API returned HTML but JSON expected"
		} else {
			report.Message = strings.TrimSpace(string(body))
		}
		return report
	}
	if looksLikeHTML(body) {
		report.Outcome = OutcomeHTML
		return report
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		report.Outcome = OutcomeInvalid
		report.Message = "invalid JSON response"
		return report
	}
	rawStories, ok := payload["stories"]
	if !ok {
		report.Outcome = OutcomeInvalid
		report.Message = "invalid or missing keys in JSON response"
		return report
	}
	var items []map[string]json.RawMessage
	if err := json.Unmarshal(rawStories, &items); err != nil {
		report.Outcome = OutcomeInvalid
		report.Message = "invalid JSON response"
		return report
	}

	report.Outcome = OutcomeOK
	for _, item := range items {
		story, ok := decodeStory(item)
		if !ok {
			// Keep what rendered so far, drop the rest of this
			// agency's stories.
			report.Malformed = true
			break
		}
		report.Stories = append(report.Stories, story)
	}
	return report
}

var storyKeys = []string{"key", "headline", "category", "region", "author", "date", "details"}

// decodeStory flattens one story object. Every required key must be
// present; values of any JSON type are accepted and rendered as text.
func decodeStory(item map[string]json.RawMessage) (RenderedStory, bool) {
	fields := make(map[string]string, len(storyKeys))
	for _, name := range storyKeys {
		raw, ok := item[name]
		if !ok {
			return RenderedStory{}, false
		}
		fields[name] = fieldText(raw)
	}
	return RenderedStory{
		Key:      fields["key"],
		Headline: fields["headline"],
		Category: fields["category"],
		Region:   fields["region"],
		Author:   fields["author"],
		Date:     NormalizeDate(fields["date"]),
		Details:  fields["details"],
	}, true
}

// fieldText renders a raw JSON value for display. Strings lose their quotes,
// anything else keeps its JSON text.
func fieldText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

// looksLikeHTML reports whether a response body is an HTML error page rather
// than an API payload.
func looksLikeHTML(body []byte) bool {
	t := strings.TrimSpace(string(body))
	return hasPrefixFold(t, "<!DOCTYPE html") || hasPrefixFold(t, "<html")
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

// FailureLine builds the one-line explanation for a non-success report.
func (r AgencyReport) FailureLine() string {
	base := "Failed to fetch stories from news service @ " + r.Agency.URL
	switch r.Outcome {
	case OutcomeUnreachable:
		return "Unable to connect to news service @ " + r.Agency.URL
	case OutcomeFailed:
		return fmt.Sprintf("%s (code %d): %s", base, r.Status, r.Message)
	case OutcomeHTML:
		return base + ": API returned HTML but JSON expected"
	case OutcomeInvalid:
		return base + ": " + r.Message
	}
	return ""
}
