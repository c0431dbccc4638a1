package client

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/JoeWakeling/newswire/internal/model"
)

func renderToString(reports []AgencyReport) string {
	color.NoColor = true
	var buf bytes.Buffer
	NewRenderer(&buf).Report(reports)
	return buf.String()
}

func TestReportRendering(t *testing.T) {
	agency := model.Agency{Name: "Test Agency", URL: "https://news.example", Code: "TST"}

	out := renderToString([]AgencyReport{
		{Agency: agency, Outcome: OutcomeUnreachable},
		{Agency: agency, Outcome: OutcomeNoStories},
		{Agency: agency, Outcome: OutcomeOK, Stories: []RenderedStory{{
			Key:      "3",
			Headline: "Gallery reopens",
			Category: "art",
			Region:   "eu",
			Author:   "Joe",
			Date:     "05/03/2024",
			Details:  "After two years.",
		}}},
	})

	assert.Contains(t, out, "✘ Unable to connect to news service @ https://news.example")
	assert.Contains(t, out, "✔ 0 stories found from Test Agency @ https://news.example")
	assert.Contains(t, out, "✔ 1 story found from Test Agency @ https://news.example")

	// Story fields use display names for known enum codes.
	assert.Contains(t, out, "Category: Art")
	assert.Contains(t, out, "Region: Europe")
	assert.Contains(t, out, "Date: 05/03/2024")

	assert.Contains(t, out, "✔ Finished fetching stories from 3 agencies")
}

func TestReportRendering_Failures(t *testing.T) {
	agency := model.Agency{Name: "Bad Agency", URL: "https://bad.example", Code: "BAD"}

	out := renderToString([]AgencyReport{
		{Agency: agency, Outcome: OutcomeFailed, Status: 503, Message: "invalid category \"sport\""},
		{Agency: agency, Outcome: OutcomeHTML, Status: 200},
		{Agency: agency, Outcome: OutcomeInvalid, Message: "invalid JSON response"},
		{Agency: agency, Outcome: OutcomeOK, Malformed: true},
	})

	assert.Contains(t, out, `(code 503): invalid category "sport"`)
	assert.Contains(t, out, "API returned HTML but JSON expected")
	assert.Contains(t, out, "invalid JSON response")
	assert.Contains(t, out, "✘ Failed to read stories: invalid or missing keys in JSON response")

	// Unknown enum codes from a foreign agency render as received.
	out = renderToString([]AgencyReport{
		{Agency: agency, Outcome: OutcomeOK, Stories: []RenderedStory{{
			Key: "1", Headline: "h", Category: "sport", Region: "mars",
			Author: "x", Date: "d", Details: "d",
		}}},
	})
	assert.Contains(t, out, "Category: sport")
	assert.Contains(t, out, "Region: mars")
}
