package client

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/JoeWakeling/newswire/internal/model"
)

const storySeparator = "----------------------------------"

// Renderer prints aggregation reports for the terminal.
type Renderer struct {
	out     io.Writer
	info    *color.Color
	success *color.Color
	failure *color.Color
	bold    *color.Color
}

func NewRenderer(out io.Writer) *Renderer {
	return &Renderer{
		out:     out,
		info:    color.New(color.Bold, color.FgBlue),
		success: color.New(color.Bold, color.FgGreen),
		failure: color.New(color.Bold, color.FgRed),
		bold:    color.New(color.Bold),
	}
}

func (r *Renderer) Info(format string, args ...any) {
	r.info.Fprintf(r.out, format+"\n", args...)
}

func (r *Renderer) Success(format string, args ...any) {
	r.success.Fprintf(r.out, "✔ "+format+"\n", args...)
}

func (r *Renderer) Failure(format string, args ...any) {
	r.failure.Fprintf(r.out, "✘ "+format+"\n", args...)
}

// Report prints every agency's outcome in directory order, then the
// attempted-agency summary.
func (r *Renderer) Report(reports []AgencyReport) {
	for _, report := range reports {
		r.reportAgency(report)
	}
	r.Success("Finished fetching stories from %d agencies", len(reports))
}

func (r *Renderer) reportAgency(report AgencyReport) {
	switch report.Outcome {
	case OutcomeNoStories:
		r.Success("0 stories found from %s @ %s", report.Agency.Name, report.Agency.URL)
	case OutcomeUnreachable, OutcomeFailed, OutcomeHTML, OutcomeInvalid:
		r.Failure("%s", report.FailureLine())
	case OutcomeOK:
		if n := len(report.Stories); n == 1 {
			r.Success("1 story found from %s @ %s", report.Agency.Name, report.Agency.URL)
		} else {
			r.Success("%d stories found from %s @ %s", n, report.Agency.Name, report.Agency.URL)
		}
		for _, story := range report.Stories {
			r.renderStory(story)
		}
		if len(report.Stories) > 0 {
			fmt.Fprintln(r.out, storySeparator)
		}
		if report.Malformed {
			r.Failure("Failed to read stories: invalid or missing keys in JSON response")
		}
	}
}

func (r *Renderer) renderStory(story RenderedStory) {
	fmt.Fprintln(r.out, storySeparator)
	r.field("Key", story.Key)
	r.field("Headline", story.Headline)
	r.field("Category", displayCategory(story.Category))
	r.field("Region", displayRegion(story.Region))
	r.field("Author", story.Author)
	r.field("Date", story.Date)
	r.field("Details", story.Details)
}

func (r *Renderer) field(name, value string) {
	r.bold.Fprintf(r.out, "%s:", name)
	fmt.Fprintf(r.out, " %s\n", value)
}

// displayCategory shows the human-readable name when the value is a known
// code, otherwise the raw value from the agency.
func displayCategory(raw string) string {
	if c := model.Category(raw); c.Valid() {
		return c.Display()
	}
	return raw
}

func displayRegion(raw string) string {
	if reg := model.Region(raw); reg.Valid() {
		return reg.Display()
	}
	return raw
}
