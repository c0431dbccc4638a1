package client

import (
	"time"

	"github.com/JoeWakeling/newswire/internal/model"
)

// dateLayouts are tried in order against story dates from foreign agencies.
// The first layout that parses wins.
var dateLayouts = []string{
	"2006-01-02",
	"02-01-2006",
	"01-02-2006",
	"2006/01/02",
	"02/01/2006",
	"01/02/2006",
}

// NormalizeDate re-renders a story date as DD/MM/YYYY. Agencies disagree on
// date formats, so a fixed sequence of layouts is tried; if none parse the
// raw value is shown unaltered.
func NormalizeDate(raw string) string {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(model.WireDateLayout)
		}
	}
	return raw
}
