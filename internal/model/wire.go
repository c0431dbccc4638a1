package model

// Agency is one directory entry: a registered news service.
type Agency struct {
	Name string `json:"agency_name"`
	URL  string `json:"url"`
	Code string `json:"agency_code"`
}

// StoryJSON is the wire form of a story inside a query envelope.
type StoryJSON struct {
	Key      int64  `json:"key"`
	Headline string `json:"headline"`
	Category string `json:"category"`
	Region   string `json:"region"`
	Author   string `json:"author"`
	Date     string `json:"date"`
	Details  string `json:"details"`
}

// Envelope wraps the story list in query responses.
type Envelope struct {
	Stories []StoryJSON `json:"stories"`
}

// ToWire converts a persisted story into its envelope form.
func ToWire(s Story) StoryJSON {
	return StoryJSON{
		Key:      s.Key,
		Headline: s.Headline,
		Category: string(s.Category),
		Region:   string(s.Region),
		Author:   s.Author,
		Date:     s.Date.Format(WireDateLayout),
		Details:  s.Details,
	}
}
