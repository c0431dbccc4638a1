package model

import (
	"fmt"
	"time"
)

// Wildcard is the filter token meaning "do not constrain this field".
const Wildcard = "*"

// Wire date layout used by the query protocol and story envelopes.
const WireDateLayout = "02/01/2006"

// Storage date layout. ISO dates compare lexicographically, so the store
// can order and range-filter on the raw text column.
const StoreDateLayout = "2006-01-02"

// Field length ceilings enforced on story creation.
const (
	MaxHeadlineLen = 64
	MaxDetailsLen  = 128
)

type Category string

const (
	CategoryPolitics   Category = "pol"
	CategoryArt        Category = "art"
	CategoryTechnology Category = "tech"
	CategoryTrivia     Category = "trivia"
)

// Categories lists every valid category code in display order.
var Categories = []Category{CategoryPolitics, CategoryArt, CategoryTechnology, CategoryTrivia}

func (c Category) Valid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

// Display returns the human-readable name for the category code.
func (c Category) Display() string {
	switch c {
	case CategoryPolitics:
		return "Politics"
	case CategoryArt:
		return "Art"
	case CategoryTechnology:
		return "Technology"
	case CategoryTrivia:
		return "Trivia"
	}
	return string(c)
}

type Region string

const (
	RegionUK     Region = "uk"
	RegionEurope Region = "eu"
	RegionWorld  Region = "w"
)

var Regions = []Region{RegionUK, RegionEurope, RegionWorld}

func (r Region) Valid() bool {
	for _, v := range Regions {
		if r == v {
			return true
		}
	}
	return false
}

func (r Region) Display() string {
	switch r {
	case RegionUK:
		return "UK"
	case RegionEurope:
		return "Europe"
	case RegionWorld:
		return "World"
	}
	return string(r)
}

// Story is a single news story as persisted by an agency.
type Story struct {
	Key      int64
	Headline string
	Category Category
	Region   Region
	AuthorID int64
	Author   string // display name of the owning author
	Date     time.Time
	Details  string
}

// Filter narrows a story query. Zero-value fields mean "match everything";
// a zero Since applies no lower bound (the epoch sentinel).
type Filter struct {
	Category Category
	Region   Region
	Since    time.Time
}

// ParseFilter validates the three raw query parameters and builds a Filter.
// Each parameter is either the wildcard token or a concrete value; the error
// identifies which parameter failed.
func ParseFilter(cat, region, date string) (Filter, error) {
	var f Filter
	if cat != Wildcard {
		f.Category = Category(cat)
		if !f.Category.Valid() {
			return Filter{}, fmt.Errorf("invalid category %q", cat)
		}
	}
	if region != Wildcard {
		f.Region = Region(region)
		if !f.Region.Valid() {
			return Filter{}, fmt.Errorf("invalid region %q", region)
		}
	}
	if date != Wildcard {
		t, err := time.Parse(WireDateLayout, date)
		if err != nil {
			return Filter{}, fmt.Errorf("invalid date format %q, expected DD/MM/YYYY", date)
		}
		f.Since = t
	}
	return f, nil
}
