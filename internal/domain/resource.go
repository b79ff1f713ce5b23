package domain

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var (
	resourceURLPattern      = regexp.MustCompile(`https?://[^\s]+`)
	resourceTrailingSepRegx = regexp.MustCompile(`\s*[-–—:]\s*$`)
)

// ResourceRef is a display title with an optional link.
type ResourceRef struct {
	Title string `json:"title"`
	URL   string `json:"url,omitempty"`
}

// ParseResource splits a generated resource line such as
// "FreeCodeCamp – https://www.freecodecamp.org/" into title and URL.
// When no http(s) URL is present the whole string is the title.
func ParseResource(s string) ResourceRef {
	s = strings.TrimSpace(s)
	loc := resourceURLPattern.FindStringIndex(s)
	if loc == nil {
		return ResourceRef{Title: s}
	}
	url := s[loc[0]:loc[1]]
	rest := s[:loc[0]] + s[loc[1]:]
	title := resourceTrailingSepRegx.ReplaceAllString(strings.TrimRight(rest, " \t"), "")
	return ResourceRef{Title: strings.TrimSpace(title), URL: url}
}

// String renders the wire form read back by ParseResource.
func (r ResourceRef) String() string {
	switch {
	case r.URL == "":
		return r.Title
	case r.Title == "":
		return r.URL
	default:
		return r.Title + " – " + r.URL
	}
}

// MarshalJSON encodes the resource in the generator's single-string form.
func (r ResourceRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// UnmarshalJSON accepts either the single-string form or a
// {"title": "...", "url": "..."} object.
func (r *ResourceRef) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*r = ParseResource(s)
		return nil
	}
	var obj struct {
		Title string `json:"title"`
		Name  string `json:"name"`
		URL   string `json:"url"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("resource must be a string or object: %w", err)
	}
	*r = ResourceRef{
		Title: strings.TrimSpace(CoalesceStr(obj.Title, obj.Name)),
		URL:   strings.TrimSpace(obj.URL),
	}
	return nil
}
