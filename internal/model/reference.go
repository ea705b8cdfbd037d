package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const (
	UnknownSource = "Unknown Source"
	UnknownPage   = "?"
)

// Reference is a cited excerpt returned alongside an answer.
// Source and Page are optional on the wire; Header falls back to
// UnknownSource and UnknownPage when they are missing or blank.
type Reference struct {
	Source *string `json:"source,omitempty"`
	Page   Page    `json:"page"`
	Text   string  `json:"context_text"`
}

func (r Reference) SourceLabel() string {
	if r.Source == nil || strings.TrimSpace(*r.Source) == "" {
		return UnknownSource
	}
	return *r.Source
}

func (r Reference) PageLabel() string {
	if v, ok := r.Page.Value(); ok {
		return v
	}
	return UnknownPage
}

// Header renders as "<source> (Page <page>)".
func (r Reference) Header() string {
	return fmt.Sprintf("%s (Page %s)", r.SourceLabel(), r.PageLabel())
}

// Page holds a page marker that the backend sends either as a JSON string
// or as a number, and marshals back in the same form. A zero Page is unset.
type Page struct {
	value  string
	set    bool
	number bool
}

// PageOf is a page sent as a string.
func PageOf(v string) Page {
	return Page{value: v, set: strings.TrimSpace(v) != ""}
}

// PageNumber is a page sent as a JSON number.
func PageNumber(n int) Page {
	return Page{value: strconv.Itoa(n), set: true, number: true}
}

func (p Page) Value() (string, bool) {
	return p.value, p.set
}

func (p *Page) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*p = Page{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = PageOf(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("page must be a string or number: %w", err)
	}
	*p = Page{value: n.String(), set: true, number: true}
	return nil
}

func (p Page) MarshalJSON() ([]byte, error) {
	if !p.set {
		return []byte("null"), nil
	}
	if p.number {
		return []byte(p.value), nil
	}
	return json.Marshal(p.value)
}

// StringPtr is a helper for building references by hand.
func StringPtr(s string) *string {
	return &s
}
