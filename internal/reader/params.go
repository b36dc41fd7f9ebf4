package reader

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Params pre-populate the reader at launch. Any of them may be empty.
type Params struct {
	Text  string
	Lang  string
	Voice string  // name or engine ID
	Speed float64 // percent, 0 when unset
}

// ParseQuery reads params from a URL query string such as
// "text=hello&lang=en-US&speed=150". A leading "?" is allowed.
func ParseQuery(q string) (Params, error) {
	values, err := url.ParseQuery(strings.TrimPrefix(q, "?"))
	if err != nil {
		return Params{}, fmt.Errorf("invalid query: %w", err)
	}
	p := Params{
		Text:  values.Get("text"),
		Lang:  values.Get("lang"),
		Voice: values.Get("voice"),
	}
	if s := values.Get("speed"); s != "" {
		speed, err := strconv.ParseFloat(s, 64)
		if err != nil || speed <= 0 {
			return Params{}, fmt.Errorf("invalid speed %q", s)
		}
		p.Speed = speed
	}
	return p, nil
}

// Merge fills the fields of p that are empty from o.
func (p Params) Merge(o Params) Params {
	if p.Text == "" {
		p.Text = o.Text
	}
	if p.Lang == "" {
		p.Lang = o.Lang
	}
	if p.Voice == "" {
		p.Voice = o.Voice
	}
	if p.Speed == 0 {
		p.Speed = o.Speed
	}
	return p
}

// Rate converts Speed to a rate multiplier.
func (p Params) Rate() (float64, bool) {
	if p.Speed <= 0 {
		return 0, false
	}
	return p.Speed / 100, true
}

// IsZero reports whether no parameter is set.
func (p Params) IsZero() bool {
	return p == Params{}
}
