// Package voice models the speech engine's voice catalog: the voices an
// engine offers, the descriptor persisted for the selected voice, and the
// locale handling used to filter and match voices.
package voice

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Voice is a synthesis voice as reported by an engine.
type Voice struct {
	// ID is the engine-specific identifier. Engines whose voices are
	// addressed by name leave it empty.
	ID      string
	Name    string
	Lang    string
	Gender  string
	Default bool
}

// IsZero reports whether v is the empty voice used when a lookup fails.
// Engines treat it as "use your default voice".
func (v Voice) IsZero() bool {
	return v.Name == "" && v.ID == ""
}

// Key returns the identifier an engine should be asked to use.
func (v Voice) Key() string {
	if v.ID != "" {
		return v.ID
	}
	return v.Name
}

// Descriptor returns the canonical identifier persisted for v.
func (v Voice) Descriptor() Descriptor {
	return Descriptor{Name: v.Name, Lang: v.Lang}
}

func (v Voice) String() string {
	if v.Lang == "" {
		return v.Name
	}
	return fmt.Sprintf("%s (%s)", v.Name, v.Lang)
}

// Descriptor is the persisted (name, locale) pair identifying a voice
// across sessions.
type Descriptor struct {
	Name string `json:"name"`
	Lang string `json:"lang"`
}

// IsZero reports whether no voice is described.
func (d Descriptor) IsZero() bool {
	return d.Name == "" && d.Lang == ""
}

// Matches reports whether v is the voice d describes. Locales are compared
// after normalization.
func (d Descriptor) Matches(v Voice) bool {
	return d.Name == v.Name && NormalizeLang(d.Lang) == NormalizeLang(v.Lang)
}

// Encode serializes the descriptor for storage.
func (d Descriptor) Encode() string {
	b, err := json.Marshal(d)
	if err != nil {
		return d.Name
	}
	return string(b)
}

// ParseDescriptor decodes a stored descriptor. Values that are not JSON are
// treated as a bare voice name, which is how older versions stored the
// selection.
func ParseDescriptor(s string) Descriptor {
	s = strings.TrimSpace(s)
	if s == "" {
		return Descriptor{}
	}
	var d Descriptor
	if strings.HasPrefix(s, "{") && json.Unmarshal([]byte(s), &d) == nil {
		return d
	}
	return Descriptor{Name: s}
}

// qualifierSuffix matches the trailing "#…" some engines append to locale
// codes (for example "en-US#female_2-local").
var qualifierSuffix = regexp.MustCompile(`#.*$`)

// NormalizeLang canonicalizes a locale code for comparison: lower case,
// "-" as the separator and any trailing "#…" qualifier removed.
func NormalizeLang(code string) string {
	code = strings.TrimSpace(code)
	code = qualifierSuffix.ReplaceAllString(code, "")
	code = strings.ReplaceAll(code, "_", "-")
	return strings.ToLower(code)
}

// LanguageName returns the English display name for a locale code, or the
// code itself when it cannot be parsed.
func LanguageName(code string) string {
	norm := NormalizeLang(code)
	if norm == "" {
		return ""
	}
	tag, err := language.Parse(norm)
	if err != nil {
		return code
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return code
}
