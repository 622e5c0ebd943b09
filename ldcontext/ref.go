package ldcontext

import (
	"encoding/json"
	"strings"
)

// Ref is a parsed attribute reference. A reference that does not begin with "/" is a plain
// attribute name with no escaping. A reference beginning with "/" is a slash-delimited path
// where "~0" decodes to "~" and "~1" decodes to "/", following the same escaping convention
// as JSON Pointer (RFC 6901).
type Ref struct {
	raw       string
	components []string
	valid     bool
}

// NewRef parses an attribute reference string.
func NewRef(s string) Ref {
	if s == "" {
		return Ref{raw: s, valid: false}
	}
	if !strings.HasPrefix(s, "/") {
		return Ref{raw: s, components: []string{s}, valid: true}
	}
	parts := strings.Split(s[1:], "/")
	for i, p := range parts {
		if strings.Contains(p, "~") {
			p = strings.ReplaceAll(p, "~1", "/")
			p = strings.ReplaceAll(p, "~0", "~")
			parts[i] = p
		}
	}
	for _, p := range parts {
		if p == "" {
			return Ref{raw: s, valid: false}
		}
	}
	return Ref{raw: s, components: parts, valid: true}
}

// IsValid reports whether the reference parsed successfully.
func (r Ref) IsValid() bool { return r.valid }

// MarshalJSON serializes the reference as its original string form (an empty string for a
// zero-value reference; an invalid reference keeps the text it was parsed from), matching the
// wire format's plain-string attribute references.
func (r Ref) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.raw)
}

// UnmarshalJSON parses the reference from its wire string form.
func (r *Ref) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*r = NewRef(s)
	return nil
}

// String returns the original reference string.
func (r Ref) String() string { return r.raw }

// Depth returns the number of path components (1 for a plain attribute name).
func (r Ref) Depth() int { return len(r.components) }

// Component returns the i'th path component.
func (r Ref) Component(i int) string {
	if i < 0 || i >= len(r.components) {
		return ""
	}
	return r.components[i]
}
