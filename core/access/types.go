package access

import (
	"strings"

	apperrors "github.com/Voltaic314/DataRoom/pkg/errors"
)

// Access types, in the canonical order used for every response.
const (
	View     = "VIEW"
	Download = "DOWNLOAD"
	Comment  = "COMMENT"
	Upload   = "UPLOAD"
)

var canonical = []string{View, Download, Comment, Upload}

// AllTypes returns every access type in canonical order.
func AllTypes() []string {
	return append([]string(nil), canonical...)
}

func isType(t string) bool {
	for _, c := range canonical {
		if c == t {
			return true
		}
	}
	return false
}

// NormalizeTypes upper-cases and de-duplicates types, rejecting unknown
// entries and empty input.
func NormalizeTypes(types []string) ([]string, error) {
	set := make(map[string]bool, len(types))
	for _, raw := range types {
		t := strings.ToUpper(strings.TrimSpace(raw))
		if !isType(t) {
			return nil, apperrors.Invalid("Invalid access type %q", raw)
		}
		set[t] = true
	}
	if len(set) == 0 {
		return nil, apperrors.Invalid("Missing required fields")
	}
	return ordered(set), nil
}

// ParseTypes splits a stored comma-joined value. Unknown entries are kept
// out of the result.
func ParseTypes(stored string) []string {
	set := make(map[string]bool)
	for _, part := range strings.Split(stored, ",") {
		if t := strings.TrimSpace(part); isType(t) {
			set[t] = true
		}
	}
	return ordered(set)
}

func JoinTypes(types []string) string {
	return strings.Join(types, ",")
}

// Union merges stored values into one canonical set.
func Union(stored ...string) []string {
	set := make(map[string]bool)
	for _, s := range stored {
		for _, t := range ParseTypes(s) {
			set[t] = true
		}
	}
	return ordered(set)
}

func ordered(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for _, t := range canonical {
		if set[t] {
			out = append(out, t)
		}
	}
	return out
}
