package content

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

const (
	nameChars    = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789.-_"
	elementChars = "abcdefghijklmnopqrstuvwxyz0123456789"
	domainChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

func validateSize(field, value string, min, max int) error {
	if len(value) < min {
		if min == 1 {
			return errors.Errorf("%s is required", field)
		}
		return errors.Errorf("%s must be at least %d characters", field, min)
	}
	if len(value) > max {
		return errors.Errorf("%s must be at most %d characters", field, max)
	}
	return nil
}

func validateChars(field, value, allowed string) error {
	for _, r := range value {
		if !strings.ContainsRune(allowed, r) {
			return errors.Errorf("%s contains invalid character %q", field, r)
		}
	}
	return nil
}

// encodeMap packs a string map into the key=value:key=value form used for
// auxiliary attribute blobs. Keys are sorted so the encoding is stable.
func encodeMap(m map[string]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var parts = make([]string, 0, len(m))
	for _, k := range keys {
		parts = append(parts, k+"="+m[k])
	}
	return strings.Join(parts, ":")
}

// decodeMap is the inverse of encodeMap. Malformed segments without an
// equals sign are skipped.
func decodeMap(s string) map[string]string {
	var m = map[string]string{}
	if s == "" {
		return m
	}
	for _, part := range strings.Split(s, ":") {
		if i := strings.IndexByte(part, '='); i >= 0 {
			m[part[:i]] = part[i+1:]
		}
	}
	return m
}
