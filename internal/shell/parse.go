package shell

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseDeltas reads "name:value" pairs separated by commas, such as
// "crime:-3,happiness:2". Parts without a colon are skipped; a later pair
// for the same name replaces an earlier one.
func ParseDeltas(raw string) (map[string]int, error) {
	out := make(map[string]int)
	for _, part := range strings.Split(raw, ",") {
		name, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("missing name before %q", strings.TrimSpace(part))
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("%s: %q is not a whole number", name, strings.TrimSpace(value))
		}
		out[name] = n
	}
	return out, nil
}

// ParseFeatures splits a comma-separated feature list, dropping blanks.
func ParseFeatures(raw string) []string {
	var out []string
	for _, f := range strings.Split(raw, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// ParsePopulation returns def for blank input.
func ParsePopulation(raw string, def int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%q is not a whole number", raw)
	}
	if n < 0 {
		return 0, fmt.Errorf("population cannot be negative")
	}
	return n, nil
}
