package args

import "strings"

// Usage renders the schema as "<required> [optional] <rest...>".
func (s *Schema) Usage() string {
	if s == nil {
		return ""
	}
	parts := make([]string, len(s.specs))
	for i, spec := range s.specs {
		switch {
		case spec.Rest:
			parts[i] = "<" + spec.Name + "...>"
		case spec.Optional:
			parts[i] = "[" + spec.Name + "]"
		default:
			parts[i] = "<" + spec.Name + ">"
		}
	}
	return strings.Join(parts, " ")
}

// FormatUsage is Usage as a function.
func FormatUsage(s *Schema) string {
	return s.Usage()
}
