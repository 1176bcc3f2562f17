package tools

import (
	"fmt"
	"time"

	"tempo/pkg/api"
)

// ValidateArgs checks an argument map against a tool's parameter schema:
// required presence, primitive types, enum membership, date formats, and
// array bounds. It runs before any side effect; a violation is returned as
// an error and never surfaces as a panic.
func ValidateArgs(t api.Tool, args map[string]any) error {
	for _, name := range t.RequiredParameters() {
		v, ok := args[name]
		if !ok || v == nil {
			return fmt.Errorf("missing required parameter %q", name)
		}
	}

	params := t.Parameters()
	for name, raw := range args {
		spec, ok := params[name].(map[string]any)
		if !ok {
			// Unknown keys are tolerated; models attach stray fields.
			continue
		}
		if raw == nil {
			continue
		}
		if err := validateValue(name, raw, spec); err != nil {
			return err
		}
	}
	return nil
}

func validateValue(name string, raw any, spec map[string]any) error {
	typ, _ := spec["type"].(string)

	switch typ {
	case "string":
		s, ok := raw.(string)
		if !ok {
			return fmt.Errorf("parameter %q must be a string", name)
		}
		if err := validateFormat(name, s, spec); err != nil {
			return err
		}
		if err := validateEnum(name, s, spec); err != nil {
			return err
		}

	case "boolean":
		if _, ok := raw.(bool); !ok {
			return fmt.Errorf("parameter %q must be a boolean", name)
		}

	case "number", "integer":
		if _, ok := raw.(float64); !ok {
			if _, ok := raw.(int); !ok {
				return fmt.Errorf("parameter %q must be a number", name)
			}
		}

	case "array":
		items, ok := raw.([]any)
		if !ok {
			return fmt.Errorf("parameter %q must be an array", name)
		}
		if max, ok := asInt(spec["maxItems"]); ok && len(items) > max {
			return fmt.Errorf("parameter %q accepts at most %d items", name, max)
		}
		if itemSpec, ok := spec["items"].(map[string]any); ok {
			for i, item := range items {
				if err := validateValue(fmt.Sprintf("%s[%d]", name, i), item, itemSpec); err != nil {
					return err
				}
			}
		}

	case "object":
		if _, ok := raw.(map[string]any); !ok {
			return fmt.Errorf("parameter %q must be an object", name)
		}
	}
	return nil
}

func validateFormat(name, value string, spec map[string]any) error {
	format, _ := spec["format"].(string)
	switch format {
	case "date":
		if _, err := time.Parse("2006-01-02", value); err != nil {
			return fmt.Errorf("parameter %q must be a YYYY-MM-DD date", name)
		}
	case "date-time":
		if _, err := ParseTimestamp(value); err != nil {
			return fmt.Errorf("parameter %q must be an ISO-8601 timestamp", name)
		}
	}
	return nil
}

func validateEnum(name, value string, spec map[string]any) error {
	// Schemas declare enums as []string; decoded JSON schemas carry []any.
	var allowed []string
	switch enum := spec["enum"].(type) {
	case []string:
		allowed = enum
	case []any:
		for _, v := range enum {
			if s, ok := v.(string); ok {
				allowed = append(allowed, s)
			}
		}
	}
	if len(allowed) == 0 {
		return nil
	}
	for _, s := range allowed {
		if s == value {
			return nil
		}
	}
	return fmt.Errorf("parameter %q must be one of %v", name, allowed)
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		return int(n), true
	}
	return 0, false
}

// timestampLayouts lists the accepted wire formats for event and highlight
// times, most specific first.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseTimestamp parses an ISO-8601-ish timestamp string.
func ParseTimestamp(value string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

// FormatTimestamp renders a time in the naive wire format the store
// expects. Zone-carrying inputs are converted to UTC first so the stored
// digits always denote the same instant regardless of the input's offset.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05")
}
