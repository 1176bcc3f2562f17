package tools

import (
	"strings"
	"testing"

	"tempo/pkg/api"
)

func schemaFixture() api.Tool {
	return NewClientTool("fixture", "", map[string]any{
		"view": map[string]any{"type": "string", "enum": []string{"day", "week", "month"}},
		"date": map[string]any{"type": "string", "format": "date"},
		"dates": map[string]any{
			"type":     "array",
			"items":    map[string]any{"type": "string", "format": "date"},
			"maxItems": 3,
		},
		"count":  map[string]any{"type": "number"},
		"allDay": map[string]any{"type": "boolean"},
	}, []string{"date"})
}

func TestValidateArgsRequiredPresence(t *testing.T) {
	tool := schemaFixture()

	if err := ValidateArgs(tool, map[string]any{}); err == nil {
		t.Fatalf("missing required parameter must fail")
	}
	if err := ValidateArgs(tool, map[string]any{"date": nil}); err == nil {
		t.Fatalf("nil required parameter must fail")
	}
	if err := ValidateArgs(tool, map[string]any{"date": "2026-02-01"}); err != nil {
		t.Fatalf("valid args rejected: %v", err)
	}
}

func TestValidateArgsTypeMismatches(t *testing.T) {
	tool := schemaFixture()

	cases := map[string]map[string]any{
		"string":  {"date": 42},
		"boolean": {"date": "2026-02-01", "allDay": "yes"},
		"number":  {"date": "2026-02-01", "count": "three"},
		"array":   {"date": "2026-02-01", "dates": "2026-02-01"},
	}
	for name, args := range cases {
		if err := ValidateArgs(tool, args); err == nil {
			t.Fatalf("%s mismatch accepted: %v", name, args)
		}
	}
}

func TestValidateArgsEnumAndFormat(t *testing.T) {
	tool := schemaFixture()

	err := ValidateArgs(tool, map[string]any{"date": "2026-02-01", "view": "year"})
	if err == nil || !strings.Contains(err.Error(), "view") {
		t.Fatalf("enum violation not reported: %v", err)
	}

	if err := ValidateArgs(tool, map[string]any{"date": "02/01/2026"}); err == nil {
		t.Fatalf("malformed date accepted")
	}

	if err := ValidateArgs(tool, map[string]any{"date": "2026-02-01", "view": "week"}); err != nil {
		t.Fatalf("valid enum rejected: %v", err)
	}
}

func TestValidateArgsEnumDeclarationShapes(t *testing.T) {
	// Enums are declared as []string in our schemas and arrive as []any
	// when a schema has been round-tripped through JSON. Both shapes must
	// be enforced.
	for name, enum := range map[string]any{
		"strings": []string{"day", "week"},
		"any":     []any{"day", "week"},
	} {
		tool := NewClientTool("fixture", "", map[string]any{
			"view": map[string]any{"type": "string", "enum": enum},
		}, nil)

		if err := ValidateArgs(tool, map[string]any{"view": "year"}); err == nil {
			t.Fatalf("%s enum violation accepted", name)
		}
		if err := ValidateArgs(tool, map[string]any{"view": "day"}); err != nil {
			t.Fatalf("%s valid enum rejected: %v", name, err)
		}
	}
}

func TestValidateArgsArrayBoundsAndItems(t *testing.T) {
	tool := schemaFixture()

	err := ValidateArgs(tool, map[string]any{
		"date":  "2026-02-01",
		"dates": []any{"2026-02-01", "2026-02-02", "2026-02-03", "2026-02-04"},
	})
	if err == nil {
		t.Fatalf("maxItems violation accepted")
	}

	err = ValidateArgs(tool, map[string]any{
		"date":  "2026-02-01",
		"dates": []any{"2026-02-01", "not-a-date"},
	})
	if err == nil || !strings.Contains(err.Error(), "dates[1]") {
		t.Fatalf("item violation not located: %v", err)
	}
}

func TestValidateArgsToleratesUnknownKeys(t *testing.T) {
	tool := schemaFixture()

	// Models attach stray fields; they must never fail validation.
	if err := ValidateArgs(tool, map[string]any{"date": "2026-02-01", "reasoning": "because"}); err != nil {
		t.Fatalf("unknown key rejected: %v", err)
	}
}

func TestParseTimestampLayouts(t *testing.T) {
	for _, value := range []string{
		"2026-02-01T09:30:00Z",
		"2026-02-01T09:30:00",
		"2026-02-01 09:30:00",
	} {
		if _, err := ParseTimestamp(value); err != nil {
			t.Fatalf("layout rejected: %q: %v", value, err)
		}
	}
	if _, err := ParseTimestamp("tomorrow"); err == nil {
		t.Fatalf("garbage timestamp accepted")
	}
}

func TestFormatTimestampNormalizesOffsets(t *testing.T) {
	// The store holds naive timestamps, so zone-carrying inputs must be
	// shifted to UTC before the offset is dropped.
	for input, want := range map[string]string{
		"2026-02-01T09:00:00+02:00": "2026-02-01T07:00:00",
		"2026-02-01T09:00:00Z":      "2026-02-01T09:00:00",
		"2026-02-01T09:00:00":       "2026-02-01T09:00:00",
	} {
		parsed, err := ParseTimestamp(input)
		if err != nil {
			t.Fatalf("parse %q: %v", input, err)
		}
		if got := FormatTimestamp(parsed); got != want {
			t.Fatalf("FormatTimestamp(%q) = %q, want %q", input, got, want)
		}
	}
}
