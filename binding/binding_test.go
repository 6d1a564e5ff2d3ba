package binding

import (
	"reflect"
	"testing"
)

func TestExpandResolvesFields(t *testing.T) {
	fields := map[string]any{
		"key":   "castle3",
		"level": 1,
		"meta":  map[string]any{"dir": "chara"},
	}
	got, ok := Expand("res/${meta.dir}/${key}-${level}.png", fields)
	if !ok {
		t.Fatalf("expected template to resolve")
	}
	if want := "res/chara/castle3-1.png"; got != want {
		t.Fatalf("Expand = %q, want %q", got, want)
	}
}

func TestExpandReportsMissingOrEmpty(t *testing.T) {
	cases := map[string]map[string]any{
		"missing": {"label": "x"},
		"empty":   {"key": ""},
		"nil":     {"key": nil},
	}
	for name, fields := range cases {
		if _, ok := Expand("chara/${key}.png", fields); ok {
			t.Fatalf("%s: expected ok=false", name)
		}
	}
	if _, ok := Expand("", map[string]any{"key": "a"}); ok {
		t.Fatalf("empty template must not resolve")
	}
}

func TestExpandWithoutPlaceholders(t *testing.T) {
	got, ok := Expand("static.png", nil)
	if !ok || got != "static.png" {
		t.Fatalf("Expand = %q, %v", got, ok)
	}
}

func TestPlaceholders(t *testing.T) {
	got := Placeholders("${ key }/${level}.png")
	if !reflect.DeepEqual(got, []string{"key", "level"}) {
		t.Fatalf("Placeholders = %#v", got)
	}
}
