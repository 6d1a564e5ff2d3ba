package report

import (
	"strings"
	"testing"

	tberrors "github.com/ByLCY/tagboard/errors"
)

func TestDecodeJSONAndYAMLAgree(t *testing.T) {
	jsonText := `{"words":["支援","位移"],"rows":[{"tags":["支援"],"entries":[{"label":"凛冬","level":5,"key":"zima"}]}]}`
	yamlText := `
words: [支援, 位移]
rows:
  - tags: [支援]
    entries:
      - label: 凛冬
        level: 5
        key: zima
`
	fromJSON, err := Decode(strings.NewReader(jsonText), FormatJSON)
	if err != nil {
		t.Fatalf("json: %v", err)
	}
	fromYAML, err := Decode(strings.NewReader(yamlText), FormatYAML)
	if err != nil {
		t.Fatalf("yaml: %v", err)
	}
	if len(fromJSON.Rows) != 1 || len(fromYAML.Rows) != 1 {
		t.Fatalf("expected one row in both, got %d/%d", len(fromJSON.Rows), len(fromYAML.Rows))
	}
	a, b := fromJSON.Rows[0].Entries[0], fromYAML.Rows[0].Entries[0]
	if a != b {
		t.Fatalf("entries differ: %#v vs %#v", a, b)
	}
	if a.Fields()["key"] != "zima" {
		t.Fatalf("unexpected fields %#v", a.Fields())
	}
}

func TestValidateRejectsMissingLabelAndLevel(t *testing.T) {
	cases := map[string]string{
		"label": `{"rows":[{"tags":["a"],"entries":[{"label":"","level":1}]}]}`,
		"level": `{"rows":[{"tags":["a"],"entries":[{"label":"x"}]}]}`,
		"tag":   `{"rows":[{"tags":[" "],"entries":[]}]}`,
		"word":  `{"words":[""]}`,
	}
	for name, text := range cases {
		_, err := Decode(strings.NewReader(text), FormatJSON)
		if err == nil {
			t.Fatalf("%s: expected error", name)
		}
		if !tberrors.Is(err, tberrors.ErrCodeInvalidInput) {
			t.Fatalf("%s: expected INVALID_INPUT, got %v", name, err)
		}
	}
}

func TestFormatFromPath(t *testing.T) {
	cases := map[string]Format{
		"a.json":    FormatJSON,
		"a.YAML":    FormatYAML,
		"dir/b.yml": FormatYAML,
		"c.tags":    FormatTags,
		"no-ext":    FormatJSON,
	}
	for path, want := range cases {
		if got := FormatFromPath(path); got != want {
			t.Fatalf("FormatFromPath(%q) = %q, want %q", path, got, want)
		}
	}
}
