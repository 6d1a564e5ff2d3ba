package cli

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tberrors "github.com/ByLCY/tagboard/errors"
	"github.com/ByLCY/tagboard/renderer"
)

const sampleJSON = `{
  "words": ["高级资深干员", "输出"],
  "rows": [
    {"tags": ["高级资深干员"], "entries": [{"label": "能天使", "level": 6, "key": "angel"}]},
    {"tags": ["输出"], "entries": [{"label": "陈", "level": 5}, {"label": "芬", "level": 3}]}
  ]
}`

const sampleTags = `
words "输出"
row "输出" {
  entry "陈" level 5 key "chen"
}
`

func writeInput(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		output, input string
		format        renderer.Format
		want          string
	}{
		{"", "data/report.json", renderer.FormatPNG, "data/report.png"},
		{"", "report.tags", renderer.FormatPDF, "report.pdf"},
		{"out/x.png", "report.json", renderer.FormatPNG, "out/x.png"},
	}
	for _, tt := range tests {
		if got := outputPath(tt.output, tt.input, tt.format); got != tt.want {
			t.Errorf("outputPath(%q, %q) = %q, want %q", tt.output, tt.input, got, tt.want)
		}
	}
}

func TestLoadConfigAppliesFlags(t *testing.T) {
	cmd := newRenderCmd()
	if err := cmd.ParseFlags([]string{"--width", "500", "--engine", "gg", "--thumbnails", "--seed", "7"}); err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}
	o := &pipelineOpts{}
	o.width, _ = cmd.Flags().GetFloat64("width")
	o.engine, _ = cmd.Flags().GetString("engine")
	o.thumbnails, _ = cmd.Flags().GetBool("thumbnails")
	o.seed, _ = cmd.Flags().GetInt64("seed")
	cfg, err := loadConfig(cmd, o)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Theme.Width != 500 || cfg.Render.Engine != "gg" || !cfg.Theme.Thumbnail.Enabled || cfg.Render.Seed != 7 {
		t.Fatalf("flags not applied: width=%g engine=%s thumbs=%v seed=%d",
			cfg.Theme.Width, cfg.Render.Engine, cfg.Theme.Thumbnail.Enabled, cfg.Render.Seed)
	}
	if cfg.Render.Padding != 10 {
		t.Fatalf("unchanged flag should keep default padding, got %g", cfg.Render.Padding)
	}
}

func TestRenderCommandWritesPNG(t *testing.T) {
	input := writeInput(t, "report.json", sampleJSON)
	out := filepath.Join(t.TempDir(), "out", "report.png")
	debug := filepath.Join(t.TempDir(), "layout.json")
	for _, engine := range []string{"canvas", "gg"} {
		if _, err := execute(t, "render", input, "-o", out, "--engine", engine, "--width", "400", "--debug", debug); err != nil {
			t.Fatalf("%s: render failed: %v", engine, err)
		}
		f, err := os.Open(out)
		if err != nil {
			t.Fatalf("%s: output missing: %v", engine, err)
		}
		img, err := png.Decode(f)
		f.Close()
		if err != nil {
			t.Fatalf("%s: decode: %v", engine, err)
		}
		if img.Bounds().Dx() != 420 {
			t.Fatalf("%s: width = %d, want 420", engine, img.Bounds().Dx())
		}
		if _, err := os.Stat(debug); err != nil {
			t.Fatalf("%s: debug JSON missing: %v", engine, err)
		}
	}
}

func TestRenderCommandPDF(t *testing.T) {
	input := writeInput(t, "report.tags", sampleTags)
	if _, err := execute(t, "render", input, "--format", "pdf"); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	data, err := os.ReadFile(strings.TrimSuffix(input, ".tags") + ".pdf")
	if err != nil {
		t.Fatalf("pdf missing: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("output is not a PDF")
	}
}

func TestRenderCommandRejectsBadInput(t *testing.T) {
	input := writeInput(t, "bad.json", `{"rows": [{"tags": ["a"], "entries": [{"label": "x", "level": 9}]}]}`)
	_, err := execute(t, "render", input)
	if !tberrors.Is(err, tberrors.ErrCodeInvalidInput) {
		t.Fatalf("undefined level err = %v, want INVALID_INPUT", err)
	}
	_, err = execute(t, "render", input, "--engine", "svg")
	if !tberrors.Is(err, tberrors.ErrCodeInvalidConfig) {
		t.Fatalf("bad engine err = %v, want INVALID_CONFIG", err)
	}
}

func TestLayoutCommandPrintsJSON(t *testing.T) {
	input := writeInput(t, "report.tags", sampleTags)
	out, err := execute(t, "layout", input, "--thumbnails", "--thumbnail-template", "missing/${key}.png")
	if err != nil {
		t.Fatalf("layout failed: %v", err)
	}
	for _, want := range []string{`"type": "text"`, `"content": "识别词条:"`, `"ref": "missing/chen.png"`, `"loaded": false`} {
		if !strings.Contains(out, want) {
			t.Fatalf("layout JSON missing %s:\n%s", want, out)
		}
	}
}
