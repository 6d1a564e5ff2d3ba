package layout

import (
	"bytes"
	"context"
	"errors"
	"image"
	"io"
	"math"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"

	tberrors "github.com/ByLCY/tagboard/errors"
	"github.com/ByLCY/tagboard/report"
)

// stubMeasurer 按字符数估算宽度：每个字符占 fontSize/2，高度为 fontSize*0.75。
// 仅用于测试，避免依赖真实字体。
type stubMeasurer struct {
	mu    sync.Mutex
	calls int
	fail  bool
}

func (s *stubMeasurer) MeasureText(text string, fontSize float64) (TextMetrics, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.fail {
		return TextMetrics{}, errors.New("no font")
	}
	return TextMetrics{
		Width:  float64(utf8.RuneCountInString(text)) * fontSize / 2,
		Height: fontSize * 0.75,
	}, nil
}

// stubImages 按引用返回固定尺寸的图片；fail 为 true 时全部失败。
type stubImages struct {
	sizes map[string]image.Point
	delay map[string]time.Duration
	fail  bool

	mu    sync.Mutex
	calls map[string]int
}

func (s *stubImages) Load(ctx context.Context, ref string) (image.Image, error) {
	s.mu.Lock()
	if s.calls == nil {
		s.calls = map[string]int{}
	}
	s.calls[ref]++
	s.mu.Unlock()
	if d := s.delay[ref]; d > 0 {
		time.Sleep(d)
	}
	if s.fail {
		return nil, errors.New("404")
	}
	size, ok := s.sizes[ref]
	if !ok {
		return nil, errors.New("not found")
	}
	return image.NewRGBA(image.Rect(0, 0, size.X, size.Y)), nil
}

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func testOptions(m Measurer) BuildOptions {
	return BuildOptions{Measurer: m, Theme: DefaultTheme(), Logger: quietLogger()}
}

const eps = 1e-9

func TestBuildWordsOnly(t *testing.T) {
	m := &stubMeasurer{}
	opts := testOptions(m)
	res, err := Build(context.Background(), &report.Data{Words: []string{"A", "B"}}, opts)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := res.Count(KindRect); got != 2 {
		t.Fatalf("rects = %d, want 2", got)
	}
	if got := res.Count(KindText); got != 3 {
		t.Fatalf("texts = %d, want 3 (title + 2 tags)", got)
	}
	title, _ := m.MeasureText(opts.Theme.Title, opts.Theme.TitleSize)
	want := title.Height + opts.Theme.TitleMargin + opts.Theme.Tag.Height
	if math.Abs(res.Height-want) > eps {
		t.Fatalf("height = %g, want %g", res.Height, want)
	}
	if res.Width != opts.Theme.Width {
		t.Fatalf("width = %g, want %g", res.Width, opts.Theme.Width)
	}
}

func TestBuildEmptyDocumentHasOnlyTitle(t *testing.T) {
	m := &stubMeasurer{}
	opts := testOptions(m)
	res, err := Build(context.Background(), &report.Data{}, opts)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(res.Primitives) != 1 || res.Primitives[0].Kind() != KindText {
		t.Fatalf("expected a single title text, got %#v", res.Primitives)
	}
	title, _ := m.MeasureText(opts.Theme.Title, opts.Theme.TitleSize)
	if math.Abs(res.Height-(title.Height+opts.Theme.TitleMargin)) > eps {
		t.Fatalf("height = %g", res.Height)
	}
}

func TestBuildFailedThumbnailDegradesToFallback(t *testing.T) {
	opts := testOptions(&stubMeasurer{})
	opts.Theme.Thumbnail.Enabled = true
	opts.Theme.Thumbnail.Template = "chara/${label}.png"
	opts.Images = &stubImages{fail: true}
	data := &report.Data{Rows: []report.Row{{
		Tags:    []string{"T"},
		Entries: []report.Entry{{Label: "X", Level: 1}},
	}}}
	res, err := Build(context.Background(), data, opts)
	if err != nil {
		t.Fatalf("Build must not fail on image errors: %v", err)
	}
	var images []Image
	for _, p := range res.Primitives {
		if img, ok := p.(Image); ok {
			images = append(images, img)
		}
	}
	if len(images) != 1 {
		t.Fatalf("images = %d, want 1", len(images))
	}
	img := images[0]
	if img.Loaded() || img.Source != nil {
		t.Fatalf("expected no image data")
	}
	if img.Fallback != opts.Theme.Thumbnail.Fallback || img.Fallback.IsTransparent() {
		t.Fatalf("fallback = %v", img.Fallback)
	}
	if img.Ref != "chara/X.png" {
		t.Fatalf("ref = %q", img.Ref)
	}
	wantH := opts.Theme.Thumbnail.Height - 2*opts.Theme.Thumbnail.MarginY
	if img.Width != wantH || img.Height != wantH {
		t.Fatalf("fallback slot should be square %gx%g, got %gx%g", wantH, wantH, img.Width, img.Height)
	}
}

func TestBuildWithoutImageSourceFallsBack(t *testing.T) {
	opts := testOptions(&stubMeasurer{})
	opts.Theme.Thumbnail.Enabled = true
	data := &report.Data{Rows: []report.Row{{
		Tags:    []string{"T"},
		Entries: []report.Entry{{Label: "X", Level: 2, ImageRef: "x.png"}},
	}}}
	res, err := Build(context.Background(), data, opts)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if res.Count(KindImage) != 1 {
		t.Fatalf("expected one image slot")
	}
}

func TestBuildRowLayout(t *testing.T) {
	m := &stubMeasurer{}
	opts := testOptions(m)
	th := opts.Theme
	data := &report.Data{Rows: []report.Row{
		{Tags: []string{"支援机械", "支援"}, Entries: []report.Entry{{Label: "Castle-3", Level: 1}}},
		{Tags: []string{"辅助干员"}, Entries: []report.Entry{{Label: "初雪", Level: 5}, {Label: "梓兰", Level: 3}}},
	}}
	res, err := Build(context.Background(), data, opts)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	title, _ := m.MeasureText(th.Title, th.TitleSize)
	rowTop := title.Height + th.TitleMargin + th.ContentMargin

	// 标题之后是第一行的背景条
	bg0, ok := res.Primitives[1].(Rect)
	if !ok {
		t.Fatalf("primitive 1 should be the row background, got %T", res.Primitives[1])
	}
	tagsHeight := th.Tag.Height*2 + th.TagGap
	wantRow0 := tagsHeight + th.RowPadding*2
	if math.Abs(bg0.Y-rowTop) > eps || math.Abs(bg0.Height-wantRow0) > eps || bg0.Width != th.Width {
		t.Fatalf("row 0 background = %+v, want y=%g h=%g", bg0, rowTop, wantRow0)
	}
	if bg0.Color != th.RowTint(0) {
		t.Fatalf("row 0 tint = %v", bg0.Color)
	}

	// 第一列词条从 (RowPadding, rowTop+RowPadding) 开始
	tag0 := res.Primitives[2].(Rect)
	if tag0.X != th.RowPadding || math.Abs(tag0.Y-(rowTop+th.RowPadding)) > eps {
		t.Fatalf("first tag at (%g,%g)", tag0.X, tag0.Y)
	}
	tag1 := res.Primitives[4].(Rect)
	if math.Abs(tag1.Y-(tag0.Y+th.Tag.Height+th.TagGap)) > eps {
		t.Fatalf("second tag should stack below the first: %g vs %g", tag1.Y, tag0.Y)
	}
	entry := res.Primitives[6].(Rect)
	if entry.X != th.TagColumnWidth || entry.Color != th.Levels[1].Background {
		t.Fatalf("entry box = %+v", entry)
	}

	var backgrounds []Rect
	for _, p := range res.Primitives {
		if r, ok := p.(Rect); ok && r.Width == th.Width {
			backgrounds = append(backgrounds, r)
		}
	}
	if len(backgrounds) != 2 {
		t.Fatalf("backgrounds = %d, want 2", len(backgrounds))
	}
	if backgrounds[0].Color == backgrounds[1].Color {
		t.Fatalf("adjacent rows must use different tints")
	}
	if math.Abs(backgrounds[1].Y-(backgrounds[0].Y+backgrounds[0].Height)) > eps {
		t.Fatalf("rows must be contiguous")
	}
	last := backgrounds[1]
	if math.Abs(res.Height-(last.Y+last.Height)) > eps {
		t.Fatalf("page height %g should end at last row %g", res.Height, last.Y+last.Height)
	}
}

func TestBuildRejectsUndefinedLevel(t *testing.T) {
	opts := testOptions(&stubMeasurer{})
	data := &report.Data{Rows: []report.Row{{Tags: []string{"T"}, Entries: []report.Entry{{Label: "X", Level: 9}}}}}
	_, err := Build(context.Background(), data, opts)
	if err == nil {
		t.Fatalf("expected error for undefined level")
	}
	if !tberrors.Is(err, tberrors.ErrCodeInvalidInput) {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
}

func TestBuildMeasurementUnavailableIsFatal(t *testing.T) {
	_, err := Build(context.Background(), &report.Data{}, testOptions(&stubMeasurer{fail: true}))
	if !tberrors.Is(err, tberrors.ErrCodeMeasurementUnavailable) {
		t.Fatalf("expected MEASUREMENT_UNAVAILABLE, got %v", err)
	}
}

func TestBuildKeepsInputOrderDespiteLoadOrder(t *testing.T) {
	opts := testOptions(&stubMeasurer{})
	opts.Theme.Thumbnail.Enabled = true
	src := &stubImages{
		sizes: map[string]image.Point{"a": {10, 10}, "b": {20, 10}, "c": {10, 20}},
		delay: map[string]time.Duration{"a": 30 * time.Millisecond, "b": 10 * time.Millisecond},
	}
	opts.Images = src
	data := &report.Data{Rows: []report.Row{
		{Tags: []string{"1"}, Entries: []report.Entry{{Label: "A", Level: 1, ImageRef: "a"}, {Label: "B", Level: 2, ImageRef: "b"}}},
		{Tags: []string{"2"}, Entries: []report.Entry{{Label: "C", Level: 3, ImageRef: "c"}, {Label: "A", Level: 1, ImageRef: "a"}}},
	}}
	res, err := Build(context.Background(), data, opts)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	var refs []string
	for _, p := range res.Primitives {
		if img, ok := p.(Image); ok {
			refs = append(refs, img.Ref)
			if !img.Loaded() {
				t.Fatalf("image %s should be loaded", img.Ref)
			}
		}
	}
	if strings.Join(refs, ",") != "a,b,c,a" {
		t.Fatalf("image order = %v", refs)
	}
	if src.calls["a"] != 1 {
		t.Fatalf("duplicate refs should be loaded once, got %d", src.calls["a"])
	}
}

func TestDebugJSONTagsPrimitives(t *testing.T) {
	res, err := Build(context.Background(), &report.Data{Words: []string{"A"}}, testOptions(&stubMeasurer{}))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	var buf bytes.Buffer
	if err := EncodeJSON(&buf, res); err != nil {
		t.Fatalf("EncodeJSON: %v", err)
	}
	out := buf.String()
	for _, want := range []string{`"type": "text"`, `"type": "rect"`, `"color": "#6c757d"`, `"content": "A"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("JSON missing %s:\n%s", want, out)
		}
	}
}
