package layout

import (
	"context"
	"fmt"
	"math"

	"github.com/charmbracelet/log"

	"github.com/ByLCY/tagboard/report"
)

// Build 根据输入数据生成整张报告的有序图元列表。
//
// 顺序为：标题，识别词条流，随后逐行输出（背景条、词条列、条目列）。
// 每一行的两列都先只测量、不提交，等两列高度都已知后才能确定共享背景条的高度，
// 然后按背景、词条、条目的顺序提交。缩略图在排版前并发加载，输出顺序始终与输入一致。
func Build(ctx context.Context, data *report.Data, opts BuildOptions) (*Result, error) {
	if data == nil {
		return nil, fmt.Errorf("layout: 输入数据为空")
	}
	if opts.Measurer == nil {
		return nil, fmt.Errorf("layout: 缺少文本测量后端 Measurer")
	}
	if err := opts.Theme.Validate(); err != nil {
		return nil, fmt.Errorf("layout: 主题配置无效: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	measure, ok := opts.Measurer.(*MeasureCache)
	if !ok {
		measure = NewMeasureCache(opts.Measurer)
	}

	var thumbs map[string]Thumbnail
	if opts.Theme.Thumbnail.Enabled {
		var err error
		thumbs, err = fetchThumbnails(ctx, data, opts, logger)
		if err != nil {
			return nil, err
		}
	}

	doc := &document{
		theme:   &opts.Theme,
		boxes:   &boxBuilder{measure: measure, theme: &opts.Theme},
		measure: measure,
		thumbs:  thumbs,
	}
	if err := doc.addTitle(); err != nil {
		return nil, err
	}
	if err := doc.addWords(data.Words); err != nil {
		return nil, err
	}
	if len(data.Rows) > 0 {
		doc.height += doc.theme.ContentMargin
	}
	for i, row := range data.Rows {
		if err := doc.addRow(i, row); err != nil {
			return nil, fmt.Errorf("排版第 %d 行失败: %w", i, err)
		}
	}
	logger.Debug("布局完成", "rows", len(data.Rows), "primitives", len(doc.prims), "height", doc.height)

	return &Result{
		Width:      doc.theme.Width,
		Height:     doc.height,
		Primitives: doc.prims,
	}, nil
}

// document 保存构建过程中的页面高度游标与只增不改的图元列表。
type document struct {
	theme   *Theme
	boxes   *boxBuilder
	measure Measurer
	thumbs  map[string]Thumbnail

	height float64
	prims  []Primitive
}

func (d *document) commit(prims ...Primitive) {
	d.prims = append(d.prims, prims...)
}

// addTitle 输出标题文本，并把页面高度推进到标题下方。
func (d *document) addTitle() error {
	t := d.theme
	m, err := d.measure.MeasureText(t.Title, t.TitleSize)
	if err != nil {
		return err
	}
	d.commit(Text{X: 0, Y: 0, FontSize: t.TitleSize, Color: t.TitleColor, Content: t.Title})
	d.height += m.Height + t.TitleMargin
	return nil
}

// addWords 把识别词条按页面宽度折行排列。
func (d *document) addWords(words []string) error {
	items := make([]BoxFunc, len(words))
	for i, word := range words {
		items[i] = func(at Point) (*Box, error) { return d.boxes.TagBox(at, word) }
	}
	flow := Flow{
		MaxWidth:   d.theme.Width,
		LineHeight: d.theme.Tag.Height,
		ItemGap:    d.theme.ItemGap,
		LineGap:    d.theme.LineGap,
	}
	packed, err := flow.Pack(Point{X: 0, Y: d.height}, items)
	if err != nil {
		return err
	}
	d.commit(packed.Primitives...)
	d.height += packed.Height
	return nil
}

// addRow 排版一行：左侧词条组合纵向堆叠，右侧条目横向折行。
func (d *document) addRow(index int, row report.Row) error {
	t := d.theme
	top := d.height + t.RowPadding

	tagItems := make([]BoxFunc, len(row.Tags))
	for i, tag := range row.Tags {
		tagItems[i] = func(at Point) (*Box, error) { return d.boxes.TagBox(at, tag) }
	}
	tags, err := Stack{Gap: t.TagGap}.Place(Point{X: t.RowPadding, Y: top}, tagItems)
	if err != nil {
		return err
	}

	entryItems := make([]BoxFunc, len(row.Entries))
	for i, e := range row.Entries {
		thumb := d.thumbs[thumbnailRef(e, t.Thumbnail.Template)]
		entryItems[i] = func(at Point) (*Box, error) { return d.boxes.EntryBox(at, e, thumb) }
	}
	flow := Flow{
		MaxWidth:   t.Width - t.TagColumnWidth,
		LineHeight: t.EntryHeight(),
		ItemGap:    t.ItemGap,
		LineGap:    t.LineGap,
	}
	entries, err := flow.Pack(Point{X: t.TagColumnWidth, Y: top}, entryItems)
	if err != nil {
		return err
	}

	rowHeight := math.Max(tags.Height, entries.Height) + t.RowPadding*2
	d.commit(Rect{X: 0, Y: d.height, Width: t.Width, Height: rowHeight, Color: t.RowTint(index)})
	d.commit(tags.Primitives...)
	d.commit(entries.Primitives...)
	d.height += rowHeight
	return nil
}
