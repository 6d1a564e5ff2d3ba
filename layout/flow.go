package layout

// BoxFunc 在给定位置构造一个盒子，供流式与堆叠排版按顺序调用。
type BoxFunc func(at Point) (*Box, error)

// Packed 是一列排版的结果：占用高度、行数与尚未提交的图元。
type Packed struct {
	Height     float64
	Lines      int
	Primitives []Primitive
}

// Flow 描述横向折行排版：放满一行后换到下一行，行高固定。
type Flow struct {
	MaxWidth   float64
	LineHeight float64
	ItemGap    float64
	LineGap    float64
}

// Pack 从 start 开始依次放置 items。
//
// 盒子先在当前游标处构造；若当前行已占用宽度加上盒子宽度严格大于 MaxWidth 则换行，
// 并把盒子重新定位到新行行首（宽度恰好相等时不换行）。换行只改变位置，不改变盒子高度。
// 行首的盒子即使超宽也留在该行，不会产生空行。
// 总高度为 LineHeight*行数 + LineGap*(行数-1)；没有 item 时高度为 0。
func (f Flow) Pack(start Point, items []BoxFunc) (Packed, error) {
	if len(items) == 0 {
		return Packed{}, nil
	}
	cursor := start
	lineWidth := 0.0
	lines := 1
	var prims []Primitive
	for _, item := range items {
		box, err := item(cursor)
		if err != nil {
			return Packed{}, err
		}
		if lineWidth > 0 && lineWidth+box.Width > f.MaxWidth {
			cursor.X = start.X
			cursor.Y += f.LineHeight + f.LineGap
			lines++
			lineWidth = 0
			box.Relocate(cursor)
		}
		cursor.X += box.Width + f.ItemGap
		lineWidth += box.Width + f.ItemGap
		prims = append(prims, box.Primitives()...)
	}
	return Packed{
		Height:     f.LineHeight*float64(lines) + f.LineGap*float64(lines-1),
		Lines:      lines,
		Primitives: prims,
	}, nil
}

// Stack 描述纵向堆叠：每个盒子直接放在上一个下方，不受宽度约束。
type Stack struct {
	Gap float64
}

// Place 从 start 开始纵向放置 items，高度为各盒子高度之和加上间距。
func (s Stack) Place(start Point, items []BoxFunc) (Packed, error) {
	cursor := start
	height := 0.0
	var prims []Primitive
	for i, item := range items {
		box, err := item(cursor)
		if err != nil {
			return Packed{}, err
		}
		cursor.Y += box.Height + s.Gap
		height += box.Height
		if i < len(items)-1 {
			height += s.Gap
		}
		prims = append(prims, box.Primitives()...)
	}
	return Packed{Height: height, Lines: len(items), Primitives: prims}, nil
}
