// Package dsl 解析 .tags 文本格式的识别结果。
//
//	# 识别到的词条
//	words "高级资深干员" "输出"
//
//	row "高级资深干员" {
//	  entry "能天使" level 6 key "char_103_angel"
//	  entry "银灰" level 6 image "chara/silverash.png"
//	}
//
// 换行不敏感；每个 entry 必须给出 level，key 与 image 可选且各出现一次。
package dsl

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	tberrors "github.com/ByLCY/tagboard/errors"
	"github.com/ByLCY/tagboard/report"
)

var (
	tagsLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
		{Name: "BlockComment", Pattern: `/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`},
		{Name: "LineComment", Pattern: `(?://|#)[^\n]*`},
		{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
		{Name: "Int", Pattern: `-?\d+`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
		{Name: "LBrace", Pattern: `{`},
		{Name: "RBrace", Pattern: `}`},
	})

	elided = map[lexer.TokenType]bool{
		mustTokenType("Whitespace"):   true,
		mustTokenType("LineComment"):  true,
		mustTokenType("BlockComment"): true,
	}

	fileParser = participle.MustBuild[File](
		participle.Lexer(tagsLexer),
		participle.Unquote("String"),
		participle.Elide("Whitespace", "LineComment", "BlockComment"),
	)
)

// File 是 .tags 文件的语法树根节点。
type File struct {
	Statements []*Statement `parser:"@@*"`
}

// Statement 是顶层语句：words 或 row。
type Statement struct {
	Pos   lexer.Position
	Words *Words `parser:"  @@"`
	Row   *Row   `parser:"| @@"`
}

type Words struct {
	Values []string `parser:"'words' @String+"`
}

type Row struct {
	Pos     lexer.Position
	Tags    []string `parser:"'row' @String+"`
	Entries []*Entry `parser:"'{' @@* '}'"`
}

type Entry struct {
	Pos   lexer.Position
	Label string  `parser:"'entry' @String"`
	Attrs []*Attr `parser:"@@*"`
}

// Attr 是 entry 的一个属性。
type Attr struct {
	Pos   lexer.Position
	Level *int    `parser:"  'level' @Int"`
	Key   *string `parser:"| 'key' @String"`
	Image *string `parser:"| 'image' @String"`
}

// Parse 读取 .tags 内容并转换为校验过的报告数据。name 仅用于错误位置。
func Parse(name string, r io.Reader) (*report.Data, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("读取 %s 失败: %w", name, err)
	}
	return parse(name, string(raw))
}

// ParseString 解析字符串形式的 .tags 内容。
func ParseString(input string) (*report.Data, error) {
	return parse("", input)
}

func parse(name, input string) (*report.Data, error) {
	// participle 不接受没有任何语句的输入，只含空白与注释的文件直接视为空报告。
	if blank(name, input) {
		return &report.Data{}, nil
	}
	file, err := fileParser.ParseString(name, input)
	if err != nil {
		return nil, tberrors.Wrap(tberrors.ErrCodeInvalidInput, err, "解析 %s 失败", name)
	}
	return file.Data()
}

func blank(name, input string) bool {
	lex, err := tagsLexer.LexString(name, input)
	if err != nil {
		return false
	}
	for {
		tok, err := lex.Next()
		if err != nil {
			return false
		}
		if tok.EOF() {
			return true
		}
		if !elided[tok.Type] {
			return false
		}
	}
}

// ParseFile 打开 path 并解析。
func ParseFile(path string) (*report.Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("无法打开数据文件 %s: %w", path, err)
	}
	defer f.Close()
	return Parse(path, f)
}

// Data 把语法树转换为 report.Data。多个 words 语句按出现顺序拼接。
func (f *File) Data() (*report.Data, error) {
	data := &report.Data{}
	for _, st := range f.Statements {
		switch {
		case st.Words != nil:
			data.Words = append(data.Words, st.Words.Values...)
		case st.Row != nil:
			row, err := st.Row.convert()
			if err != nil {
				return nil, err
			}
			data.Rows = append(data.Rows, row)
		}
	}
	if err := data.Validate(); err != nil {
		return nil, err
	}
	return data, nil
}

func (r *Row) convert() (report.Row, error) {
	row := report.Row{Tags: r.Tags}
	for _, e := range r.Entries {
		entry, err := e.convert()
		if err != nil {
			return report.Row{}, err
		}
		row.Entries = append(row.Entries, entry)
	}
	return row, nil
}

func (e *Entry) convert() (report.Entry, error) {
	out := report.Entry{Label: e.Label}
	seen := map[string]bool{}
	for _, a := range e.Attrs {
		name := a.name()
		if seen[name] {
			return report.Entry{}, tberrors.New(tberrors.ErrCodeInvalidInput, "%s: entry %q 重复定义 %s", a.Pos, e.Label, name)
		}
		seen[name] = true
		switch {
		case a.Level != nil:
			out.Level = *a.Level
		case a.Key != nil:
			out.Key = *a.Key
		case a.Image != nil:
			out.ImageRef = *a.Image
		}
	}
	if !seen["level"] {
		return report.Entry{}, tberrors.New(tberrors.ErrCodeInvalidInput, "%s: entry %q 缺少 level", e.Pos, e.Label)
	}
	return out, nil
}

func (a *Attr) name() string {
	switch {
	case a.Level != nil:
		return "level"
	case a.Key != nil:
		return "key"
	default:
		return "image"
	}
}

func mustTokenType(name string) lexer.TokenType {
	tt, ok := tagsLexer.Symbols()[name]
	if !ok {
		panic(fmt.Sprintf("dsl: token %s not defined", name))
	}
	return tt
}
