// Package report 定义布局引擎的输入数据：识别出的词条，以及按词条组合分组的条目行。
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	tberrors "github.com/ByLCY/tagboard/errors"
)

// Data 是整张报告的输入树，只读。
type Data struct {
	Words []string `json:"words" yaml:"words"`
	Rows  []Row    `json:"rows" yaml:"rows"`
}

// Row 是一组词条组合及其命中的条目。
type Row struct {
	Tags    []string `json:"tags" yaml:"tags"`
	Entries []Entry  `json:"entries" yaml:"entries"`
}

// Entry 是一个带等级的条目，ImageRef 为空时可以由 Key 通过模板推导出缩略图引用。
type Entry struct {
	Label    string `json:"label" yaml:"label"`
	Level    int    `json:"level" yaml:"level"`
	Key      string `json:"key,omitempty" yaml:"key,omitempty"`
	ImageRef string `json:"imageRef,omitempty" yaml:"imageRef,omitempty"`
}

// Fields 返回供图片模板展开使用的字段表。
func (e Entry) Fields() map[string]any {
	return map[string]any{
		"label": e.Label,
		"level": e.Level,
		"key":   e.Key,
	}
}

// Validate 检查必填字段。等级是否有对应配色由布局阶段根据主题判断。
func (d *Data) Validate() error {
	for i, w := range d.Words {
		if strings.TrimSpace(w) == "" {
			return tberrors.New(tberrors.ErrCodeInvalidInput, "words[%d] 为空", i)
		}
	}
	for i, row := range d.Rows {
		for j, tag := range row.Tags {
			if strings.TrimSpace(tag) == "" {
				return tberrors.New(tberrors.ErrCodeInvalidInput, "rows[%d].tags[%d] 为空", i, j)
			}
		}
		for j, e := range row.Entries {
			if strings.TrimSpace(e.Label) == "" {
				return tberrors.New(tberrors.ErrCodeInvalidInput, "rows[%d].entries[%d] 缺少 label", i, j)
			}
			if e.Level <= 0 {
				return tberrors.New(tberrors.ErrCodeInvalidInput, "rows[%d].entries[%d] (%s) 缺少 level", i, j, e.Label)
			}
		}
	}
	return nil
}

// Format 表示输入文件格式。
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTags Format = "tags"
)

// FormatFromPath 根据扩展名推断格式，未知扩展名按 JSON 处理。
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".tags":
		return FormatTags
	default:
		return FormatJSON
	}
}

// Decode 从 r 中解码 JSON 或 YAML 数据并校验。
func Decode(r io.Reader, format Format) (*Data, error) {
	var data Data
	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&data); err != nil {
			return nil, tberrors.Wrap(tberrors.ErrCodeInvalidInput, err, "解析 JSON 数据失败")
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&data); err != nil {
			return nil, tberrors.Wrap(tberrors.ErrCodeInvalidInput, err, "解析 YAML 数据失败")
		}
	default:
		return nil, fmt.Errorf("report: 不支持的格式 %q", format)
	}
	if err := data.Validate(); err != nil {
		return nil, err
	}
	return &data, nil
}

// DecodeFile 打开 path 并按扩展名解码。
func DecodeFile(path string) (*Data, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("无法打开数据文件 %s: %w", path, err)
	}
	defer file.Close()
	return Decode(file, FormatFromPath(path))
}
