// Package fonts 提供渲染与测量共用的字体数据。
package fonts

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	// Regular 是默认正文字体。
	Regular = "builtin:go-regular"
	// Bold 是默认标题字体。
	Bold = "builtin:go-bold"
)

var builtin = map[string][]byte{
	"go-regular": goregular.TTF,
	"go-bold":    gobold.TTF,
}

// Load 返回字体字节。src 可以写为 "builtin:go-regular" 或 TTF/OTF 文件路径，空串表示默认字体。
func Load(src string) ([]byte, error) {
	if src == "" {
		src = Regular
	}
	if name, ok := strings.CutPrefix(src, "builtin:"); ok {
		data, found := builtin[name]
		if !found {
			return nil, fmt.Errorf("找不到内置字体 %s", src)
		}
		return data, nil
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("读取字体 %s 失败: %w", src, err)
	}
	return data, nil
}
