// Package binding 展开 ${field} 形式的模板，用于从条目字段推导缩略图引用。
package binding

import (
	"fmt"
	"regexp"
	"strings"
)

var exprPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Expand 将 template 中的 ${path.to.value} 替换为 fields 中的值。
// 任一占位符缺失或展开为空串时返回 ok=false，调用方应视为没有可用引用。
func Expand(template string, fields map[string]any) (string, bool) {
	if template == "" {
		return "", false
	}
	ok := true
	out := exprPattern.ReplaceAllStringFunc(template, func(match string) string {
		path := strings.TrimSpace(exprPattern.FindStringSubmatch(match)[1])
		val, found := lookup(fields, path)
		if !found {
			ok = false
			return match
		}
		s := fmt.Sprint(val)
		if s == "" {
			ok = false
		}
		return s
	})
	return out, ok
}

// Placeholders 返回模板引用的字段路径，按出现顺序排列。
func Placeholders(template string) []string {
	var names []string
	for _, groups := range exprPattern.FindAllStringSubmatch(template, -1) {
		names = append(names, strings.TrimSpace(groups[1]))
	}
	return names
}

func lookup(fields map[string]any, path string) (any, bool) {
	if path == "" {
		return nil, false
	}
	var current any = fields
	for _, segment := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[segment]
		if !ok || current == nil {
			return nil, false
		}
	}
	return current, true
}
