package layout

import (
	"sync"

	tberrors "github.com/ByLCY/tagboard/errors"
)

type measureKey struct {
	text string
	size float64
}

// MeasureCache 按 (text, fontSize) 记忆测量结果。同一次构建中相同的键总是返回同一个值，
// 后续的尺寸计算可以依赖这一点。读取可以并发进行，每个键至多写入一次。
type MeasureCache struct {
	backend Measurer

	mu      sync.RWMutex
	entries map[measureKey]TextMetrics
}

var _ Measurer = (*MeasureCache)(nil)

// NewMeasureCache 包装一个测量后端。
func NewMeasureCache(backend Measurer) *MeasureCache {
	return &MeasureCache{
		backend: backend,
		entries: map[measureKey]TextMetrics{},
	}
}

// MeasureText 返回缓存值或调用后端测量。后端失败说明宿主环境缺少字体等资源，
// 错误码为 MEASUREMENT_UNAVAILABLE 且不会被缓存。
func (c *MeasureCache) MeasureText(text string, fontSize float64) (TextMetrics, error) {
	key := measureKey{text: text, size: fontSize}
	c.mu.RLock()
	m, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return m, nil
	}
	if c.backend == nil {
		return TextMetrics{}, tberrors.New(tberrors.ErrCodeMeasurementUnavailable, "缺少文本测量后端")
	}

	measured, err := c.backend.MeasureText(text, fontSize)
	if err != nil {
		return TextMetrics{}, tberrors.Wrap(tberrors.ErrCodeMeasurementUnavailable, err, "测量文本 %q (%gpx) 失败", text, fontSize)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.entries[key]; ok {
		// 并发测量同一键时保留先写入的值
		return existing, nil
	}
	c.entries[key] = measured
	return measured, nil
}

// Len 返回缓存的条目数。
func (c *MeasureCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
