// Package imageload 实现缩略图与背景图的加载服务。
//
// 引用可以是相对 baseDir 的文件路径、绝对路径、http(s) URL 或 base64 data URI。
// 解码后的图片按引用缓存；同一引用的并发请求只会触发一次实际加载。
// 加载失败不缓存，也不重试，由调用方决定如何降级。
package imageload

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/singleflight"

	tberrors "github.com/ByLCY/tagboard/errors"
)

// maxRemoteBytes 限制单张远程图片的大小。
const maxRemoteBytes = 16 << 20

// Loader 按引用加载图片，满足 layout.ImageSource。
type Loader struct {
	baseDir string
	client  *http.Client

	group singleflight.Group
	mu    sync.RWMutex
	cache map[string]image.Image
}

// Option 配置 Loader。
type Option func(*Loader)

// WithHTTPClient 替换远程加载使用的 HTTP 客户端。
func WithHTTPClient(c *http.Client) Option {
	return func(l *Loader) { l.client = c }
}

// New 创建以 baseDir 为相对路径根目录的加载器。baseDir 为空时只允许绝对路径、URL 与 data URI。
func New(baseDir string, opts ...Option) *Loader {
	l := &Loader{
		baseDir: baseDir,
		client:  http.DefaultClient,
		cache:   map[string]image.Image{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load 返回 ref 对应的解码图片，成功结果会被缓存并在之后原样返回。
func (l *Loader) Load(ctx context.Context, ref string) (image.Image, error) {
	if ref == "" {
		return nil, tberrors.New(tberrors.ErrCodeImageLoad, "图片引用为空")
	}
	l.mu.RLock()
	img, ok := l.cache[ref]
	l.mu.RUnlock()
	if ok {
		return img, nil
	}

	v, err, _ := l.group.Do(ref, func() (any, error) {
		img, err := l.fetch(ctx, ref)
		if err != nil {
			return nil, err
		}
		l.mu.Lock()
		l.cache[ref] = img
		l.mu.Unlock()
		return img, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(image.Image), nil
}

// Cached 报告 ref 是否已经成功加载过。
func (l *Loader) Cached(ref string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.cache[ref]
	return ok
}

func (l *Loader) fetch(ctx context.Context, ref string) (image.Image, error) {
	switch {
	case strings.HasPrefix(ref, "data:"):
		return decodeDataURI(ref)
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return l.fetchRemote(ctx, ref)
	default:
		return l.fetchFile(ref)
	}
}

func (l *Loader) fetchFile(ref string) (image.Image, error) {
	path := ref
	if !filepath.IsAbs(path) {
		if l.baseDir == "" {
			return nil, tberrors.New(tberrors.ErrCodeImageLoad, "未指定资源目录时不允许使用相对路径：%s", ref)
		}
		path = filepath.Join(l.baseDir, path)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, tberrors.Wrap(tberrors.ErrCodeImageLoad, err, "读取图片 %s 失败", ref)
	}
	defer file.Close()
	return decode(file, ref)
}

func (l *Loader) fetchRemote(ctx context.Context, ref string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, tberrors.Wrap(tberrors.ErrCodeImageLoad, err, "构造请求 %s 失败", ref)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, tberrors.Wrap(tberrors.ErrCodeImageLoad, err, "下载图片 %s 失败", ref)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, tberrors.New(tberrors.ErrCodeImageLoad, "下载图片 %s 失败: HTTP %d", ref, resp.StatusCode)
	}
	return decode(io.LimitReader(resp.Body, maxRemoteBytes), ref)
}

func decodeDataURI(ref string) (image.Image, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(ref, "data:"), ",")
	if !ok {
		return nil, tberrors.New(tberrors.ErrCodeImageLoad, "data URI 缺少数据段")
	}
	if !strings.HasSuffix(header, ";base64") {
		return nil, tberrors.New(tberrors.ErrCodeImageLoad, "仅支持 base64 编码的 data URI")
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, tberrors.Wrap(tberrors.ErrCodeImageLoad, err, "data URI base64 解码失败")
	}
	return decode(bytes.NewReader(raw), "data URI")
}

func decode(r io.Reader, name string) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, tberrors.Wrap(tberrors.ErrCodeImageLoad, err, "解码图片 %s 失败", name)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, tberrors.New(tberrors.ErrCodeImageLoad, "图片 %s 尺寸无效", name)
	}
	return img, nil
}
