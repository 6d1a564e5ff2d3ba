package layout

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/ByLCY/tagboard/binding"
	"github.com/ByLCY/tagboard/report"
)

const defaultConcurrency = 8

// thumbnailRef 返回条目的缩略图引用：显式 ImageRef 优先，其次用模板展开。
func thumbnailRef(e report.Entry, template string) string {
	if e.ImageRef != "" {
		return e.ImageRef
	}
	ref, ok := binding.Expand(template, e.Fields())
	if !ok {
		return ""
	}
	return ref
}

// fetchThumbnails 并发加载所有不重复的缩略图引用，每个引用只尝试一次。
// 加载失败只记录日志，结果中对应的 Image 为 nil，由盒子降级为占位矩形。
func fetchThumbnails(ctx context.Context, data *report.Data, opts BuildOptions, logger *log.Logger) (map[string]Thumbnail, error) {
	refs := map[string]struct{}{}
	var order []string
	for _, row := range data.Rows {
		for _, e := range row.Entries {
			ref := thumbnailRef(e, opts.Theme.Thumbnail.Template)
			if ref == "" {
				logger.Debug("条目没有缩略图引用，使用占位色", "label", e.Label)
				continue
			}
			if _, seen := refs[ref]; seen {
				continue
			}
			refs[ref] = struct{}{}
			order = append(order, ref)
		}
	}

	out := make(map[string]Thumbnail, len(order))
	if opts.Images == nil {
		if len(order) > 0 {
			logger.Warn("未配置图片服务，所有缩略图使用占位色", "count", len(order))
		}
		for _, ref := range order {
			out[ref] = Thumbnail{Ref: ref}
		}
		return out, nil
	}

	limit := opts.Concurrency
	if limit <= 0 {
		limit = defaultConcurrency
	}
	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(limit)
	for _, ref := range order {
		g.Go(func() error {
			img, err := opts.Images.Load(ctx, ref)
			if err != nil {
				logger.Warn("缩略图加载失败，使用占位色", "ref", ref, "err", err)
				img = nil
			}
			mu.Lock()
			out[ref] = Thumbnail{Ref: ref, Image: img}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
