package hasher

import (
	"context"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/TanmayAgarwal123/Problem-Solving-Projects/internal"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/internal/logger"
)

type HashTask struct {
	Path string
	Size int64
}

type HashResult struct {
	Path  string
	Hash  string
	Size  int64
	Error error
}

// HashPool 使用 goroutine 池并发计算摘要，结果共享同一个 Hasher 的缓存
type HashPool struct {
	hasher  *Hasher
	workers int
	pool    *ants.Pool
}

func NewHashPool(h *Hasher, workers int) (*HashPool, error) {
	if workers <= 0 {
		workers = internal.DefaultWorkers
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("创建 goroutine 池失败: %w", err)
	}
	logger.Get().Debug().Int("workers", workers).Msg("创建哈希计算池")
	return &HashPool{hasher: h, workers: workers, pool: pool}, nil
}

// HashAll 计算全部任务的摘要，结果顺序与输入一致
// ctx 取消后尚未开始的任务直接返回 ctx.Err()
func (p *HashPool) HashAll(ctx context.Context, tasks []HashTask) []HashResult {
	results := make([]HashResult, len(tasks))
	var wg sync.WaitGroup

	for i, task := range tasks {
		results[i] = HashResult{Path: task.Path, Size: task.Size}
		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				results[i].Error = err
				return
			}
			results[i].Hash, results[i].Error = p.hasher.Digest(task.Path)
		})
		if err != nil {
			wg.Done()
			results[i].Error = fmt.Errorf("提交哈希任务失败: %w", err)
		}
	}

	wg.Wait()
	return results
}

// Release 释放 goroutine 池
func (p *HashPool) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
