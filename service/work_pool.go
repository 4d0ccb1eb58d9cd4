package service

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Task 常驻任务，ctx 取消时应尽快返回
type Task func(ctx context.Context) error

type namedTask struct {
	name string
	run  Task
}

// WorkerPool 运行 http 服务、连接池监控等常驻任务。
// 任一任务异常退出会取消整个池，其余任务随之退出。
type WorkerPool struct {
	tasks   chan namedTask     // 处理的任务方法
	wg      sync.WaitGroup     // 处理子协程
	ctx     context.Context    // 全文的上下文
	cancel  context.CancelFunc // 取消函数
	mu      sync.Mutex
	stopped bool // 标识worker pool是否已经停止
	errs    []error
}

// 初始化worker pool
func NewWorkerPool(ctx context.Context, size int) *WorkerPool {
	ctx, cancel := context.WithCancel(ctx)
	return &WorkerPool{
		tasks:  make(chan namedTask, size),
		ctx:    ctx,
		cancel: cancel,
	}
}

// 开始
func (wp *WorkerPool) Start() {
	for i := 0; i < cap(wp.tasks); i++ {
		wp.wg.Add(1)
		go func() {
			defer wp.wg.Done()
			for {
				select {
				case t := <-wp.tasks:
					wp.run(t)
				case <-wp.ctx.Done():
					return
				}
			}
		}()
	}
}

func (wp *WorkerPool) run(t namedTask) {
	log := logrus.WithField("task", t.name)
	log.Info("task started")

	err := t.run(wp.ctx)
	if err == nil || errors.Is(err, context.Canceled) {
		log.Info("task stopped")
		return
	}

	log.WithError(err).Error("task failed, stopping worker pool")
	wp.mu.Lock()
	wp.errs = append(wp.errs, errors.Wrapf(err, "task %s", t.name))
	wp.mu.Unlock()
	wp.cancel()
}

// 停止：取消上下文并等待所有任务退出
func (wp *WorkerPool) Stop() error {
	wp.mu.Lock()
	wp.stopped = true
	wp.mu.Unlock()

	wp.cancel()
	wp.wg.Wait()
	return wp.Err()
}

// Done 池被取消（主动停止或任务失败）时关闭
func (wp *WorkerPool) Done() <-chan struct{} {
	return wp.ctx.Done()
}

// Err 返回第一个失败任务的错误
func (wp *WorkerPool) Err() error {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	if len(wp.errs) == 0 {
		return nil
	}
	return wp.errs[0]
}

// 提交任务至任务池
func (wp *WorkerPool) Submit(name string, task Task) error {
	wp.mu.Lock()
	stopped := wp.stopped
	wp.mu.Unlock()
	if stopped {
		return errors.New("worker pool has been stopped")
	}

	select {
	case wp.tasks <- namedTask{name: name, run: task}:
		return nil
	case <-wp.ctx.Done():
		return wp.ctx.Err()
	}
}
