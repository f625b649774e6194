package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

// Locker runs an action while holding a named lock
type Locker interface {
	WithLock(ctx context.Context, name string, expiry time.Duration, action func() error) error
}

// DistributedLockService 分布式锁服务
type DistributedLockService struct {
	rs *redsync.Redsync
}

// NewDistributedLockService 创建基于Redsync的分布式锁
func NewDistributedLockService(client *redis.Client) *DistributedLockService {
	return &DistributedLockService{rs: redsync.New(goredis.NewPool(client))}
}

// AcquireLock 尝试获取锁，带有超时时间
func (s *DistributedLockService) AcquireLock(ctx context.Context, name string, expiry time.Duration) (*redsync.Mutex, error) {
	mutex := s.rs.NewMutex("lock:"+name,
		redsync.WithExpiry(expiry),
		redsync.WithTries(5),                        // 最大重试次数
		redsync.WithRetryDelay(50*time.Millisecond), // 重试延迟
		redsync.WithDriftFactor(0.01),               // 时钟漂移因子
	)
	if err := mutex.LockContext(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrLockNotAcquired, err)
	}
	return mutex, nil
}

// WithLock 在锁内执行操作
func (s *DistributedLockService) WithLock(ctx context.Context, name string, expiry time.Duration, action func() error) error {
	mutex, err := s.AcquireLock(ctx, name, expiry)
	if err != nil {
		return err
	}
	// 确保解锁
	defer func() {
		_, _ = mutex.UnlockContext(context.WithoutCancel(ctx))
	}()
	return action()
}

// LocalLocker serializes actions per name within one process. It stands in
// for the distributed lock when Redis is unavailable.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*localLock
}

type localLock struct {
	mu   sync.Mutex
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]*localLock)}
}

// WithLock runs action holding the named lock. The expiry is ignored since
// the lock cannot outlive the process.
func (l *LocalLocker) WithLock(ctx context.Context, name string, _ time.Duration, action func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	lk, ok := l.locks[name]
	if !ok {
		lk = &localLock{}
		l.locks[name] = lk
	}
	lk.refs++
	l.mu.Unlock()

	lk.mu.Lock()
	defer func() {
		lk.mu.Unlock()
		l.mu.Lock()
		lk.refs--
		if lk.refs == 0 {
			delete(l.locks, name)
		}
		l.mu.Unlock()
	}()
	return action()
}
