package service

import (
	"context"
	"gradebook_backend/internal/model"
	"gradebook_backend/internal/roster"
	"gradebook_backend/pkg/logger"
	"gradebook_backend/pkg/monitoring"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type SaveMode int

const (
	// SaveImmediate 修改后立即写入存储并返回写入结果
	SaveImmediate SaveMode = iota
	// SaveDebounced 合并短时间内的连续修改（用于文本输入）
	SaveDebounced
)

// Session 一个租户在内存中的工作副本。同一会话的修改按 mu 串行
type Session struct {
	mu       sync.Mutex
	tenant   model.Tenant
	roster   *roster.Roster
	lastUsed time.Time
	closed   bool
}

func (s *Session) Tenant() model.Tenant {
	return s.tenant
}

type SessionService struct {
	gateway   *SyncGateway
	autosaver *Autosaver
	loads     singleflight.Group

	mu       sync.Mutex
	sessions map[string]*Session
	limits   roster.Limits
	ttl      time.Duration
	now      func() time.Time
}

func NewSessionService(gateway *SyncGateway, autosaver *Autosaver, limits roster.Limits, ttl time.Duration) *SessionService {
	return &SessionService{
		gateway:   gateway,
		autosaver: autosaver,
		sessions:  make(map[string]*Session),
		limits:    limits,
		ttl:       ttl,
		now:       time.Now,
	}
}

// Open 返回租户的会话，不存在时通过网关加载。同一租户的并发加载只执行一次
func (s *SessionService) Open(ctx context.Context, tenant model.Tenant) (*Session, error) {
	s.mu.Lock()
	if sess, ok := s.sessions[tenant.Code]; ok {
		s.mu.Unlock()
		return sess, nil
	}
	s.mu.Unlock()

	v, err, _ := s.loads.Do(tenant.Code, func() (interface{}, error) {
		s.mu.Lock()
		if sess, ok := s.sessions[tenant.Code]; ok {
			s.mu.Unlock()
			return sess, nil
		}
		limits := s.limits
		s.mu.Unlock()

		// 被回收的会话可能还有未写出的快照，先写出再读
		if err := s.autosaver.FlushTenant(ctx, tenant.Code); err != nil {
			return nil, err
		}
		doc, _, err := s.gateway.Load(ctx, tenant.Code)
		if err != nil {
			return nil, err
		}
		sess := &Session{
			tenant:   tenant,
			roster:   roster.New(doc, tenant, limits),
			lastUsed: s.now(),
		}

		s.mu.Lock()
		s.sessions[tenant.Code] = sess
		monitoring.ActiveSessions.Set(float64(len(s.sessions)))
		s.mu.Unlock()
		logger.Log.Info("Tenant session opened", logger.Tenant(tenant.Code))
		return sess, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Session), nil
}

// acquire 打开会话并加锁。会话在加锁前被回收时重新打开
func (s *SessionService) acquire(ctx context.Context, tenant model.Tenant) (*Session, error) {
	for {
		sess, err := s.Open(ctx, tenant)
		if err != nil {
			return nil, err
		}
		sess.mu.Lock()
		if !sess.closed {
			sess.lastUsed = s.now()
			// 权限以当前令牌为准
			sess.tenant = tenant
			sess.roster.SetTenant(tenant)
			return sess, nil
		}
		sess.mu.Unlock()
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
}

// View 只读访问
func (s *SessionService) View(ctx context.Context, tenant model.Tenant, fn func(r *roster.Roster) error) error {
	sess, err := s.acquire(ctx, tenant)
	if err != nil {
		return err
	}
	defer sess.mu.Unlock()
	return fn(sess.roster)
}

// Mutate 执行修改并保存。fn 返回错误时不保存；保存失败时内存中的修改保留，
// 快照留在自动保存槽位中等待重试，错误原样返回给调用方
func (s *SessionService) Mutate(ctx context.Context, tenant model.Tenant, mode SaveMode, fn func(r *roster.Roster) error) error {
	sess, err := s.acquire(ctx, tenant)
	if err != nil {
		return err
	}
	if err := fn(sess.roster); err != nil {
		sess.mu.Unlock()
		return err
	}
	snapshot := sess.roster.Snapshot()
	if mode == SaveDebounced {
		s.autosaver.Schedule(tenant.Code, snapshot)
		sess.mu.Unlock()
		return nil
	}
	s.autosaver.Stage(tenant.Code, snapshot)
	sess.mu.Unlock()

	return s.autosaver.FlushTenant(ctx, tenant.Code)
}

// Save 显式保存当前工作副本
func (s *SessionService) Save(ctx context.Context, tenant model.Tenant) error {
	return s.Mutate(ctx, tenant, SaveImmediate, func(*roster.Roster) error { return nil })
}

// Document 当前工作副本的深拷贝
func (s *SessionService) Document(ctx context.Context, tenant model.Tenant) (*model.TenantDocument, error) {
	var doc *model.TenantDocument
	err := s.View(ctx, tenant, func(r *roster.Roster) error {
		doc = r.Snapshot()
		return nil
	})
	return doc, err
}

// Close 写出待保存内容后关闭会话
func (s *SessionService) Close(ctx context.Context, code string) error {
	_, err := s.close(ctx, code, 0)
	return err
}

// close 在会话锁内标记关闭之后才从表中移除并写出快照。
// idle > 0 时在会话锁内复查空闲时间，期间被使用过的会话保留
func (s *SessionService) close(ctx context.Context, code string, idle time.Duration) (bool, error) {
	s.mu.Lock()
	sess, ok := s.sessions[code]
	s.mu.Unlock()
	if !ok && idle > 0 {
		return false, nil
	}
	if ok {
		sess.mu.Lock()
		if idle > 0 && s.now().Sub(sess.lastUsed) <= idle {
			sess.mu.Unlock()
			return false, nil
		}
		sess.closed = true
		sess.mu.Unlock()

		s.mu.Lock()
		if s.sessions[code] == sess {
			delete(s.sessions, code)
			monitoring.ActiveSessions.Set(float64(len(s.sessions)))
		}
		s.mu.Unlock()
	}
	return true, s.autosaver.FlushTenant(ctx, code)
}

func (s *SessionService) CloseAll(ctx context.Context) error {
	s.mu.Lock()
	codes := make([]string, 0, len(s.sessions))
	for code := range s.sessions {
		codes = append(codes, code)
	}
	s.mu.Unlock()

	for _, code := range codes {
		if err := s.Close(ctx, code); err != nil {
			logger.Log.Warn("Failed to flush session on close", logger.Tenant(code), zap.Error(err))
		}
	}
	return s.autosaver.Flush(ctx)
}

// Sweep 回收超过 ttl 未使用的会话，返回回收数量
func (s *SessionService) Sweep(ctx context.Context) int {
	s.mu.Lock()
	ttl := s.ttl
	candidates := make([]string, 0)
	for code, sess := range s.sessions {
		sess.mu.Lock()
		if ttl > 0 && s.now().Sub(sess.lastUsed) > ttl {
			candidates = append(candidates, code)
		}
		sess.mu.Unlock()
	}
	s.mu.Unlock()

	evicted := 0
	for _, code := range candidates {
		closed, err := s.close(ctx, code, ttl)
		if err != nil {
			logger.Log.Warn("Idle session closed with unsaved changes pending", logger.Tenant(code), zap.Error(err))
		}
		if closed {
			evicted++
		}
	}
	if evicted > 0 {
		logger.Log.Info("Idle sessions evicted", zap.Int("count", evicted))
	}
	return evicted
}

// Run 定期回收空闲会话，ctx 取消时写出全部会话后返回
func (s *SessionService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if err := s.CloseAll(flushCtx); err != nil {
				logger.Log.Error("Failed to flush sessions on shutdown", zap.Error(err))
			}
			cancel()
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

func (s *SessionService) SetTTL(ttl time.Duration) {
	s.mu.Lock()
	s.ttl = ttl
	s.mu.Unlock()
}

// SetLimits 新限制立即作用于已打开的会话
func (s *SessionService) SetLimits(l roster.Limits) {
	s.mu.Lock()
	s.limits = l
	open := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		open = append(open, sess)
	}
	s.mu.Unlock()

	for _, sess := range open {
		sess.mu.Lock()
		sess.roster.SetLimits(l)
		sess.mu.Unlock()
	}
}

func (s *SessionService) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
