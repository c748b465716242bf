package service

import (
	"context"
	"errors"
	"gradebook_backend/internal/model"
	"gradebook_backend/pkg/logger"
	"gradebook_backend/pkg/monitoring"
	"sync"
	"time"

	"go.uber.org/zap"
)

type SaveFunc func(ctx context.Context, code string, doc *model.TenantDocument) error

// Autosaver 每个租户一个待保存槽位。新快照覆盖旧快照，同一租户同时最多一个保存在进行，
// 已开始的保存不会被中断。保存失败的快照保留在槽位中，直到被更新的快照覆盖或重试成功
type Autosaver struct {
	save SaveFunc

	mu    sync.Mutex
	delay time.Duration
	slots map[string]*saveSlot
}

type saveSlot struct {
	writeMu sync.Mutex

	mu      sync.Mutex
	pending *model.TenantDocument
	seq     uint64
	timer   *time.Timer
	lastErr error
}

func NewAutosaver(save SaveFunc, delay time.Duration) *Autosaver {
	return &Autosaver{
		save:  save,
		delay: delay,
		slots: make(map[string]*saveSlot),
	}
}

func (a *Autosaver) SetDelay(d time.Duration) {
	a.mu.Lock()
	a.delay = d
	a.mu.Unlock()
}

func (a *Autosaver) slot(code string) (*saveSlot, time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, ok := a.slots[code]
	if !ok {
		s = &saveSlot{}
		a.slots[code] = s
	}
	return s, a.delay
}

// Stage 放入快照但不启动计时器，由调用方随后调用 FlushTenant
func (a *Autosaver) Stage(code string, doc *model.TenantDocument) {
	s, _ := a.slot(code)
	s.mu.Lock()
	defer s.mu.Unlock()
	a.stageLocked(s, doc)
	if s.timer != nil {
		s.timer.Stop()
	}
}

func (a *Autosaver) stageLocked(s *saveSlot, doc *model.TenantDocument) {
	if s.pending != nil {
		monitoring.AutosaveCoalesced.Inc()
	}
	s.pending = doc
	s.seq++
}

// Schedule 防抖保存：delay 内的多次修改合并为一次写入
func (a *Autosaver) Schedule(code string, doc *model.TenantDocument) {
	s, delay := a.slot(code)
	s.mu.Lock()
	defer s.mu.Unlock()
	a.stageLocked(s, doc)

	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(delay, func() {
		if err := a.flush(context.Background(), code, s); err != nil {
			logger.Log.Warn("Autosave failed, snapshot kept for retry", logger.Tenant(code), zap.Error(err))
		}
	})
}

// SaveNow 立即保存，会等待正在进行的保存结束
func (a *Autosaver) SaveNow(ctx context.Context, code string, doc *model.TenantDocument) error {
	a.Stage(code, doc)
	return a.FlushTenant(ctx, code)
}

func (a *Autosaver) FlushTenant(ctx context.Context, code string) error {
	a.mu.Lock()
	s, ok := a.slots[code]
	a.mu.Unlock()
	if !ok {
		return nil
	}
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.mu.Unlock()
	return a.flush(ctx, code, s)
}

// Flush 写出所有租户的待保存快照
func (a *Autosaver) Flush(ctx context.Context) error {
	a.mu.Lock()
	codes := make([]string, 0, len(a.slots))
	for code := range a.slots {
		codes = append(codes, code)
	}
	a.mu.Unlock()

	var errs []error
	for _, code := range codes {
		if err := a.FlushTenant(ctx, code); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (a *Autosaver) Pending(code string) bool {
	a.mu.Lock()
	s, ok := a.slots[code]
	a.mu.Unlock()
	if !ok {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}

// LastError 最近一次保存的结果，成功后清空
func (a *Autosaver) LastError(code string) error {
	a.mu.Lock()
	s, ok := a.slots[code]
	a.mu.Unlock()
	if !ok {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// flush 已开始的写入不随调用方取消而中断，单次尝试的时限由网关控制
func (a *Autosaver) flush(ctx context.Context, code string, s *saveSlot) error {
	ctx = context.WithoutCancel(ctx)
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	doc, seq := s.pending, s.seq
	s.mu.Unlock()
	if doc == nil {
		return nil
	}

	err := a.save(ctx, code, doc)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = err
	if err == nil && s.seq == seq {
		s.pending = nil
	}
	return err
}
