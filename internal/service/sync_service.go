package service

import (
	"context"
	"encoding/json"
	"errors"
	"gradebook_backend/internal/grading"
	"gradebook_backend/internal/model"
	"gradebook_backend/internal/repository"
	"gradebook_backend/internal/util"
	"gradebook_backend/pkg/logger"
	"gradebook_backend/pkg/monitoring"
	"gradebook_backend/pkg/tracing"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type SyncOptions struct {
	Timeout      time.Duration
	Retries      int
	RetryBackoff time.Duration
	Workers      int
}

func DefaultSyncOptions() SyncOptions {
	return SyncOptions{
		Timeout:      5 * time.Second,
		Retries:      2,
		RetryBackoff: 200 * time.Millisecond,
		Workers:      4,
	}
}

// SyncGateway 租户文档与存储之间唯一的读写通道。无状态，不缓存文档
type SyncGateway struct {
	store repository.DocumentStore
	opts  SyncOptions
	now   func() time.Time
}

func NewSyncGateway(store repository.DocumentStore, opts SyncOptions) *SyncGateway {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultSyncOptions().Timeout
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultSyncOptions().Workers
	}
	return &SyncGateway{store: store, opts: opts, now: time.Now}
}

func (g *SyncGateway) Backend() string {
	return g.store.Name()
}

// Load 读取并迁移租户文档。文档不存在时创建默认文档并立即写回
func (g *SyncGateway) Load(ctx context.Context, code string) (*model.TenantDocument, *grading.Report, error) {
	ctx, span := tracing.StartSpan(ctx, "sync.load", code)
	var err error
	defer func() { tracing.EndSpan(span, err) }()

	var body []byte
	err = g.do(ctx, "get", func(actx context.Context) error {
		var gerr error
		body, gerr = g.store.Get(actx, code)
		return gerr
	})

	switch {
	case errors.Is(err, util.ErrDocumentNotFound):
		doc := grading.NewDocument(g.now())
		if err = g.Save(ctx, code, doc); err != nil {
			return nil, nil, err
		}
		logger.Log.Info("Created default tenant document", logger.Tenant(code))
		return doc, &grading.Report{Changed: true}, nil
	case err != nil:
		err = &util.StoreUnavailableError{Op: "load", Tenant: code, Err: err}
		return nil, nil, err
	}

	doc, rep, err := grading.MigrateJSON(body, grading.MigrateOptions{Tenant: code, Now: g.now()})
	if err != nil {
		logger.Log.Error("Tenant document is corrupt", logger.Tenant(code), zap.Error(err))
		return nil, nil, err
	}
	if rep.Changed {
		logger.Log.Info("Tenant document normalized on load",
			logger.Tenant(code),
			zap.Bool("upgraded", rep.Upgraded),
			zap.Int("renamed", rep.Renamed),
			zap.Int("backfilled", rep.Backfilled),
			zap.Int("created_records", rep.CreatedRecords),
			zap.Strings("dropped_orphans", rep.DroppedOrphans),
		)
	}
	return doc, rep, nil
}

// Save 序列化后单次写入。失败时存储中仍是上一个完整版本
func (g *SyncGateway) Save(ctx context.Context, code string, doc *model.TenantDocument) error {
	ctx, span := tracing.StartSpan(ctx, "sync.save", code)
	var err error
	defer func() { tracing.EndSpan(span, err) }()

	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	err = g.do(ctx, "upsert", func(actx context.Context) error {
		return g.store.Upsert(actx, code, body)
	})
	if err != nil {
		err = &util.StoreUnavailableError{Op: "save", Tenant: code, Err: err}
		return err
	}
	return nil
}

// do 每次尝试单独限时，失败按线性退避重试。NotFound 不重试
func (g *SyncGateway) do(ctx context.Context, op string, fn func(context.Context) error) error {
	start := time.Now()
	defer func() {
		monitoring.SyncDuration.WithLabelValues(g.store.Name(), op).Observe(time.Since(start).Seconds())
	}()

	var err error
	for attempt := 0; attempt <= g.opts.Retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				monitoring.SyncOperations.WithLabelValues(g.store.Name(), op, "error").Inc()
				return err
			case <-time.After(g.opts.RetryBackoff * time.Duration(attempt)):
			}
		}

		actx, cancel := context.WithTimeout(ctx, g.opts.Timeout)
		err = fn(actx)
		cancel()

		switch {
		case err == nil:
			monitoring.SyncOperations.WithLabelValues(g.store.Name(), op, "ok").Inc()
			return nil
		case errors.Is(err, util.ErrDocumentNotFound):
			monitoring.SyncOperations.WithLabelValues(g.store.Name(), op, "not_found").Inc()
			return err
		}
		logger.Log.Warn("Document store operation failed",
			zap.String("op", op),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}
	monitoring.SyncOperations.WithLabelValues(g.store.Name(), op, "error").Inc()
	return err
}

type MigrationResult struct {
	Tenant  string          `json:"tenant"`
	Report  *grading.Report `json:"report,omitempty"`
	Written bool            `json:"written"`
	Error   string          `json:"error,omitempty"`
}

// MigrateAll 规范化存储中的全部文档，有变化的写回。单个文档失败不影响其他文档
func (g *SyncGateway) MigrateAll(ctx context.Context) ([]MigrationResult, error) {
	var codes []string
	err := g.do(ctx, "list", func(actx context.Context) error {
		var lerr error
		codes, lerr = g.store.List(actx)
		return lerr
	})
	if err != nil {
		return nil, &util.StoreUnavailableError{Op: "list", Err: err}
	}

	results := make([]MigrationResult, len(codes))
	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(g.opts.Workers)
	for i, code := range codes {
		i, code := i, code
		eg.Go(func() error {
			results[i] = g.migrateOne(ectx, code)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Tenant < results[j].Tenant })
	return results, nil
}

func (g *SyncGateway) migrateOne(ctx context.Context, code string) MigrationResult {
	res := MigrationResult{Tenant: code}
	var body []byte
	err := g.do(ctx, "get", func(actx context.Context) error {
		var gerr error
		body, gerr = g.store.Get(actx, code)
		return gerr
	})
	if err != nil {
		res.Error = err.Error()
		return res
	}
	doc, rep, err := grading.MigrateJSON(body, grading.MigrateOptions{Tenant: code, Now: g.now()})
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Report = rep
	if !rep.Changed {
		return res
	}
	if err := g.Save(ctx, code, doc); err != nil {
		res.Error = err.Error()
		return res
	}
	res.Written = true
	logger.Log.Info("Tenant document migrated", logger.Tenant(code))
	return res
}
