// 手动规范化存储中的全部租户文档
//
// 加载时会自动迁移旧格式，但只在下次保存时写回。此脚本用于升级后一次性写回全部文档，
// 例如切换存储后端或调整默认模板之后。
//
// 用法: go run scripts/migrate_documents.go [-dry-run]

package main

import (
	"context"
	"flag"
	"gradebook_backend/internal/config"
	"gradebook_backend/internal/grading"
	"gradebook_backend/internal/repository"
	"gradebook_backend/internal/service"
	"gradebook_backend/internal/util"
	"gradebook_backend/pkg/database"
	"gradebook_backend/pkg/logger"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "只报告，不写回")
	flag.Parse()

	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}

	logger.InitLogger(cfg)

	var db *gorm.DB
	var rdb *redis.Client
	switch cfg.Sync.Backend {
	case util.BackendDatabase:
		if db, err = database.InitDB(&cfg.Database); err != nil {
			log.Fatalf("数据库连接失败: %v", err)
		}
	case util.BackendRedis:
		if rdb, err = database.InitRedis(&cfg.Redis); err != nil {
			log.Fatalf("Redis 连接失败: %v", err)
		}
	}

	store, err := repository.NewDocumentStore(cfg, db, rdb)
	if err != nil {
		log.Fatalf("存储初始化失败: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	if *dryRun {
		codes, err := store.List(ctx)
		if err != nil {
			log.Fatalf("列出文档失败: %v", err)
		}
		for _, code := range codes {
			body, err := store.Get(ctx, code)
			if err != nil {
				log.Printf("%s: 读取失败: %v", code, err)
				continue
			}
			_, rep, err := grading.MigrateJSON(body, grading.MigrateOptions{Tenant: code})
			if err != nil {
				log.Printf("%s: %v", code, err)
				continue
			}
			log.Printf("%s: changed=%t upgraded=%t renamed=%d backfilled=%d created=%d orphans=%v",
				code, rep.Changed, rep.Upgraded, rep.Renamed, rep.Backfilled, rep.CreatedRecords, rep.DroppedOrphans)
		}
		return
	}

	gateway := service.NewSyncGateway(store, service.SyncOptions{
		Timeout:      cfg.Sync.Timeout,
		Retries:      cfg.Sync.Retries,
		RetryBackoff: cfg.Sync.RetryBackoff,
		Workers:      cfg.Sync.MigrateWorker,
	})
	results, err := gateway.MigrateAll(ctx)
	if err != nil {
		log.Fatalf("迁移失败: %v", err)
	}

	written, failed := 0, 0
	for _, r := range results {
		switch {
		case r.Error != "":
			failed++
			log.Printf("%s: 失败: %s", r.Tenant, r.Error)
		case r.Written:
			written++
		}
	}
	log.Printf("共 %d 个文档，写回 %d 个，失败 %d 个", len(results), written, failed)
}
