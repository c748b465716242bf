// @title Gradebook 后端 API
// @version 1.0
// @description 教师评分工具的后端：按教师保存组、学生、评估记录和模板。
// @termsOfService http://swagger.io/terms/

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package main

import (
	"context"
	"flag"
	"gradebook_backend/internal/app"
	"gradebook_backend/internal/config"
	"gradebook_backend/pkg/configwatcher"
	"gradebook_backend/pkg/logger"
	"log"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

const configDir = "configs"

func main() {
	// 命令行参数
	migrateOnly := flag.Bool("migrate-only", false, "只执行数据库迁移，完成后退出")
	migrateDocuments := flag.Bool("migrate-documents", false, "规范化存储中的全部租户文档，完成后退出")
	flag.Parse()

	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	cfg.MigrateOnly = *migrateOnly || *migrateDocuments

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	if *migrateDocuments {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		results, err := application.MigrateDocuments(ctx)
		if err != nil {
			logger.Log.Fatal("Document migration failed", zap.Error(err))
		}
		for _, r := range results {
			logger.Log.Info("Document migration",
				zap.String("tenant", r.Tenant),
				zap.Bool("written", r.Written),
				zap.String("error", r.Error),
			)
		}
		return
	}

	// 迁移完成后直接退出
	if *migrateOnly {
		logger.Log.Info("Database migration finished, exiting")
		return
	}

	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	go func() {
		if err := configwatcher.WatchConfig(watchCtx, filepath.Join(configDir, "config.yaml"), application.ApplyConfig); err != nil {
			logger.Log.Error("Config watcher stopped", zap.Error(err))
		}
	}()

	application.Run()
}
