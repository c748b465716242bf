package app

import (
	"context"
	"gradebook_backend/internal/config"
	"gradebook_backend/internal/controller"
	"gradebook_backend/internal/repository"
	"gradebook_backend/internal/roster"
	"gradebook_backend/internal/service"
	"gradebook_backend/internal/util"
	"gradebook_backend/pkg/database"
	"gradebook_backend/pkg/logger"
	"gradebook_backend/pkg/monitoring"
	"gradebook_backend/pkg/security"
	"gradebook_backend/pkg/tracing"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const sessionSweepInterval = time.Minute

type App struct {
	Router *gin.Engine
	DB     *gorm.DB
	Redis  *redis.Client

	cfgMu           sync.RWMutex
	cfg             *config.Config
	services        *services
	configCallbacks []func(*config.Config)
	shutdownTracer  func(context.Context) error
}

// Deps 外部依赖。DB / Redis 为 nil 表示未配置
type Deps struct {
	DB      *gorm.DB
	Redis   *redis.Client
	Store   repository.DocumentStore
	Tenants repository.TenantRepository
}

type services struct {
	gateway   *service.SyncGateway
	autosaver *service.Autosaver
	session   *service.SessionService
	auth      *service.AuthService
	tenant    *service.TenantService
}

type controllers struct {
	auth     *controller.AuthController
	document *controller.DocumentController
	group    *controller.GroupController
	grade    *controller.GradeController
	template *controller.TemplateController
	admin    *controller.AdminController
	health   *controller.HealthController
}

func (a *App) Config() *config.Config {
	a.cfgMu.RLock()
	defer a.cfgMu.RUnlock()
	return a.cfg
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// ApplyConfig 热更新：同步参数与名册限制立即生效，连接参数需要重启
func (a *App) ApplyConfig(cfg *config.Config) {
	a.cfgMu.Lock()
	a.cfg = cfg
	a.cfgMu.Unlock()

	for _, cb := range a.configCallbacks {
		cb(cfg)
	}
}

func rosterLimits(cfg *config.Config) roster.Limits {
	return roster.Limits{
		MaxPerGroup:           cfg.Roster.MaxPerGroup,
		MaxTemplatesPerTenant: cfg.Roster.MaxTemplatesPerTenant,
	}
}

func syncOptions(cfg *config.Config) service.SyncOptions {
	return service.SyncOptions{
		Timeout:      cfg.Sync.Timeout,
		Retries:      cfg.Sync.Retries,
		RetryBackoff: cfg.Sync.RetryBackoff,
		Workers:      cfg.Sync.MigrateWorker,
	}
}

func (a *App) initServices(cfg *config.Config, deps Deps) *services {
	s := &services{}

	s.gateway = service.NewSyncGateway(deps.Store, syncOptions(cfg))
	s.autosaver = service.NewAutosaver(s.gateway.Save, cfg.Sync.AutosaveDelay)
	s.session = service.NewSessionService(s.gateway, s.autosaver, rosterLimits(cfg), cfg.Sync.SessionTTL)
	s.auth = service.NewAuthService(deps.Tenants, a.Config)
	s.tenant = service.NewTenantService(deps.Tenants, cfg.Tenants.SeedFile)
	s.tenant.AdminSecret = cfg.Tenants.AdminSecret

	a.RegisterConfigCallback(func(c *config.Config) {
		s.autosaver.SetDelay(c.Sync.AutosaveDelay)
		s.session.SetTTL(c.Sync.SessionTTL)
		s.session.SetLimits(rosterLimits(c))
	})

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		auth:     controller.NewAuthController(s.auth, s.session),
		document: controller.NewDocumentController(s.session),
		group:    controller.NewGroupController(s.session),
		grade:    controller.NewGradeController(s.session),
		template: controller.NewTemplateController(s.session),
		admin:    controller.NewAdminController(s.tenant, s.session, s.gateway),
		health:   controller.NewHealthController(db, s.gateway, s.session),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute, security.ByIP))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// New 用给定依赖组装应用，不建立任何外部连接
func New(cfg *config.Config, deps Deps) (*App, error) {
	app := &App{
		cfg:   cfg,
		DB:    deps.DB,
		Redis: deps.Redis,
	}

	services := app.initServices(cfg, deps)
	app.services = services
	if err := services.tenant.EnsureSeeded(); err != nil {
		return nil, err
	}
	controllers := app.initControllers(services, deps.DB)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers)

	return app, nil
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	deps := Deps{}

	// 账号表放在数据库中；未配置数据库时账号只来自种子文件
	if cfg.Database.Host != "" || cfg.Sync.Backend == util.BackendDatabase {
		db, err := database.InitDB(&cfg.Database)
		if err != nil {
			logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		}
		deps.DB = db
		deps.Tenants = repository.NewGormTenantRepository(db)
	} else {
		deps.Tenants = repository.NewMemoryTenantRepository()
	}

	if cfg.Sync.Backend == util.BackendRedis {
		rdb, err := database.InitRedis(&cfg.Redis)
		if err != nil {
			logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		}
		deps.Redis = rdb
	}

	store, err := repository.NewDocumentStore(cfg, deps.DB, deps.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize document store", zap.Error(err))
	}
	deps.Store = store
	logger.Log.Info("Document store ready", zap.String("backend", store.Name()))

	app, err := New(cfg, deps)
	if err != nil {
		logger.Log.Fatal("Failed to initialize application", zap.Error(err))
	}

	// 迁移模式下不对外提供服务
	if cfg.MigrateOnly {
		return app
	}

	// 监控初始化
	monitoring.Init()

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.shutdownTracer = tp.Shutdown
	}

	return app
}

// MigrateDocuments 规范化存储中的全部文档（-migrate-documents）
func (a *App) MigrateDocuments(ctx context.Context) ([]service.MigrationResult, error) {
	return a.services.gateway.MigrateAll(ctx)
}

func (a *App) Run() {
	cfg := a.Config()
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: a.Router,
	}

	ctx, stop := context.WithCancel(context.Background())
	sweeperDone := make(chan struct{})
	go func() {
		defer close(sweeperDone)
		a.services.session.Run(ctx, sessionSweepInterval)
	}()

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("listen failed", zap.Error(err))
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	// 停止接收请求后写出所有会话
	stop()
	<-sweeperDone

	if a.shutdownTracer != nil {
		if err := a.shutdownTracer(context.Background()); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}

	logger.Log.Info("Server exiting")
}
