package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"edu_dashboard_client/internal/api"
	"edu_dashboard_client/internal/config"
	"edu_dashboard_client/internal/controller"
	"edu_dashboard_client/internal/credential"
	"edu_dashboard_client/internal/notify"
	"edu_dashboard_client/internal/routing"
	"edu_dashboard_client/internal/store"
	"edu_dashboard_client/pkg/logger"
	"edu_dashboard_client/pkg/monitoring"
	"edu_dashboard_client/pkg/tracing"

	"github.com/gin-gonic/gin"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

type App struct {
	Config *config.Config
	Router *gin.Engine

	Client      *api.Client
	Session     *store.SessionStore
	Courses     *store.CourseStore
	Assignments *store.AssignmentStore

	controllers *controllers

	tracerProvider  *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
}

type controllers struct {
	student  *controller.StudentController
	lecturer *controller.LecturerController
	admin    *controller.AdminController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// ReloadConfig 配置热更新入口，由configwatcher回调
func (a *App) ReloadConfig(cfg *config.Config) {
	a.Config = cfg
	for _, cb := range a.configCallbacks {
		cb(cfg)
	}
	logger.Log.Info("config reloaded")
}

func (a *App) initStores(cfg *config.Config) {
	creds := credential.NewFileStore(cfg.Session.StateDir)

	// 会话store与远端客户端互为依赖：store是客户端的TokenSource，
	// 客户端是store的调用通道，先建store再绑定
	a.Session = store.NewSessionStore(creds, cfg.Stores.QueueSize, logger.Log)
	a.Client = api.NewClient(cfg.API, a.Session)
	a.Session.Bind(a.Client)

	a.Courses = store.NewCourseStore(a.Client, cfg.Stores.QueueSize, cfg.Stores.OptimisticEnroll, logger.Log)
	a.Assignments = store.NewAssignmentStore(a.Client, cfg.Stores.QueueSize, logger.Log)
}

func (a *App) initControllers() *controllers {
	notifier := notify.NewLogNotifier(logger.Log)
	return &controllers{
		student:  controller.NewStudentController(a.Session, a.Courses, a.Assignments, notifier, logger.Log),
		lecturer: controller.NewLecturerController(a.Session, a.Courses, a.Assignments, notifier, logger.Log),
		admin:    controller.NewAdminController(a.Session, a.Courses, a.Assignments, logger.Log),
	}
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	app := &App{Config: cfg}

	app.initStores(cfg)
	app.controllers = app.initControllers()

	monitoring.Init()

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("edu-dashboard-client", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracerProvider = tp
	}

	if cfg.Client.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router
	app.registerRoutes(router, cfg)

	return app
}

// mountDashboard 恢复的会话有身份时，经路由边界检查后挂载对应仪表盘
func (a *App) mountDashboard(ctx context.Context) {
	state := a.Session.State()
	if state.Identity == nil {
		logger.Log.Info("no restored identity, dashboards not mounted")
		return
	}

	view := routing.DashboardFor(state.Identity.Role)
	if !routing.CanAccess(state.Identity.Role, view) {
		logger.Log.Warn("restored role not allowed for view", zap.String("view", string(view)))
		return
	}

	switch view {
	case routing.ViewLecturer:
		a.controllers.lecturer.Mount(ctx)
	case routing.ViewAdmin:
		a.controllers.admin.Mount(ctx)
	default:
		a.controllers.student.Mount(ctx)
	}
	logger.Log.Info("dashboard mounted", zap.String("view", string(view)))
}

func (a *App) Run() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if a.Session.Restore() {
		a.mountDashboard(ctx)
	}

	var srv *http.Server
	if a.Config.Diag.Enabled {
		srv = &http.Server{
			Addr:    ":" + a.Config.Diag.Port,
			Handler: a.Router,
		}
		go func() {
			log.Printf("Diagnostics server running on port %s", a.Config.Diag.Port)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("listen: %s\n", err)
			}
		}()
	}

	// 等待中断信号优雅退出
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if srv != nil {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Fatal("Diagnostics server forced to shutdown:", err)
		}
	}

	// 等在途拉取settle，再关store队列
	done := make(chan struct{})
	go func() {
		a.controllers.student.Wait()
		a.controllers.lecturer.Wait()
		a.controllers.admin.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-shutdownCtx.Done():
	}

	a.Session.Close()
	a.Courses.Close()
	a.Assignments.Close()

	if a.tracerProvider != nil {
		if err := a.tracerProvider.Shutdown(shutdownCtx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}

	log.Println("Client exiting")
}
