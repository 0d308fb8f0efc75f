package web

import (
	"homehub/auth"
	"homehub/internal/dispatch"
	"homehub/internal/registry"
	"homehub/internal/statestore"
	"homehub/internal/web/api"
	"homehub/internal/web/middleware"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type WebServer struct {
	router *gin.Engine
}

// NewWebServer wires the thin HTTP layer over the hub core. The core surface
// it consumes is the state store snapshot, rule evaluation, timer evaluation
// and the dispatcher.
func NewWebServer(dbConn *pgxpool.Pool, redisClient *redis.Client, JWTSecret string,
	store *statestore.Store, reg *registry.Registry, devices api.DeviceLookup,
	eval api.RuleEvaluator, timers api.TimerEvaluator, disp *dispatch.Dispatcher) *WebServer {

	router := gin.Default()

	authModule := auth.NewAuthModule(dbConn, redisClient, JWTSecret)
	middlewareManager := middleware.NewMiddlewareManager(dbConn, redisClient, authModule)

	api.RegisterAuthRoutes(router, authModule, middlewareManager)
	api.RegisterStateRoutes(router, middlewareManager, store)
	api.RegisterAutomationRoutes(router, middlewareManager, dbConn, devices, eval)
	api.RegisterTimerRoutes(router, middlewareManager, dbConn, timers)
	api.RegisterSensorRoutes(router, middlewareManager, dbConn, reg)
	api.RegisterDeviceRoutes(router, middlewareManager, dbConn)
	api.RegisterRelayRoutes(router, middlewareManager, disp)
	api.RegisterUserRoutes(router, middlewareManager, dbConn)

	return &WebServer{router: router}
}

func (ws *WebServer) Start(addr string) {
	ws.router.Run(addr)
}
