package route

import (
	"io"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"withdrawal-service/internal/api/http/handler"
	"withdrawal-service/internal/api/http/middleware"
	"withdrawal-service/internal/config"
)

func SetupRouter(
	log *zap.Logger,
	cfg *config.Config,
	healthHdl HealthHandler,
	withdrawalHdl WithdrawalHandler,
	userHdl UserHandler,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	gin.DefaultWriter = io.Discard

	router := gin.New()
	router.Use(gin.Recovery())

	// middleware
	router.Use(middleware.Logger(log))
	router.Use(middleware.RequestTimeout(cfg.HTTPServer.Timeout.Request))
	router.Use(middleware.CORS(cfg.CORS))

	router.HandleMethodNotAllowed = true
	router.NoMethod(handler.NoMethod)
	router.NoRoute(handler.NoRoute)

	basePath := router.Group(cfg.BasePath)

	docsPath := basePath.Group("/docs")
	RegisterDocs(docsPath)

	healthPath := basePath.Group("/health")
	RegisterHealth(healthPath, healthHdl)

	withdrawalPath := basePath.Group("/withdrawals")
	RegisterWithdrawalRoutes(withdrawalPath, withdrawalHdl)

	userPath := basePath.Group("/users")
	RegisterUserRoutes(userPath, userHdl)

	return router
}
