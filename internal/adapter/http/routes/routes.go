package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"simpletodo/internal/adapter/http/handler"
	"simpletodo/internal/adapter/http/middleware"
	"simpletodo/internal/core/port"
	"simpletodo/internal/core/telemetry"
	"simpletodo/pkg/config"
)

type HandlersConfig struct {
	TodoHandler     *handler.TodoHandler
	SessionProvider port.SessionProvider
}

func SetupRouter(handlers HandlersConfig, metrics *telemetry.AppMetrics, logger *config.LokiLogger, cfg *config.AppConfig) *gin.Engine {
	router := gin.New()

	middleware.SetupGinMiddleware(router, metrics, logger, cfg)

	router.Use(corsMiddleware())

	router.GET("/", handler.Root)

	if handlers.TodoHandler != nil {
		setupTodoRoutes(router, handlers, metrics, logger)
	}

	return router
}

func setupTodoRoutes(router *gin.Engine, handlers HandlersConfig, metrics *telemetry.AppMetrics, logger *config.LokiLogger) {
	todos := router.Group("/todos")
	todos.Use(middleware.SessionMiddleware(handlers.SessionProvider, metrics, logger))
	{
		todos.POST("/", handlers.TodoHandler.CreateTodo)
		todos.GET("/", handlers.TodoHandler.GetAllTodos)
		todos.GET("/:id", handlers.TodoHandler.GetTodo)
		todos.PUT("/:id", handlers.TodoHandler.UpdateTodo)
		todos.DELETE("/:id", handlers.TodoHandler.DeleteTodo)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", middleware.RequestIDHeader},
		ExposeHeaders:   []string{middleware.RequestIDHeader},
		MaxAge:          12 * time.Hour,
	})
}
