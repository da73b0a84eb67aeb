package router

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"orderhub/docs"
	"orderhub/internal/access"
	"orderhub/internal/config"
	"orderhub/internal/handler"
	"orderhub/internal/logger"
	"orderhub/internal/metrics"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	log *logger.Logger,
	authn *access.Authenticator,
	authHandler *handler.AuthHandler,
	orderHandler *handler.OrderHandler,
) {
	e.Use(middleware.RequestID())
	e.Use(requestLogger(log))
	e.Use(middleware.Recover())
	e.Use(metrics.Middleware())

	// Add validator
	e.Validator = &CustomValidator{validator: validator.New()}

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = cfg.SwaggerHost
	}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// Auth routes
	authGroup := e.Group("/auth")
	authGroup.GET("", authHandler.Index)
	authGroup.POST("/signup", authHandler.Signup, OptionalAuthenticate(authn, log))
	authGroup.POST("/login", authHandler.Login)
	authGroup.POST("/login_form", authHandler.LoginForm)
	authGroup.GET("/refresh", authHandler.Refresh, Authenticate(authn, log))

	// Order routes (require a valid bearer token)
	orders := e.Group("/orders", Authenticate(authn, log))
	orders.GET("", orderHandler.Index)
	orders.POST("/order", orderHandler.Create)
	orders.GET("/list", orderHandler.ListAll)
	orders.GET("/list/orders_user/:user_id", orderHandler.ListByUser)
	orders.GET("/order/:order_id", orderHandler.Get)
	orders.POST("/order/add_item/:order_id", orderHandler.AddItem)
	orders.POST("/order/remove_item/:order_item_id", orderHandler.RemoveItem)
	orders.POST("/order/cancel/:order_id", orderHandler.Cancel)
	orders.POST("/order/complete/:order_id", orderHandler.Complete)
}

func requestLogger(log *logger.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURIPath:   true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			kv := []interface{}{
				"method", v.Method,
				"path", v.URIPath,
				"status", v.Status,
				"latency_ms", float64(v.Latency) / float64(time.Millisecond),
				"request_id", v.RequestID,
				"remote_ip", v.RemoteIP,
			}
			switch {
			case v.Status >= http.StatusInternalServerError:
				log.Error("request", append(kv, "error", v.Error)...)
			case v.Status >= http.StatusBadRequest:
				log.Warn("request", kv...)
			default:
				log.Info("request", kv...)
			}
			return nil
		},
	})
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
