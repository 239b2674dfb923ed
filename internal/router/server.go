package router

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/iliyamo/store-rating/internal/handler"
)

// ServerOptions configures the echo instance.
type ServerOptions struct {
	Logger      *log.Logger
	FrontendURL string
	// AccessLog turns on one JSON line per request.
	AccessLog bool
}

// NewServer returns echo with the shared middleware stack and the central
// error handler installed.
func NewServer(opts ServerOptions) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Logger = opts.Logger
	e.HTTPErrorHandler = handler.ErrorHandler(opts.Logger)

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	if opts.AccessLog {
		e.Use(requestLogger(opts.Logger))
	}
	origins := []string{"http://localhost:3000", "http://localhost:5173"}
	if opts.FrontendURL != "" {
		origins = append(origins, opts.FrontendURL)
	}
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     origins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))
	e.Use(echomw.BodyLimit("16K"))
	return e
}

func requestLogger(logger *log.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			fields := log.JSON{
				"id":         v.RequestID,
				"remote_ip":  v.RemoteIP,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency_ms": v.Latency.Round(time.Microsecond).Seconds() * 1000,
			}
			if uid, ok := c.Get("user_id").(string); ok {
				fields["user_id"] = uid
			}
			if v.Error != nil {
				fields["error"] = v.Error.Error()
			}
			logger.Infoj(fields)
			return nil
		},
	})
}
