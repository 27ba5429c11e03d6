package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"

	"github.com/ashish-sjc/scribblAI/config"
	"github.com/ashish-sjc/scribblAI/domain"
	"github.com/ashish-sjc/scribblAI/metrics"
	ws "github.com/ashish-sjc/scribblAI/websocket"
)

type Deps struct {
	Config  config.Config
	Logger  *slog.Logger
	Hub     domain.Broadcaster
	Handler domain.MessageHandler
	Metrics *metrics.Metrics
}

// NewRouter wires the websocket endpoint and the health, stats and metrics
// routes behind CORS.
func NewRouter(d Deps) http.Handler {
	gin.SetMode(d.Config.GinMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(d.Logger))

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(d.Config.CORSAllow),
	}
	opts := ws.Options{SendBuffer: d.Config.SendBuffer, MaxMessageSize: d.Config.MaxMessageSize}

	r.GET("/ws", func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			d.Logger.Error("upgrade error", "error", err)
			return
		}
		ws.NewConn(uuid.New().String(), conn, d.Handler, d.Logger, opts).Start()
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/stats", func(c *gin.Context) {
		rooms, sessions := d.Hub.Stats()
		c.JSON(http.StatusOK, gin.H{"rooms": rooms, "sessions": sessions})
	})

	r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))

	return cors.New(cors.Options{
		AllowedOrigins: d.Config.CORSAllow,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	}).Handler(r)
}

func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}
