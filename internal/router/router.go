package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/meditracker/patientflow-api/internal/middleware"
	"github.com/meditracker/patientflow-api/internal/model"
)

// Handler is anything that can mount its routes on the API group.
type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

// EngineHandler mounts routes on the bare engine, outside /api/v1.
type EngineHandler interface {
	RegisterRoutes(*gin.Engine)
}

type Config struct {
	Timeout        time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
	CORS           middleware.CORSConfig
}

func DefaultConfig() Config {
	return Config{
		Timeout:        30 * time.Second,
		RateLimitRPS:   50,
		RateLimitBurst: 100,
		CORS:           middleware.DefaultCORSConfig(),
	}
}

type Router struct {
	engine *gin.Engine
}

func New(config Config, health EngineHandler, handlers ...Handler) *Router {
	gin.SetMode(gin.ReleaseMode)
	registerValidators()

	engine := gin.New()
	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Timeout(config.Timeout),
		middleware.CORS(config.CORS),
		middleware.NewRateLimiter(config.RateLimitRPS, config.RateLimitBurst).RateLimit(),
	)

	health.RegisterRoutes(engine)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := engine.Group("/api/v1")
	for _, h := range handlers {
		h.RegisterRoutes(api)
	}

	return &Router{engine: engine}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// registerValidators wires the "department" binding tag used by the doctor
// and visit request types.
func registerValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	_ = v.RegisterValidation("department", func(fl validator.FieldLevel) bool {
		return model.Department(fl.Field().String()).Valid()
	})
}
