// Package api contains all endpoints available
package api

import (
	"time"

	"bitwise74/storage-api/config"
	"bitwise74/storage-api/db"
	"bitwise74/storage-api/middleware"
	"bitwise74/storage-api/pkg/security"
	"bitwise74/storage-api/storage"
	"bitwise74/storage-api/store"

	cache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"
)

const (
	gray  = "\x1b[90m"
	reset = "\x1b[0m"
)

const maxUploadSize = 100 << 20

var cacheStore = persist.NewMemoryStore(time.Minute)

type API struct {
	DB       *gorm.DB
	Router   *gin.Engine
	Argon    *security.ArgonHash
	Tokens   *security.TokenService
	Users    *store.UserStore
	Files    *store.FileStore
	Engine   *storage.Engine
	Delivery *storage.Dispatcher
}

func NewRouter(cfg *config.Config) (*API, error) {
	gormDB, err := db.New(cfg)
	if err != nil {
		return nil, err
	}

	makeLogger(cfg.LogLevel)

	a := New(cfg, gormDB)
	return a, nil
}

// New wires the components onto a gin engine. Split out from NewRouter so
// tests can hand in their own database and storage root.
func New(cfg *config.Config, gormDB *gorm.DB) *API {
	users := store.NewUserStore(gormDB)
	files := store.NewFileStore(gormDB)
	paths := storage.NewResolver(cfg.StorageRoot)

	a := &API{
		DB:       gormDB,
		Argon:    security.NewArgonHash(),
		Tokens:   security.NewTokenService(cfg.JWTSecret, cfg.TokenTTL),
		Users:    users,
		Files:    files,
		Engine:   storage.NewEngine(files, paths),
		Delivery: storage.NewDispatcher(files, paths, cfg.LargeFileSize, cfg.ChunkSize),
	}

	router := gin.New()
	a.Router = router

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     []string{"http://localhost:5173"},
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		gin.Recovery(),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v := c.GetString("userID"); v != "" {
					fields = append(fields, zap.String("userID", v))
				}

				return fields
			},
		}),
	)

	router.HandleMethodNotAllowed = true

	auth := middleware.NewAuthMiddleware(a.Tokens, a.Users)
	credLimiter := middleware.RateLimiterMiddleware(middleware.RateLimiterConfig{
		RequestsPerSecond: 20,
		Burst:             60,
	})

	main := router.Group("/api/v1")
	{
		// GET /api/v1/ping		-> Database health check
		main.GET("/ping", cacheFor(5), a.Ping)

		// POST /api/v1/register 	-> Registers a new user
		main.POST("/register", credLimiter, middleware.BodySizeLimiter(1<<20), a.UserRegister)

		// POST /api/v1/auth 		-> Trades credentials for a bearer token
		main.POST("/auth", credLimiter, middleware.BodySizeLimiter(1<<20), a.UserAuth)
	}

	filesGroup := main.Group("/files", auth)
	{
		// POST /api/v1/files/upload	-> Uploads or overwrites a file
		filesGroup.POST("/upload", middleware.BodySizeLimiter(maxUploadSize), a.FileUpload)

		// GET /api/v1/files/download	-> Downloads a file by name+dir or by id
		filesGroup.GET("/download", a.FileDownload)

		// GET /api/v1/files/		-> Lists a user's files with limit/offset
		filesGroup.GET("/", a.FileList)
	}

	return a
}

func makeLogger(level string) {
	cfg := zap.NewDevelopmentConfig()

	if lvl, err := zapcore.ParseLevel(level); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = func(t time.Time, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + t.Format("15:04:05.000") + reset)
	}
	cfg.EncoderConfig.EncodeCaller = func(ec zapcore.EntryCaller, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + ec.TrimmedPath() + reset)
	}

	cfg.DisableStacktrace = true

	log, _ := cfg.Build()
	zap.ReplaceGlobals(log)
}

func cacheFor(sec int) gin.HandlerFunc {
	return cache.CacheByRequestURI(cacheStore, time.Second*time.Duration(sec))
}
