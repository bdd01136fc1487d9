package router

import (
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/langbridge/internal/application"
	"github.com/oksasatya/langbridge/internal/container"
	"github.com/oksasatya/langbridge/internal/domain/repository"
	"github.com/oksasatya/langbridge/internal/infrastructure/memory"
	pginfra "github.com/oksasatya/langbridge/internal/infrastructure/postgres"
	"github.com/oksasatya/langbridge/internal/infrastructure/search"
	handlers "github.com/oksasatya/langbridge/internal/interface/http"
	"github.com/oksasatya/langbridge/internal/interface/middleware"
	"github.com/oksasatya/langbridge/internal/router/modules"
	"github.com/oksasatya/langbridge/pkg/helpers"
)

// Deps is everything the HTTP modules need. InitModules fills it from the
// container; tests build one directly over the memory store.
type Deps struct {
	Users    repository.UserRepository
	Requests repository.FriendRequestRepository
	Tx       repository.Transactor
	Sessions application.SessionStore

	UserService   *application.UserService
	FriendService *application.FriendService

	JWT     *helpers.JWTManager
	Cookies *helpers.Manager
	Redis   *redis.Client
	Logger  *logrus.Logger

	RecommendLimit int
	DebugMetrics   bool
}

func buildDeps() Deps {
	cfg := container.GetConfig()
	logger := container.GetLogger()

	d := Deps{
		JWT:            container.GetJWT(),
		Cookies:        helpers.NewCookie(cfg.CookieDomain, cfg.CookieSecure),
		Redis:          container.GetRedis(),
		Logger:         logger,
		RecommendLimit: cfg.RecommendLimit,
		DebugMetrics:   cfg.DebugMetricsEnabled,
	}

	if cfg.UseMemoryStore() {
		store := container.GetMemoryStore()
		if store == nil {
			store = memory.NewStore()
			container.SetMemoryStore(store)
		}
		d.Users, d.Requests, d.Tx = store.Users(), store.Requests(), store
		d.Sessions = store.Sessions()
	} else {
		pool := container.GetPGPool()
		d.Users = pginfra.NewUserRepository(pool)
		d.Requests = pginfra.NewFriendRequestRepository(pool)
		d.Tx = pginfra.NewTransactor(pool)
		if d.Redis != nil {
			d.Sessions = helpers.NewRedisSessions(d.Redis, cfg.RefreshTTL)
		} else {
			logger.Warn("redis not configured, sessions are kept in process")
			d.Sessions = memory.NewStore().Sessions()
		}
	}

	// Optional collaborators stay as untyped nil interfaces when unconfigured.
	deps := application.UserServiceDeps{
		Repo:      d.Users,
		JWT:       d.JWT,
		Sessions:  d.Sessions,
		Presence:  container.GetPresence(),
		Chat:      container.GetChat(),
		ClientURL: cfg.ClientURL,
		Logger:    logger,
	}
	if es := container.GetES(); es != nil {
		deps.Index = search.NewUserIndex(es, cfg.ESUsersIndex)
	}
	if gcs := container.GetGCS(); gcs != nil && cfg.GCSBucket != "" {
		deps.Avatars = helpers.NewGCSUploader(gcs, cfg.GCSBucket)
	}
	if pub := container.GetEmailPub(); pub != nil {
		deps.Jobs = pub
	}

	d.UserService = application.NewUserService(deps)
	d.FriendService = application.NewFriendService(d.Users, d.Requests, d.Tx, logger)
	return d
}

// Mount registers every feature module built from d.
func Mount(r *Registry, d Deps) {
	if r.Logger == nil {
		r.Logger = d.Logger
	}
	guard := middleware.Auth(d.JWT, d.Sessions, d.Users)

	r.Add(modules.NewAuthModule(handlers.NewAuthHandler(d.UserService, d.Logger, d.Cookies), guard, d.Redis))
	r.Add(modules.NewFriendModule(handlers.NewFriendHandler(d.FriendService, d.Logger, d.RecommendLimit), guard, d.Redis))
	r.Add(modules.NewUserModule(handlers.NewUserHandler(d.UserService, d.Logger), guard, d.Redis))
	if d.DebugMetrics {
		r.Add(modules.NewDebugModule(d.Redis))
	}
}

// InitModules initializes all application modules and registers them with the router registry.
// Call once during startup, after the container is populated.
func InitModules(r *Registry) {
	Mount(r, buildDeps())
}
