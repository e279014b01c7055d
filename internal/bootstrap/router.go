package bootstrap

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/cartmates/cartmates-backend/config"
	"github.com/cartmates/cartmates-backend/internal/activity"
	httpapi "github.com/cartmates/cartmates-backend/internal/api/http"
	"github.com/cartmates/cartmates-backend/internal/auth"
	listshttp "github.com/cartmates/cartmates-backend/internal/lists/http"
	"github.com/cartmates/cartmates-backend/internal/lists/repository"
	"github.com/cartmates/cartmates-backend/internal/lists/service"
	"github.com/cartmates/cartmates-backend/internal/middleware"
	"github.com/cartmates/cartmates-backend/internal/users"
)

type RouterDeps struct {
	ServiceName string
	Config      *config.Config
	Log         *logrus.Logger
	DB          *pgxpool.Pool
	Redis       *redis.Client
}

// BuildRouter wires repositories, services and handlers into a gin engine.
func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID(dep.Log))
	r.Use(middleware.Metrics())
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Authorization", "Content-Type"},
	}))
	if dep.Config.RateLimit.RPS > 0 {
		r.Use(middleware.RateLimit(dep.Config.RateLimit.RPS, dep.Config.RateLimit.Burst))
	}

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Config.App.Version, dep.DB, dep.Redis)
	healthHandler.RegisterRoutes(r)
	httpapi.RegisterMetrics(r)

	userRepo := users.NewRepo(dep.DB)
	listRepo := repository.NewListRepository(dep.DB)
	itemRepo := repository.NewItemRepository(dep.DB)
	activityRepo := activity.NewRepository(dep.Redis)

	authSvc := auth.NewService(userRepo, dep.Config.Auth.JWTSecret, dep.Config.Auth.TokenTTL)

	guard := service.NewGuard(listRepo, itemRepo)
	listSvc := service.NewListService(listRepo, userRepo, guard, activityRepo, dep.Log)
	itemSvc := service.NewItemService(itemRepo, listRepo, guard, activityRepo, dep.Log)

	api := r.Group("/api/v1")

	auth.Register(api.Group("/auth"), authSvc)

	protected := api.Group("")
	protected.Use(auth.RequireUser(authSvc))
	auth.RegisterProtected(protected, authSvc)
	listshttp.Register(protected, listSvc, itemSvc)

	return r
}
