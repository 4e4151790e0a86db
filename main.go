package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"
	"github.com/go-openapi/spec"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"access-center/auth"
	"access-center/config"
	"access-center/controllers"
	"access-center/database"
	"access-center/grpcserver"
	"access-center/registry"
	"access-center/repositories"
	"access-center/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	var logger *zap.Logger
	switch cfg.LogLevel {
	case "debug":
		logger, _ = zap.NewDevelopment()
	default:
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	db, err := database.Open(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	if err := database.Seed(db, cfg.AdminEmail, cfg.AdminPassword, logger); err != nil {
		logger.Fatal("Failed to seed database", zap.Error(err))
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logger.Fatal("Failed to connect to redis", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}

	codec := auth.NewTokenCodec([]byte(cfg.JWTSecret), logger)
	blacklist := auth.NewRedisBlacklist(redisClient)
	filters := auth.NewTokenFilters(codec, blacklist, cfg.BlacklistFailOpen, logger)
	resolver := auth.NewIdentityResolver(repositories.NewAccessStore(db))
	guard := auth.NewGuard()

	userRepo := repositories.NewUserRepository(db)
	roleRepo := repositories.NewRoleRepository(db)
	permissionRepo := repositories.NewPermissionRepository(db)
	assignmentRepo := repositories.NewAssignmentRepository(db)

	userService := services.NewUserService(userRepo, roleRepo, assignmentRepo, codec, blacklist, guard, logger,
		services.UserServiceConfig{
			AccessExpiry:  cfg.AccessTokenExpiry(),
			RefreshExpiry: cfg.RefreshTokenExpiry(),
			StrictLogout:  cfg.StrictLogout,
		})
	roleService := services.NewRoleService(roleRepo, guard, logger)
	permissionService := services.NewPermissionService(permissionRepo, guard, logger)
	assignmentService := services.NewAssignmentService(assignmentRepo, userRepo, roleRepo, permissionRepo, guard, logger)

	userController := controllers.NewUserController(userService, resolver, filters)
	roleController := controllers.NewRoleController(roleService, resolver, filters)
	permissionController := controllers.NewPermissionController(permissionService, resolver, filters)
	assignmentController := controllers.NewAssignmentController(assignmentService, resolver, filters)
	healthController := controllers.NewHealthController(db)

	container := restful.NewContainer()
	for _, register := range []func(*restful.WebService){
		userController.RegisterRoutes,
		roleController.RegisterRoutes,
		permissionController.RegisterRoutes,
		assignmentController.RegisterRoleAssignmentRoutes,
		assignmentController.RegisterPermissionAssignmentRoutes,
		healthController.RegisterRoutes,
	} {
		ws := new(restful.WebService)
		register(ws)
		container.Add(ws)
	}

	container.Add(restfulspec.NewOpenAPIService(restfulspec.Config{
		WebServices: container.RegisteredWebServices(),
		APIPath:     "/apidocs.json",
		PostBuildSwaggerObjectHandler: func(s *spec.Swagger) {
			s.Info = &spec.Info{InfoProps: spec.InfoProps{
				Title:       cfg.ServiceName,
				Description: "Identity and access control service",
				Version:     "1.0.0",
			}}
		},
	}))

	grpcServer := grpcserver.New(codec, blacklist, logger, cfg.GRPCPort)
	go func() {
		if err := grpcServer.Serve(); err != nil {
			logger.Fatal("gRPC server failed", zap.Error(err))
		}
	}()

	serviceID := fmt.Sprintf("%s-%d", cfg.ServiceName, cfg.GRPCPort)
	if cfg.Consul.Enabled {
		reg, err := registry.NewConsulRegistry(cfg.Consul.Address, logger)
		if err != nil {
			logger.Fatal("Failed to connect to consul", zap.Error(err))
		}
		check := registry.GRPCCheck(serviceID, fmt.Sprintf("localhost:%d", cfg.GRPCPort), "10s", "1s")
		if err := reg.Register(serviceID, cfg.ServiceName, "localhost", cfg.GRPCPort, nil, check); err != nil {
			logger.Fatal("Failed to register with consul", zap.Error(err))
		}
		defer func() {
			if err := reg.Deregister(serviceID); err != nil {
				logger.Warn("Failed to deregister from consul", zap.Error(err))
			}
		}()
	}

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: container,
	}
	go func() {
		logger.Info("HTTP server listening", zap.Int("port", cfg.HTTPPort))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown error", zap.Error(err))
	}
	grpcServer.Shutdown()
}
