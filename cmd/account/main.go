package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	myMongo "github.com/Miraines/MoonyAndStarry/account-service/internal/adapters/db/mongodb"
	myRedisRepo "github.com/Miraines/MoonyAndStarry/account-service/internal/adapters/db/redis"
	mediaCloudinary "github.com/Miraines/MoonyAndStarry/account-service/internal/adapters/media/cloudinary"
	mediaS3 "github.com/Miraines/MoonyAndStarry/account-service/internal/adapters/media/s3"
	myHttp "github.com/Miraines/MoonyAndStarry/account-service/internal/adapters/transport/http"
	"github.com/Miraines/MoonyAndStarry/account-service/internal/app/account/jwt"
	"github.com/Miraines/MoonyAndStarry/account-service/internal/app/account/password"
	appsvc "github.com/Miraines/MoonyAndStarry/account-service/internal/app/account/service"
	"github.com/Miraines/MoonyAndStarry/account-service/internal/domain/account/media"
	"github.com/Miraines/MoonyAndStarry/account-service/internal/infra/config"
	lg "github.com/Miraines/MoonyAndStarry/account-service/internal/infra/log"
	"github.com/Miraines/MoonyAndStarry/account-service/internal/infra/metrics"
	"github.com/Miraines/MoonyAndStarry/account-service/internal/infra/server"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func newMediaStore(ctx context.Context, cfg *config.Config) (media.Store, error) {
	switch cfg.MediaProvider {
	case config.MediaS3:
		return mediaS3.New(ctx, mediaS3.Options{
			Region:        cfg.S3Region,
			Bucket:        cfg.S3Bucket,
			BaseEndpoint:  cfg.S3BaseEndpoint,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			PublicBaseURL: cfg.S3PublicBaseURL,
		})
	default:
		return mediaCloudinary.New(cfg.CloudinaryName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
	}
}

func main() {
	// .env необязателен: в контейнере всё приходит из окружения.
	_ = godotenv.Load()

	zapLog := lg.Must(os.Getenv("LOG_LEVEL"))
	defer zapLog.Sync()

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("failed to load config", zap.Error(err))
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mongoCli, db, err := myMongo.Connect(rootCtx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		zapLog.Fatal("failed to connect to mongodb", zap.Error(err))
	}
	defer func() {
		if err := myMongo.Disconnect(context.Background(), mongoCli); err != nil {
			zapLog.Error("mongo disconnect", zap.Error(err))
		}
	}()

	userRepo := myMongo.NewMongoUserRepo(db)
	if err := userRepo.EnsureIndexes(rootCtx); err != nil {
		zapLog.Fatal("ensure indexes", zap.Error(err))
	}

	redisCli := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddress,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisCli.Close()
	if err := redisCli.Ping(rootCtx).Err(); err != nil {
		zapLog.Fatal("failed to connect to redis", zap.Error(err))
	}

	store, err := newMediaStore(rootCtx, cfg)
	if err != nil {
		zapLog.Fatal("failed to init media store", zap.Error(err))
	}

	jwtUtil, err := jwt.NewJWTUtil(cfg)
	if err != nil {
		zapLog.Fatal("failed to init JWT util", zap.Error(err))
	}

	m := metrics.New()
	svc := appsvc.New(appsvc.Deps{
		Users:   userRepo,
		Graph:   myMongo.NewMongoGraphRepo(db),
		Tokens:  myRedisRepo.NewRedisTokenRepo(redisCli),
		Cache:   myRedisRepo.NewProfileCache(redisCli, cfg.ProfileCacheTTL),
		JWT:     jwtUtil,
		Hasher:  password.NewHasher(cfg.PasswordPepper, nil),
		Media:   store,
		Log:     zapLog,
		Metrics: m,
		Folder:  cfg.MediaFolder,
	}, appsvc.NewValidator())

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	handler := myHttp.NewHandler(svc, zapLog, myHttp.Options{
		CookieDomain:   cfg.CookieDomain,
		UploadDir:      cfg.UploadDir,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})
	router := myHttp.NewRouter(rootCtx, handler, zapLog, myHttp.RouterConfig{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: cfg.AllowCredentials,
		Metrics:          m.Handler(),
		Observer:         m,
	})

	g, ctx := errgroup.WithContext(rootCtx)
	g.Go(func() error {
		return server.StartHTTPServer(ctx, cfg.HTTPAddress, router, zapLog)
	})

	if err := g.Wait(); err != nil {
		zapLog.Error("server terminated", zap.Error(err))
	}
	zapLog.Info("shutdown complete")
}
