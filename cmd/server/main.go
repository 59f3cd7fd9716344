package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/folio/folio/internal/clock"
	"github.com/folio/folio/internal/config"
	"github.com/folio/folio/internal/coverletter"
	"github.com/folio/folio/internal/handlers"
	"github.com/folio/folio/internal/mail"
	"github.com/folio/folio/internal/middleware"
	"github.com/folio/folio/internal/models"
	"github.com/folio/folio/internal/repository"
	"github.com/folio/folio/internal/repository/postgres"
	"github.com/folio/folio/internal/service"
	"github.com/folio/folio/internal/storage"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// accessStore is the allow-list as main needs it: the gate plus seeding.
type accessStore interface {
	service.AccessStore
	Upsert(ctx context.Context, entry *models.AccessEntry) error
}

type stores struct {
	access      accessStore
	otp         service.OTPStore
	projects    service.ProjectStore
	coverTokens service.CoverTokenStore
	contact     service.ContactStore
	close       func()
}

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	} else {
		logger.WithField("level", cfg.LogLevel).Warn("Unknown log level, using info")
	}

	ctx := context.Background()

	st, err := initStores(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize store")
	}
	defer st.close()

	seedAdmins(ctx, st.access, cfg.AdminSeed, logger)

	var (
		throttle service.Throttle
		revoker  service.Revoker
	)
	clk := clock.New()

	if cfg.Redis.Enabled() {
		redisClient, err := initRedis(ctx, cfg)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to Redis")
		}
		defer redisClient.Close()

		throttle = service.NewRedisThrottle(redisClient)
		revoker = service.NewRedisRevoker(redisClient, clk, logger)
		logger.Info("Redis cooldown and session revocation enabled")
	}

	mailer, err := initMailer(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize mailer")
	}
	defer mailer.Close()

	images, err := storage.New(ctx, &cfg.Storage, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize image storage")
	}

	production := cfg.Server.Production()

	// Initialize services
	sessionService, err := service.NewSessionService(&cfg.Session, clk, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize session service")
	}

	accessService := service.NewAccessService(st.access, logger)
	otpService := service.NewOTPService(accessService, st.otp, mailer, throttle, clk, &cfg.OTP, cfg.Server.Development(), logger)
	projectService := service.NewProjectService(st.projects, clk, logger)
	letterService := service.NewCoverLetterService(
		st.coverTokens,
		coverletter.NewGenerator(cfg.Profile, cfg.Applications.SignaturePath, logger),
		clk,
		cfg.Server.BaseURL,
		cfg.Applications.TokenTTL,
		cfg.Applications.YearsExperience,
		logger,
	)
	applicationService := service.NewApplicationService(letterService, mailer, clk, &cfg.Applications, cfg.Profile, production, logger)
	contactService := service.NewContactService(st.contact, mailer, clk, &cfg.Contact, logger)

	validator, err := handlers.NewValidator()
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize validator")
	}

	routes := handlers.Routes{
		Auth:         handlers.NewAuthHandlers(otpService, sessionService, revoker, validator, logger),
		Projects:     handlers.NewProjectHandlers(projectService, images, clk, validator, logger),
		CoverLetters: handlers.NewCoverLetterHandlers(letterService, applicationService, validator, logger),
		Contact:      handlers.NewContactHandlers(contactService, validator, logger),
		Guard:        middleware.NewAuthMiddleware(sessionService, revoker, logger),
		Production:   production,
		CORSOrigins:  cfg.Server.CORSOrigins,
		Logger:       logger,
	}
	if cfg.Storage.Driver == config.StorageLocal {
		routes.UploadDir = cfg.Storage.LocalDir
		routes.UploadPrefix = cfg.Storage.PublicPrefix
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handlers.NewRouter(routes),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.WithFields(logrus.Fields{
			"port":  cfg.Server.Port,
			"env":   cfg.Server.Environment,
			"store": cfg.Store,
		}).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server exited")
}

func initStores(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*stores, error) {
	if cfg.Store == config.StorePostgres {
		pool, err := postgres.Connect(ctx, &cfg.Postgres, logger)
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}

		return &stores{
			access:      postgres.NewAccessRepository(pool, logger),
			otp:         postgres.NewOTPRepository(pool, logger),
			projects:    postgres.NewProjectRepository(pool, logger),
			coverTokens: postgres.NewCoverTokenRepository(pool, logger),
			contact:     postgres.NewContactRepository(pool, logger),
			close:       pool.Close,
		}, nil
	}

	client, err := initDynamoDB(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	table := cfg.DynamoDB.TableName
	return &stores{
		access:      repository.NewAccessRepository(client, table, logger),
		otp:         repository.NewOTPRepository(client, table, logger),
		projects:    repository.NewProjectRepository(client, table, logger),
		coverTokens: repository.NewCoverTokenRepository(client, table, logger),
		contact:     repository.NewContactRepository(client, table, logger),
		close:       func() {},
	}, nil
}

func initDynamoDB(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*dynamodb.Client, error) {
	var awsCfg aws.Config
	var err error

	if cfg.DynamoDB.Endpoint != "" {
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.DynamoDB.Region),
			awsconfig.WithEndpointResolverWithOptions(aws.EndpointResolverWithOptionsFunc(
				func(service, region string, options ...interface{}) (aws.Endpoint, error) {
					return aws.Endpoint{
						URL:           cfg.DynamoDB.Endpoint,
						SigningRegion: cfg.DynamoDB.Region,
					}, nil
				})),
		)
	} else {
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.DynamoDB.Region))
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := dynamodb.NewFromConfig(awsCfg)
	logger.WithField("table", cfg.DynamoDB.TableName).Info("DynamoDB client initialized")
	return client, nil
}

func initRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Endpoint,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

func initMailer(cfg *config.Config, logger *logrus.Logger) (mail.Mailer, error) {
	if cfg.Mail.Host == "" {
		logger.Warn("SMTP_HOST not set, emails will only be logged")
		return mail.NewLogMailer(logger), nil
	}

	return mail.NewSMTP(mail.SMTPConfig{
		Host:        cfg.Mail.Host,
		Port:        cfg.Mail.Port,
		Username:    cfg.Mail.Username,
		Password:    cfg.Mail.Password,
		From:        cfg.Mail.From,
		ImplicitTLS: cfg.Mail.ImplicitTLS,
	})
}

// seedAdmins activates every configured admin email. Failures are logged and
// do not stop startup.
func seedAdmins(ctx context.Context, store accessStore, emails []string, logger *logrus.Logger) {
	for _, email := range emails {
		err := store.Upsert(ctx, &models.AccessEntry{Email: email, IsActive: true})
		if err != nil {
			logger.WithError(err).WithField("email", email).Error("Failed to seed admin access")
			continue
		}
		logger.WithField("email", email).Info("Admin access seeded")
	}
}
