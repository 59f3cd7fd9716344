package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"

	StoreDynamoDB = "dynamodb"
	StorePostgres = "postgres"

	StorageLocal = "local"
	StorageS3    = "s3"
)

type Config struct {
	Server       ServerConfig
	Store        string
	DynamoDB     DynamoDBConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Session      SessionConfig
	OTP          OTPConfig
	Mail         MailConfig
	Storage      StorageConfig
	Applications ApplicationsConfig
	Contact      ContactConfig
	Profile      ProfileConfig
	LogLevel     string
	AdminSeed    []string
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Environment  string
	BaseURL      string
	CORSOrigins  []string
}

// Production reports whether cookies must be marked Secure.
func (s ServerConfig) Production() bool {
	return s.Environment == EnvProduction
}

// Development is true only for the local development environment. Staging
// and other non-production environments are not development.
func (s ServerConfig) Development() bool {
	return s.Environment == EnvDevelopment
}

type DynamoDBConfig struct {
	Endpoint  string
	Region    string
	TableName string
}

type PostgresConfig struct {
	DSN      string
	MaxConns int32
}

type RedisConfig struct {
	Endpoint string
	Password string
	DB       int
}

// Enabled reports whether cooldown and revocation can use Redis.
func (r RedisConfig) Enabled() bool {
	return r.Endpoint != ""
}

type SessionConfig struct {
	SecretKey    string
	TTL          time.Duration
	FlagCookie   string
	EmailCookie  string
	LoginPath    string
	SecureCookie bool
}

type OTPConfig struct {
	Expiry         time.Duration
	ResendCooldown time.Duration
	RotateAttempts uint64
	From           string
}

type MailConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	From        string
	ImplicitTLS bool
}

type StorageConfig struct {
	Driver       string
	LocalDir     string
	PublicPrefix string
	S3Bucket     string
	S3Region     string
	S3Endpoint   string
	S3PublicURL  string
}

type ApplicationsConfig struct {
	From            string
	ResumePath      string
	SignaturePath   string
	TestRecipient   string
	YearsExperience string
	Workers         int
	TokenTTL        time.Duration
}

type ContactConfig struct {
	To   string
	From string
}

// ProfileConfig is the applicant identity printed on cover letters and
// signed under application emails.
type ProfileConfig struct {
	Name     string
	Location string
	Phone    string
	Email    string
	Site     string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("READ_TIMEOUT", 15*time.Second)
	v.SetDefault("WRITE_TIMEOUT", 30*time.Second)
	v.SetDefault("APP_ENV", EnvDevelopment)
	v.SetDefault("BASE_URL", "http://localhost:8080")
	v.SetDefault("CORS_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("STORE_DRIVER", StoreDynamoDB)
	v.SetDefault("DYNAMODB_ENDPOINT", "")
	v.SetDefault("DYNAMODB_REGION", "us-east-1")
	v.SetDefault("DYNAMODB_TABLE_NAME", "FolioTable")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DATABASE_MAX_CONNS", 10)

	v.SetDefault("REDIS_ENDPOINT", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("SESSION_SECRET_KEY", "")
	v.SetDefault("SESSION_TTL", 4*time.Hour)
	v.SetDefault("SESSION_FLAG_COOKIE", "admin")
	v.SetDefault("SESSION_EMAIL_COOKIE", "adminEmail")
	v.SetDefault("LOGIN_PATH", "/admin-login")

	v.SetDefault("OTP_EXPIRY", 5*time.Minute)
	v.SetDefault("OTP_RESEND_COOLDOWN", 30*time.Second)
	v.SetDefault("OTP_ROTATE_ATTEMPTS", 3)
	v.SetDefault("OTP_FROM", "Admin Login <noreply@localhost>")

	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("SMTP_FROM", "")
	v.SetDefault("SMTP_IMPLICIT_TLS", false)

	v.SetDefault("STORAGE_DRIVER", StorageLocal)
	v.SetDefault("STORAGE_LOCAL_DIR", "./public/projects")
	v.SetDefault("STORAGE_PUBLIC_PREFIX", "/uploads/projects")
	v.SetDefault("S3_BUCKET", "")
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("S3_ENDPOINT", "")
	v.SetDefault("S3_PUBLIC_URL", "")

	v.SetDefault("EMAIL_FROM", "")
	v.SetDefault("RESUME_PATH", "./public/resume.pdf")
	v.SetDefault("SIGNATURE_PATH", "./public/signature.png")
	v.SetDefault("APPLICATION_TEST_RECIPIENT", "")
	v.SetDefault("DEFAULT_YEARS_EXPERIENCE", "5+ years")
	v.SetDefault("APPLICATION_WORKERS", 3)
	v.SetDefault("COVER_TOKEN_TTL", time.Hour)

	v.SetDefault("CONTACT_TO_EMAIL", "")
	v.SetDefault("CONTACT_FROM_EMAIL", "Portfolio Contact <no-reply@localhost>")

	v.SetDefault("PROFILE_NAME", "Portfolio Owner")
	v.SetDefault("PROFILE_LOCATION", "")
	v.SetDefault("PROFILE_PHONE", "")
	v.SetDefault("PROFILE_EMAIL", "")
	v.SetDefault("PROFILE_SITE", "")

	v.SetDefault("ADMIN_SEED_EMAILS", "")
}

// Load reads configuration from the environment, after loading an optional
// .env file from the working directory.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	env := strings.ToLower(v.GetString("APP_ENV"))

	cfg := &Config{
		Server: ServerConfig{
			Port:         v.GetString("PORT"),
			ReadTimeout:  v.GetDuration("READ_TIMEOUT"),
			WriteTimeout: v.GetDuration("WRITE_TIMEOUT"),
			Environment:  env,
			BaseURL:      strings.TrimRight(v.GetString("BASE_URL"), "/"),
			CORSOrigins:  splitList(v.GetString("CORS_ORIGINS")),
		},
		Store: strings.ToLower(v.GetString("STORE_DRIVER")),
		DynamoDB: DynamoDBConfig{
			Endpoint:  v.GetString("DYNAMODB_ENDPOINT"),
			Region:    v.GetString("DYNAMODB_REGION"),
			TableName: v.GetString("DYNAMODB_TABLE_NAME"),
		},
		Postgres: PostgresConfig{
			DSN:      v.GetString("DATABASE_URL"),
			MaxConns: v.GetInt32("DATABASE_MAX_CONNS"),
		},
		Redis: RedisConfig{
			Endpoint: v.GetString("REDIS_ENDPOINT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Session: SessionConfig{
			SecretKey:    v.GetString("SESSION_SECRET_KEY"),
			TTL:          v.GetDuration("SESSION_TTL"),
			FlagCookie:   v.GetString("SESSION_FLAG_COOKIE"),
			EmailCookie:  v.GetString("SESSION_EMAIL_COOKIE"),
			LoginPath:    v.GetString("LOGIN_PATH"),
			SecureCookie: env == EnvProduction,
		},
		OTP: OTPConfig{
			Expiry:         v.GetDuration("OTP_EXPIRY"),
			ResendCooldown: v.GetDuration("OTP_RESEND_COOLDOWN"),
			RotateAttempts: v.GetUint64("OTP_ROTATE_ATTEMPTS"),
			From:           v.GetString("OTP_FROM"),
		},
		Mail: MailConfig{
			Host:        v.GetString("SMTP_HOST"),
			Port:        v.GetInt("SMTP_PORT"),
			Username:    v.GetString("SMTP_USERNAME"),
			Password:    v.GetString("SMTP_PASSWORD"),
			From:        v.GetString("SMTP_FROM"),
			ImplicitTLS: v.GetBool("SMTP_IMPLICIT_TLS"),
		},
		Storage: StorageConfig{
			Driver:       strings.ToLower(v.GetString("STORAGE_DRIVER")),
			LocalDir:     v.GetString("STORAGE_LOCAL_DIR"),
			PublicPrefix: strings.TrimRight(v.GetString("STORAGE_PUBLIC_PREFIX"), "/"),
			S3Bucket:     v.GetString("S3_BUCKET"),
			S3Region:     v.GetString("S3_REGION"),
			S3Endpoint:   v.GetString("S3_ENDPOINT"),
			S3PublicURL:  strings.TrimRight(v.GetString("S3_PUBLIC_URL"), "/"),
		},
		Applications: ApplicationsConfig{
			From:            v.GetString("EMAIL_FROM"),
			ResumePath:      v.GetString("RESUME_PATH"),
			SignaturePath:   v.GetString("SIGNATURE_PATH"),
			TestRecipient:   v.GetString("APPLICATION_TEST_RECIPIENT"),
			YearsExperience: v.GetString("DEFAULT_YEARS_EXPERIENCE"),
			Workers:         v.GetInt("APPLICATION_WORKERS"),
			TokenTTL:        v.GetDuration("COVER_TOKEN_TTL"),
		},
		Contact: ContactConfig{
			To:   v.GetString("CONTACT_TO_EMAIL"),
			From: v.GetString("CONTACT_FROM_EMAIL"),
		},
		Profile: ProfileConfig{
			Name:     v.GetString("PROFILE_NAME"),
			Location: v.GetString("PROFILE_LOCATION"),
			Phone:    v.GetString("PROFILE_PHONE"),
			Email:    v.GetString("PROFILE_EMAIL"),
			Site:     strings.TrimRight(v.GetString("PROFILE_SITE"), "/"),
		},
		LogLevel:  v.GetString("LOG_LEVEL"),
		AdminSeed: splitList(strings.ToLower(v.GetString("ADMIN_SEED_EMAILS"))),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Session.SecretKey == "" {
		return fmt.Errorf("SESSION_SECRET_KEY environment variable is required")
	}

	if len(c.Session.SecretKey) < 32 {
		return fmt.Errorf("SESSION_SECRET_KEY must be at least 32 bytes (256 bits)")
	}

	switch c.Store {
	case StoreDynamoDB:
	case StorePostgres:
		if c.Postgres.DSN == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store)
	}

	switch c.Storage.Driver {
	case StorageLocal:
	case StorageS3:
		if c.Storage.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when STORAGE_DRIVER=s3")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}

	if c.OTP.Expiry <= 0 {
		return fmt.Errorf("OTP_EXPIRY must be positive")
	}

	if c.Applications.Workers < 1 {
		c.Applications.Workers = 1
	}

	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
