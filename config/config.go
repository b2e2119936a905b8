package config

import (
	"database/sql"
	"errors"
	_ "github.com/lib/pq"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"time"
)

type Config struct {
	MinIOBucket string        `yaml:"minio_bucket"`
	App         App           `yaml:"app"`
	DB          *sql.DB       `yaml:"db"`
	Queue       *RabbitMQ     `yaml:"rabbitmq"`
	Storage     *minio.Client `yaml:"storage"`
	Cache       *redis.Client `yaml:"redis"`
	Server      Server        `yaml:"server"`
	Auth        Auth          `yaml:"auth"`
	Ingest      Ingest        `yaml:"ingest"`
	Enrolment   Enrolment     `yaml:"enrolment"`
	Export      Export        `yaml:"export"`
}

type App struct {
	Environment string `yaml:"environment"`
	Host        string `yaml:"host"`
	Protocol    string `yaml:"protocol"`
}

type Server struct {
	HttpPort string `yaml:"http_port"`
	Workers  int    `yaml:"workers"`
}

type RabbitMQ struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	User         string `json:"user"`
	Pass         string `json:"pass"`
	ExchangeName string `json:"exchange_name"`
	Kind         string `json:"kind"`
}

type Auth struct {
	JWTSecret string `yaml:"jwt_secret"`
	AdminRole string `yaml:"admin_role"`
}

type Ingest struct {
	RatePerSecond float64 `yaml:"rate_per_second"`
	Burst         int     `yaml:"burst"`
}

type Enrolment struct {
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

type Export struct {
	URLExpiry time.Duration `yaml:"url_expiry"`
	TempDir   string        `yaml:"temp_dir"`
}

var ErrMissingJWTSecret = errors.New("auth.jwt_secret is required")

func setDefaults() {
	viper.SetDefault("rabbitmq_kind", "direct")
	viper.SetDefault("server.workers", 4)
	viper.SetDefault("auth.admin_role", "administrator")
	viper.SetDefault("ingest.rate_per_second", 2)
	viper.SetDefault("ingest.burst", 10)
	viper.SetDefault("enrolment.cache_ttl", 10*time.Minute)
	viper.SetDefault("export.url_expiry", time.Hour)
	viper.SetDefault("export.temp_dir", "temp")
}

func Load(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	setDefaults()
	err := viper.ReadInConfig()
	if err != nil {
		return nil, err
	}
	if viper.GetString("auth.jwt_secret") == "" {
		return nil, ErrMissingJWTSecret
	}

	db, err := sql.Open("postgres", viper.GetString("postgresql_host"))
	if err != nil {
		return nil, err
	}

	rabbitmq := &RabbitMQ{
		Host: viper.GetString("rabbitmq_host"),
		Port: viper.GetInt("rabbitmq_port"),
		User: viper.GetString("rabbitmq_user"),
		Pass: viper.GetString("rabbitmq_pass"),
		Kind: viper.GetString("rabbitmq_kind"),
	}

	minioClient, err := minio.New(viper.GetString("minio.url"), &minio.Options{
		Creds:  credentials.NewStaticV4(viper.GetString("minio.access_id"), viper.GetString("minio.secret_access_key"), ""),
		Secure: viper.GetBool("minio.secure"),
	})
	if err != nil {
		return nil, err
	}

	var cache *redis.Client
	if addr := viper.GetString("redis.addr"); addr != "" {
		cache = redis.NewClient(&redis.Options{
			Addr:        addr,
			Password:    viper.GetString("redis.password"),
			DB:          viper.GetInt("redis.db"),
			DialTimeout: 5 * time.Second,
		})
	}

	return &Config{
		MinIOBucket: viper.GetString("minio.bucket"),
		App: App{
			Environment: viper.GetString("app.environment"),
			Host:        viper.GetString("app.host"),
			Protocol:    viper.GetString("app.protocol"),
		},
		Server: Server{
			HttpPort: viper.GetString("server.port"),
			Workers:  viper.GetInt("server.workers"),
		},
		Auth: Auth{
			JWTSecret: viper.GetString("auth.jwt_secret"),
			AdminRole: viper.GetString("auth.admin_role"),
		},
		Ingest: Ingest{
			RatePerSecond: viper.GetFloat64("ingest.rate_per_second"),
			Burst:         viper.GetInt("ingest.burst"),
		},
		Enrolment: Enrolment{
			CacheTTL: viper.GetDuration("enrolment.cache_ttl"),
		},
		Export: Export{
			URLExpiry: viper.GetDuration("export.url_expiry"),
			TempDir:   viper.GetString("export.temp_dir"),
		},
		DB:      db,
		Queue:   rabbitmq,
		Storage: minioClient,
		Cache:   cache,
	}, nil
}
