package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Address                   string
		Host                      string
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	StorageConfig struct {
		Driver      string // memory | bolt | redis | sqlite | postgres
		Path        string // bolt & sqlite file
		RedisAddr   string
		RedisDB     int
		RedisPrefix string
		PostgresDSN string
	}

	BlobConfig struct {
		Driver      string // fs | s3 | memory
		Root        string
		S3Bucket    string
		S3Region    string
		S3Endpoint  string
		S3PathStyle bool
		S3AccessKey string // optional, the default AWS chain is used otherwise
		S3SecretKey string
	}

	Config struct {
		Debug            bool
		TestMode         bool
		AppName          string
		Env              string
		Build            string
		SecretKey        string
		FrontendBaseURL  string
		WorkDir          string
		RollbarToken     string
		SendgridApiKey   string
		defaultFromEmail string

		PasswordResetTimeoutDelta time.Duration

		Server  ServerConfig
		Storage StorageConfig
		Blob    BlobConfig
	}
)

// NewConfig loads the configuration from defaults, the optional `config/.env.<env>` file and the environment.
// Environment variables are prefixed with the uppercased ENV value, eg. DEV_STORAGE_DRIVER.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("appName", "Class Portal")
	v.SetDefault("build", "dev")
	v.SetDefault("secretKey", "n0t-s0-s3cr3t!key+for(dev)only#k3l4s")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("defaultFromEmail", "Class Portal <noreply@localhost>")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)

	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.jwtRefreshExpirationDelta", 4*time.Hour)

	v.SetDefault("storage.driver", "bolt")
	v.SetDefault("storage.path", filepath.Join("data", "classportal.db"))
	v.SetDefault("storage.redisAddr", "127.0.0.1:6379")
	v.SetDefault("storage.redisDB", 0)
	v.SetDefault("storage.redisPrefix", "classportal:")
	v.SetDefault("storage.postgresDSN", "postgres://localhost/classportal?sslmode=disable")

	v.SetDefault("blob.driver", "fs")
	v.SetDefault("blob.root", filepath.Join("data", "blobs"))
	v.SetDefault("blob.s3Bucket", "")
	v.SetDefault("blob.s3Region", "us-east-1")
	v.SetDefault("blob.s3Endpoint", "")
	v.SetDefault("blob.s3PathStyle", false)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	wd, err := os.Getwd()
	if err != nil {
		log.Fatalf("config.os.Getwd(): %v", err)
	}

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		AppName:          v.GetString("appName"),
		Env:              env,
		Build:            v.GetString("build"),
		SecretKey:        v.GetString("secretKey"),
		FrontendBaseURL:  v.GetString("frontendBaseURL"),
		WorkDir:          wd,
		RollbarToken:     v.GetString("rollbarToken"),
		SendgridApiKey:   v.GetString("sendgridApiKey"),
		defaultFromEmail: v.GetString("defaultFromEmail"),

		PasswordResetTimeoutDelta: v.GetDuration("passwordResetTimeoutDelta"),

		Server: ServerConfig{
			Address:                   v.GetString("server.address"),
			Host:                      v.GetString("server.host"),
			JWTExpirationDelta:        v.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("server.jwtRefreshExpirationDelta"),
		},
		Storage: StorageConfig{
			Driver:      strings.ToLower(v.GetString("storage.driver")),
			Path:        v.GetString("storage.path"),
			RedisAddr:   v.GetString("storage.redisAddr"),
			RedisDB:     v.GetInt("storage.redisDB"),
			RedisPrefix: v.GetString("storage.redisPrefix"),
			PostgresDSN: v.GetString("storage.postgresDSN"),
		},
		Blob: BlobConfig{
			Driver:      strings.ToLower(v.GetString("blob.driver")),
			Root:        v.GetString("blob.root"),
			S3Bucket:    v.GetString("blob.s3Bucket"),
			S3Region:    v.GetString("blob.s3Region"),
			S3Endpoint:  v.GetString("blob.s3Endpoint"),
			S3PathStyle: v.GetBool("blob.s3PathStyle"),
			S3AccessKey: v.GetString("blob.s3AccessKey"),
			S3SecretKey: v.GetString("blob.s3SecretKey"),
		},
	}
}

// NewTestConfig returns a Config suitable for tests: in-memory storage and blobs.
func NewTestConfig() *Config {
	return &Config{
		TestMode:         true,
		AppName:          "Class Portal",
		Env:              "TEST",
		Build:            "test",
		SecretKey:        "secret",
		FrontendBaseURL:  "http://localhost:3000",
		defaultFromEmail: "Class Portal <noreply@localhost>",

		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,

		Server: ServerConfig{
			JWTExpirationDelta:        10 * time.Minute,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
		Storage: StorageConfig{Driver: "memory"},
		Blob:    BlobConfig{Driver: "memory"},
	}
}

func (conf *Config) DefaultFromEmail() mail.Address {
	addr, err := mail.ParseAddress(conf.defaultFromEmail)
	if err != nil {
		return mail.Address{Name: conf.AppName, Address: "noreply@localhost"}
	}
	return *addr
}
