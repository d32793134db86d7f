package main

import (
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"imgnote/api"
)

func ParseArgs() Args {
	// server config
	pflag.String("server-url", "0.0.0.0:8080", "listen address")
	pflag.String("log-level", "info", "debug, info, warn or error")

	// s3 config, uploads are not stored when the bucket is empty
	pflag.String("s3-endpoint", "", "")
	pflag.String("s3-region", "auto", "")
	pflag.String("s3-bucket", "", "")
	pflag.String("s3-public-base-url", "", "")
	pflag.String("s3-access-key-id", "", "")
	pflag.String("s3-secret-access-key", "", "")
	pflag.Bool("s3-use-path-style", false, "")

	// db config
	pflag.String("db-user", "", "")
	pflag.String("db-password", "", "")
	pflag.String("db-host", "", "")
	pflag.Int("db-port", 5432, "")
	pflag.String("db-database", "", "")
	pflag.String("db-schema", "", "")
	pflag.String("db-sslmode", "disable", "")
	pflag.Int("db-max-idle-conns", 10, "")
	pflag.Int("db-max-open-conns", 100, "")
	pflag.Duration("db-conn-max-lifetime", time.Hour, "")
	pflag.Bool("db-debug", false, "log every SQL statement")

	// redis config, the local lock and event fan-out are used when the address is empty
	pflag.String("redis-addr", "", "")
	pflag.String("redis-password", "", "")
	pflag.Int("redis-db", 0, "")
	pflag.String("redis-key-prefix", "imgnote:", "")
	pflag.String("redis-stream-key-for-image-events", "imgnote-image-events", "")

	// auth config
	pflag.String("auth-secret", "", "HMAC key of the access tokens")
	pflag.String("auth-issuer", "imgnote", "")
	pflag.Duration("auth-expire-duration", 24*time.Hour, "")
	pflag.String("auth-admin-username", "admin", "")
	pflag.String("auth-admin-email", "", "")
	pflag.String("auth-admin-password", "", "the admin account is created on start when set")
	pflag.Bool("auth-secure-cookie", false, "")

	// upload config
	pflag.Int64("upload-max-bytes", 10<<20, "")
	pflag.Int64("upload-rate-limit-per-hour", 30, "0 disables the limit")

	// bind pflag to viper
	pflag.Parse()
	viper.BindPFlags(pflag.CommandLine)
	viper.AutomaticEnv()
	viper.SetEnvPrefix("IMGNOTE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	// initial arguments
	return Args{
		ServerURL: viper.GetString("server-url"),
		LogLevel:  viper.GetString("log-level"),
		ServerConfig: api.ServerConfig{
			S3: api.S3Config{
				Endpoint:        viper.GetString("s3-endpoint"),
				Region:          viper.GetString("s3-region"),
				Bucket:          viper.GetString("s3-bucket"),
				PublicBaseURL:   viper.GetString("s3-public-base-url"),
				AccessKeyID:     viper.GetString("s3-access-key-id"),
				SecretAccessKey: viper.GetString("s3-secret-access-key"),
				UsePathStyle:    viper.GetBool("s3-use-path-style"),
			},
			DB: api.DBConfig{
				User:            viper.GetString("db-user"),
				Password:        viper.GetString("db-password"),
				Host:            viper.GetString("db-host"),
				Port:            viper.GetInt("db-port"),
				Database:        viper.GetString("db-database"),
				Schema:          viper.GetString("db-schema"),
				SSLMode:         viper.GetString("db-sslmode"),
				MaxIdleConns:    viper.GetInt("db-max-idle-conns"),
				MaxOpenConns:    viper.GetInt("db-max-open-conns"),
				ConnMaxLifetime: viper.GetDuration("db-conn-max-lifetime"),
				Debug:           viper.GetBool("db-debug"),
			},
			Redis: api.RedisConfig{
				Addr:      viper.GetString("redis-addr"),
				Password:  viper.GetString("redis-password"),
				DB:        viper.GetInt("redis-db"),
				KeyPrefix: viper.GetString("redis-key-prefix"),
				StreamKeys: api.RedisStreamKeys{
					ImageEvents: viper.GetString("redis-stream-key-for-image-events"),
				},
			},
			Auth: api.AuthConfig{
				Secret:         []byte(viper.GetString("auth-secret")),
				Issuer:         viper.GetString("auth-issuer"),
				ExpireDuration: viper.GetDuration("auth-expire-duration"),
				AdminUsername:  viper.GetString("auth-admin-username"),
				AdminEmail:     viper.GetString("auth-admin-email"),
				AdminPassword:  viper.GetString("auth-admin-password"),
				SecureCookie:   viper.GetBool("auth-secure-cookie"),
			},
			Upload: api.UploadConfig{
				MaxBytes:         viper.GetInt64("upload-max-bytes"),
				RateLimitPerHour: viper.GetInt64("upload-rate-limit-per-hour"),
			},
		},
	}
}

type Args struct {
	ServerURL    string
	LogLevel     string
	ServerConfig api.ServerConfig
}

func (args Args) Validate() bool {
	db := args.ServerConfig.DB
	return args.ServerURL != "" && db.Host != "" && db.Database != "" && len(args.ServerConfig.Auth.Secret) > 0
}
