package api

import (
	"time"

	"imgnote/adapters/database"
)

type ServerConfig struct {
	DB     DBConfig
	Redis  RedisConfig
	S3     S3Config
	Auth   AuthConfig
	Upload UploadConfig
}

type DBConfig = database.Config

type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string

	StreamKeys RedisStreamKeys
}

type RedisStreamKeys struct {
	ImageEvents string
}

type S3Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
	Region          string
	Bucket          string
	PublicBaseURL   string
	UsePathStyle    bool
}

type AuthConfig struct {
	Secret         []byte
	Issuer         string
	ExpireDuration time.Duration
	AdminUsername  string
	AdminEmail     string
	AdminPassword  string
	SecureCookie   bool
}

type UploadConfig struct {
	MaxBytes         int64
	RateLimitPerHour int64
}
