package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	MediaCloudinary = "cloudinary"
	MediaS3         = "s3"
)

type Config struct {
	MongoURI      string
	MongoDatabase string

	RedisAddress  string
	RedisPassword string
	RedisDB       int

	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	Issuer             string
	Audience           string
	PasswordPepper     string

	HTTPAddress      string
	AllowedOrigins   []string
	AllowCredentials bool
	CookieDomain     string
	UploadDir        string
	MaxUploadBytes   int64

	MediaProvider       string
	CloudinaryName      string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	MediaFolder         string

	S3Region        string
	S3Bucket        string
	S3BaseEndpoint  string
	S3AccessKey     string
	S3SecretKey     string
	S3PublicBaseURL string

	ProfileCacheTTL time.Duration
	LogLevel        string
}

var required = []string{
	"MONGODB_URI",
	"REDIS_ADDRESS",
	"ACCESS_TOKEN_SECRET",
	"REFRESH_TOKEN_SECRET",
	"ACCESS_TOKEN_TTL",
	"REFRESH_TOKEN_TTL",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	v.SetDefault("MONGODB_DATABASE", "videotube")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("HTTP_ADDRESS", ":8000")
	v.SetDefault("ALLOW_CREDENTIALS", true)
	v.SetDefault("UPLOAD_DIR", "./public/temp")
	v.SetDefault("MAX_UPLOAD_BYTES", 20<<20)
	v.SetDefault("MEDIA_PROVIDER", MediaCloudinary)
	v.SetDefault("MEDIA_FOLDER", "videotube")
	v.SetDefault("PROFILE_CACHE_TTL", "1m")
	v.SetDefault("LOG_LEVEL", "info")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file, %w", err)
		}
	}

	for _, key := range required {
		if strings.TrimSpace(v.GetString(key)) == "" {
			return nil, fmt.Errorf("%s is not set", key)
		}
	}

	cfg := &Config{
		MongoURI:      v.GetString("MONGODB_URI"),
		MongoDatabase: v.GetString("MONGODB_DATABASE"),

		RedisAddress:  v.GetString("REDIS_ADDRESS"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		RedisDB:       v.GetInt("REDIS_DB"),

		AccessTokenSecret:  v.GetString("ACCESS_TOKEN_SECRET"),
		RefreshTokenSecret: v.GetString("REFRESH_TOKEN_SECRET"),
		AccessTokenTTL:     v.GetDuration("ACCESS_TOKEN_TTL"),
		RefreshTokenTTL:    v.GetDuration("REFRESH_TOKEN_TTL"),
		Issuer:             v.GetString("JWT_ISSUER"),
		Audience:           v.GetString("JWT_AUDIENCE"),
		PasswordPepper:     v.GetString("PASSWORD_PEPPER"),

		HTTPAddress:      v.GetString("HTTP_ADDRESS"),
		AllowedOrigins:   parseOrigins(v.GetString("ALLOWED_ORIGINS")),
		AllowCredentials: v.GetBool("ALLOW_CREDENTIALS"),
		CookieDomain:     v.GetString("COOKIE_DOMAIN"),
		UploadDir:        v.GetString("UPLOAD_DIR"),
		MaxUploadBytes:   v.GetInt64("MAX_UPLOAD_BYTES"),

		MediaProvider:       strings.ToLower(strings.TrimSpace(v.GetString("MEDIA_PROVIDER"))),
		CloudinaryName:      v.GetString("CLOUDINARY_CLOUD_NAME"),
		CloudinaryAPIKey:    v.GetString("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret: v.GetString("CLOUDINARY_API_SECRET"),
		MediaFolder:         v.GetString("MEDIA_FOLDER"),

		S3Region:        v.GetString("S3_REGION"),
		S3Bucket:        v.GetString("S3_BUCKET"),
		S3BaseEndpoint:  v.GetString("S3_BASE_ENDPOINT"),
		S3AccessKey:     v.GetString("S3_ACCESS_KEY"),
		S3SecretKey:     v.GetString("S3_SECRET_KEY"),
		S3PublicBaseURL: v.GetString("S3_PUBLIC_BASE_URL"),

		ProfileCacheTTL: v.GetDuration("PROFILE_CACHE_TTL"),
		LogLevel:        v.GetString("LOG_LEVEL"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return errors.New("token TTLs must be positive durations")
	}
	if c.AccessTokenTTL >= c.RefreshTokenTTL {
		return errors.New("ACCESS_TOKEN_TTL must be shorter than REFRESH_TOKEN_TTL")
	}
	// Один общий секрет позволил бы подделать refresh-токен из утёкшего access.
	if c.AccessTokenSecret == c.RefreshTokenSecret {
		return errors.New("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must differ")
	}
	switch c.MediaProvider {
	case MediaCloudinary:
		if c.CloudinaryName == "" || c.CloudinaryAPIKey == "" || c.CloudinaryAPISecret == "" {
			return errors.New("cloudinary credentials are not set")
		}
	case MediaS3:
		if c.S3Bucket == "" || c.S3Region == "" {
			return errors.New("S3_BUCKET and S3_REGION are required for s3 media provider")
		}
	default:
		return fmt.Errorf("unknown MEDIA_PROVIDER %q", c.MediaProvider)
	}
	return nil
}

// parseOrigins принимает как "a,b", так и JSON-массив `["a","b"]`.
func parseOrigins(s string) []string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.Trim(strings.TrimSpace(part), `"`)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
