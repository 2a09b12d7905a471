package config

import "time"

// APIConfig holds runtime configuration for the API service.
type APIConfig struct {
	Environment          string
	Addr                 string
	DatabaseURL          string
	MigrationsDir        string
	UploadsDir           string
	JWTSecret            string
	AccessTokenTTL       time.Duration
	RefreshTokenTTL      time.Duration
	RateLimitRedisAddr   string
	RateLimitRedisPass   string
	RateLimitRedisDB     int
	AnnouncementCacheTTL time.Duration
	EmailAPIURL          string
	EmailAPIKey          string
	EmailFromAddress     string
}

// LoadAPIConfig constructs an APIConfig from environment variables.
func LoadAPIConfig() APIConfig {
	return APIConfig{
		Environment:          GetString("APP_ENV", "development"),
		Addr:                 GetString("API_ADDR", ":4000"),
		DatabaseURL:          GetString("DATABASE_URL", "postgres://sandwich:sandwich@db:5432/sandwich?sslmode=disable"),
		MigrationsDir:        GetString("DB_MIGRATIONS_DIR", "./db/migrations"),
		UploadsDir:           GetString("UPLOADS_DIR", "./uploads"),
		JWTSecret:            GetString("JWT_SECRET", "supersecuresecret"),
		AccessTokenTTL:       time.Duration(GetInt("ACCESS_TOKEN_TTL_MIN", 60)) * time.Minute,
		RefreshTokenTTL:      time.Duration(GetInt("REFRESH_TOKEN_TTL_HOURS", 168)) * time.Hour,
		RateLimitRedisAddr:   GetString("RATE_LIMIT_REDIS_ADDR", ""),
		RateLimitRedisPass:   GetString("RATE_LIMIT_REDIS_PASSWORD", ""),
		RateLimitRedisDB:     GetInt("RATE_LIMIT_REDIS_DB", 0),
		AnnouncementCacheTTL: time.Duration(GetInt("ANNOUNCEMENT_CACHE_SECONDS", 30)) * time.Second,
		EmailAPIURL:          GetString("EMAIL_API_URL", "https://api.resend.com/emails"),
		EmailAPIKey:          GetString("EMAIL_API_KEY", ""),
		EmailFromAddress:     GetString("EMAIL_FROM_ADDRESS", "updates@sandwich.project"),
	}
}
