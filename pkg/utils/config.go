package utils

import (
	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	OTP      OTPConfig
	Donation DonationConfig
}

type AppConfig struct {
	Name    string
	Port    string
	Debug   bool
	LogPath string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	MaxConns int32
}

// RedisConfig - empty URL dan Host berarti Redis tidak dikonfigurasi;
// credential store jalan dalam disabled mode (bukan error)
type RedisConfig struct {
	URL      string
	Host     string
	Port     string
	Password string
	TLS      bool
}

type JWTConfig struct {
	Secret             string
	AccessExpiryMins   int
	RefreshExpiryHours int
}

type OTPConfig struct {
	ExpiryMinutes      int
	Length             int
	MaxRequestsPerHour int
	MaxVerifyAttempts  int
	LockoutMinutes     int
}

type DonationConfig struct {
	PaymentWindowMinutes int
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("JWT_ACCESS_EXPIRY_MINS", 15)
	viper.SetDefault("JWT_REFRESH_EXPIRY_HOURS", 72)
	viper.SetDefault("OTP_EXPIRY_MINUTES", 5)
	viper.SetDefault("OTP_LENGTH", 6)
	viper.SetDefault("OTP_MAX_REQUESTS_PER_HOUR", 5)
	viper.SetDefault("OTP_MAX_VERIFY_ATTEMPTS", 5)
	viper.SetDefault("OTP_LOCKOUT_MINUTES", 15)
	viper.SetDefault("DONATION_PAYMENT_WINDOW_MINUTES", 10)
	viper.SetDefault("LOG_PATH", "logs/")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	viper.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:    viper.GetString("APP_NAME"),
			Port:    viper.GetString("PORT"),
			Debug:   viper.GetBool("DEBUG"),
			LogPath: viper.GetString("LOG_PATH"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASS"),
			MaxConns: viper.GetInt32("DB_MAX_CONNS"),
		},
		Redis: RedisConfig{
			URL:      viper.GetString("REDIS_URL"),
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			TLS:      viper.GetBool("REDIS_TLS"),
		},
		JWT: JWTConfig{
			Secret:             viper.GetString("JWT_SECRET"),
			AccessExpiryMins:   viper.GetInt("JWT_ACCESS_EXPIRY_MINS"),
			RefreshExpiryHours: viper.GetInt("JWT_REFRESH_EXPIRY_HOURS"),
		},
		OTP: OTPConfig{
			ExpiryMinutes:      viper.GetInt("OTP_EXPIRY_MINUTES"),
			Length:             viper.GetInt("OTP_LENGTH"),
			MaxRequestsPerHour: viper.GetInt("OTP_MAX_REQUESTS_PER_HOUR"),
			MaxVerifyAttempts:  viper.GetInt("OTP_MAX_VERIFY_ATTEMPTS"),
			LockoutMinutes:     viper.GetInt("OTP_LOCKOUT_MINUTES"),
		},
		Donation: DonationConfig{
			PaymentWindowMinutes: viper.GetInt("DONATION_PAYMENT_WINDOW_MINUTES"),
		},
	}

	return config, nil
}
