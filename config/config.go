package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

type Config struct {
	Mode   string `mapstructure:"mode"`
	Server struct {
		HTTPPort string        `mapstructure:"HTTPPort"`
		Timeout  time.Duration `mapstructure:"HTTPTimeout"`
	} `mapstructure:"server"`
	Repositories struct {
		Postgres struct {
			Host     string `mapstructure:"host"`
			Password string `mapstructure:"password"`
			Port     string `mapstructure:"port"`
			Username string `mapstructure:"username"`
			DB       string `mapstructure:"db"`
			SSLMode  string `mapstructure:"sslmode"`
		} `mapstructure:"postgres"`
	} `mapstructure:"repositories"`
	JWT  JWTConfig  `mapstructure:"jwt"`
	Auth AuthConfig `mapstructure:"auth"`
	S3   S3Config   `mapstructure:"s3"`
}

// JWTConfig drives the token generator and the Authenticate middleware.
type JWTConfig struct {
	SecretKey         string        `mapstructure:"secretKey"`
	AccessTokenTTL    time.Duration `mapstructure:"accessTokenTTL"`
	RefreshExpireDays int           `mapstructure:"refreshExpireDays"`
	Issuer            string        `mapstructure:"issuer"`
	Audience          string        `mapstructure:"audience"`
}

// AuthConfig holds the password hashing cost factor.
type AuthConfig struct {
	BcryptCost int `mapstructure:"bcryptCost"`
}

// S3Config configures the object storage client. Endpoint is host:port, as
// expected by the MinIO client; it works against AWS S3 and any
// S3-compatible store.
type S3Config struct {
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	AccessKey string `mapstructure:"accessKey"`
	SecretKey string `mapstructure:"secretKey"`
	UseSSL    bool   `mapstructure:"useSSL"`
	PublicURL string `mapstructure:"publicURL"`
}

func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	err := v.ReadInConfig()
	if err != nil {
		fmt.Printf("Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %s", err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %s", err)
	}

	// Secrets come from the environment, never from the checked-in file.
	if secret := os.Getenv("JWT_SECRET_KEY"); secret != "" {
		config.JWT.SecretKey = secret
	}
	if pw := os.Getenv("POSTGRES_PASSWORD"); pw != "" {
		config.Repositories.Postgres.Password = pw
	}
	if key := os.Getenv("S3_ACCESS_KEY"); key != "" {
		config.S3.AccessKey = key
	}
	if key := os.Getenv("S3_SECRET_KEY"); key != "" {
		config.S3.SecretKey = key
	}

	if config.JWT.AccessTokenTTL == 0 {
		config.JWT.AccessTokenTTL = 15 * time.Minute
	}
	if config.JWT.RefreshExpireDays == 0 {
		config.JWT.RefreshExpireDays = 7
	}

	return config, nil
}
