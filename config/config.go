// server/config/config.go
package config

import (
	"errors"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// --- Sub-structs mirroring the YAML layout ---

type ServerConfig struct {
	Port        string   `mapstructure:"port"`
	CorsOrigins []string `mapstructure:"corsOrigins"`

	// Profile is "production" unless set to "dev", which relaxes required secrets.
	Profile string `mapstructure:"profile"`
}

const (
	ProfileDev        = "dev"
	ProfileProduction = "production"

	devJWTSecret = "dev-only-insecure-secret"
)

// ErrMissingJWTSecret is returned by LoadConfig when no signing secret is configured outside the dev profile.
var ErrMissingJWTSecret = errors.New("config: jwt.secret (JWT_SECRET) must be set outside the dev profile")

type MongoConfig struct {
	URI    string `mapstructure:"uri"`
	DBName string `mapstructure:"dbName"`
}

// StoreConfig selects the document store backing the engines.
// "mongo" is the production driver, "memory" keeps everything in process.
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
}

// OrganizationsConfig lists which organizations hold the organization-gated capabilities.
type OrganizationsConfig struct {
	POCreators    []string `mapstructure:"poCreators"`
	SalesCreators []string `mapstructure:"salesCreators"`
}

type ProcurementConfig struct {
	// RequireApprovedPO rejects procurement against a PO whose approval_status is not Approved.
	RequireApprovedPO bool `mapstructure:"requireApprovedPO"`
}

type SequenceConfig struct {
	MaxAttempts int           `mapstructure:"maxAttempts"`
	LockTTL     time.Duration `mapstructure:"lockTTL"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type S3Config struct {
	Bucket           string `mapstructure:"bucket"`
	Region           string `mapstructure:"region"`
	AccessKeyID      string `mapstructure:"accessKeyID"`
	SecretAccessKey  string `mapstructure:"secretAccessKey"`
	CloudFrontDomain string `mapstructure:"cloudFrontDomain"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type SeedConfig struct {
	AdminEmail    string `mapstructure:"adminEmail"`
	AdminPassword string `mapstructure:"adminPassword"`
	AdminName     string `mapstructure:"adminName"`
	Organization  string `mapstructure:"organization"`
}

// --- Root Config ---

type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Mongo         MongoConfig         `mapstructure:"mongo"`
	Store         StoreConfig         `mapstructure:"store"`
	JWT           JWTConfig           `mapstructure:"jwt"`
	Organizations OrganizationsConfig `mapstructure:"organizations"`
	Procurement   ProcurementConfig   `mapstructure:"procurement"`
	Sequence      SequenceConfig      `mapstructure:"sequence"`
	Redis         RedisConfig         `mapstructure:"redis"`
	S3            S3Config            `mapstructure:"s3"`
	Log           LogConfig           `mapstructure:"log"`
	Seed          SeedConfig          `mapstructure:"seed"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8001")
	v.SetDefault("server.corsOrigins", []string{"*"})
	v.SetDefault("server.profile", ProfileProduction)
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.dbName", "magnova")
	v.SetDefault("store.driver", "mongo")
	v.SetDefault("jwt.expiration", "168h")
	v.SetDefault("organizations.poCreators", []string{"Magnova"})
	v.SetDefault("organizations.salesCreators", []string{"Magnova"})
	v.SetDefault("procurement.requireApprovedPO", false)
	v.SetDefault("sequence.maxAttempts", 20)
	v.SetDefault("sequence.lockTTL", "5s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("seed.adminEmail", "admin@magnova.local")
	v.SetDefault("seed.adminName", "Administrator")
	v.SetDefault("seed.organization", "Magnova")
}

// LoadConfig reads config.yaml from path and overrides it with environment variables.
// A .env file in the working directory is loaded first when present.
func LoadConfig(path string) (config Config, err error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	setDefaults(v)

	v.AutomaticEnv()
	// key "mongo.uri" in YAML maps to MONGO_URI, and so on.
	v.BindEnv("server.port", "SERVER_PORT")
	v.BindEnv("server.profile", "APP_PROFILE")
	v.BindEnv("mongo.uri", "MONGO_URI")
	v.BindEnv("mongo.dbName", "MONGO_DBNAME")
	v.BindEnv("store.driver", "STORE_DRIVER")
	v.BindEnv("jwt.secret", "JWT_SECRET")
	v.BindEnv("jwt.expiration", "JWT_EXPIRATION")
	v.BindEnv("procurement.requireApprovedPO", "PROCUREMENT_REQUIRE_APPROVED_PO")
	v.BindEnv("sequence.maxAttempts", "SEQUENCE_MAX_ATTEMPTS")
	v.BindEnv("redis.addr", "REDIS_ADDR")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("s3.bucket", "S3_BUCKET")
	v.BindEnv("s3.region", "S3_REGION")
	v.BindEnv("s3.accessKeyID", "S3_ACCESS_KEY_ID")
	v.BindEnv("s3.secretAccessKey", "S3_SECRET_ACCESS_KEY")
	v.BindEnv("s3.cloudFrontDomain", "S3_CLOUDFRONT_DOMAIN")
	v.BindEnv("log.level", "LOG_LEVEL")
	v.BindEnv("seed.adminEmail", "SEED_ADMIN_EMAIL")
	v.BindEnv("seed.adminPassword", "SEED_ADMIN_PASSWORD")

	// Without a config file we fall back to defaults and environment variables.
	err = v.ReadInConfig()
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return
		}
		err = nil
	}

	if err = v.Unmarshal(&config); err != nil {
		return
	}

	if config.JWT.Secret == "" {
		if config.Server.Profile != ProfileDev {
			err = ErrMissingJWTSecret
			return
		}
		config.JWT.Secret = devJWTSecret
	}
	return
}
