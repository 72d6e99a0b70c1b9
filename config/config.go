package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. EXPORTDOCS_AUTH_JWT_SECRET.
const EnvPrefix = "EXPORTDOCS"

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Auth      AuthConfig      `yaml:"auth"`
	Users     []User          `yaml:"users"`
	Store     StoreConfig     `yaml:"store"`
	Minio     MinioConfig     `yaml:"minio"`
	Reference ReferenceConfig `yaml:"reference"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type AuthConfig struct {
	JWTSecret        string `yaml:"jwt_secret"`
	TokenExpireHours int    `yaml:"token_expire_hours"`
}

// User is a configured login. UserPrincipal and ContactID scope the drafts
// the user may see.
type User struct {
	Username      string `yaml:"username"`
	Password      string `yaml:"password"`
	UserPrincipal string `yaml:"user_principal"`
	ContactID     string `yaml:"contact_id"`
	Email         string `yaml:"email"`
	// Admin users may raise clones on an exporter's behalf.
	Admin bool `yaml:"admin"`
}

// StoreConfig selects the draft store: memory, sqlite or mongo.
type StoreConfig struct {
	Driver          string `yaml:"driver"`
	MaxDrafts       int    `yaml:"max_drafts"`
	SQLitePath      string `yaml:"sqlite_path"`
	MongoURI        string `yaml:"mongo_uri"`
	MongoDatabase   string `yaml:"mongo_database"`
	MongoCollection string `yaml:"mongo_collection"`
}

type MinioConfig struct {
	Endpoint   string `yaml:"endpoint"`
	AccessKey  string `yaml:"access_key"`
	SecretKey  string `yaml:"secret_key"`
	Bucket     string `yaml:"bucket"`
	Region     string `yaml:"region"`
	UseSSL     bool   `yaml:"use_ssl"`
	ExpireDays int    `yaml:"expire_days"`
}

type ReferenceConfig struct {
	APIURL         string `yaml:"api_url"`
	APIToken       string `yaml:"api_token"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// RateLimitConfig bounds requests per client IP and, on authenticated
// routes, per user principal.
type RateLimitConfig struct {
	Requests          int `yaml:"requests"`
	PrincipalRequests int `yaml:"principal_requests"`
	WindowSeconds     int `yaml:"window_seconds"`
}

var GlobalConfig *Config

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyEnv(&cfg)
	setDefaults(&cfg)

	GlobalConfig = &cfg
	return &cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	if cfg.Auth.TokenExpireHours == 0 {
		cfg.Auth.TokenExpireHours = 24
	}
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = "memory"
	}
	if cfg.Store.MaxDrafts == 0 {
		cfg.Store.MaxDrafts = 1000
	}
	if cfg.Store.SQLitePath == "" {
		cfg.Store.SQLitePath = "data/drafts.db"
	}
	if cfg.Store.MongoDatabase == "" {
		cfg.Store.MongoDatabase = "exportdocs"
	}
	if cfg.Store.MongoCollection == "" {
		cfg.Store.MongoCollection = "drafts"
	}
	if cfg.Minio.ExpireDays == 0 {
		cfg.Minio.ExpireDays = 7
	}
	if cfg.Minio.Region == "" {
		cfg.Minio.Region = "us-east-1"
	}
	if cfg.Reference.TimeoutSeconds == 0 {
		cfg.Reference.TimeoutSeconds = 10
	}
	if cfg.RateLimit.Requests == 0 {
		cfg.RateLimit.Requests = 300
	}
	if cfg.RateLimit.PrincipalRequests == 0 {
		cfg.RateLimit.PrincipalRequests = 120
	}
	if cfg.RateLimit.WindowSeconds == 0 {
		cfg.RateLimit.WindowSeconds = 60
	}
}

// applyEnv overrides file values with EXPORTDOCS_* environment variables.
// The variable name is the upper-cased yaml path joined by underscores.
func applyEnv(cfg *Config) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	strs := map[string]*string{
		"log.level":              &cfg.Log.Level,
		"log.format":             &cfg.Log.Format,
		"auth.jwt_secret":        &cfg.Auth.JWTSecret,
		"store.driver":           &cfg.Store.Driver,
		"store.sqlite_path":      &cfg.Store.SQLitePath,
		"store.mongo_uri":        &cfg.Store.MongoURI,
		"store.mongo_database":   &cfg.Store.MongoDatabase,
		"store.mongo_collection": &cfg.Store.MongoCollection,
		"minio.endpoint":         &cfg.Minio.Endpoint,
		"minio.access_key":       &cfg.Minio.AccessKey,
		"minio.secret_key":       &cfg.Minio.SecretKey,
		"minio.bucket":           &cfg.Minio.Bucket,
		"minio.region":           &cfg.Minio.Region,
		"reference.api_url":      &cfg.Reference.APIURL,
		"reference.api_token":    &cfg.Reference.APIToken,
	}
	for key, dst := range strs {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}

	ints := map[string]*int{
		"server.port":                   &cfg.Server.Port,
		"auth.token_expire_hours":       &cfg.Auth.TokenExpireHours,
		"store.max_drafts":              &cfg.Store.MaxDrafts,
		"minio.expire_days":             &cfg.Minio.ExpireDays,
		"reference.timeout_seconds":     &cfg.Reference.TimeoutSeconds,
		"rate_limit.requests":           &cfg.RateLimit.Requests,
		"rate_limit.principal_requests": &cfg.RateLimit.PrincipalRequests,
		"rate_limit.window_seconds":     &cfg.RateLimit.WindowSeconds,
	}
	for key, dst := range ints {
		if v.IsSet(key) {
			*dst = v.GetInt(key)
		}
	}

	if v.IsSet("minio.use_ssl") {
		cfg.Minio.UseSSL = v.GetBool("minio.use_ssl")
	}
}

// FindUser finds a user by username
func (c *Config) FindUser(username string) *User {
	for i := range c.Users {
		if c.Users[i].Username == username {
			return &c.Users[i]
		}
	}
	return nil
}
