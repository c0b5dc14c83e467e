package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type PostgresConfig struct {
	DSN             string
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
	// SlowQuery is the duration above which statements are logged; 0 disables.
	SlowQuery time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type StorageConfig struct {
	Endpoint    string
	AccessKey   string
	SecretKey   string
	BucketMedia string
	UseSSL      bool
	Region      string
	// PublicURL overrides the endpoint when building links handed to clients.
	PublicURL string
}

type SecurityConfig struct {
	JWTAccessSecret  string
	JWTRefreshSecret string
	JWTAccessTTL     time.Duration
	JWTRefreshTTL    time.Duration
	JWTIssuer        string
	CookieSecure     bool
	CookieDomain     string
}

type MediaConfig struct {
	TempDir        string
	MaxUploadBytes int64
	UploadTimeout  time.Duration
	TempMaxAge     time.Duration
}

type QueueConfig struct {
	Stream        string
	Group         string
	Consumer      string
	ClaimInterval time.Duration
}

type AppConfig struct {
	Environment      string
	LogLevel         string
	HTTP             HTTPConfig
	Postgres         PostgresConfig
	Redis            RedisConfig
	Storage          StorageConfig
	Security         SecurityConfig
	Media            MediaConfig
	Queue            QueueConfig
	AllowCORSOrigins []string
}

// Load reads the API server configuration.
func Load() (*AppConfig, error) {
	v, err := read()
	if err != nil {
		return nil, err
	}
	return decode(v)
}

// LoadWorker reads the configuration for the cleanup worker, which needs
// neither the database nor the token secrets.
func LoadWorker() (*AppConfig, error) {
	v, err := read()
	if err != nil {
		return nil, err
	}
	return decodeWorker(v)
}

func read() (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	v.SetEnvPrefix("VIDEOTUBE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}
	return v, nil
}

func decode(v *viper.Viper) (*AppConfig, error) {
	cfg, err := unmarshal(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeWorker(v *viper.Viper) (*AppConfig, error) {
	cfg, err := unmarshal(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateWorker(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func unmarshal(v *viper.Viper) (*AppConfig, error) {
	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Validate reports settings the server cannot start without.
func (c *AppConfig) Validate() error {
	var errs []error
	if c.Postgres.DSN == "" {
		errs = append(errs, errors.New("postgres.dsn is required"))
	}
	if c.Security.JWTAccessSecret == "" {
		errs = append(errs, errors.New("security.jwtaccesssecret is required"))
	}
	if c.Security.JWTRefreshSecret == "" {
		errs = append(errs, errors.New("security.jwtrefreshsecret is required"))
	}
	if c.Security.JWTAccessSecret != "" && c.Security.JWTAccessSecret == c.Security.JWTRefreshSecret {
		errs = append(errs, errors.New("access and refresh secrets must differ"))
	}
	if c.Security.JWTAccessTTL <= 0 || c.Security.JWTRefreshTTL <= 0 {
		errs = append(errs, errors.New("jwt ttls must be positive"))
	}
	if c.Media.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("media.maxuploadbytes must be positive"))
	}
	return joinInvalid(errs)
}

// ValidateWorker reports settings the cleanup worker cannot start without.
func (c *AppConfig) ValidateWorker() error {
	var errs []error
	if c.Redis.Addr == "" {
		errs = append(errs, errors.New("redis.addr is required"))
	}
	if c.Storage.Endpoint == "" {
		errs = append(errs, errors.New("storage.endpoint is required"))
	}
	if c.Storage.BucketMedia == "" {
		errs = append(errs, errors.New("storage.bucketmedia is required"))
	}
	if c.Queue.Stream == "" || c.Queue.Group == "" {
		errs = append(errs, errors.New("queue.stream and queue.group are required"))
	}
	return joinInvalid(errs)
}

func joinInvalid(errs []error) error {
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("loglevel", "")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8000)
	v.SetDefault("http.readtimeout", "30s")
	v.SetDefault("http.writetimeout", "60s")
	v.SetDefault("http.idletimeout", "60s")

	v.SetDefault("postgres.dsn", "")
	v.SetDefault("postgres.maxopen", 20)
	v.SetDefault("postgres.maxidle", 5)
	v.SetDefault("postgres.connmaxlifetime", "30m")
	v.SetDefault("postgres.automigrate", true)
	v.SetDefault("postgres.slowquery", "200ms")

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("storage.endpoint", "127.0.0.1:9000")
	v.SetDefault("storage.accesskey", "")
	v.SetDefault("storage.secretkey", "")
	v.SetDefault("storage.bucketmedia", "videotube-media")
	v.SetDefault("storage.usessl", false)
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.publicurl", "")

	v.SetDefault("security.jwtaccesssecret", "")
	v.SetDefault("security.jwtrefreshsecret", "")
	v.SetDefault("security.jwtaccessttl", "15m")
	v.SetDefault("security.jwtrefreshttl", "240h") // 10 days
	v.SetDefault("security.jwtissuer", "videotube")
	v.SetDefault("security.cookiesecure", true)
	v.SetDefault("security.cookiedomain", "")

	v.SetDefault("media.tempdir", "./public/temp")
	v.SetDefault("media.maxuploadbytes", 64<<20)
	v.SetDefault("media.uploadtimeout", "30s")
	v.SetDefault("media.tempmaxage", "1h")

	v.SetDefault("queue.stream", "media:cleanup")
	v.SetDefault("queue.group", "media-cleanup")
	v.SetDefault("queue.consumer", "worker-1")
	v.SetDefault("queue.claiminterval", "1m")

	v.SetDefault("allowcorsorigins", []string{})
}
