package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the full runtime configuration. It is built once by Load and
// passed down explicitly; nothing reads the environment after startup.
type Config struct {
	AppEnv   string
	Port     string
	Location *time.Location

	DB       DBConfig
	Auth     AuthConfig
	USDA     USDAConfig
	Classify ClassifierConfig
	Images   ImageStoreConfig
	Log      LogConfig
}

type DBConfig struct {
	Driver     string // postgres|sqlite
	Host       string
	User       string
	Password   string
	Name       string
	Port       string
	SSLMode    string
	SQLitePath string
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

type USDAConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

type ClassifierConfig struct {
	Backend string // none|rekognition|vision|huggingface|gemini|local
	Timeout time.Duration

	AWSRegion string

	HuggingFaceToken string
	HuggingFaceModel string

	VisionAPIKey          string
	GoogleCredentialsFile string

	GeminiAPIKey string
	GeminiModel  string

	TFLiteModelPath  string
	TFLiteLabelsPath string
	TFLiteThreads    int
}

type ImageStoreConfig struct {
	Backend       string // s3|gcs
	S3Bucket      string
	S3Region      string
	S3Endpoint    string
	S3AccessKey   string
	S3SecretKey   string
	PublicBaseURL string
	GCSBucket     string
}

type LogConfig struct {
	Level string
	File  string
}

// IsDevelopment reports whether error details may be returned to clients.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.AppEnv, "development")
}

var (
	classifierBackends = []string{"none", "rekognition", "vision", "huggingface", "gemini", "local"}
	imageBackends      = []string{"s3", "gcs"}
	dbDrivers          = []string{"postgres", "sqlite"}
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_env", "production")
	v.SetDefault("port", "3000")
	v.SetDefault("timezone", "")

	v.SetDefault("db_driver", "postgres")
	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", "5432")
	v.SetDefault("db_sslmode", "disable")
	v.SetDefault("sqlite_path", "calorietrack.db")

	v.SetDefault("jwt_ttl", time.Hour)

	v.SetDefault("usda_base_url", "https://api.nal.usda.gov/fdc/v1")
	v.SetDefault("usda_timeout", 10*time.Second)

	v.SetDefault("classifier_backend", "none")
	v.SetDefault("classifier_timeout", 15*time.Second)
	v.SetDefault("aws_region", "us-east-1")
	v.SetDefault("huggingface_model", "nateraw/food")
	v.SetDefault("gemini_model", "gemini-2.5-flash")
	v.SetDefault("tflite_threads", 1)

	v.SetDefault("image_store", "s3")

	v.SetDefault("log_level", "info")
}

// Load reads the optional .env files (default ".env") and then the process
// environment. A missing .env file is not an error.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		AppEnv: v.GetString("app_env"),
		Port:   v.GetString("port"),
		DB: DBConfig{
			Driver:     strings.ToLower(v.GetString("db_driver")),
			Host:       v.GetString("db_host"),
			User:       v.GetString("db_user"),
			Password:   v.GetString("db_password"),
			Name:       v.GetString("db_name"),
			Port:       v.GetString("db_port"),
			SSLMode:    v.GetString("db_sslmode"),
			SQLitePath: v.GetString("sqlite_path"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("jwt_secret"),
			TokenTTL:  v.GetDuration("jwt_ttl"),
		},
		USDA: USDAConfig{
			APIKey:  v.GetString("usda_api_key"),
			BaseURL: strings.TrimRight(v.GetString("usda_base_url"), "/"),
			Timeout: v.GetDuration("usda_timeout"),
		},
		Classify: ClassifierConfig{
			Backend:               strings.ToLower(v.GetString("classifier_backend")),
			Timeout:               v.GetDuration("classifier_timeout"),
			AWSRegion:             v.GetString("aws_region"),
			HuggingFaceToken:      v.GetString("huggingface_api_token"),
			HuggingFaceModel:      v.GetString("huggingface_model"),
			VisionAPIKey:          v.GetString("google_vision_api_key"),
			GoogleCredentialsFile: v.GetString("google_application_credentials"),
			GeminiAPIKey:          v.GetString("gemini_api_key"),
			GeminiModel:           v.GetString("gemini_model"),
			TFLiteModelPath:       v.GetString("tflite_model_path"),
			TFLiteLabelsPath:      v.GetString("tflite_labels_path"),
			TFLiteThreads:         v.GetInt("tflite_threads"),
		},
		Images: ImageStoreConfig{
			Backend:       strings.ToLower(v.GetString("image_store")),
			S3Bucket:      v.GetString("s3_bucket"),
			S3Region:      v.GetString("s3_region"),
			S3Endpoint:    v.GetString("s3_endpoint"),
			S3AccessKey:   v.GetString("s3_access_key"),
			S3SecretKey:   v.GetString("s3_secret_key"),
			PublicBaseURL: strings.TrimRight(v.GetString("image_public_base_url"), "/"),
			GCSBucket:     v.GetString("gcs_bucket"),
		},
		Log: LogConfig{
			Level: v.GetString("log_level"),
			File:  v.GetString("log_file"),
		},
	}
	if cfg.Images.S3Region == "" {
		cfg.Images.S3Region = cfg.Classify.AWSRegion
	}

	cfg.Location = time.Local
	if tz := v.GetString("timezone"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("invalid TIMEZONE %q: %w", tz, err)
		}
		cfg.Location = loc
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerated settings. Missing credentials are not checked
// here; the component that needs them reports a configuration error when used.
func (c *Config) Validate() error {
	if !oneOf(c.DB.Driver, dbDrivers) {
		return fmt.Errorf("invalid DB_DRIVER %q (want one of %s)", c.DB.Driver, strings.Join(dbDrivers, ", "))
	}
	if !oneOf(c.Classify.Backend, classifierBackends) {
		return fmt.Errorf("invalid CLASSIFIER_BACKEND %q (want one of %s)", c.Classify.Backend, strings.Join(classifierBackends, ", "))
	}
	if !oneOf(c.Images.Backend, imageBackends) {
		return fmt.Errorf("invalid IMAGE_STORE %q (want one of %s)", c.Images.Backend, strings.Join(imageBackends, ", "))
	}
	if c.USDA.Timeout <= 0 {
		return fmt.Errorf("USDA_TIMEOUT must be positive")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive")
	}
	if c.Classify.TFLiteThreads < 1 {
		c.Classify.TFLiteThreads = 1
	}
	return nil
}

func oneOf(s string, set []string) bool {
	for _, v := range set {
		if s == v {
			return true
		}
	}
	return false
}
