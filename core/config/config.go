package config

import (
	"reflect"
	"strings"

	"guide-builder/core/database"
	"guide-builder/core/errors"
	"guide-builder/core/logger"
	"guide-builder/core/server"
	"guide-builder/core/storage"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the infrastructure configuration shared by every feature.
// Features declare their own sections and load them with Load.
type Config struct {
	// Server holds configuration for the HTTP server.
	Server server.Config `mapstructure:"server"`
	// Storage holds configuration for the object storage (e.g., S3, Minio).
	Storage storage.Config `mapstructure:"storage"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Database holds configuration for the run history database.
	Database database.Config `mapstructure:"database"`
}

// LoadConfig loads the infrastructure configuration from path.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if err := Load(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the loaded configuration against its validation tags.
func (c *Config) Validate() error {
	return ValidateStruct(c)
}

// Load fills target, a pointer to a struct with mapstructure and default tags, from
// environment variables, an optional config file and a .env file found in path.
func Load(path string, target any) error {
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// Ignore error if file doesn't exist (e.g. production)
	_ = godotenv.Overload(envPath)

	v := viper.New()

	// Recursively parse struct tags to set default values
	bindValues(v, target, "")

	v.SetConfigName("config")
	v.AddConfigPath(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return errors.Wrap(err, "failed to read config file")
		}
	}

	// Map environment variables to nested keys (e.g. FETCH_MAX_BATCH_SIZE -> fetch.max_batch_size)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.Unmarshal(target); err != nil {
		return errors.Wrap(err, "failed to decode config")
	}
	return nil
}

// ValidateStruct checks any configuration struct against its validation tags.
func ValidateStruct(cfg any) error {
	if err := validator.New().Struct(cfg); err != nil {
		return errors.WithHint(errors.Wrap(err, "invalid configuration"), "check config.yaml and the environment overrides")
	}
	return nil
}

// bindValues uses reflection to iterate over the struct and set default values in Viper
// based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")

		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		// Always set default (even if empty) to register the key for AutomaticEnv
		v.SetDefault(key, field.Tag.Get("default"))
	}
}
