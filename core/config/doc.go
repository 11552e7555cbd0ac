// Package config provides configuration management for the guide builder.
//
// It utilizes Viper for loading configuration from environment variables,
// an optional config file (config.yaml) and a .env file.
//
// # Configuration Structure
//
// The Config struct holds the infrastructure settings shared by every feature:
//   - Server: HTTP server settings (port, API key)
//   - Storage: S3/MinIO credentials and bucket settings
//   - Database: run history connection details
//   - Log: Logging level and format
//
// Features own their sections and read them from the same sources with Load,
// then check them with ValidateStruct.
//
// Defaults live next to each field in `default` struct tags and validation rules in
// `validate` tags.
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//
//	var section struct {
//	    Fetch fetch.Config `mapstructure:"fetch"`
//	}
//	if err := config.Load(".", &section); err != nil {
//	    log.Fatal(err)
//	}
package config
