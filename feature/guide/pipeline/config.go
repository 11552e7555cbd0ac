package pipeline

import "time"

// Config holds run-level settings.
type Config struct {
	// ExpectedServices is a fixed expected service count. Zero defers to history.
	ExpectedServices int `mapstructure:"expected_services" default:"0" validate:"min=0"`
	// ExpectedFromHistory uses the last successful run when no fixed count is set.
	ExpectedFromHistory bool `mapstructure:"expected_from_history" default:"true"`
	// SafetyRatio is the share of expected services a document must keep.
	SafetyRatio float64 `mapstructure:"safety_ratio" default:"0.95" validate:"gt=0,lte=1"`
	// LogoWaitWarn is how long the assembler may wait on the logo mirror before it is logged.
	LogoWaitWarn time.Duration `mapstructure:"logo_wait_warn" default:"1s"`
	// OutputPath is where the document is exported as JSON. Empty disables the export.
	OutputPath string `mapstructure:"output_path" default:"guide.json"`
}
