package fetch

import "time"

// Config holds the batch fetch limits.
type Config struct {
	// MaxBatchSize is the number of ids per remote call.
	MaxBatchSize int `mapstructure:"max_batch_size" default:"500" validate:"min=1,max=500"`
	// MaxConcurrency is the number of batch calls in flight.
	MaxConcurrency int `mapstructure:"max_concurrency" default:"4" validate:"min=1,max=64"`
	// Retries is the number of extra attempts per batch.
	Retries int `mapstructure:"retries" default:"2" validate:"min=0,max=10"`
	// RetryBackoff is multiplied by the attempt number between attempts.
	RetryBackoff time.Duration `mapstructure:"retry_backoff" default:"2s"`
	// CallTimeout bounds a single batch call.
	CallTimeout time.Duration `mapstructure:"call_timeout" default:"2m"`
	// RequestsPerSecond paces batch calls across workers. Zero disables pacing.
	RequestsPerSecond float64 `mapstructure:"requests_per_second" default:"0" validate:"min=0"`
}
