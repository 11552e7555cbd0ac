package artwork

// Config holds artwork resolution and logo mirroring settings.
type Config struct {
	// Enabled requests artwork candidates for every element.
	Enabled bool `mapstructure:"enabled" default:"true"`
	// Aspect is the preferred image aspect ratio.
	Aspect string `mapstructure:"aspect" default:"2x3"`
	// MirrorLogos copies service logos into object storage in the background.
	MirrorLogos bool `mapstructure:"mirror_logos" default:"true"`
	// LogoPrefix is the object prefix of mirrored logos.
	LogoPrefix string `mapstructure:"logo_prefix" default:"logos/"`
	// MirrorConcurrency bounds concurrent logo downloads.
	MirrorConcurrency int `mapstructure:"mirror_concurrency" default:"4" validate:"min=1,max=32"`
}
