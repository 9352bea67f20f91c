package config

// Config holds inkscan configuration.
// Loaded from ./config.yaml or ~/.inkscan/config.yaml.
type Config struct {
	Remote     RemoteCfg     `mapstructure:"remote" yaml:"remote"`
	Local      LocalCfg      `mapstructure:"local" yaml:"local"`
	Preprocess PreprocessCfg `mapstructure:"preprocess" yaml:"preprocess"`
	Rasterize  RasterizeCfg  `mapstructure:"rasterize" yaml:"rasterize"`
	Server     ServerCfg     `mapstructure:"server" yaml:"server"`
}

// RemoteCfg configures the cloud recognition provider.
type RemoteCfg struct {
	BaseURL        string  `mapstructure:"base_url" yaml:"base_url"`
	APIKey         string  `mapstructure:"api_key" yaml:"api_key"` // supports ${ENV_VAR} syntax
	TimeoutSeconds int     `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	RateLimit      float64 `mapstructure:"rate_limit" yaml:"rate_limit"` // requests per second
	MaxRetries     int     `mapstructure:"max_retries" yaml:"max_retries"`
}

// LocalCfg configures the bundled Tesseract engine.
type LocalCfg struct {
	// DataPath overrides the tessdata directory when set.
	DataPath string `mapstructure:"data_path" yaml:"data_path"`
}

// PreprocessCfg configures image normalization.
type PreprocessCfg struct {
	MaxDimension int `mapstructure:"max_dimension" yaml:"max_dimension"`
	JPEGQuality  int `mapstructure:"jpeg_quality" yaml:"jpeg_quality"`
}

// RasterizeCfg configures PDF page rendering.
type RasterizeCfg struct {
	DPI float64 `mapstructure:"dpi" yaml:"dpi"`
}

// ServerCfg configures the HTTP server.
type ServerCfg struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port string `mapstructure:"port" yaml:"port"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Remote: RemoteCfg{
			APIKey:         "${INKSCAN_VISION_API_KEY}",
			TimeoutSeconds: 60,
			RateLimit:      10.0,
			MaxRetries:     3,
		},
		Preprocess: PreprocessCfg{
			MaxDimension: 2048,
			JPEGQuality:  95,
		},
		Rasterize: RasterizeCfg{
			DPI: 300,
		},
		Server: ServerCfg{
			Host: "127.0.0.1",
			Port: "8080",
		},
	}
}
