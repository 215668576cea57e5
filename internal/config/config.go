package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	AppName         string        `mapstructure:"app_name"`
	AppLogLevel     string        `mapstructure:"app_log_level"`
	AppPort         string        `mapstructure:"app_port"`
	ModelPath       string        `mapstructure:"model_path"`
	ModelDevice     string        `mapstructure:"model_device"`
	ModelSeed       int64         `mapstructure:"model_seed"`
	OnnxLibraryPath string        `mapstructure:"onnx_library_path"`
	UploadMaxBytes  int64         `mapstructure:"upload_max_bytes"`
	ImageMaxPixels  int64         `mapstructure:"image_max_pixels"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Load reads the service configuration from the environment.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	bindEnvVars(v)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config from environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_name", "trash-api")
	v.SetDefault("app_log_level", "INFO")
	v.SetDefault("app_port", "8000")
	v.SetDefault("model_path", "best_resnet50_model_2.onnx")
	v.SetDefault("model_device", "auto")
	v.SetDefault("model_seed", 0)
	v.SetDefault("onnx_library_path", "")
	v.SetDefault("upload_max_bytes", 10<<20)
	// Same pixel ceiling Pillow uses for its decompression bomb check.
	v.SetDefault("image_max_pixels", 89478485)
	v.SetDefault("shutdown_timeout", 10*time.Second)
}

func bindEnvVars(v *viper.Viper) {
	// App configuration
	v.BindEnv("app_name", "APP_NAME")
	v.BindEnv("app_log_level", "APP_LOG_LEVEL")
	v.BindEnv("app_port", "APP_PORT", "PORT")

	// Model configuration
	v.BindEnv("model_path", "MODEL_PATH")
	v.BindEnv("model_device", "MODEL_DEVICE")
	v.BindEnv("model_seed", "MODEL_SEED")
	v.BindEnv("onnx_library_path", "ONNX_LIBRARY_PATH")

	// Upload limits
	v.BindEnv("upload_max_bytes", "UPLOAD_MAX_BYTES")
	v.BindEnv("image_max_pixels", "IMAGE_MAX_PIXELS")

	v.BindEnv("shutdown_timeout", "SHUTDOWN_TIMEOUT")
}

func (c *Config) validate() error {
	c.AppLogLevel = strings.ToUpper(c.AppLogLevel)
	c.ModelDevice = strings.ToLower(c.ModelDevice)

	switch c.ModelDevice {
	case "auto", "cpu", "cuda":
	default:
		return fmt.Errorf("invalid MODEL_DEVICE %q: expected auto, cpu or cuda", c.ModelDevice)
	}
	if c.UploadMaxBytes <= 0 {
		return fmt.Errorf("UPLOAD_MAX_BYTES must be positive, got %d", c.UploadMaxBytes)
	}
	if c.ImageMaxPixels <= 0 {
		return fmt.Errorf("IMAGE_MAX_PIXELS must be positive, got %d", c.ImageMaxPixels)
	}
	return nil
}
