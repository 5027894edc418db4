package config

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/token-sale/pkg/logger"
	"github.com/gaze-network/token-sale/pkg/logger/slogx"
	"github.com/gaze-network/token-sale/pkg/middleware/requestcontext"
	"github.com/gaze-network/token-sale/pkg/middleware/requestlogger"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	tokensaleconfig "github.com/gaze-network/token-sale/modules/tokensale/config"
)

var (
	isInit     bool
	mu         sync.Mutex
	configOnce sync.Once
	config     = &Config{
		Logger: logger.Config{
			Output: "TEXT",
		},
		HTTPServer: HTTPServerConfig{
			Port: 8080,
		},
	}
)

type Config struct {
	Logger     logger.Config    `mapstructure:"logger"`
	HTTPServer HTTPServerConfig `mapstructure:"http_server"`
	API        APIConfig        `mapstructure:"api"`
	APIOnly    bool             `mapstructure:"api_only"`
	Modules    Modules          `mapstructure:"modules"`
}

type Modules struct {
	TokenSale tokensaleconfig.Config `mapstructure:"tokensale"`
}

type HTTPServerConfig struct {
	Port      int                               `mapstructure:"port"`
	Logger    requestlogger.Config              `mapstructure:"logger"`
	RequestIP requestcontext.WithClientIPConfig `mapstructure:"requestip"`
}

type APIConfig struct {
	// JWTSecret signs and verifies the bearer tokens of state-changing endpoints (HS256).
	JWTSecret string `mapstructure:"jwt_secret"`
}

// Parse parse the configuration from environment variables and the given config file.
// Without a file it looks for ./config.yaml.
func Parse(configFile ...string) Config {
	mu.Lock()
	defer mu.Unlock()
	return parse(configFile...)
}

// Load returns the loaded configuration
func Load() Config {
	mu.Lock()
	defer mu.Unlock()
	if isInit {
		return *config
	}
	return parse()
}

// BindPFlag binds a specific key to a pflag (as used by cobra).
func BindPFlag(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		logger.Panic("Something went wrong, failed to bind flag for config", slog.String("package", "config"), slogx.Error(err))
	}
}

func parse(configFile ...string) Config {
	ctx := logger.WithContext(context.Background(), slog.String("package", "config"))

	if len(configFile) > 0 && configFile[0] != "" {
		viper.SetConfigFile(configFile[0])
	} else {
		viper.AddConfigPath("./")
		viper.SetConfigName("config")
	}

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configOnce.Do(func() {
		if err := viper.ReadInConfig(); err != nil {
			var errNotfound viper.ConfigFileNotFoundError
			if errors.As(err, &errNotfound) {
				logger.WarnContext(ctx, "Config file not found, use default config value", slogx.Error(err))
			} else {
				logger.PanicContext(ctx, "Invalid config file", slogx.Error(err))
			}
		}

		if err := viper.Unmarshal(&config); err != nil {
			logger.PanicContext(ctx, "Something went wrong, failed to unmarshal config", slogx.Error(err))
		}
	})

	isInit = true
	return *config
}
