package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"kunena-discord/models"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. KUNENA_DISCORD_WEBHOOK.
const EnvPrefix = "KUNENA_DISCORD"

// setDefaults registers the default value of every known key. Keys that are not
// registered here are invisible to AutomaticEnv during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("webhook", "")
	v.SetDefault("webhook_timeout", 10*time.Second)
	v.SetDefault("debug", true)
	v.SetDefault("content_limit", 1500)
	v.SetDefault("footer_text", "Kunena Forum")
	v.SetDefault("custom_color", "")
	v.SetDefault("embed_color", "7289DA")

	v.SetDefault("log.level", "")

	v.SetDefault("forum.driver", "mysql")
	v.SetDefault("forum.dsn", "")
	v.SetDefault("forum.table_prefix", "jos_")
	v.SetDefault("forum.site_root", "http://localhost/")
	v.SetDefault("forum.admin_prefix", "/administrator")
	v.SetDefault("forum.query_timeout", 5*time.Second)

	v.SetDefault("dedup.backend", "file")
	v.SetDefault("dedup.file", "./data/processed_posts.txt")
	v.SetDefault("dedup.redis_addr", "localhost:6379")
	v.SetDefault("dedup.redis_key", "kunena_discord:processed")

	v.SetDefault("schedule.enabled", false)
	v.SetDefault("schedule.spec", "@every 15s")
	v.SetDefault("schedule.window", 30*time.Second)
	v.SetDefault("schedule.limit", 5)

	v.SetDefault("proxy.listen", ":8080")
	v.SetDefault("proxy.upstream", "")

	v.SetDefault("ops.listen", ":9090")
	v.SetDefault("ops.grpc_listen", "")
}

// Load reads configuration from, in increasing priority:
//  1. built-in defaults
//  2. config.yaml in . or ./config (or the explicit path)
//  3. a .env file, if present
//  4. KUNENA_DISCORD_* environment variables
//
// A missing config.yaml is fine; a missing explicit path is not.
func Load(path string) (*models.Config, error) {
	// .env is optional; its variables only act through the environment.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg models.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}
