package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/viper"

	"github.com/eringen/draftpub"
	"github.com/eringen/draftpub/wechat"
)

// logConfig controls the process logger.
type logConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

type fileConfig struct {
	draftpub.Config `mapstructure:",squash"`
	Log             logConfig `mapstructure:"log"`
}

// envAliases maps config keys to the environment variables that set them,
// in priority order, on top of the DRAFTPUB_ prefixed name.
var envAliases = map[string][]string{
	"wechat.app_id":     {"WEIXIN_APP_ID", "WECHAT_APP_ID"},
	"wechat.app_secret": {"WEIXIN_APP_SECRET", "WECHAT_APP_SECRET"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("addr", ":8001")
	v.SetDefault("database_path", "data/drafts.db")
	v.SetDefault("default_cover", "cover.jpg")
	v.SetDefault("download_timeout", 30*time.Second)
	v.SetDefault("publish_timeout", 60*time.Second)
	v.SetDefault("thumb_max_width", 900)
	v.SetDefault("highlight_style", "github")
	v.SetDefault("max_body_size", "4M")
	v.SetDefault("publish_rate_limit", 30)
	v.SetDefault("publish_rate_window", time.Minute)

	v.SetDefault("wechat.app_id", "")
	v.SetDefault("wechat.app_secret", "")
	v.SetDefault("wechat.base_url", wechat.DefaultBaseURL)
	v.SetDefault("wechat.timeout", 60*time.Second)
	v.SetDefault("wechat.stable_token", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
}

// loadDotenv copies the variables of a dotenv file into the process
// environment without overriding variables that are already set. A missing
// file is not an error.
func loadDotenv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	for _, key := range v.AllKeys() {
		name := strings.ToUpper(key)
		if _, set := os.LookupEnv(name); set {
			continue
		}
		if err := os.Setenv(name, v.GetString(key)); err != nil {
			return err
		}
	}
	return nil
}

// loadConfig resolves configuration from defaults, the dotenv file and the
// environment, in increasing priority.
func loadConfig(envFile string) (draftpub.Config, logConfig, error) {
	if err := loadDotenv(envFile); err != nil {
		return draftpub.Config{}, logConfig{}, err
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("DRAFTPUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range envAliases {
		prefixed := "DRAFTPUB_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(append([]string{key, prefixed}, names...)...); err != nil {
			return draftpub.Config{}, logConfig{}, err
		}
	}

	var fc fileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return draftpub.Config{}, logConfig{}, fmt.Errorf("decode config: %w", err)
	}
	if err := fc.Config.Validate(); err != nil {
		return draftpub.Config{}, logConfig{}, fmt.Errorf("invalid config: %w", err)
	}
	return fc.Config, fc.Log, nil
}

func newLogger(cfg logConfig) *charmlog.Logger {
	l := charmlog.NewWithOptions(os.Stderr, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
		Prefix:          "draftpub",
	})
	if lvl, err := charmlog.ParseLevel(cfg.Level); err == nil {
		l.SetLevel(lvl)
	}
	if cfg.JSON {
		l.SetFormatter(charmlog.JSONFormatter)
	}
	return l
}
