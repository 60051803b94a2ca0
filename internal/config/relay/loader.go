package relay_config

import (
	"strings"

	"github.com/spf13/viper"
)

// Load reads the yaml config at path (missing file is fine, defaults
// apply) and lets environment variables override every key, e.g.
// AUTH_TOKEN or WECHAT_APP_ID.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
		_ = v.ReadInConfig()
	}

	v.SetDefault("app.name", "wxpush-relay")
	v.SetDefault("app.env", "dev")
	v.SetDefault("app.version", "")

	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("server.metrics_addr", ":9102")
	v.SetDefault("server.read_timeout", "5s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.graceful_timeout", "15s")

	// Empty defaults keep env-only keys visible to Unmarshal.
	v.SetDefault("auth.token", "")

	v.SetDefault("wechat.api_base", "https://api.weixin.qq.com")
	v.SetDefault("wechat.app_id", "")
	v.SetDefault("wechat.app_secret", "")
	v.SetDefault("wechat.template_id", "")
	v.SetDefault("wechat.recipients", "")
	v.SetDefault("wechat.base_url", "")
	v.SetDefault("wechat.template_schema", "first")
	v.SetDefault("wechat.timeout", "10s")

	v.SetDefault("otel.enable", false)
	v.SetDefault("otel.service_name", "wxpush-relay")
	v.SetDefault("otel.sample_ratio", 1.0)
	v.SetDefault("otel.otlp_endpoint", "localhost:4317")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
