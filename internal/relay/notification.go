package relay

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	relay_config "github.com/wxpush/relay/internal/config/relay"
)

// Notification is the normalized inbound request, immutable once
// built. Source, Content and the caller credential are validated
// before it exists.
type Notification struct {
	Source   string
	Content  string
	Datetime string
}

// EffectiveConfig is the per-request upstream configuration: caller
// overrides layered on top of the process defaults.
type EffectiveConfig struct {
	AppID      string   `validate:"required"`
	AppSecret  string   `validate:"required"`
	TemplateID string   `validate:"required"`
	BaseURL    string   `validate:"required"`
	Recipients []string `validate:"required,min=1"`
}

var validate = validator.New()

// configFieldNames maps EffectiveConfig struct fields to the names
// surfaced in error messages.
var configFieldNames = map[string]string{
	"AppID":      "app_id",
	"AppSecret":  "app_secret",
	"TemplateID": "template_id",
	"BaseURL":    "base_url",
	"Recipients": "userid",
}

// ResolveConfig layers caller-supplied overrides over the configured
// defaults and rejects the request when any resulting field is empty.
func ResolveConfig(p Params, defaults relay_config.WeChat) (EffectiveConfig, error) {
	pick := func(key, fallback string) string {
		if v := p[key]; v != "" {
			return v
		}
		return fallback
	}
	cfg := EffectiveConfig{
		AppID:      pick("appid", defaults.AppID),
		AppSecret:  pick("secret", defaults.AppSecret),
		TemplateID: pick("template_id", defaults.TemplateID),
		BaseURL:    pick("base_url", defaults.BaseURL),
		Recipients: SplitRecipients(pick("userid", defaults.Recipients)),
	}
	if err := validate.Struct(cfg); err != nil {
		var missing []string
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				if name, known := configFieldNames[fe.StructField()]; known {
					missing = append(missing, name)
				}
			}
		}
		if len(missing) == 0 {
			return EffectiveConfig{}, MissingConfig("unknown")
		}
		return EffectiveConfig{}, MissingConfig(missing...)
	}
	return cfg, nil
}

// SplitRecipients turns the pipe-delimited recipient list into
// trimmed non-empty ids.
func SplitRecipients(s string) []string {
	var out []string
	for _, part := range strings.Split(s, "|") {
		if id := strings.TrimSpace(part); id != "" {
			out = append(out, id)
		}
	}
	return out
}

// DefaultDatetime formats now in the fixed UTC+8 offset the upstream
// templates expect.
func DefaultDatetime(now time.Time) string {
	return now.In(time.FixedZone("UTC+8", 8*60*60)).Format("2006-01-02 15:04:05")
}
