package relay

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	relay_config "github.com/wxpush/relay/internal/config/relay"
)

func TestSplitRecipients(t *testing.T) {
	require.Equal(t, []string{"A", "B", "C"}, SplitRecipients("A|B| |C"))
	require.Equal(t, []string{"one"}, SplitRecipients("  one  "))
	require.Nil(t, SplitRecipients(""))
	require.Nil(t, SplitRecipients(" | | "))
}

func defaults() relay_config.WeChat {
	return relay_config.WeChat{
		AppID:      "app-default",
		AppSecret:  "sec-default",
		TemplateID: "tpl-default",
		Recipients: "U1|U2",
		BaseURL:    "https://relay.example.com/message",
	}
}

func TestResolveConfig_Defaults(t *testing.T) {
	cfg, err := ResolveConfig(Params{}, defaults())
	require.NoError(t, err)
	require.Equal(t, "app-default", cfg.AppID)
	require.Equal(t, []string{"U1", "U2"}, cfg.Recipients)
}

func TestResolveConfig_Overrides(t *testing.T) {
	p := Params{
		"appid":       "app-x",
		"secret":      "sec-x",
		"template_id": "tpl-x",
		"base_url":    "https://other.example.com/m",
		"userid":      "A|B| |C",
	}
	cfg, err := ResolveConfig(p, defaults())
	require.NoError(t, err)
	require.Equal(t, "app-x", cfg.AppID)
	require.Equal(t, "sec-x", cfg.AppSecret)
	require.Equal(t, "tpl-x", cfg.TemplateID)
	require.Equal(t, "https://other.example.com/m", cfg.BaseURL)
	require.Equal(t, []string{"A", "B", "C"}, cfg.Recipients)
}

func TestResolveConfig_MissingEverything(t *testing.T) {
	_, err := ResolveConfig(Params{}, relay_config.WeChat{})
	require.Error(t, err)
	require.Equal(t, 500, StatusOf(err))
	require.Contains(t, err.Error(), "app_id")
	require.Contains(t, err.Error(), "app_secret")
	require.Contains(t, err.Error(), "template_id")
	require.Contains(t, err.Error(), "base_url")
	require.Contains(t, err.Error(), "userid")
}

func TestResolveConfig_BlankRecipients(t *testing.T) {
	d := defaults()
	d.Recipients = " | "
	_, err := ResolveConfig(Params{}, d)
	require.Error(t, err)
	require.Contains(t, err.Error(), "userid")
}

func TestDefaultDatetime(t *testing.T) {
	now := time.Date(2025, 6, 1, 23, 30, 0, 0, time.UTC)
	require.Equal(t, "2025-06-02 07:30:00", DefaultDatetime(now))
}
