// Package wechat is a thin client for the WeChat offiaccount API:
// stable access-token exchange and template-message sends.
package wechat

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

type Config struct {
	APIBase string
	Timeout time.Duration
}

type Client struct {
	c       *http.Client
	apiBase string
	log     *zap.Logger
}

func NewClient(cfg Config, log *zap.Logger) *Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}
	return &Client{
		c: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(transport),
		},
		apiBase: strings.TrimRight(cfg.APIBase, "/"),
		log:     log.With(zap.String("component", "wechat.client")),
	}
}

type tokenRequest struct {
	GrantType    string `json:"grant_type"`
	AppID        string `json:"appid"`
	Secret       string `json:"secret"`
	ForceRefresh bool   `json:"force_refresh"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	ErrCode     int    `json:"errcode"`
	ErrMsg      string `json:"errmsg"`
}

// StableToken exchanges app credentials for a short-lived access
// token. Tokens are never cached: every dispatch fetches fresh.
func (c *Client) StableToken(ctx context.Context, appID, secret string) (string, error) {
	req := tokenRequest{
		GrantType:    "client_credential",
		AppID:        appID,
		Secret:       secret,
		ForceRefresh: false,
	}
	var resp tokenResponse
	if err := c.postJSON(ctx, c.apiBase+"/cgi-bin/stable_token", req, &resp); err != nil {
		return "", fmt.Errorf("stable token: %w", err)
	}
	if resp.AccessToken == "" {
		if resp.ErrMsg != "" {
			return "", fmt.Errorf("stable token: %s (errcode %d)", resp.ErrMsg, resp.ErrCode)
		}
		return "", fmt.Errorf("stable token: no access_token in response")
	}
	return resp.AccessToken, nil
}

// Value wraps one template field value in the wire shape the send
// endpoint expects.
type Value struct {
	Value string `json:"value"`
}

type TemplateMessage struct {
	ToUser     string           `json:"touser"`
	TemplateID string           `json:"template_id"`
	URL        string           `json:"url,omitempty"`
	Data       map[string]Value `json:"data"`
}

// SendResult is the upstream verdict for one recipient; ErrMsg "ok"
// is the literal success marker.
type SendResult struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
	MsgID   int64  `json:"msgid"`
}

func (r SendResult) OK() bool { return r.ErrMsg == "ok" }

func (c *Client) SendTemplate(ctx context.Context, accessToken string, msg TemplateMessage) (SendResult, error) {
	sendURL := c.apiBase + "/cgi-bin/message/template/send?access_token=" + url.QueryEscape(accessToken)
	var resp SendResult
	if err := c.postJSON(ctx, sendURL, msg, &resp); err != nil {
		return SendResult{}, fmt.Errorf("template send: %w", err)
	}
	return resp, nil
}

func (c *Client) postJSON(ctx context.Context, target string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json;charset=utf-8")

	start := time.Now()
	resp, err := c.c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	c.log.Debug("upstream call",
		zap.String("url", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}
	return nil
}
