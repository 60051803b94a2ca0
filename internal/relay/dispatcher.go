package relay

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wxpush/relay/internal/wechat"
)

// Template schemas supported by the dispatcher. Which one is in
// effect is a deployment concern; both fill the same logical fields.
const (
	SchemaFirst   = "first"   // title/content pair
	SchemaLabeled = "labeled" // SOURCE/CONTENT/DATETIME with display truncation
)

// maxFieldRunes bounds template display fields in the labeled schema.
const maxFieldRunes = 38

// DispatchResult is the per-recipient outcome, indexed by the
// recipient's position in the input list.
type DispatchResult struct {
	Recipient string
	OK        bool
	ErrMsg    string
}

// Sender is the upstream capability the dispatcher needs; satisfied
// by *wechat.Client.
type Sender interface {
	StableToken(ctx context.Context, appID, secret string) (string, error)
	SendTemplate(ctx context.Context, accessToken string, msg wechat.TemplateMessage) (wechat.SendResult, error)
}

type Dispatcher struct {
	client Sender
	secret string // signing key for deep links
	schema string
	log    *zap.Logger

	mRequests  prometheus.Counter
	mSendOK    prometheus.Counter
	mSendFail  prometheus.Counter
	mTokenFail prometheus.Counter
}

func NewDispatcher(client Sender, secret, schema string, reg prometheus.Registerer, log *zap.Logger) *Dispatcher {
	if schema == "" {
		schema = SchemaFirst
	}
	f := promauto.With(reg)
	return &Dispatcher{
		client: client,
		secret: secret,
		schema: schema,
		log:    log.With(zap.String("component", "relay.dispatcher")),
		mRequests: f.NewCounter(prometheus.CounterOpts{
			Name: "relay_dispatch_requests_total",
			Help: "Dispatch pipeline invocations",
		}),
		mSendOK: f.NewCounter(prometheus.CounterOpts{
			Name: "relay_sends_ok_total",
			Help: "Per-recipient sends acknowledged ok",
		}),
		mSendFail: f.NewCounter(prometheus.CounterOpts{
			Name: "relay_sends_failed_total",
			Help: "Per-recipient sends rejected or errored",
		}),
		mTokenFail: f.NewCounter(prometheus.CounterOpts{
			Name: "relay_token_failures_total",
			Help: "Upstream access-token exchange failures",
		}),
	}
}

// Dispatch runs credential acquisition and the concurrent
// per-recipient fan-out. Results are indexed by recipient input
// order regardless of completion order.
func (d *Dispatcher) Dispatch(ctx context.Context, cfg EffectiveConfig, n Notification) ([]DispatchResult, error) {
	d.mRequests.Inc()

	token, err := d.client.StableToken(ctx, cfg.AppID, cfg.AppSecret)
	if err != nil {
		d.mTokenFail.Inc()
		return nil, NewError(http.StatusInternalServerError, "Failed to get access token: "+err.Error())
	}

	link := d.buildLink(cfg.BaseURL, n)
	data := d.templateData(n)

	results := make([]DispatchResult, len(cfg.Recipients))
	var g errgroup.Group
	for i, rcpt := range cfg.Recipients {
		i, rcpt := i, rcpt
		g.Go(func() error {
			res, err := d.client.SendTemplate(ctx, token, wechat.TemplateMessage{
				ToUser:     rcpt,
				TemplateID: cfg.TemplateID,
				URL:        link,
				Data:       data,
			})
			if err != nil {
				d.mSendFail.Inc()
				results[i] = DispatchResult{Recipient: rcpt, ErrMsg: err.Error()}
				return nil
			}
			if res.OK() {
				d.mSendOK.Inc()
				results[i] = DispatchResult{Recipient: rcpt, OK: true, ErrMsg: res.ErrMsg}
				return nil
			}
			d.mSendFail.Inc()
			results[i] = DispatchResult{Recipient: rcpt, ErrMsg: res.ErrMsg}
			return nil
		})
	}
	_ = g.Wait()

	ok := 0
	for _, r := range results {
		if r.OK {
			ok++
		}
	}
	d.log.Info("dispatch finished",
		zap.Int("recipients", len(results)),
		zap.Int("ok", ok),
	)
	return results, nil
}

// Aggregate reduces per-recipient results to the overall verdict: one
// ok is success; total failure surfaces the error at input index 0.
func Aggregate(results []DispatchResult) (successes int, firstErr string) {
	for _, r := range results {
		if r.OK {
			successes++
		}
	}
	if successes == 0 {
		firstErr = "Unknown error"
		if len(results) > 0 && results[0].ErrMsg != "" {
			firstErr = results[0].ErrMsg
		}
	}
	return successes, firstErr
}

// buildLink assembles the signed deep link back to the landing page.
func (d *Dispatcher) buildLink(base string, n Notification) string {
	q := url.Values{}
	q.Set("message", n.Content)
	q.Set("date", n.Datetime)
	q.Set("source", n.Source)
	q.Set("sign", Sign(n.Source, n.Content, n.Datetime, d.secret))
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + q.Encode()
}

func (d *Dispatcher) templateData(n Notification) map[string]wechat.Value {
	if d.schema == SchemaLabeled {
		return map[string]wechat.Value{
			"SOURCE":   {Value: truncate(n.Source, maxFieldRunes, true)},
			"CONTENT":  {Value: truncate(n.Content, maxFieldRunes, true)},
			"DATETIME": {Value: truncate(n.Datetime, maxFieldRunes, false)},
		}
	}
	return map[string]wechat.Value{
		"title":   {Value: n.Source},
		"content": {Value: n.Content},
	}
}

// truncate bounds s to max runes; with ellipsis the marker replaces
// the final rune so the total stays within max.
func truncate(s string, max int, ellipsis bool) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if ellipsis {
		return string(runes[:max-1]) + "…"
	}
	return string(runes[:max])
}
