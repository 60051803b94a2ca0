package http

import (
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	relay_config "github.com/wxpush/relay/internal/config/relay"
	"github.com/wxpush/relay/internal/obs"
	"github.com/wxpush/relay/internal/relay"
)

type Handler struct {
	cfg  *relay_config.Config
	disp *relay.Dispatcher
	log  *zap.Logger
	tmpl *template.Template

	// Sanitize cleans free-text content before it is embedded into
	// the landing page; swappable for an allowlist implementation.
	Sanitize func(string) string

	now func() time.Time
}

func NewHandler(cfg *relay_config.Config, disp *relay.Dispatcher, log *zap.Logger) *Handler {
	return &Handler{
		cfg:      cfg,
		disp:     disp,
		log:      log.With(zap.String("component", "http.handler")),
		tmpl:     template.Must(template.ParseFS(templatesFS, "templates/*.html")),
		Sanitize: relay.Sanitize,
		now:      time.Now,
	}
}

// Router wires the full HTTP surface. Static paths take precedence
// over the single-segment test-page route.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	origins := h.cfg.Server.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))

	r.Get("/", h.home)
	r.Get("/index.html", h.home)
	r.Get("/message", h.messagePage)
	r.HandleFunc("/wxsend", h.send)
	r.Get("/{token}", h.testPage)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "Not Found", http.StatusNotFound)
	})
	// The wire contract is 404 for every unhandled method+path pair.
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "Not Found", http.StatusNotFound)
	})

	return otelhttp.NewHandler(r, "relay.http")
}

// send runs the normalization → authentication → token → fan-out
// pipeline for /wxsend.
func (h *Handler) send(w http.ResponseWriter, r *http.Request) {
	log := obs.WithTrace(r.Context(), h.log)
	params := relay.ExtractParams(r, log)

	content := params["content"]
	source := params["title"]
	if source == "" {
		source = params["source"]
	}
	cred := relay.ResolveCredential(params, r.Header.Get("Authorization"))

	var missing []string
	if content == "" {
		missing = append(missing, "content")
	}
	if source == "" {
		missing = append(missing, "title")
	}
	if cred == "" {
		missing = append(missing, "token")
	}
	if len(missing) > 0 {
		h.fail(w, log, relay.MissingParams(missing...))
		return
	}

	if err := relay.Authenticate(cred, h.cfg.Auth.Token); err != nil {
		h.fail(w, log, err)
		return
	}

	ecfg, err := relay.ResolveConfig(params, h.cfg.WeChat)
	if err != nil {
		h.fail(w, log, err)
		return
	}

	datetime := params["datetime"]
	if datetime == "" {
		datetime = relay.DefaultDatetime(h.now())
	}
	n := relay.Notification{Source: source, Content: content, Datetime: datetime}

	results, err := h.disp.Dispatch(r.Context(), ecfg, n)
	if err != nil {
		h.fail(w, log, err)
		return
	}

	successes, firstErr := relay.Aggregate(results)
	if successes > 0 {
		fmt.Fprintf(w, "Successfully sent messages to %d user(s). First response: ok", successes)
		return
	}
	http.Error(w, "Failed to send messages. First error: "+firstErr, http.StatusInternalServerError)
}

// messagePage renders the signed deep-link landing page.
func (h *Handler) messagePage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	message, date, source, sign := q.Get("message"), q.Get("date"), q.Get("source"), q.Get("sign")

	var missing []string
	for _, p := range []struct{ name, val string }{
		{"message", message}, {"date", date}, {"source", source}, {"sign", sign},
	} {
		if p.val == "" {
			missing = append(missing, p.name)
		}
	}
	if len(missing) > 0 {
		h.fail(w, h.log, relay.MissingParams(missing...))
		return
	}

	if h.cfg.Auth.Token == "" {
		h.fail(w, h.log, relay.ErrNoServerToken)
		return
	}
	if !relay.VerifySign(source, message, date, h.cfg.Auth.Token, sign) {
		h.fail(w, h.log, relay.ErrInvalidSignature)
		return
	}

	h.render(w, "message.html", map[string]string{
		"Source":  source,
		"Date":    date,
		"Content": h.Sanitize(message),
	})
}

// testPage serves the interactive form behind /<token>, gated by the
// same shared-secret check as /wxsend.
func (h *Handler) testPage(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if err := relay.Authenticate(token, h.cfg.Auth.Token); err != nil {
		h.fail(w, h.log, err)
		return
	}
	h.render(w, "test.html", map[string]string{"Token": token})
}

func (h *Handler) home(w http.ResponseWriter, _ *http.Request) {
	h.render(w, "index.html", nil)
}

func (h *Handler) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.tmpl.ExecuteTemplate(w, name, data); err != nil {
		h.log.Error("render page", zap.String("template", name), zap.Error(err))
	}
}

func (h *Handler) fail(w http.ResponseWriter, log *zap.Logger, err error) {
	status := relay.StatusOf(err)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", zap.Int("status", status), zap.Error(err))
	} else {
		log.Warn("request rejected", zap.Int("status", status), zap.Error(err))
	}
	http.Error(w, err.Error(), status)
}
