package notify

import (
	"context"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/panjf2000/ants/v2"
	"github.com/peladahub/pelada-manager/internal/platform/logging"
	"github.com/peladahub/pelada-manager/internal/platform/resilience"
	"github.com/valyala/bytebufferpool"
	"github.com/valyala/fasthttp"
)

type WebhookConfig struct {
	TargetURL      string
	Token          string
	Timeout        time.Duration
	Workers        int
	Retries        int
	CircuitBreaker resilience.CircuitBreakerConfig
}

// WebhookPublisher pushes match events to a configured endpoint.
// Dispatch happens on a worker pool so a slow webhook target never
// stalls the match clock path that emits the event.
type WebhookPublisher struct {
	client    *fasthttp.Client
	targetURL string
	token     string
	timeout   time.Duration
	retries   int
	pool      *ants.Pool
	breaker   *resilience.CircuitBreaker
	logger    *logging.Logger
}

type webhookEnvelope struct {
	Event      string `json:"event"`
	OccurredAt string `json:"occurred_at"`
	Payload    any    `json:"payload,omitempty"`
}

func NewWebhookPublisher(cfg WebhookConfig, logger *logging.Logger) (*WebhookPublisher, error) {
	targetURL := strings.TrimSpace(cfg.TargetURL)
	if targetURL == "" {
		return nil, crerr.New("webhook target url is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = logging.Default()
	}

	pool, err := ants.NewPool(workers, ants.WithNonblocking(true))
	if err != nil {
		return nil, crerr.Wrap(err, "create webhook worker pool")
	}

	var breaker *resilience.CircuitBreaker
	if cfg.CircuitBreaker.Enabled {
		breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)
		breaker = resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq)
	}

	return &WebhookPublisher{
		client: &fasthttp.Client{
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
		},
		targetURL: targetURL,
		token:     strings.TrimSpace(cfg.Token),
		timeout:   timeout,
		retries:   cfg.Retries,
		pool:      pool,
		breaker:   breaker,
		logger:    logger,
	}, nil
}

// Publish hands the event to the worker pool and returns immediately.
// A saturated pool drops the event: webhooks are a courtesy feed, the
// scoreboard in storage stays the source of truth.
func (p *WebhookPublisher) Publish(ctx context.Context, event string, payload any) error {
	body, err := sonic.Marshal(webhookEnvelope{
		Event:      event,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
		Payload:    payload,
	})
	if err != nil {
		return crerr.Wrap(err, "marshal webhook payload")
	}

	if err := p.pool.Submit(func() {
		p.dispatch(event, body)
	}); err != nil {
		return crerr.Wrap(err, "submit webhook dispatch")
	}

	return nil
}

func (p *WebhookPublisher) dispatch(event string, body []byte) {
	if p.breaker != nil {
		if err := p.breaker.Allow(); err != nil {
			p.logger.Warn("webhook dispatch skipped", "event", event, "error", err)
			return
		}
	}

	var lastErr error
	for attempt := 0; attempt <= p.retries; attempt++ {
		if err := p.send(body); err != nil {
			lastErr = err
			continue
		}
		if p.breaker != nil {
			p.breaker.RecordSuccess()
		}
		return
	}

	if p.breaker != nil {
		p.breaker.RecordFailure()
	}
	p.logger.Warn("webhook dispatch failed", "event", event, "attempts", p.retries+1, "error", lastErr)
}

func (p *WebhookPublisher) send(body []byte) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(p.targetURL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	if p.token != "" {
		buf := bytebufferpool.Get()
		_, _ = buf.WriteString("Bearer ")
		_, _ = buf.WriteString(p.token)
		req.Header.SetBytesV("Authorization", buf.Bytes())
		bytebufferpool.Put(buf)
	}
	req.SetBody(body)

	if err := p.client.DoTimeout(req, resp, p.timeout); err != nil {
		return crerr.Wrap(err, "post webhook")
	}
	if resp.StatusCode()/100 != 2 {
		return crerr.Newf("post webhook: status %d", resp.StatusCode())
	}

	return nil
}

// Close drains the worker pool. In-flight dispatches get a grace period
// before the process exits.
func (p *WebhookPublisher) Close() {
	p.pool.Release()
}
