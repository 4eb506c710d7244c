package server

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"surveyline/internal/config"
	"surveyline/internal/domain"
	"surveyline/internal/engine"
	"surveyline/internal/logger"
	"surveyline/internal/repo"
)

const (
	defaultWebhookInterval = 2 * time.Second
	defaultWebhookTimeout  = 5 * time.Second
	defaultWebhookBatch    = 100
)

// WebhookDispatcher polls the event log and POSTs new events to every
// enabled hook. Each hook keeps its own cursor, starting at the newest
// event present when the dispatcher first sees it; a failed delivery is
// retried on the next tick.
type WebhookDispatcher struct {
	engine   engine.Engine
	webhooks []config.WebhookConfig
	log      *logger.Logger
	client   *http.Client
	Interval time.Duration

	mu      sync.Mutex
	cursors map[int]int64
}

func NewWebhookDispatcher(e engine.Engine, hooks []config.WebhookConfig, log *logger.Logger) *WebhookDispatcher {
	return &WebhookDispatcher{
		engine:   e,
		webhooks: hooks,
		log:      logger.OrNop(log).With("component", "webhooks"),
		client:   &http.Client{Timeout: defaultWebhookTimeout},
		Interval: defaultWebhookInterval,
		cursors:  make(map[int]int64),
	}
}

// Run dispatches until ctx is done. It returns immediately when no hook
// is enabled.
func (d *WebhookDispatcher) Run(ctx context.Context) error {
	if d.enabledCount() == 0 {
		return nil
	}
	d.log.Info("webhook dispatcher started", "hooks", d.enabledCount())
	ticker := time.NewTicker(d.Interval)
	defer ticker.Stop()
	for {
		d.DispatchOnce(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (d *WebhookDispatcher) enabledCount() int {
	n := 0
	for _, hook := range d.webhooks {
		if hookEnabled(hook) {
			n++
		}
	}
	return n
}

func hookEnabled(hook config.WebhookConfig) bool {
	return (hook.Enabled == nil || *hook.Enabled) && strings.TrimSpace(hook.URL) != ""
}

// DispatchOnce delivers every pending event once.
func (d *WebhookDispatcher) DispatchOnce(ctx context.Context) {
	for i, hook := range d.webhooks {
		if !hookEnabled(hook) {
			continue
		}
		d.dispatchWebhook(ctx, i, hook)
	}
}

func (d *WebhookDispatcher) dispatchWebhook(ctx context.Context, idx int, hook config.WebhookConfig) {
	cursor := d.cursorFor(ctx, idx)
	evts, err := d.engine.Repo.EventsAfter(ctx, defaultWebhookBatch, cursor, repo.EventFilter{})
	if err != nil {
		d.log.Warn("fetch events failed", "error", err)
		return
	}
	filter := newEventFilter(hook.Events)
	for _, evt := range evts {
		if !filter.match(evt.Type) {
			d.setCursor(idx, evt.ID)
			continue
		}
		if err := d.postEvent(ctx, hook, evt); err != nil {
			d.log.Warn("webhook delivery failed", "url", hook.URL, "event_id", evt.ID, "error", err)
			return
		}
		d.log.Debug("webhook delivered", "url", hook.URL, "event_id", evt.ID, "type", evt.Type)
		d.setCursor(idx, evt.ID)
	}
}

func (d *WebhookDispatcher) cursorFor(ctx context.Context, idx int) int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if cur, ok := d.cursors[idx]; ok {
		return cur
	}
	cur, err := d.engine.Repo.LatestEventID(ctx, repo.EventFilter{})
	if err != nil {
		d.log.Warn("init webhook cursor failed", "error", err)
		cur = 0
	}
	d.cursors[idx] = cur
	return cur
}

func (d *WebhookDispatcher) setCursor(idx int, value int64) {
	d.mu.Lock()
	d.cursors[idx] = value
	d.mu.Unlock()
}

type webhookEvent struct {
	ID         int64           `json:"id"`
	Type       string          `json:"type"`
	SurveyID   string          `json:"survey_id,omitempty"`
	OwnerID    string          `json:"owner_id,omitempty"`
	EntityKind string          `json:"entity_kind"`
	EntityID   string          `json:"entity_id,omitempty"`
	ActorID    string          `json:"actor_id"`
	TS         string          `json:"ts"`
	Payload    json.RawMessage `json:"payload"`
	PayloadRaw string          `json:"payload_raw,omitempty"`
}

func signBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func (d *WebhookDispatcher) postEvent(ctx context.Context, hook config.WebhookConfig, evt domain.Event) error {
	payload := json.RawMessage("{}")
	var raw string
	if evt.Payload != "" {
		if json.Valid([]byte(evt.Payload)) {
			payload = json.RawMessage(evt.Payload)
		} else {
			raw = evt.Payload
		}
	}
	data, err := json.Marshal(webhookEvent{
		ID:         evt.ID,
		Type:       evt.Type,
		SurveyID:   evt.SurveyID,
		OwnerID:    evt.OwnerID,
		EntityKind: evt.EntityKind,
		EntityID:   evt.EntityID,
		ActorID:    evt.ActorID,
		TS:         evt.TS,
		Payload:    payload,
		PayloadRaw: raw,
	})
	if err != nil {
		return err
	}
	timeout := defaultWebhookTimeout
	if hook.TimeoutSeconds > 0 {
		timeout = time.Duration(hook.TimeoutSeconds) * time.Second
	}
	client := d.client
	if timeout != d.client.Timeout {
		client = &http.Client{Timeout: timeout}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, hook.URL, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Surveyline-Event", evt.Type)
	req.Header.Set("X-Surveyline-Delivery", fmt.Sprintf("%d", evt.ID))
	if evt.SurveyID != "" {
		req.Header.Set("X-Surveyline-Survey", evt.SurveyID)
	}
	if strings.TrimSpace(hook.Secret) != "" {
		req.Header.Set("X-Surveyline-Signature", signBody(hook.Secret, data))
	}
	res, err := client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return fmt.Errorf("status %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

// eventFilter matches exact types, or a family such as "survey.*".
type eventFilter struct {
	all      bool
	set      map[string]struct{}
	prefixes []string
}

func newEventFilter(events []string) eventFilter {
	f := eventFilter{set: map[string]struct{}{}}
	for _, evt := range events {
		key := strings.TrimSpace(evt)
		switch {
		case key == "":
		case key == "*":
			return eventFilter{all: true}
		case strings.HasSuffix(key, ".*"):
			f.prefixes = append(f.prefixes, strings.TrimSuffix(key, "*"))
		default:
			f.set[key] = struct{}{}
		}
	}
	if len(f.set) == 0 && len(f.prefixes) == 0 {
		return eventFilter{all: true}
	}
	return f
}

func (f eventFilter) match(evt string) bool {
	if f.all {
		return true
	}
	if _, ok := f.set[evt]; ok {
		return true
	}
	for _, p := range f.prefixes {
		if strings.HasPrefix(evt, p) {
			return true
		}
	}
	return false
}
