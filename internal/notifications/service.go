package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cdrip/internal/config"
)

const userAgent = "cdrip/0.1.0"

// Service defines the notification surface used by the ripper.
type Service interface {
	NotifyDiscDetected(ctx context.Context, device string, audioTracks int) error
	NotifyBatchCompleted(ctx context.Context, album string, succeeded, total int, duration time.Duration) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:       topic,
		client:         &http.Client{Timeout: timeout},
		batchCompleted: cfg.Notifications.BatchCompleted,
		errors:         cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint       string
	client         *http.Client
	batchCompleted bool
	errors         bool
}

func (n *ntfyService) NotifyDiscDetected(ctx context.Context, device string, audioTracks int) error {
	device = strings.TrimSpace(device)
	if device == "" {
		device = "optical drive"
	}
	data := payload{
		title:   "cdrip - Disc Detected",
		message: fmt.Sprintf("Audio CD with %d tracks inserted in %s", audioTracks, device),
		tags:    []string{"cdrip", "disc", "detected"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyBatchCompleted(ctx context.Context, album string, succeeded, total int, duration time.Duration) error {
	if !n.batchCompleted {
		return nil
	}
	duration = max(duration.Round(time.Second), 0)

	album = strings.TrimSpace(album)
	title := "cdrip - Rip Complete"
	tags := []string{"cdrip", "rip", "completed"}
	priority := ""
	if succeeded < total {
		title = "cdrip - Rip Complete (with errors)"
		tags = []string{"cdrip", "rip", "partial"}
		priority = "high"
	}
	data := payload{
		title:    title,
		message:  fmt.Sprintf("%s: %d of %d tracks succeeded in %s", album, succeeded, total, duration),
		tags:     tags,
		priority: priority,
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "cdrip - Error",
		message:  builder.String(),
		tags:     []string{"cdrip", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "cdrip - Test",
		message:  "Notification system test",
		tags:     []string{"cdrip", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyDiscDetected(context.Context, string, int) error                       { return nil }
func (noopService) NotifyBatchCompleted(context.Context, string, int, int, time.Duration) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error                            { return nil }
func (noopService) TestNotification(context.Context) error                                      { return nil }
