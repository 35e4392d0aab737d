package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// RunSummary describes a finished batch run.
type RunSummary struct {
	RunID     string
	Command   string
	Started   time.Time
	Finished  time.Time
	Processed int
	Skipped   int
	Failed    []string
	OutputDir string
}

// Notifier delivers run summaries.
type Notifier interface {
	Notify(ctx context.Context, summary RunSummary) error
}

// Nop discards summaries.
type Nop struct{}

// Notify implements Notifier.
func (Nop) Notify(context.Context, RunSummary) error { return nil }

// TelegramNotifier posts summaries through the Telegram Bot API.
type TelegramNotifier struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
	logger   zerolog.Logger
}

// NewTelegramNotifier constructs a Telegram notifier.
func NewTelegramNotifier(botToken, chatID, baseURL string, timeout time.Duration, logger zerolog.Logger) *TelegramNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}

	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With().Str("component", "notify_telegram").Logger(),
	}
}

// Notify calls sendMessage with the rendered summary.
func (n *TelegramNotifier) Notify(ctx context.Context, summary RunSummary) error {
	payload := map[string]string{
		"chat_id": n.chatID,
		"text":    RenderSummary(summary),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram status %d", resp.StatusCode)
	}

	var result struct {
		OK bool `json:"ok"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil {
		if !result.OK {
			return fmt.Errorf("telegram returned ok=false")
		}
	}

	n.logger.Info().Str("run_id", summary.RunID).
		Int("processed", summary.Processed).
		Int("failed", len(summary.Failed)).
		Msg("run summary sent")
	return nil
}

// RenderSummary formats a summary as plain text.
func RenderSummary(s RunSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[matchfeatures %s]\n", s.Command)
	fmt.Fprintf(&b, "Run: %s\n", s.RunID)
	if !s.Started.IsZero() && !s.Finished.IsZero() {
		fmt.Fprintf(&b, "Duration: %s\n", s.Finished.Sub(s.Started).Round(time.Second))
	}
	fmt.Fprintf(&b, "Processed: %d  Skipped: %d  Failed: %d\n", s.Processed, s.Skipped, len(s.Failed))
	if len(s.Failed) > 0 {
		fmt.Fprintf(&b, "Failed matches: %s\n", strings.Join(s.Failed, ", "))
	}
	if s.OutputDir != "" {
		fmt.Fprintf(&b, "Output: %s\n", s.OutputDir)
	}
	return b.String()
}

var (
	_ Notifier = (*TelegramNotifier)(nil)
	_ Notifier = Nop{}
)
