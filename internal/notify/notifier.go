package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	config "github.com/maheshrc27/postpilot/configs"
)

type FailedPlatform struct {
	Name  string
	Error string
}

type PublishFailure struct {
	To           string
	PostID       int64
	PostContent  string
	Platforms    []FailedPlatform
	DashboardURL string
}

// Notifier delivers publish-failure notifications to the post's team owner.
// Callers treat delivery as best-effort; a failed send must never block the
// pipeline.
type Notifier interface {
	SendPublishFailure(ctx context.Context, n PublishFailure) error
}

const resendAPIURL = "https://api.resend.com/emails"

type EmailNotifier struct {
	apiKey string
	from   string
	client *http.Client
	apiURL string
}

func NewEmailNotifier(cfg config.Config) *EmailNotifier {
	return &EmailNotifier{
		apiKey: cfg.ResendAPIKey,
		from:   cfg.EmailFrom,
		client: &http.Client{Timeout: 15 * time.Second},
		apiURL: resendAPIURL,
	}
}

func (n *EmailNotifier) SendPublishFailure(ctx context.Context, failure PublishFailure) error {
	if n.apiKey == "" {
		slog.Info("no RESEND_API_KEY set, publish failure notification skipped",
			"post_id", failure.PostID)
		return nil
	}

	subject := "Your scheduled post could not be published"
	payload, err := json.Marshal(map[string]interface{}{
		"from":    n.from,
		"to":      []string{failure.To},
		"subject": subject,
		"html":    buildFailureHTML(failure),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.apiURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+n.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("notification send failed (%d): %s", resp.StatusCode, body)
	}

	return nil
}

func buildFailureHTML(failure PublishFailure) string {
	preview := failure.PostContent
	if len(preview) > 200 {
		preview = preview[:200] + "..."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<p>Publishing failed for your post:</p><blockquote>%s</blockquote><ul>", html.EscapeString(preview))
	for _, p := range failure.Platforms {
		fmt.Fprintf(&b, "<li><strong>%s</strong>: %s</li>", html.EscapeString(p.Name), html.EscapeString(p.Error))
	}
	fmt.Fprintf(&b, "</ul><p><a href=\"%s/dashboard/posts/%d\">Review the post</a></p>", failure.DashboardURL, failure.PostID)
	return b.String()
}
