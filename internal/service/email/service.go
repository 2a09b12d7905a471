package email

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"github.com/nicunursekatie/sandwichsync-sub003/pkg/config"
)

// ErrUnknownTemplate is returned for a template name the service does not
// carry.
var ErrUnknownTemplate = errors.New("unknown email template")

// Named templates. Placeholders use {{name}} and are substituted verbatim.
const (
	TemplateWeeklySummary    = "weekly_summary"
	TemplateMilestone        = "milestone"
	TemplateDeadlineReminder = "deadline_reminder"
	TemplateReport           = "report"
)

var templates = map[string]struct {
	subject string
	body    string
}{
	TemplateWeeklySummary: {
		subject: "Weekly collection summary",
		body: "Hi {{first_name}},\n\nThis week the network collected {{week_total}} sandwiches " +
			"across {{entry_count}} collections. The running total is {{complete_total}}.\n\n" +
			"Thank you for everything you do.\n",
	},
	TemplateMilestone: {
		subject: "We hit {{milestone}} sandwiches!",
		body: "Hi {{first_name}},\n\nTogether we just passed {{milestone}} sandwiches collected. " +
			"{{message}}\n",
	},
	TemplateDeadlineReminder: {
		subject: "Reminder: {{task_title}} is due {{due_date}}",
		body: "Hi {{first_name}},\n\nA quick reminder that \"{{task_title}}\" on project " +
			"\"{{project_title}}\" is due {{due_date}}.\n",
	},
	TemplateReport: {
		subject: "{{report_name}} is ready",
		body:    "Hi {{first_name}},\n\nYour report \"{{report_name}}\" is ready: {{link}}\n",
	},
}

// Service sends templated notification emails through a Resend-compatible
// HTTP API. With no API key configured it logs and drops sends, so local
// development never emails anyone.
type Service struct {
	client *http.Client
	cfg    config.APIConfig
	logger *slog.Logger
}

// New constructs a Service.
func New(cfg config.APIConfig, logger *slog.Logger) Service {
	return Service{
		client: &http.Client{Timeout: 10 * time.Second},
		cfg:    cfg,
		logger: logger,
	}
}

// Render fills a named template with the given variables. Placeholders with
// no matching variable are left in place.
func Render(template string, vars map[string]string) (subject, body string, err error) {
	t, ok := templates[template]
	if !ok {
		return "", "", ErrUnknownTemplate
	}
	return substitute(t.subject, vars), substitute(t.body, vars), nil
}

// Send renders a template and delivers it to the recipient.
func (s Service) Send(ctx context.Context, to, template string, vars map[string]string) error {
	subject, body, err := Render(template, vars)
	if err != nil {
		return err
	}
	if s.cfg.EmailAPIKey == "" {
		s.logger.Info("email delivery skipped, no api key configured", "to", to, "template", template)
		return nil
	}

	payload, err := json.Marshal(map[string]any{
		"from":    s.cfg.EmailFromAddress,
		"to":      []string{to},
		"subject": subject,
		"text":    body,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.EmailAPIURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.EmailAPIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("send email: unexpected status %d", resp.StatusCode)
	}
	s.logger.Info("email sent", "to", to, "template", template)
	return nil
}

func substitute(text string, vars map[string]string) string {
	for key, value := range vars {
		text = strings.ReplaceAll(text, "{{"+key+"}}", value)
	}
	return text
}
