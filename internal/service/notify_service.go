package service

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/grga023/latice-erp/internal/models"
	"github.com/grga023/latice-erp/internal/util"

	"go.uber.org/zap"
)

// NotifyStore is the persistence surface for the due-date scanner.
type NotifyStore interface {
	GetEmailSettings(ctx context.Context) (*models.EmailSettings, error)
	SaveEmailSettings(ctx context.Context, settings *models.EmailSettings) error
	GetOpenOrders(ctx context.Context) ([]models.Order, error)
	MarkNotified(ctx context.Context, key string) (bool, error)
}

// Mailer attempts delivery of one message. No retry logic lives behind it.
type Mailer interface {
	Send(ctx context.Context, settings *models.EmailSettings, subject, htmlBody string, recipients []string) error
}

// NotifyService scans open orders for approaching due dates and sends one
// consolidated email per scan. The dedup key {order_id}_{due_date}, not the
// clock, is the source of truth for "already notified", so manual triggers
// and timer scans can overlap freely.
type NotifyService struct {
	store  NotifyStore
	mailer Mailer
	events EventPublisher
	logger *zap.Logger
	now    func() time.Time
}

// NewNotifyService creates a new notification service. A nil clock defaults
// to time.Now.
func NewNotifyService(store NotifyStore, mailer Mailer, events EventPublisher, now func() time.Time) *NotifyService {
	if now == nil {
		now = time.Now
	}
	return &NotifyService{
		store:  store,
		mailer: mailer,
		events: events,
		logger: util.GetLogger(),
		now:    now,
	}
}

// RunCheck executes one scan cycle. Orders whose due date falls within
// [today, today+daysBefore] and whose dedup key is unseen are batched into a
// single email. Dedup keys are persisted before delivery is attempted, so a
// failed send is logged but never re-queued.
func (s *NotifyService) RunCheck(ctx context.Context) error {
	ctx, span := util.StartSpan(ctx, "NotifyService.RunCheck")
	defer span.End()

	start := s.now()
	defer func() {
		util.NotificationScanLatency.Observe(time.Since(start).Seconds())
	}()

	settings, err := s.store.GetEmailSettings(ctx)
	if err != nil {
		return fmt.Errorf("failed to load email settings: %w", err)
	}
	if !settings.Enabled {
		return nil
	}

	today := truncateToDay(s.now())
	target := today.AddDate(0, 0, settings.DaysBefore)

	orders, err := s.store.GetOpenOrders(ctx)
	if err != nil {
		return fmt.Errorf("failed to load open orders: %w", err)
	}

	var batch []models.Order
	for _, order := range orders {
		if order.DueDate == "" {
			continue
		}
		due, err := time.ParseInLocation(models.DueDateLayout, order.DueDate, today.Location())
		if err != nil {
			// Unparseable dates are skipped, not an error.
			continue
		}
		if due.Before(today) || due.After(target) {
			continue
		}

		key := fmt.Sprintf("%d_%s", order.ID, order.DueDate)
		fresh, err := s.store.MarkNotified(ctx, key)
		if err != nil {
			return fmt.Errorf("failed to record dedup key %s: %w", key, err)
		}
		if fresh {
			batch = append(batch, order)
		}
	}

	if len(batch) == 0 {
		return nil
	}

	subject := fmt.Sprintf("%d order(s) due within %d days", len(batch), settings.DaysBefore)
	body := renderAlertBody(batch, settings.DaysBefore)

	if err := s.mailer.Send(ctx, settings, subject, body, settings.Recipients()); err != nil {
		// The dedup keys are already persisted; the alert counts as attempted.
		util.NotificationsFailedTotal.Inc()
		s.logger.Error("Due-date alert delivery failed",
			zap.Int("orders", len(batch)),
			zap.Error(err))
		return nil
	}

	util.NotificationsSentTotal.Inc()
	s.logger.Info("Due-date alert sent",
		zap.Int("orders", len(batch)),
		zap.Int("days_before", settings.DaysBefore))

	orderIDs := make([]int64, len(batch))
	for i, o := range batch {
		orderIDs[i] = o.ID
	}
	event := &models.DueDateAlertEvent{
		BaseEvent:  newBaseEvent(models.EventTypeDueDateAlert),
		OrderIDs:   orderIDs,
		DaysBefore: settings.DaysBefore,
	}
	if err := s.events.PublishDueDateAlert(ctx, event); err != nil {
		s.logger.Error("Failed to publish DueDateAlert event", zap.Error(err))
	}
	return nil
}

// GetSettings returns the singleton notification settings.
func (s *NotifyService) GetSettings(ctx context.Context) (*models.EmailSettings, error) {
	return s.store.GetEmailSettings(ctx)
}

// SettingsInput carries a partial settings update; nil fields are left
// unchanged. The app password is only overwritten when non-empty.
type SettingsInput struct {
	Enabled       *bool   `json:"enabled"`
	SenderEmail   *string `json:"sender_email"`
	AppPassword   *string `json:"app_password"`
	ReceiverEmail *string `json:"receiver_email"`
	DaysBefore    *int    `json:"days_before"`
}

// UpdateSettings applies a partial update to the notification settings.
func (s *NotifyService) UpdateSettings(ctx context.Context, in SettingsInput) (*models.EmailSettings, error) {
	settings, err := s.store.GetEmailSettings(ctx)
	if err != nil {
		return nil, err
	}

	if in.DaysBefore != nil {
		if *in.DaysBefore < 0 {
			return nil, &ValidationError{Field: "days_before", Reason: "must not be negative"}
		}
		settings.DaysBefore = *in.DaysBefore
	}
	if in.Enabled != nil {
		settings.Enabled = *in.Enabled
	}
	if in.SenderEmail != nil {
		settings.SenderEmail = *in.SenderEmail
	}
	if in.ReceiverEmail != nil {
		settings.ReceiverEmail = *in.ReceiverEmail
	}
	if in.AppPassword != nil && *in.AppPassword != "" {
		settings.AppPassword = *in.AppPassword
	}

	if err := s.store.SaveEmailSettings(ctx, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// SendTestEmail sends a fixed test message through the configured sender.
func (s *NotifyService) SendTestEmail(ctx context.Context) error {
	settings, err := s.store.GetEmailSettings(ctx)
	if err != nil {
		return err
	}
	if settings.SenderEmail == "" || settings.AppPassword == "" || len(settings.Recipients()) == 0 {
		return &ValidationError{Field: "email settings", Reason: "sender, password and receivers must be configured"}
	}

	body := "<h2>Test notification</h2><p>Email notifications are configured correctly.</p>"
	return s.mailer.Send(ctx, settings, "Test - Latice ERP", body, settings.Recipients())
}

func renderAlertBody(orders []models.Order, daysBefore int) string {
	var b strings.Builder
	b.WriteString("<h2>Orders with approaching due dates</h2>")
	fmt.Fprintf(&b, "<p>The following orders are due within the next %d days:</p>", daysBefore)
	b.WriteString(`<table border="1" cellpadding="8" cellspacing="0" style="border-collapse:collapse;">`)
	b.WriteString(`<tr style="background:#f0f0f0;"><th>Name</th><th>Customer</th><th>Date</th><th>Price</th><th>Description</th></tr>`)
	for _, o := range orders {
		description := html.EscapeString(o.Description)
		description = strings.ReplaceAll(description, "\r\n", "<br>")
		description = strings.ReplaceAll(description, "\n", "<br>")
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%s</td><td><strong>%s</strong></td><td>%.2f</td><td>%s</td></tr>",
			html.EscapeString(o.Name), html.EscapeString(o.Customer), o.DueDate, o.Price, description)
	}
	b.WriteString("</table>")
	b.WriteString(`<br><p style="color:#888;">Latice ERP - automatic notification</p>`)
	return b.String()
}

func truncateToDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
