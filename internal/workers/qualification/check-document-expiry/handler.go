// internal/workers/qualification/check-document-expiry/handler.go
package checkdocumentexpiry

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	commonaws "procurement-workers/internal/common/aws"
	"procurement-workers/internal/common/errors"
	"procurement-workers/internal/common/logger"
	"procurement-workers/internal/common/metrics"
	"procurement-workers/internal/qualification"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"golang.org/x/sync/errgroup"
)

const TaskType = "check-document-expiry"

const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

// Notification statuses.
const (
	StatusSent    = "sent"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

var ErrMissingVendorID = stderrors.New("vendorId is required")

// EmailSender is satisfied by aws.SESClient.
type EmailSender interface {
	SendText(ctx context.Context, to, subject, body string) (string, error)
}

// SMSSender is satisfied by aws.SNSClient.
type SMSSender interface {
	SendSMS(ctx context.Context, phone, message string) (string, error)
}

type Handler struct {
	config  *Config
	catalog *qualification.Catalog
	email   EmailSender
	sms     SMSSender
	now     func() time.Time
	errors  *errors.ErrorHandler
	logger  logger.Logger
}

// NewHandler builds the handler. A nil sender disables its channel.
func NewHandler(config *Config, email EmailSender, sms SMSSender, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:  config,
		catalog: qualification.DefaultCatalog(),
		email:   email,
		sms:     sms,
		now:     time.Now,
		errors:  errors.NewErrorHandler(log),
		logger:  log,
	}
}

// WithClock replaces the time source used to decide expiry.
func (h *Handler) WithClock(now func() time.Time) *Handler {
	h.now = now
	return h
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	timer := metrics.StartJob(TaskType)
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":             job.Key,
		"processInstanceKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := h.parseInput(job)
	if err != nil {
		timer.Done(h.errors.HandleJobError(ctx, client, job, err).Code)
		return
	}

	output, err := h.execute(ctx, input)
	if err != nil {
		timer.Done(h.errors.HandleJobError(ctx, client, job, err).Code)
		return
	}

	cmd, err := client.NewCompleteJobCommand().JobKey(job.Key).VariablesFromObject(output)
	if err == nil {
		_, err = cmd.Send(ctx)
	}
	if err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{"jobKey": job.Key, "error": err})
		timer.Done("COMPLETE_FAILED")
		return
	}
	timer.Done("")
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		return nil, errors.NewInputParsingFailedError(err)
	}
	return &input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if strings.TrimSpace(input.VendorID) == "" {
		return nil, errors.NewInputParsingFailedError(ErrMissingVendorID)
	}

	out := h.scan(input)
	h.logger.Info("document expiry checked", map[string]interface{}{
		"vendorId":     input.VendorID,
		"expired":      len(out.Expired),
		"expiringSoon": len(out.ExpiringSoon),
		"invalidDates": len(out.InvalidDates),
	})

	if input.Notify != nil && !*input.Notify {
		return out, nil
	}
	if len(out.Expired) == 0 && len(out.ExpiringSoon) == 0 {
		return out, nil
	}

	notes, err := h.notify(ctx, input, out)
	out.Notifications = notes
	if err != nil {
		return nil, err
	}
	return out, nil
}

// scan sorts the vendor's dated documents into expired and expiring soon.
// Documents whose catalog entry carries no expiry are ignored.
func (h *Handler) scan(input *Input) *Output {
	loc := h.config.Location
	if loc == nil {
		loc = time.Local
	}
	today := qualification.StartOfDay(h.now().In(loc))
	horizon := today.AddDate(0, 0, h.config.WarningDays)

	out := &Output{
		VendorID:     input.VendorID,
		Expired:      []ExpiringDocument{},
		ExpiringSoon: []ExpiringDocument{},
	}

	keys := make([]string, 0, len(input.Documents))
	for k := range input.Documents {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		entry := input.Documents[key]
		req, ok := h.catalog.Requirement(key)
		if !ok || !req.HasExpiry || strings.TrimSpace(entry.ExpiryDate) == "" {
			continue
		}
		expiry, ok := qualification.ParseDate(entry.ExpiryDate, loc)
		if !ok {
			out.InvalidDates = append(out.InvalidDates, key)
			continue
		}

		doc := ExpiringDocument{
			Key:           key,
			Label:         req.Label,
			ExpiryDate:    expiry.Format("2006-01-02"),
			DaysRemaining: int(math.Round(expiry.Sub(today).Hours() / 24)),
		}
		switch {
		case expiry.Before(today):
			out.Expired = append(out.Expired, doc)
		case !expiry.After(horizon):
			out.ExpiringSoon = append(out.ExpiringSoon, doc)
		}
	}
	out.HasExpired = len(out.Expired) > 0
	return out
}

// notify sends the email and SMS reminders concurrently and reports each
// channel separately, email first. It fails only when nothing was delivered,
// so a retried job never repeats a message that already went out.
func (h *Handler) notify(ctx context.Context, input *Input, out *Output) ([]Notification, error) {
	var emailNote, smsNote *Notification
	name := input.LegalName
	if name == "" {
		name = input.VendorID
	}

	// Each channel records its own outcome; one failing never cancels the other.
	var g errgroup.Group

	if h.config.EmailEnabled && h.email != nil && input.Contact.Email != "" {
		to := input.Contact.Email
		g.Go(func() error {
			subject := fmt.Sprintf("Qualification documents require attention: %s", name)
			emailNote = h.send(ChannelEmail, to, func() (string, error) {
				return h.email.SendText(ctx, to, subject, emailBody(name, out))
			})
			return nil
		})
	}

	if h.config.SMSEnabled && h.sms != nil && input.Contact.Phone != "" {
		phone := qualification.NormalizeSaudiMobile(input.Contact.Phone)
		if phone.Valid {
			g.Go(func() error {
				smsNote = h.send(ChannelSMS, phone.Normalized, func() (string, error) {
					return h.sms.SendSMS(ctx, phone.Normalized, smsBody(out))
				})
				return nil
			})
		} else {
			h.logger.Warn("skipping sms, phone is not a Saudi mobile", map[string]interface{}{
				"vendorId": input.VendorID,
			})
			metrics.ExpiryNotifications.WithLabelValues(ChannelSMS, StatusSkipped).Inc()
		}
	}

	_ = g.Wait()

	var (
		notes    []Notification
		failed   []string
		errs     []error
		sent     int
		rejected = true
	)
	for _, n := range []*Notification{emailNote, smsNote} {
		if n == nil {
			continue
		}
		notes = append(notes, *n)
		if n.Status == StatusSent {
			sent++
			continue
		}
		failed = append(failed, n.Channel)
		errs = append(errs, n.err)
		rejected = rejected && stderrors.Is(n.err, commonaws.ErrRejected)
	}

	if len(failed) == 0 {
		return notes, nil
	}
	if sent > 0 {
		h.logger.Warn("reminder partially delivered", map[string]interface{}{
			"vendorId":       input.VendorID,
			"failedChannels": failed,
			"error":          stderrors.Join(errs...),
		})
		return notes, nil
	}

	channels := strings.Join(failed, ",")
	if rejected {
		return notes, errors.NewNotificationRejectedError(channels, stderrors.Join(errs...))
	}
	return notes, errors.NewNotificationSendFailedError(channels, stderrors.Join(errs...))
}

// send runs one channel and turns the outcome into a Notification.
func (h *Handler) send(channel, recipient string, fn func() (string, error)) *Notification {
	id, err := fn()
	if err != nil {
		metrics.ExpiryNotifications.WithLabelValues(channel, StatusFailed).Inc()
		return &Notification{Channel: channel, Recipient: recipient, Status: StatusFailed, Error: err.Error(), err: err}
	}
	metrics.ExpiryNotifications.WithLabelValues(channel, StatusSent).Inc()
	return &Notification{Channel: channel, Recipient: recipient, Status: StatusSent, MessageID: id}
}

func emailBody(name string, out *Output) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", name)
	if len(out.Expired) > 0 {
		b.WriteString("The following qualification documents have expired:\n")
		for _, d := range out.Expired {
			fmt.Fprintf(&b, "  - %s (expired %s)\n", d.Label, d.ExpiryDate)
		}
		b.WriteString("\n")
	}
	if len(out.ExpiringSoon) > 0 {
		b.WriteString("The following documents expire soon:\n")
		for _, d := range out.ExpiringSoon {
			fmt.Fprintf(&b, "  - %s (expires %s, %d day(s) left)\n", d.Label, d.ExpiryDate, d.DaysRemaining)
		}
		b.WriteString("\n")
	}
	b.WriteString("Please upload renewed copies through the vendor portal to keep your qualification active.\n")
	return b.String()
}

func smsBody(out *Output) string {
	return fmt.Sprintf("Vendor portal: %d document(s) expired, %d expiring soon. Please upload renewed copies.",
		len(out.Expired), len(out.ExpiringSoon))
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
