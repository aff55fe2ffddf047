package notification

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/booking-portal/internal/application"
	"github.com/example/booking-portal/internal/metrics"
)

// Dispatcher implements the booking service's notifier port. Each event is
// formatted into one email and sent on its own goroutine with a bounded
// timeout, detached from the request context so an answered request cannot
// cancel its own notification.
type Dispatcher struct {
	mailer  Mailer
	timeout time.Duration
	logger  zerolog.Logger

	mu     sync.Mutex
	wg     sync.WaitGroup
	closed bool
}

// NewDispatcher wraps a mailer in asynchronous dispatch.
func NewDispatcher(mailer Mailer, timeout time.Duration, logger zerolog.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Dispatcher{mailer: mailer, timeout: timeout, logger: logger}
}

// BookingCreated announces a new booking or series to its owner and attendees.
func (d *Dispatcher) BookingCreated(ctx context.Context, details []application.BookingDetails) {
	if d == nil || len(details) == 0 {
		return
	}
	subject, body := composeCreated(details)
	d.dispatch(ctx, subject, body, recipients(details[0]))
}

// BookingUpdated announces a rescheduled or edited booking.
func (d *Dispatcher) BookingUpdated(ctx context.Context, details application.BookingDetails) {
	if d == nil {
		return
	}
	subject, body := composeUpdated(details)
	d.dispatch(ctx, subject, body, recipients(details))
}

// BookingCancelled announces a cancellation.
func (d *Dispatcher) BookingCancelled(ctx context.Context, details application.BookingDetails) {
	if d == nil {
		return
	}
	subject, body := composeCancelled(details)
	d.dispatch(ctx, subject, body, recipients(details))
}

// Close stops accepting events and waits for in-flight sends. Each send is
// bounded by the dispatch timeout, so the wait is too.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) dispatch(ctx context.Context, subject, body string, to []string) {
	if len(to) == 0 {
		return
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()

		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()

		if err := d.mailer.Send(sendCtx, Message{To: to, Subject: subject, Body: body}); err != nil {
			metrics.RecordEmail(metrics.EmailOutcomeFailed)
			d.logger.Error().Err(err).Str("subject", subject).Int("recipients", len(to)).Msg("notification email failed")
			return
		}
		metrics.RecordEmail(metrics.EmailOutcomeSent)
	}()
}

// recipients collects the owner plus attendees, deduplicated
// case-insensitively, blanks dropped.
func recipients(details application.BookingDetails) []string {
	candidates := make([]string, 0, len(details.Booking.Attendees)+1)
	candidates = append(candidates, details.Owner.Email)
	candidates = append(candidates, details.Booking.Attendees...)

	seen := make(map[string]struct{}, len(candidates))
	out := make([]string, 0, len(candidates))
	for _, addr := range candidates {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		key := strings.ToLower(addr)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, addr)
	}
	return out
}

func composeCreated(details []application.BookingDetails) (string, string) {
	first := details[0]
	subject := "Booking confirmed: " + first.Booking.Title
	if len(details) > 1 {
		subject = fmt.Sprintf("Booking series confirmed: %s (%d occurrences)", first.Booking.Title, len(details))
	}

	var b strings.Builder
	b.WriteString("Your meeting room booking has been confirmed.\r\n\r\n")
	writeSummary(&b, first)
	if len(details) > 1 {
		b.WriteString("Dates:\r\n")
		for _, d := range details {
			fmt.Fprintf(&b, "  %s %s-%s\r\n", d.Booking.Date, d.Booking.StartTime, d.Booking.EndTime)
		}
	}
	return subject, b.String()
}

func composeUpdated(details application.BookingDetails) (string, string) {
	var b strings.Builder
	b.WriteString("Your meeting room booking has been updated.\r\n\r\n")
	writeSummary(&b, details)
	return "Booking updated: " + details.Booking.Title, b.String()
}

func composeCancelled(details application.BookingDetails) (string, string) {
	var b strings.Builder
	b.WriteString("The following meeting room booking has been cancelled.\r\n\r\n")
	writeSummary(&b, details)
	return "Booking cancelled: " + details.Booking.Title, b.String()
}

func writeSummary(b *strings.Builder, details application.BookingDetails) {
	fmt.Fprintf(b, "Title: %s\r\n", details.Booking.Title)
	fmt.Fprintf(b, "Room:  %s (floor %d)\r\n", details.Room.Name, details.Room.Floor)
	fmt.Fprintf(b, "Date:  %s\r\n", details.Booking.Date)
	fmt.Fprintf(b, "Time:  %s-%s\r\n", details.Booking.StartTime, details.Booking.EndTime)
	if details.Booking.Description != "" {
		fmt.Fprintf(b, "Notes: %s\r\n", details.Booking.Description)
	}
	if len(details.Booking.Attendees) > 0 {
		fmt.Fprintf(b, "Attendees: %s\r\n", strings.Join(details.Booking.Attendees, ", "))
	}
	b.WriteString("\r\n")
}

// Discard is the notifier used when no SMTP relay is configured.
type Discard struct{}

// BookingCreated does nothing.
func (Discard) BookingCreated(context.Context, []application.BookingDetails) {}

// BookingUpdated does nothing.
func (Discard) BookingUpdated(context.Context, application.BookingDetails) {}

// BookingCancelled does nothing.
func (Discard) BookingCancelled(context.Context, application.BookingDetails) {}
