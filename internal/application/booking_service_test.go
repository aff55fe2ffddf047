package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/example/booking-portal/internal/persistence"
	"github.com/example/booking-portal/internal/recurrence"
)

var otherUserPrincipal = Principal{UserID: "user-2", Role: RoleUser}

type bookingFixture struct {
	store    *bookingStoreStub
	rooms    *roomCatalogStub
	notifier *notifierStub
	now      time.Time
	service  *BookingService
}

func newBookingFixture() *bookingFixture {
	return newBookingFixtureWithLimits(BookingLimits{})
}

func newBookingFixtureWithLimits(limits BookingLimits) *bookingFixture {
	f := &bookingFixture{
		store:    newBookingStoreStub(),
		rooms:    newRoomCatalogStub(),
		notifier: &notifierStub{},
		now:      time.Date(2024, time.January, 10, 9, 0, 0, 0, time.UTC),
	}

	seq := 0
	idGenerator := func() string {
		seq++
		return fmt.Sprintf("id-%d", seq)
	}
	f.service = NewBookingService(f.store, f.rooms, f.notifier, limits, idGenerator, func() time.Time {
		return f.now
	})
	return f
}

// seedBooking stores a booking directly, bypassing the service.
func (f *bookingFixture) seedBooking(id, owner, roomID, date, start, end string, status BookingStatus) Booking {
	booking := Booking{
		ID:        id,
		Title:     "Seeded",
		UserID:    owner,
		RoomID:    roomID,
		Date:      date,
		StartTime: start,
		EndTime:   end,
		Status:    status,
		CreatedAt: f.now,
		UpdatedAt: f.now,
	}
	f.store.bookings[id] = booking
	return booking
}

func validBookingInput() BookingInput {
	return BookingInput{
		Title:     "Weekly Sync",
		RoomID:    "room-1",
		Date:      "2024-01-10",
		StartTime: "09:00",
		EndTime:   "10:00",
		Attendees: []string{"carol@example.com"},
	}
}

func TestBookingService_CreateBooking(t *testing.T) {
	t.Parallel()

	t.Run("creates a single confirmed booking", func(t *testing.T) {
		t.Parallel()

		f := newBookingFixture()
		input := validBookingInput()
		input.Title = "  Weekly Sync  "
		input.Attendees = []string{" carol@example.com ", ""}

		created, err := f.service.CreateBooking(context.Background(), CreateBookingParams{
			Principal: userPrincipal,
			Input:     input,
		})
		if err != nil {
			t.Fatalf("CreateBooking failed: %v", err)
		}
		if len(created) != 1 {
			t.Fatalf("expected one booking, got %d", len(created))
		}

		booking := created[0].Booking
		if booking.Title != "Weekly Sync" {
			t.Fatalf("expected trimmed title, got %q", booking.Title)
		}
		if booking.Status != BookingStatusConfirmed {
			t.Fatalf("expected confirmed status, got %q", booking.Status)
		}
		if booking.SeriesID != "" {
			t.Fatalf("expected no series for a single booking, got %q", booking.SeriesID)
		}
		if len(booking.Attendees) != 1 || booking.Attendees[0] != "carol@example.com" {
			t.Fatalf("expected normalized attendees, got %v", booking.Attendees)
		}
		if created[0].Owner.Username != "alice" || created[0].Room.Name != "Aurora" {
			t.Fatalf("expected joined owner and room details, got %+v", created[0])
		}
		if _, ok := f.store.bookings[booking.ID]; !ok {
			t.Fatal("expected the booking to be stored")
		}
		if len(f.notifier.created) != 1 || len(f.notifier.created[0]) != 1 {
			t.Fatalf("expected one creation notification, got %v", f.notifier.created)
		}
	})

	t.Run("rejects an overlapping slot with the blocking booking", func(t *testing.T) {
		t.Parallel()

		f := newBookingFixture()
		f.seedBooking("existing-1", "user-2", "room-1", "2024-01-10", "09:00", "10:00", BookingStatusConfirmed)

		input := validBookingInput()
		input.StartTime = "09:30"
		input.EndTime = "10:30"

		_, err := f.service.CreateBooking(context.Background(), CreateBookingParams{
			Principal: userPrincipal,
			Input:     input,
		})
		var conflict *ConflictError
		if !errors.As(err, &conflict) {
			t.Fatalf("expected ConflictError, got %v", err)
		}
		if len(conflict.Conflicts) != 1 || conflict.Conflicts[0].BookingID != "existing-1" {
			t.Fatalf("expected the blocking booking to be named, got %+v", conflict.Conflicts)
		}
		if len(f.store.bookings) != 1 {
			t.Fatalf("expected no new rows after a conflict, got %d", len(f.store.bookings))
		}
		if len(f.notifier.created) != 0 {
			t.Fatal("expected no notification for a rejected booking")
		}
	})

	t.Run("accepts a slot touching an existing boundary", func(t *testing.T) {
		t.Parallel()

		f := newBookingFixture()
		f.seedBooking("existing-1", "user-2", "room-1", "2024-01-10", "09:00", "10:00", BookingStatusConfirmed)

		input := validBookingInput()
		input.StartTime = "10:00"
		input.EndTime = "11:00"

		created, err := f.service.CreateBooking(context.Background(), CreateBookingParams{
			Principal: userPrincipal,
			Input:     input,
		})
		if err != nil {
			t.Fatalf("expected boundary touch to succeed, got %v", err)
		}
		if len(created) != 1 {
			t.Fatalf("expected one booking, got %d", len(created))
		}
	})

	t.Run("ignores cancelled bookings when checking the slot", func(t *testing.T) {
		t.Parallel()

		f := newBookingFixture()
		f.seedBooking("cancelled-1", "user-2", "room-1", "2024-01-10", "09:00", "10:00", BookingStatusCancelled)

		_, err := f.service.CreateBooking(context.Background(), CreateBookingParams{
			Principal: userPrincipal,
			Input:     validBookingInput(),
		})
		if err != nil {
			t.Fatalf("expected cancelled booking to free the slot, got %v", err)
		}
	})

	t.Run("allows a booking ending at midnight", func(t *testing.T) {
		t.Parallel()

		f := newBookingFixture()
		input := validBookingInput()
		input.StartTime = "23:00"
		input.EndTime = "24:00"

		if _, err := f.service.CreateBooking(context.Background(), CreateBookingParams{
			Principal: userPrincipal,
			Input:     input,
		}); err != nil {
			t.Fatalf("expected midnight end to be accepted, got %v", err)
		}
	})

	t.Run("expands a weekly recurrence into a series", func(t *testing.T) {
		t.Parallel()

		f := newBookingFixture()
		input := validBookingInput()
		input.Recurrence = recurrence.Rule{Frequency: recurrence.FrequencyWeekly, Interval: 1, Count: 3}

		created, err := f.service.CreateBooking(context.Background(), CreateBookingParams{
			Principal: userPrincipal,
			Input:     input,
		})
		if err != nil {
			t.Fatalf("CreateBooking failed: %v", err)
		}
		if len(created) != 3 {
			t.Fatalf("expected three occurrences, got %d", len(created))
		}

		wantDates := []string{"2024-01-10", "2024-01-17", "2024-01-24"}
		for i, details := range created {
			if details.Booking.Date != wantDates[i] {
				t.Fatalf("expected occurrence %d on %s, got %s", i, wantDates[i], details.Booking.Date)
			}
			if details.Booking.SeriesID == "" {
				t.Fatal("expected every occurrence to carry the series id")
			}
		}

		series, ok := f.store.series[created[0].Booking.SeriesID]
		if !ok {
			t.Fatal("expected the series record to be stored")
		}
		if series.Rule.Frequency != recurrence.FrequencyWeekly || series.Rule.Count != 3 {
			t.Fatalf("expected the rule to be persisted, got %+v", series.Rule)
		}
		if series.CreatedBy != userPrincipal.UserID {
			t.Fatalf("expected the series creator to be recorded, got %q", series.CreatedBy)
		}
		if len(f.notifier.created) != 1 || len(f.notifier.created[0]) != 3 {
			t.Fatalf("expected one notification covering the series, got %v", f.notifier.created)
		}
	})

	t.Run("rejects the whole series when one occurrence conflicts", func(t *testing.T) {
		t.Parallel()

		f := newBookingFixture()
		f.seedBooking("existing-1", "user-2", "room-1", "2024-01-24", "09:00", "10:00", BookingStatusConfirmed)

		input := validBookingInput()
		input.Recurrence = recurrence.Rule{Frequency: recurrence.FrequencyWeekly, Interval: 1, Count: 3}

		_, err := f.service.CreateBooking(context.Background(), CreateBookingParams{
			Principal: userPrincipal,
			Input:     input,
		})
		var conflict *ConflictError
		if !errors.As(err, &conflict) {
			t.Fatalf("expected ConflictError, got %v", err)
		}
		if len(conflict.Conflicts) != 1 || conflict.Conflicts[0].Date != "2024-01-24" {
			t.Fatalf("expected the failing date to be named, got %+v", conflict.Conflicts)
		}
		if len(f.store.bookings) != 1 {
			t.Fatalf("expected no partial series, got %d rows", len(f.store.bookings))
		}
		if len(f.store.series) != 0 {
			t.Fatal("expected no series record after a conflict")
		}
	})

	t.Run("collects field errors for malformed input", func(t *testing.T) {
		t.Parallel()

		f := newBookingFixture()

		_, err := f.service.CreateBooking(context.Background(), CreateBookingParams{
			Principal: userPrincipal,
			Input: BookingInput{
				Title:     "   ",
				RoomID:    "",
				Date:      "01/10/2024",
				StartTime: "9am",
				EndTime:   "late",
				Attendees: []string{"not-an-email"},
			},
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, field := range []string{"title", "roomId", "date", "startTime", "endTime", "attendees"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Errorf("expected a field error for %s, got %v", field, vErr.FieldErrors)
			}
		}
	})

	t.Run("rejects an inverted interval", func(t *testing.T) {
		t.Parallel()

		f := newBookingFixture()
		input := validBookingInput()
		input.StartTime = "10:00"
		input.EndTime = "09:00"

		_, err := f.service.CreateBooking(context.Background(), CreateBookingParams{
			Principal: userPrincipal,
			Input:     input,
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if _, ok := vErr.FieldErrors["endTime"]; !ok {
			t.Fatalf("expected an endTime error, got %v", vErr.FieldErrors)
		}
	})

	t.Run("enforces the duration limits", func(t *testing.T) {
		t.Parallel()

		f := newBookingFixture()

		short := validBookingInput()
		short.EndTime = "09:05"
		_, err := f.service.CreateBooking(context.Background(), CreateBookingParams{Principal: userPrincipal, Input: short})
		var vErr *ValidationError
		if !errors.As(err, &vErr) || !strings.Contains(vErr.FieldErrors["endTime"], "at least") {
			t.Fatalf("expected a minimum duration error, got %v", err)
		}

		long := validBookingInput()
		long.StartTime = "08:00"
		long.EndTime = "21:00"
		_, err = f.service.CreateBooking(context.Background(), CreateBookingParams{Principal: userPrincipal, Input: long})
		if !errors.As(err, &vErr) || !strings.Contains(vErr.FieldErrors["endTime"], "not exceed") {
			t.Fatalf("expected a maximum duration error, got %v", err)
		}
	})

	t.Run("enforces the attendee limit", func(t *testing.T) {
		t.Parallel()

		f := newBookingFixtureWithLimits(BookingLimits{MaxAttendees: 2})
		input := validBookingInput()
		input.Attendees = []string{"a@example.com", "b@example.com", "c@example.com"}

		_, err := f.service.CreateBooking(context.Background(), CreateBookingParams{
			Principal: userPrincipal,
			Input:     input,
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if _, ok := vErr.FieldErrors["attendees"]; !ok {
			t.Fatalf("expected an attendees error, got %v", vErr.FieldErrors)
		}
	})

	t.Run("rejects unknown and inactive rooms", func(t *testing.T) {
		t.Parallel()

		f := newBookingFixture()

		missing := validBookingInput()
		missing.RoomID = "room-404"
		_, err := f.service.CreateBooking(context.Background(), CreateBookingParams{Principal: userPrincipal, Input: missing})
		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.FieldErrors["roomId"] != "room does not exist" {
			t.Fatalf("expected a missing-room error, got %v", err)
		}

		inactive := validBookingInput()
		inactive.RoomID = "room-2"
		_, err = f.service.CreateBooking(context.Background(), CreateBookingParams{Principal: userPrincipal, Input: inactive})
		if !errors.As(err, &vErr) || vErr.FieldErrors["roomId"] != "room is inactive" {
			t.Fatalf("expected an inactive-room error, got %v", err)
		}
	})

	t.Run("rejects invalid recurrence rules", func(t *testing.T) {
		t.Parallel()

		f := newBookingFixture()

		cases := []struct {
			name string
			rule recurrence.Rule
		}{
			{"unknown frequency", recurrence.Rule{Frequency: "monthly", Interval: 1, Count: 2}},
			{"zero interval", recurrence.Rule{Frequency: recurrence.FrequencyDaily, Interval: 0, Count: 2}},
			{"unbounded", recurrence.Rule{Frequency: recurrence.FrequencyDaily, Interval: 1}},
			{"both bounds", recurrence.Rule{Frequency: recurrence.FrequencyDaily, Interval: 1, Count: 2, Until: "2024-02-01"}},
			{"too many occurrences", recurrence.Rule{Frequency: recurrence.FrequencyDaily, Interval: 1, Count: 60}},
		}
		for _, tc := range cases {
			input := validBookingInput()
			input.Recurrence = tc.rule

			_, err := f.service.CreateBooking(context.Background(), CreateBookingParams{Principal: userPrincipal, Input: input})
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("%s: expected ValidationError, got %v", tc.name, err)
			}
			if _, ok := vErr.FieldErrors["recurrence"]; !ok {
				t.Fatalf("%s: expected a recurrence error, got %v", tc.name, vErr.FieldErrors)
			}
		}
	})

	t.Run("requires an authenticated principal", func(t *testing.T) {
		t.Parallel()

		f := newBookingFixture()

		_, err := f.service.CreateBooking(context.Background(), CreateBookingParams{
			Input: validBookingInput(),
		})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})
}

func TestBookingService_UpdateBooking(t *testing.T) {
	t.Parallel()

	title := func(v string) *string { return &v }
	clock := func(v string) *string { return &v }

	t.Run("merges partial fields over the stored booking", func(t *testing.T) {
		t.Parallel()

		f := newBookingFixture()
		f.seedBooking("b-1", "user-1", "room-1", "2024-01-10", "09:00", "10:00", BookingStatusConfirmed)
		f.now = f.now.Add(30 * time.Minute)

		details, err := f.service.UpdateBooking(context.Background(), UpdateBookingParams{
			Principal: userPrincipal,
			BookingID: "b-1",
			Update:    BookingUpdate{Title: title("Planning Review"), EndTime: clock("09:30")},
		})
		if err != nil {
			t.Fatalf("UpdateBooking failed: %v", err)
		}
		if details.Booking.Title != "Planning Review" || details.Booking.EndTime != "09:30" {
			t.Fatalf("expected merged fields, got %+v", details.Booking)
		}
		if details.Booking.StartTime != "09:00" {
			t.Fatalf("expected untouched fields to survive, got %q", details.Booking.StartTime)
		}
		stored := f.store.bookings["b-1"]
		if !stored.UpdatedAt.Equal(f.now) {
			t.Fatalf("expected updated timestamp, got %v", stored.UpdatedAt)
		}
		if len(f.notifier.updated) != 1 {
			t.Fatalf("expected one update notification, got %d", len(f.notifier.updated))
		}
	})

	t.Run("allows rewriting a booking onto its own slot", func(t *testing.T) {
		t.Parallel()

		f := newBookingFixture()
		f.seedBooking("b-1", "user-1", "room-1", "2024-01-10", "09:00", "10:00", BookingStatusConfirmed)

		_, err := f.service.UpdateBooking(context.Background(), UpdateBookingParams{
			Principal: userPrincipal,
			BookingID: "b-1",
			Update:    BookingUpdate{StartTime: clock("09:00"), EndTime: clock("10:00")},
		})
		if err != nil {
			t.Fatalf("expected the booking's own slot to be excluded from the check, got %v", err)
		}
	})

	t.Run("rejects moving onto another confirmed booking", func(t *testing.T) {
		t.Parallel()

		f := newBookingFixture()
		f.seedBooking("b-1", "user-1", "room-1", "2024-01-10", "09:00", "10:00", BookingStatusConfirmed)
		f.seedBooking("b-2", "user-2", "room-1", "2024-01-10", "10:00", "11:00", BookingStatusConfirmed)

		_, err := f.service.UpdateBooking(context.Background(), UpdateBookingParams{
			Principal: userPrincipal,
			BookingID: "b-1",
			Update:    BookingUpdate{EndTime: clock("10:30")},
		})
		var conflict *ConflictError
		if !errors.As(err, &conflict) {
			t.Fatalf("expected ConflictError, got %v", err)
		}
		if len(conflict.Conflicts) != 1 || conflict.Conflicts[0].BookingID != "b-2" {
			t.Fatalf("expected b-2 to block the move, got %+v", conflict.Conflicts)
		}
		if f.store.bookings["b-1"].EndTime != "10:00" {
			t.Fatal("expected the stored booking to be unchanged after a conflict")
		}
	})

	t.Run("rejects edits to cancelled bookings", func(t *testing.T) {
		t.Parallel()

		f := newBookingFixture()
		f.seedBooking("b-1", "user-1", "room-1", "2024-01-10", "09:00", "10:00", BookingStatusCancelled)

		_, err := f.service.UpdateBooking(context.Background(), UpdateBookingParams{
			Principal: userPrincipal,
			BookingID: "b-1",
			Update:    BookingUpdate{Title: title("Rescheduled")},
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if _, ok := vErr.FieldErrors["status"]; !ok {
			t.Fatalf("expected a status error, got %v", vErr.FieldErrors)
		}
	})

	t.Run("rejects non-owners", func(t *testing.T) {
		t.Parallel()

		f := newBookingFixture()
		f.seedBooking("b-1", "user-1", "room-1", "2024-01-10", "09:00", "10:00", BookingStatusConfirmed)

		_, err := f.service.UpdateBooking(context.Background(), UpdateBookingParams{
			Principal: otherUserPrincipal,
			BookingID: "b-1",
			Update:    BookingUpdate{Title: title("Hijacked")},
		})
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
		if f.store.bookings["b-1"].Title != "Seeded" {
			t.Fatal("expected the booking to be untouched")
		}
	})

	t.Run("allows administrators to edit any booking", func(t *testing.T) {
		t.Parallel()

		f := newBookingFixture()
		f.seedBooking("b-1", "user-1", "room-1", "2024-01-10", "09:00", "10:00", BookingStatusConfirmed)

		details, err := f.service.UpdateBooking(context.Background(), UpdateBookingParams{
			Principal: adminPrincipal,
			BookingID: "b-1",
			Update:    BookingUpdate{Title: title("Moved by facilities")},
		})
		if err != nil {
			t.Fatalf("UpdateBooking failed: %v", err)
		}
		if details.Booking.Title != "Moved by facilities" {
			t.Fatalf("expected the admin edit to apply, got %q", details.Booking.Title)
		}
	})

	t.Run("returns not found for unknown bookings", func(t *testing.T) {
		t.Parallel()

		f := newBookingFixture()

		_, err := f.service.UpdateBooking(context.Background(), UpdateBookingParams{
			Principal: userPrincipal,
			BookingID: "missing",
			Update:    BookingUpdate{Title: title("New")},
		})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("checks the room only when it changes", func(t *testing.T) {
		t.Parallel()

		f := newBookingFixture()
		f.seedBooking("b-1", "user-1", "room-1", "2024-01-10", "09:00", "10:00", BookingStatusConfirmed)

		inactive := "room-2"
		_, err := f.service.UpdateBooking(context.Background(), UpdateBookingParams{
			Principal: userPrincipal,
			BookingID: "b-1",
			Update:    BookingUpdate{RoomID: &inactive},
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.FieldErrors["roomId"] != "room is inactive" {
			t.Fatalf("expected an inactive-room error, got %v", err)
		}

		// Deactivating the current room must not lock the booking.
		room := f.rooms.rooms["room-1"]
		room.IsActive = false
		f.rooms.rooms["room-1"] = room

		if _, err := f.service.UpdateBooking(context.Background(), UpdateBookingParams{
			Principal: userPrincipal,
			BookingID: "b-1",
			Update:    BookingUpdate{Title: title("Still here")},
		}); err != nil {
			t.Fatalf("expected edits in a deactivated room to succeed, got %v", err)
		}
	})

	t.Run("replaces the attendee list when provided", func(t *testing.T) {
		t.Parallel()

		f := newBookingFixture()
		booking := f.seedBooking("b-1", "user-1", "room-1", "2024-01-10", "09:00", "10:00", BookingStatusConfirmed)
		booking.Attendees = []string{"carol@example.com"}
		f.store.bookings["b-1"] = booking

		attendees := []string{" dave@example.com ", ""}
		details, err := f.service.UpdateBooking(context.Background(), UpdateBookingParams{
			Principal: userPrincipal,
			BookingID: "b-1",
			Update:    BookingUpdate{Attendees: &attendees},
		})
		if err != nil {
			t.Fatalf("UpdateBooking failed: %v", err)
		}
		if len(details.Booking.Attendees) != 1 || details.Booking.Attendees[0] != "dave@example.com" {
			t.Fatalf("expected the attendee list to be replaced, got %v", details.Booking.Attendees)
		}
	})
}

func TestBookingService_CancelBooking(t *testing.T) {
	t.Parallel()

	t.Run("owner cancels a confirmed booking", func(t *testing.T) {
		t.Parallel()

		f := newBookingFixture()
		f.seedBooking("b-1", "user-1", "room-1", "2024-01-10", "09:00", "10:00", BookingStatusConfirmed)

		if err := f.service.CancelBooking(context.Background(), userPrincipal, "b-1"); err != nil {
			t.Fatalf("CancelBooking failed: %v", err)
		}
		if f.store.bookings["b-1"].Status != BookingStatusCancelled {
			t.Fatal("expected the booking to be cancelled")
		}
		if len(f.notifier.cancelled) != 1 {
			t.Fatalf("expected one cancellation notification, got %d", len(f.notifier.cancelled))
		}
		if f.notifier.cancelled[0].Booking.Status != BookingStatusCancelled {
			t.Fatal("expected the notification to carry the cancelled state")
		}
	})

	t.Run("cancelling twice is a no-op", func(t *testing.T) {
		t.Parallel()

		f := newBookingFixture()
		f.seedBooking("b-1", "user-1", "room-1", "2024-01-10", "09:00", "10:00", BookingStatusConfirmed)

		if err := f.service.CancelBooking(context.Background(), userPrincipal, "b-1"); err != nil {
			t.Fatalf("first cancel failed: %v", err)
		}
		if err := f.service.CancelBooking(context.Background(), userPrincipal, "b-1"); err != nil {
			t.Fatalf("second cancel should be a no-op, got %v", err)
		}
		if len(f.notifier.cancelled) != 1 {
			t.Fatalf("expected a single notification, got %d", len(f.notifier.cancelled))
		}
	})

	t.Run("rejects non-owners", func(t *testing.T) {
		t.Parallel()

		f := newBookingFixture()
		f.seedBooking("b-1", "user-1", "room-1", "2024-01-10", "09:00", "10:00", BookingStatusConfirmed)

		if err := f.service.CancelBooking(context.Background(), otherUserPrincipal, "b-1"); !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
		if f.store.bookings["b-1"].Status != BookingStatusConfirmed {
			t.Fatal("expected the booking to stay confirmed")
		}
	})

	t.Run("allows administrators", func(t *testing.T) {
		t.Parallel()

		f := newBookingFixture()
		f.seedBooking("b-1", "user-1", "room-1", "2024-01-10", "09:00", "10:00", BookingStatusConfirmed)

		if err := f.service.CancelBooking(context.Background(), adminPrincipal, "b-1"); err != nil {
			t.Fatalf("CancelBooking failed: %v", err)
		}
	})

	t.Run("returns not found for unknown bookings", func(t *testing.T) {
		t.Parallel()

		f := newBookingFixture()

		if err := f.service.CancelBooking(context.Background(), userPrincipal, "missing"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestBookingService_CancelSeries(t *testing.T) {
	t.Parallel()

	seedSeries := func(f *bookingFixture) {
		for _, tc := range []struct {
			id     string
			date   string
			status BookingStatus
		}{
			{"s-1", "2024-01-10", BookingStatusConfirmed},
			{"s-2", "2024-01-17", BookingStatusConfirmed},
			{"s-3", "2024-01-24", BookingStatusCancelled},
		} {
			booking := f.seedBooking(tc.id, "user-1", "room-1", tc.date, "09:00", "10:00", tc.status)
			booking.SeriesID = "series-1"
			f.store.bookings[tc.id] = booking
		}
		f.store.series["series-1"] = BookingSeriesRecord{
			ID:        "series-1",
			Rule:      recurrence.Rule{Frequency: recurrence.FrequencyWeekly, Interval: 1, Count: 3},
			CreatedBy: "user-1",
			CreatedAt: f.now,
		}
	}

	t.Run("cancels every confirmed member", func(t *testing.T) {
		t.Parallel()

		f := newBookingFixture()
		seedSeries(f)

		cancelled, err := f.service.CancelSeries(context.Background(), userPrincipal, "series-1")
		if err != nil {
			t.Fatalf("CancelSeries failed: %v", err)
		}
		if cancelled != 2 {
			t.Fatalf("expected two newly cancelled bookings, got %d", cancelled)
		}
		for _, id := range []string{"s-1", "s-2", "s-3"} {
			if f.store.bookings[id].Status != BookingStatusCancelled {
				t.Fatalf("expected %s to be cancelled", id)
			}
		}
		if len(f.notifier.cancelled) != 1 {
			t.Fatalf("expected one cancellation notification, got %d", len(f.notifier.cancelled))
		}
	})

	t.Run("rejects non-owners", func(t *testing.T) {
		t.Parallel()

		f := newBookingFixture()
		seedSeries(f)

		if _, err := f.service.CancelSeries(context.Background(), otherUserPrincipal, "series-1"); !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
		if f.store.bookings["s-1"].Status != BookingStatusConfirmed {
			t.Fatal("expected the series to stay confirmed")
		}
	})

	t.Run("allows administrators", func(t *testing.T) {
		t.Parallel()

		f := newBookingFixture()
		seedSeries(f)

		cancelled, err := f.service.CancelSeries(context.Background(), adminPrincipal, "series-1")
		if err != nil {
			t.Fatalf("CancelSeries failed: %v", err)
		}
		if cancelled != 2 {
			t.Fatalf("expected two newly cancelled bookings, got %d", cancelled)
		}
	})

	t.Run("returns not found for unknown series", func(t *testing.T) {
		t.Parallel()

		f := newBookingFixture()

		if _, err := f.service.CancelSeries(context.Background(), userPrincipal, "series-404"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if _, err := f.service.CancelSeries(context.Background(), userPrincipal, ""); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound for an empty id, got %v", err)
		}
	})
}

func TestBookingService_GetBooking(t *testing.T) {
	t.Parallel()

	t.Run("owner reads their booking with details", func(t *testing.T) {
		t.Parallel()

		f := newBookingFixture()
		f.seedBooking("b-1", "user-1", "room-1", "2024-01-10", "09:00", "10:00", BookingStatusConfirmed)

		details, err := f.service.GetBooking(context.Background(), userPrincipal, "b-1")
		if err != nil {
			t.Fatalf("GetBooking failed: %v", err)
		}
		if details.Room.Name != "Aurora" || details.Owner.Username != "alice" {
			t.Fatalf("expected joined details, got %+v", details)
		}
	})

	t.Run("rejects other users", func(t *testing.T) {
		t.Parallel()

		f := newBookingFixture()
		f.seedBooking("b-1", "user-1", "room-1", "2024-01-10", "09:00", "10:00", BookingStatusConfirmed)

		if _, err := f.service.GetBooking(context.Background(), otherUserPrincipal, "b-1"); !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("allows administrators", func(t *testing.T) {
		t.Parallel()

		f := newBookingFixture()
		f.seedBooking("b-1", "user-1", "room-1", "2024-01-10", "09:00", "10:00", BookingStatusConfirmed)

		if _, err := f.service.GetBooking(context.Background(), adminPrincipal, "b-1"); err != nil {
			t.Fatalf("GetBooking failed: %v", err)
		}
	})

	t.Run("returns not found for unknown bookings", func(t *testing.T) {
		t.Parallel()

		f := newBookingFixture()

		if _, err := f.service.GetBooking(context.Background(), userPrincipal, "missing"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestBookingService_ListBookings(t *testing.T) {
	t.Parallel()

	seedListings := func(f *bookingFixture) {
		f.seedBooking("b-1", "user-1", "room-1", "2024-01-10", "09:00", "10:00", BookingStatusConfirmed)
		f.seedBooking("b-2", "user-1", "room-1", "2024-01-12", "09:00", "10:00", BookingStatusConfirmed)
		f.seedBooking("b-3", "user-2", "room-2", "2024-01-10", "10:00", "11:00", BookingStatusConfirmed)
		f.seedBooking("c-1", "user-1", "room-1", "2024-01-10", "11:00", "12:00", BookingStatusCancelled)
	}

	t.Run("restricts non-admins to their own bookings", func(t *testing.T) {
		t.Parallel()

		f := newBookingFixture()
		seedListings(f)

		bookings, err := f.service.ListBookings(context.Background(), ListBookingsParams{
			Principal: userPrincipal,
			OwnerID:   "user-2",
		})
		if err != nil {
			t.Fatalf("ListBookings failed: %v", err)
		}
		if len(bookings) != 2 {
			t.Fatalf("expected two own bookings, got %d", len(bookings))
		}
		for _, booking := range bookings {
			if booking.UserID != "user-1" {
				t.Fatalf("expected only own bookings, got %+v", booking)
			}
		}
	})

	t.Run("admins see everything ordered by date and time", func(t *testing.T) {
		t.Parallel()

		f := newBookingFixture()
		seedListings(f)

		bookings, err := f.service.ListBookings(context.Background(), ListBookingsParams{Principal: adminPrincipal})
		if err != nil {
			t.Fatalf("ListBookings failed: %v", err)
		}
		gotIDs := make([]string, 0, len(bookings))
		for _, booking := range bookings {
			gotIDs = append(gotIDs, booking.ID)
		}
		want := []string{"b-1", "b-3", "b-2"}
		if len(gotIDs) != len(want) {
			t.Fatalf("expected %v, got %v", want, gotIDs)
		}
		for i := range want {
			if gotIDs[i] != want[i] {
				t.Fatalf("expected %v, got %v", want, gotIDs)
			}
		}
	})

	t.Run("filters by room for admins", func(t *testing.T) {
		t.Parallel()

		f := newBookingFixture()
		seedListings(f)

		bookings, err := f.service.ListBookings(context.Background(), ListBookingsParams{
			Principal: adminPrincipal,
			RoomID:    "room-2",
		})
		if err != nil {
			t.Fatalf("ListBookings failed: %v", err)
		}
		if len(bookings) != 1 || bookings[0].ID != "b-3" {
			t.Fatalf("expected only room-2 bookings, got %+v", bookings)
		}
	})

	t.Run("includes cancelled rows on request", func(t *testing.T) {
		t.Parallel()

		f := newBookingFixture()
		seedListings(f)

		bookings, err := f.service.ListBookings(context.Background(), ListBookingsParams{
			Principal:        userPrincipal,
			IncludeCancelled: true,
		})
		if err != nil {
			t.Fatalf("ListBookings failed: %v", err)
		}
		if len(bookings) != 3 {
			t.Fatalf("expected cancelled rows to appear, got %d", len(bookings))
		}
	})
}

func TestBookingService_ListRoomSchedule(t *testing.T) {
	t.Parallel()

	t.Run("returns the room's confirmed day schedule", func(t *testing.T) {
		t.Parallel()

		f := newBookingFixture()
		f.seedBooking("b-1", "user-1", "room-1", "2024-01-10", "11:00", "12:00", BookingStatusConfirmed)
		f.seedBooking("b-2", "user-2", "room-1", "2024-01-10", "09:00", "10:00", BookingStatusConfirmed)
		f.seedBooking("b-3", "user-1", "room-1", "2024-01-11", "09:00", "10:00", BookingStatusConfirmed)
		f.seedBooking("b-4", "user-1", "room-2", "2024-01-10", "09:00", "10:00", BookingStatusConfirmed)
		f.seedBooking("c-1", "user-1", "room-1", "2024-01-10", "13:00", "14:00", BookingStatusCancelled)

		schedule, err := f.service.ListRoomSchedule(context.Background(), "room-1", "2024-01-10")
		if err != nil {
			t.Fatalf("ListRoomSchedule failed: %v", err)
		}
		if schedule.Room.Name != "Aurora" || schedule.Date != "2024-01-10" {
			t.Fatalf("expected room and date to be set, got %+v", schedule)
		}
		if len(schedule.Bookings) != 2 {
			t.Fatalf("expected two confirmed bookings, got %d", len(schedule.Bookings))
		}
		if schedule.Bookings[0].Booking.ID != "b-2" || schedule.Bookings[1].Booking.ID != "b-1" {
			t.Fatalf("expected start-time order, got %+v", schedule.Bookings)
		}
	})

	t.Run("keeps deactivated rooms queryable", func(t *testing.T) {
		t.Parallel()

		f := newBookingFixture()
		f.seedBooking("b-1", "user-1", "room-2", "2024-01-10", "09:00", "10:00", BookingStatusConfirmed)

		schedule, err := f.service.ListRoomSchedule(context.Background(), "room-2", "2024-01-10")
		if err != nil {
			t.Fatalf("ListRoomSchedule failed: %v", err)
		}
		if schedule.Room.IsActive {
			t.Fatal("expected the room to be inactive")
		}
		if len(schedule.Bookings) != 1 {
			t.Fatalf("expected historical bookings, got %d", len(schedule.Bookings))
		}
	})

	t.Run("requires a valid date", func(t *testing.T) {
		t.Parallel()

		f := newBookingFixture()

		_, err := f.service.ListRoomSchedule(context.Background(), "room-1", "Jan 10")
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if _, ok := vErr.FieldErrors["date"]; !ok {
			t.Fatalf("expected a date error, got %v", vErr.FieldErrors)
		}
	})

	t.Run("returns not found for unknown rooms", func(t *testing.T) {
		t.Parallel()

		f := newBookingFixture()

		if _, err := f.service.ListRoomSchedule(context.Background(), "room-404", "2024-01-10"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestBookingService_CheckAvailability(t *testing.T) {
	t.Parallel()

	t.Run("reports a free slot", func(t *testing.T) {
		t.Parallel()

		f := newBookingFixture()
		f.seedBooking("existing-1", "user-2", "room-1", "2024-01-10", "09:00", "10:00", BookingStatusConfirmed)

		result, err := f.service.CheckAvailability(context.Background(), AvailabilityQuery{
			RoomID:    "room-1",
			Date:      "2024-01-10",
			StartTime: "10:00",
			EndTime:   "11:00",
		})
		if err != nil {
			t.Fatalf("CheckAvailability failed: %v", err)
		}
		if !result.Available || len(result.Conflicts) != 0 {
			t.Fatalf("expected the slot to be free, got %+v", result)
		}
	})

	t.Run("reports the blocking bookings", func(t *testing.T) {
		t.Parallel()

		f := newBookingFixture()
		f.seedBooking("existing-1", "user-2", "room-1", "2024-01-10", "09:00", "10:00", BookingStatusConfirmed)

		result, err := f.service.CheckAvailability(context.Background(), AvailabilityQuery{
			RoomID:    "room-1",
			Date:      "2024-01-10",
			StartTime: "09:30",
			EndTime:   "10:30",
		})
		if err != nil {
			t.Fatalf("CheckAvailability failed: %v", err)
		}
		if result.Available {
			t.Fatal("expected the slot to be busy")
		}
		if len(result.Conflicts) != 1 {
			t.Fatalf("expected one conflict, got %d", len(result.Conflicts))
		}
		conflict := result.Conflicts[0]
		if conflict.BookingID != "existing-1" || conflict.Date != "2024-01-10" || conflict.StartTime != "09:00" || conflict.EndTime != "10:00" {
			t.Fatalf("expected the blocking slot to be described, got %+v", conflict)
		}
	})

	t.Run("excludes the booking being edited", func(t *testing.T) {
		t.Parallel()

		f := newBookingFixture()
		f.seedBooking("existing-1", "user-1", "room-1", "2024-01-10", "09:00", "10:00", BookingStatusConfirmed)

		result, err := f.service.CheckAvailability(context.Background(), AvailabilityQuery{
			RoomID:           "room-1",
			Date:             "2024-01-10",
			StartTime:        "09:30",
			EndTime:          "10:30",
			ExcludeBookingID: "existing-1",
		})
		if err != nil {
			t.Fatalf("CheckAvailability failed: %v", err)
		}
		if !result.Available {
			t.Fatalf("expected the excluded booking to be ignored, got %+v", result)
		}
	})

	t.Run("ignores cancelled bookings", func(t *testing.T) {
		t.Parallel()

		f := newBookingFixture()
		f.seedBooking("cancelled-1", "user-2", "room-1", "2024-01-10", "09:00", "10:00", BookingStatusCancelled)

		result, err := f.service.CheckAvailability(context.Background(), AvailabilityQuery{
			RoomID:    "room-1",
			Date:      "2024-01-10",
			StartTime: "09:00",
			EndTime:   "10:00",
		})
		if err != nil {
			t.Fatalf("CheckAvailability failed: %v", err)
		}
		if !result.Available {
			t.Fatalf("expected cancelled bookings to free the slot, got %+v", result)
		}
	})

	t.Run("collects field errors", func(t *testing.T) {
		t.Parallel()

		f := newBookingFixture()

		_, err := f.service.CheckAvailability(context.Background(), AvailabilityQuery{
			RoomID:    "",
			Date:      "today",
			StartTime: "morning",
			EndTime:   "noon",
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, field := range []string{"roomId", "date", "startTime", "endTime"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Errorf("expected a field error for %s, got %v", field, vErr.FieldErrors)
			}
		}
	})

	t.Run("rejects unknown rooms", func(t *testing.T) {
		t.Parallel()

		f := newBookingFixture()

		_, err := f.service.CheckAvailability(context.Background(), AvailabilityQuery{
			RoomID:    "room-404",
			Date:      "2024-01-10",
			StartTime: "09:00",
			EndTime:   "10:00",
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.FieldErrors["roomId"] != "room does not exist" {
			t.Fatalf("expected a missing-room error, got %v", err)
		}
	})
}

// bookingStoreStub emulates the transactional checked writes of the SQLite
// repository over in-memory maps.
type bookingStoreStub struct {
	bookings map[string]Booking
	series   map[string]BookingSeriesRecord
	owners   map[string]UserSummary
	roomInfo map[string]RoomSummary

	createErr error
	updateErr error
	getErr    error
	listErr   error
	statusErr error
}

func newBookingStoreStub() *bookingStoreStub {
	return &bookingStoreStub{
		bookings: make(map[string]Booking),
		series:   make(map[string]BookingSeriesRecord),
		owners: map[string]UserSummary{
			"user-1":  {ID: "user-1", Username: "alice", Email: "alice@example.com", DisplayName: "Alice"},
			"user-2":  {ID: "user-2", Username: "bob", Email: "bob@example.com", DisplayName: "Bob"},
			"admin-1": {ID: "admin-1", Username: "root", Email: "root@example.com", DisplayName: "Root"},
		},
		roomInfo: map[string]RoomSummary{
			"room-1": {ID: "room-1", Name: "Aurora", Floor: 2, Capacity: 8, IsActive: true},
			"room-2": {ID: "room-2", Name: "Borealis", Floor: 3, Capacity: 4, IsActive: false},
		},
	}
}

func (s *bookingStoreStub) conflictsWith(candidate Booking, excludeID string) []persistence.BookingConflict {
	var conflicts []persistence.BookingConflict
	for _, existing := range s.bookings {
		if existing.ID == excludeID || existing.Status != BookingStatusConfirmed {
			continue
		}
		if existing.RoomID != candidate.RoomID || existing.Date != candidate.Date {
			continue
		}
		if existing.StartTime < candidate.EndTime && existing.EndTime > candidate.StartTime {
			conflicts = append(conflicts, persistence.BookingConflict{
				BookingID: existing.ID,
				Date:      existing.Date,
				StartTime: existing.StartTime,
				EndTime:   existing.EndTime,
			})
		}
	}
	sort.Slice(conflicts, func(i, j int) bool { return conflicts[i].BookingID < conflicts[j].BookingID })
	return conflicts
}

func (s *bookingStoreStub) CreateBookings(_ context.Context, series *BookingSeriesRecord, bookings []Booking) error {
	if s.createErr != nil {
		return s.createErr
	}

	var conflicts []persistence.BookingConflict
	for _, booking := range bookings {
		conflicts = append(conflicts, s.conflictsWith(booking, "")...)
	}
	if len(conflicts) > 0 {
		return &persistence.ConflictError{Conflicts: conflicts}
	}

	if series != nil {
		s.series[series.ID] = *series
	}
	for _, booking := range bookings {
		s.bookings[booking.ID] = booking
	}
	return nil
}

func (s *bookingStoreStub) UpdateBooking(_ context.Context, booking Booking) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	if _, ok := s.bookings[booking.ID]; !ok {
		return persistence.ErrNotFound
	}
	if conflicts := s.conflictsWith(booking, booking.ID); len(conflicts) > 0 {
		return &persistence.ConflictError{Conflicts: conflicts}
	}
	s.bookings[booking.ID] = booking
	return nil
}

func (s *bookingStoreStub) GetBooking(_ context.Context, id string) (Booking, error) {
	if s.getErr != nil {
		return Booking{}, s.getErr
	}
	booking, ok := s.bookings[id]
	if !ok {
		return Booking{}, persistence.ErrNotFound
	}
	return booking, nil
}

func (s *bookingStoreStub) detailsFor(booking Booking) BookingDetails {
	return BookingDetails{
		Booking: booking,
		Owner:   s.owners[booking.UserID],
		Room:    s.roomInfo[booking.RoomID],
	}
}

func (s *bookingStoreStub) GetBookingDetails(ctx context.Context, id string) (BookingDetails, error) {
	booking, err := s.GetBooking(ctx, id)
	if err != nil {
		return BookingDetails{}, err
	}
	return s.detailsFor(booking), nil
}

func (s *bookingStoreStub) matches(booking Booking, query BookingQuery) bool {
	if query.OwnerID != "" && booking.UserID != query.OwnerID {
		return false
	}
	if query.RoomID != "" && booking.RoomID != query.RoomID {
		return false
	}
	if query.Date != "" && booking.Date != query.Date {
		return false
	}
	if query.SeriesID != "" && booking.SeriesID != query.SeriesID {
		return false
	}
	if !query.IncludeCancelled && booking.Status != BookingStatusConfirmed {
		return false
	}
	return true
}

func (s *bookingStoreStub) ListBookings(_ context.Context, query BookingQuery) ([]Booking, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []Booking
	for _, booking := range s.bookings {
		if s.matches(booking, query) {
			out = append(out, booking)
		}
	}
	sortBookings(out)
	return out, nil
}

func (s *bookingStoreStub) ListBookingDetails(ctx context.Context, query BookingQuery) ([]BookingDetails, error) {
	bookings, err := s.ListBookings(ctx, query)
	if err != nil {
		return nil, err
	}
	details := make([]BookingDetails, 0, len(bookings))
	for _, booking := range bookings {
		details = append(details, s.detailsFor(booking))
	}
	return details, nil
}

func (s *bookingStoreStub) SetBookingStatus(_ context.Context, id string, status BookingStatus, updatedAt time.Time) error {
	if s.statusErr != nil {
		return s.statusErr
	}
	booking, ok := s.bookings[id]
	if !ok {
		return persistence.ErrNotFound
	}
	booking.Status = status
	booking.UpdatedAt = updatedAt
	s.bookings[id] = booking
	return nil
}

func (s *bookingStoreStub) CancelSeries(_ context.Context, seriesID string, updatedAt time.Time) (int, error) {
	count := 0
	for id, booking := range s.bookings {
		if booking.SeriesID != seriesID || booking.Status != BookingStatusConfirmed {
			continue
		}
		booking.Status = BookingStatusCancelled
		booking.UpdatedAt = updatedAt
		s.bookings[id] = booking
		count++
	}
	return count, nil
}

func (s *bookingStoreStub) ListConfirmedSlots(_ context.Context, roomID, date string) ([]RoomSlot, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var slots []RoomSlot
	for _, booking := range s.bookings {
		if booking.RoomID != roomID || booking.Date != date || booking.Status != BookingStatusConfirmed {
			continue
		}
		slots = append(slots, RoomSlot{BookingID: booking.ID, StartTime: booking.StartTime, EndTime: booking.EndTime})
	}
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].StartTime != slots[j].StartTime {
			return slots[i].StartTime < slots[j].StartTime
		}
		return slots[i].BookingID < slots[j].BookingID
	})
	return slots, nil
}

func sortBookings(bookings []Booking) {
	sort.Slice(bookings, func(i, j int) bool {
		if bookings[i].Date != bookings[j].Date {
			return bookings[i].Date < bookings[j].Date
		}
		if bookings[i].StartTime != bookings[j].StartTime {
			return bookings[i].StartTime < bookings[j].StartTime
		}
		return bookings[i].ID < bookings[j].ID
	})
}

type roomCatalogStub struct {
	rooms map[string]Room
	err   error
}

func newRoomCatalogStub() *roomCatalogStub {
	return &roomCatalogStub{rooms: map[string]Room{
		"room-1": {ID: "room-1", Name: "Aurora", Floor: 2, Capacity: 8, IsActive: true},
		"room-2": {ID: "room-2", Name: "Borealis", Floor: 3, Capacity: 4, IsActive: false},
	}}
}

func (s *roomCatalogStub) GetRoom(_ context.Context, id string) (Room, error) {
	if s.err != nil {
		return Room{}, s.err
	}
	room, ok := s.rooms[id]
	if !ok {
		return Room{}, persistence.ErrNotFound
	}
	return room, nil
}

type notifierStub struct {
	created   [][]BookingDetails
	updated   []BookingDetails
	cancelled []BookingDetails
}

func (n *notifierStub) BookingCreated(_ context.Context, created []BookingDetails) {
	n.created = append(n.created, created)
}

func (n *notifierStub) BookingUpdated(_ context.Context, updated BookingDetails) {
	n.updated = append(n.updated, updated)
}

func (n *notifierStub) BookingCancelled(_ context.Context, cancelled BookingDetails) {
	n.cancelled = append(n.cancelled, cancelled)
}
