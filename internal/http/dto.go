package http

import (
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"

	"github.com/example/booking-portal/internal/application"
)

// validate checks the structural shape of request bodies. Domain rules
// (interval ordering, capacity bounds, recurrence limits) stay in the
// services; the binding layer only rejects requests that are not worth
// forwarding.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeRequest unmarshals the body into dst and applies its binding tags.
// Malformed JSON returns errBadRequestBody; tag violations return a
// *application.ValidationError keyed by JSON field name.
func decodeRequest(r *http.Request, dst any) error {
	if r == nil || r.Body == nil {
		return errBadRequestBody
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errBadRequestBody
	}

	if err := validate.Struct(dst); err != nil {
		var fieldErrors validator.ValidationErrors
		if !errors.As(err, &fieldErrors) {
			return errBadRequestBody
		}
		fields := make(map[string]string, len(fieldErrors))
		for _, fe := range fieldErrors {
			if fe.Field() == "" {
				continue
			}
			if _, seen := fields[fe.Field()]; !seen {
				fields[fe.Field()] = bindingMessage(fe)
			}
		}
		return &application.ValidationError{FieldErrors: fields}
	}
	return nil
}

func bindingMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "datetime":
		return "must be a date formatted YYYY-MM-DD"
	default:
		return "is invalid"
	}
}

// boolQuery reads a boolean query parameter; absent or unparseable values
// are false.
func boolQuery(r *http.Request, name string) bool {
	value, err := strconv.ParseBool(r.URL.Query().Get(name))
	return err == nil && value
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// userDTO is the account projection shared by auth and user handlers.
// Password material never reaches this layer.
type userDTO struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role"`
	AuthType    string `json:"authType"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

func toUserDTO(user application.User) userDTO {
	return userDTO{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        string(user.Role),
		AuthType:    string(user.AuthType),
		CreatedAt:   formatTime(user.CreatedAt),
		UpdatedAt:   formatTime(user.UpdatedAt),
	}
}

func toUserDTOs(users []application.User) []userDTO {
	out := make([]userDTO, len(users))
	for i, user := range users {
		out[i] = toUserDTO(user)
	}
	return out
}

type roomDTO struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Floor     int      `json:"floor"`
	Capacity  int      `json:"capacity"`
	Equipment []string `json:"equipment"`
	IsActive  bool     `json:"isActive"`
	CreatedAt string   `json:"createdAt"`
	UpdatedAt string   `json:"updatedAt"`
}

func toRoomDTO(room application.Room) roomDTO {
	equipment := room.Equipment
	if equipment == nil {
		equipment = []string{}
	}
	return roomDTO{
		ID:        room.ID,
		Name:      room.Name,
		Floor:     room.Floor,
		Capacity:  room.Capacity,
		Equipment: equipment,
		IsActive:  room.IsActive,
		CreatedAt: formatTime(room.CreatedAt),
		UpdatedAt: formatTime(room.UpdatedAt),
	}
}

func toRoomDTOs(rooms []application.Room) []roomDTO {
	out := make([]roomDTO, len(rooms))
	for i, room := range rooms {
		out[i] = toRoomDTO(room)
	}
	return out
}

type bookingDTO struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	RoomID      string   `json:"roomId"`
	UserID      string   `json:"userId"`
	Date        string   `json:"date"`
	StartTime   string   `json:"startTime"`
	EndTime     string   `json:"endTime"`
	Attendees   []string `json:"attendees,omitempty"`
	Status      string   `json:"status"`
	SeriesID    string   `json:"seriesId,omitempty"`
	CreatedAt   string   `json:"createdAt"`
	UpdatedAt   string   `json:"updatedAt"`
}

func toBookingDTO(booking application.Booking) bookingDTO {
	return bookingDTO{
		ID:          booking.ID,
		Title:       booking.Title,
		Description: booking.Description,
		RoomID:      booking.RoomID,
		UserID:      booking.UserID,
		Date:        booking.Date,
		StartTime:   booking.StartTime,
		EndTime:     booking.EndTime,
		Attendees:   booking.Attendees,
		Status:      string(booking.Status),
		SeriesID:    booking.SeriesID,
		CreatedAt:   formatTime(booking.CreatedAt),
		UpdatedAt:   formatTime(booking.UpdatedAt),
	}
}

func toBookingDTOs(bookings []application.Booking) []bookingDTO {
	out := make([]bookingDTO, len(bookings))
	for i, booking := range bookings {
		out[i] = toBookingDTO(booking)
	}
	return out
}

type userSummaryDTO struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

type roomSummaryDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Floor    int    `json:"floor"`
	Capacity int    `json:"capacity"`
	IsActive bool   `json:"isActive"`
}

// bookingDetailsDTO flattens the booking fields and nests the owner and room
// projections, matching the schedule grid's needs.
type bookingDetailsDTO struct {
	bookingDTO
	Owner userSummaryDTO `json:"owner"`
	Room  roomSummaryDTO `json:"room"`
}

func toBookingDetailsDTO(details application.BookingDetails) bookingDetailsDTO {
	return bookingDetailsDTO{
		bookingDTO: toBookingDTO(details.Booking),
		Owner: userSummaryDTO{
			ID:          details.Owner.ID,
			Username:    details.Owner.Username,
			Email:       details.Owner.Email,
			DisplayName: details.Owner.DisplayName,
		},
		Room: roomSummaryDTO{
			ID:       details.Room.ID,
			Name:     details.Room.Name,
			Floor:    details.Room.Floor,
			Capacity: details.Room.Capacity,
			IsActive: details.Room.IsActive,
		},
	}
}

func toBookingDetailsDTOs(details []application.BookingDetails) []bookingDetailsDTO {
	out := make([]bookingDetailsDTO, len(details))
	for i, d := range details {
		out[i] = toBookingDetailsDTO(d)
	}
	return out
}

type slotConflictDTO struct {
	BookingID string `json:"bookingId"`
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

func toSlotConflictDTOs(conflicts []application.SlotConflict) []slotConflictDTO {
	out := make([]slotConflictDTO, len(conflicts))
	for i, c := range conflicts {
		out[i] = slotConflictDTO{
			BookingID: c.BookingID,
			Date:      c.Date,
			StartTime: c.StartTime,
			EndTime:   c.EndTime,
		}
	}
	return out
}
