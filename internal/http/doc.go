// Package http provides the handlers, middleware, and router for the booking
// portal API.
//
// The router exposes the following endpoints (all JSON, camelCase fields):
//   - GET /api/health: liveness plus a database ping; 503 when the store is
//     unreachable.
//   - GET /metrics: Prometheus scrape endpoint, mounted only when enabled.
//   - POST /api/auth/login: {"username","password"} → {"token","expiresAt",
//     "user"}; the token is also set as the `session_token` HttpOnly cookie.
//   - POST /api/auth/register: local account creation while the jwt strategy
//     is active; the first account becomes admin.
//   - POST /api/auth/logout: revokes the presented session and clears the
//     cookie. GET /api/auth/user returns the caller's account.
//   - GET /api/auth/methods: active strategy and the selectable set (public).
//     GET/POST /api/auth/config: strategy administration, secrets redacted in
//     responses (admin).
//   - /api/rooms: catalog CRUD exchanging the roomDTO payload; listing is open
//     to any session, mutations are admin-only, DELETE soft-deactivates.
//     GET /api/rooms/{id}?date= additionally carries that day's bookings.
//   - /api/bookings: create (optionally recurring) → 201 with every booking
//     created, partial update, cancel (DELETE, ?scope=series cancels the whole
//     series), own-booking and filtered listings, per-room day schedules, and
//     POST /api/bookings/check-availability for the read-only probe.
//   - GET /api/stats: dashboard aggregates. GET /api/users: account listing
//     (admin).
//
// Protected routes authenticate via `Authorization: Bearer` or the session
// cookie. Errors share one envelope: {"error": CODE, "message": …, "fields":
// {field: problem}}; booking collisions answer 409 with code BOOKING_CONFLICT
// and the blocking slots named in the message.
//
// Request/response DTOs live alongside their handlers; projections shared
// across handlers sit in dto.go.
package http
