// Package http provides HTTP handlers and middleware for the campus
// scheduling API.
//
// The router exposes the following endpoints:
//   - GET /entries, POST /entries, PUT /entries/{id}, DELETE /entries/{id}:
//     recurring timetable management exchanging the `entryDTO` payload defined
//     in timetable_handler.go. Creation and edits are limited to administrators
//     and representatives of the affected class section.
//   - PUT /entries/{id}/overrides, DELETE /entries/{id}/overrides?date=YYYY-MM-DD:
//     dated exceptions to a single entry (holiday, postponement). Setting an
//     exception for a date that already has one replaces it.
//   - GET /schedule?kind=&resource_id=&date=: the effective occupancy for one
//     room, instructor or class section on one date, with per-date exceptions
//     and approved reservations applied.
//   - POST /schedule/conflicts: a what-if availability probe. Always answers
//     200; the body carries `available` and, when occupied, the conflicting
//     occupancy record.
//   - GET /schedule/available-rooms?date=&start=&end=: the rooms free for a
//     window on a date.
//   - GET /reservations, POST /reservations, DELETE /reservations/{id},
//     POST /reservations/{id}/approve, POST /reservations/{id}/reject: one-off
//     room reservations and their administrator approval lifecycle.
//   - GET/POST /rooms, /instructors, /class-sections, /courses plus
//     GET/PUT/DELETE on /{id}: administrator maintained resource catalogs.
//
// Identity arrives via reverse-proxy headers (X-User-Id, X-User-Role,
// X-Section-Id); the PrincipalExtractor middleware turns them into the
// application.Principal consulted by the services.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
