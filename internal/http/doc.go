// Package http exposes the block calendar as a JSON API.
//
// The router serves the following endpoints:
//   - GET /health: liveness plus a store ping. Never requires credentials.
//   - GET /blocks, POST /blocks: list and create block definitions. Bodies and
//     responses use the snake_case block record defined in the persistence
//     package. Create and update responses carry overlap warnings.
//   - GET /blocks/{id}, PUT /blocks/{id}, DELETE /blocks/{id}.
//   - POST /blocks/{id}/move and POST /blocks/{id}/resize: either
//     {"delta_minutes"} or a raw drag {"start_y","current_y","pixels_per_hour"}
//     which is snapped to the 15 minute grid. Recurring blocks answer 409.
//   - POST /blocks/{id}/duplicate {"date"}: copies a single block.
//   - POST /blocks/{id}/complete {"date"}: toggles one occurrence.
//   - POST /blocks/{id}/checklist/{itemID}: toggles a checklist item.
//   - DELETE /blocks/{id}/occurrences/{date}: drops one occurrence.
//   - GET /agenda?from=&to= or ?view=day|week|month&date=: laid out days.
//   - GET /overlays, PUT /overlays: the read-only overlay set.
//   - GET /reminders?from=&to=: notification data for upcoming occurrences.
//   - GET /calendar.ics: iCalendar export.
//
// Errors are {"message","errors"} JSON: 400 for malformed bodies, 401 for
// missing credentials, 404 for unknown blocks, 409 for blocks that cannot be
// moved and 422 for validation failures.
package http
