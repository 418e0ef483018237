// Package notify delivers operational alerts for certificate lifecycle
// events. Sinks are interchangeable: structured log output for development,
// Postmark email for production, a file sink for inspecting alerts locally.
// Delivery is best effort and never blocks or fails the workflow that raised
// the event.
package notify
