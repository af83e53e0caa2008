/*
Package observability provides ready-made handlers for dispatch events.

It includes a structured logging handler (slog), Prometheus counters, a
colored console printer for interactive use, an in-memory recorder, and the
JSON record format shared by the sinks in pkg/adapters.
*/
package observability
