// Package adapter contains implementations of interfaces defined in app:
// the HTTP time authority client, Redis cache invalidation, connectivity
// sources and the NTP drift checker.
package adapter

import "go.opentelemetry.io/otel"

var tracer = otel.Tracer("timesync/adapter")
