// Package redis implements the Redis-backed live counter store.
//
// Provides CounterStore (like/unlike/impression counters, the per-theme
// ranking set, and day-bucketed HyperLogLog viewer estimates) plus client
// hooks for metrics and circuit breaking. Counters here are a best-effort
// accelerator over the durable like table, never the system of record.
package redis
