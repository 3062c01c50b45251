// Package app is the application layer: it orchestrates the live counter
// store, the candidate builder, and the durable repositories into the public
// ranking operations (record hooks, ranking query, daily finalize).
package app
