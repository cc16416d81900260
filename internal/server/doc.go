// Package server hosts the auxiliary HTTP surface of long-running
// commands: a Prometheus metrics endpoint with its own health check,
// bound to a dedicated port.
package server
