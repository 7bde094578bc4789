// Package server implements the Beacon presence-and-broadcast core: a
// WebSocket hub that tracks which users are online and fans chat messages and
// presence events out to every connected client.
//
// The implementation is organized into specialized files for configuration,
// the registry, the hub loop, clients, routing, and HTTP handlers. All
// registry mutations and all broadcasts run as non-overlapping steps of the
// hub's single event loop.
package server
