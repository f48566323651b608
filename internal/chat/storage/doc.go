// Package storage provides a pluggable key-value storage layer for
// saved chats. It provides a pebble backend for durable storage and an
// in-memory backend for tests and throwaway servers, but can be extended
// to support other storage backends as needed.
//
// Backends make no transactional guarantees across keys. Each Get, Set
// or Delete is atomic for its own key only.
package storage
