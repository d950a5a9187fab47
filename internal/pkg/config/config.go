package config

import (
	"io"
	"time"
)

// Config is the read side of the application configuration.
//
// Getters never fail: a missing or unparsable key yields the zero value (or the
// registered default), so callers validate what they require at startup.
type Config interface {
	io.Closer

	GetBool(key string) bool
	GetInt(key string) int
	GetInt32(key string) int32
	GetInt64(key string) int64
	GetFloat64(key string) float64
	GetUint(key string) uint
	GetString(key string) string

	// GetBinary decodes a base64 encoded value.
	GetBinary(key string) []byte

	// GetArray reads a list or splits a comma separated value; empty elements
	// are dropped.
	GetArray(key string) []string

	// GetMap parses "k1:v1,k2:v2" pairs.
	GetMap(key string) map[string]string

	GetSecond(key string) time.Duration
	GetMinute(key string) time.Duration
}
