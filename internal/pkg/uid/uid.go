// Package uid generates identifiers: snowflake int64 ids for rows and
// UUIDv7 strings for correlation and token ids.
package uid

// NumberID generates unique, roughly time-ordered int64 ids.
type NumberID interface {
	Generate() int64
}

// StringID generates unique string ids.
type StringID interface {
	Generate() string
}

var (
	_ NumberID = (*Snowflake)(nil)
	_ StringID = (*UUID)(nil)
)
