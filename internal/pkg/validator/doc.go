// Package validator validates usecase input structs through their
// `validate` tags and reports failures keyed by JSON field name.
package validator
