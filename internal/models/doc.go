// Package models defines the client-side copies of KotConnect's domain objects.
//
// Every entity is owned by the backend. The client never merges or reconciles
// writes: a model value is whatever the last successful response said, and the
// cache holding it can be dropped and rebuilt at any time.
//
// # Wire shapes
//
// JSON tags follow the backend's field names, including the Dutch profile
// fields (geboortedatum = birth date, locatie = location). Responses differ
// slightly between backend versions, so:
//
//  1. Identifiers that may be missing are *int64.
//  2. Nested objects that may be missing are pointers.
//  3. Partial updates use *string so "not touched" and "cleared" differ.
//
// Code reading these types must handle every optional case instead of
// assuming presence.
package models
