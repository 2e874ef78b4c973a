// Package entity defines the schema and record model for packed entity
// collections: typed attribute values, attribute sets, and entities.
package entity
