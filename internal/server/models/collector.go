// Package models holds the server-side records shared by repositories,
// services and transports.
package models

import "time"

// Collector is a field agent account. Name is unique and, once created, is
// never renamed: submissions and batches reference collectors by name.
type Collector struct {
	ID           string
	Name         string
	IsActive     bool
	PasswordHash *string
	CreatedAt    time.Time
}

// HasPassword reports whether a credential has been set.
func (c *Collector) HasPassword() bool {
	return c.PasswordHash != nil && *c.PasswordHash != ""
}
