// Package store declares the persistence contracts used by the services:
// users with their session token sets, owner-scoped tasks and avatar images.
// Implementations live under internal/platform.
//
// RunInTransaction groups writes across several stores into one atomic unit,
// as account deletion does for a user and their tasks.
package store
