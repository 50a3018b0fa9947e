// Package postgres provides PostgreSQL-specific implementations for the data
// storage interfaces defined in the internal/store package: users and their
// session tokens, tasks, and avatars kept in the users table.
// It also embeds the schema migrations and applies them with goose.
package postgres
