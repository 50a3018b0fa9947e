// Package service contains the application use cases. It orchestrates the
// domain types and the store interfaces to implement registration, sessions,
// profile management and owner-scoped task operations.
//
// Services receive their dependencies through constructor injection and never
// depend on a concrete storage implementation. Every task operation takes the
// authenticated owner's id, and a task belonging to anyone else is reported as
// not found.
package service
