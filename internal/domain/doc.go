// Package domain contains the core business entities of the task manager:
// users, their tasks, and the rules for creating and partially updating them.
// It is independent of storage and transport.
package domain
