// Package api handles incoming HTTP requests for users, sessions, avatars and
// tasks. Handlers decode and validate requests, call the application services
// and translate their errors to status codes and safe messages; no handler
// writes a raw error string to a client.
package api
