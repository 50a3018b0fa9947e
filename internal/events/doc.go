// Package events provides domain events and a simple in-process dispatcher.
//
// Services emit events such as user.registered or user.deleted without knowing
// who consumes them; the jobs package registers a handler that turns them into
// outbound mail.
package events
