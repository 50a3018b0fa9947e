// Package jobs runs background work, currently outbound email, on a bounded
// worker pool fed by a buffered queue. Enqueueing never blocks: a full queue
// rejects the job so request handling is never held up by mail delivery.
package jobs
