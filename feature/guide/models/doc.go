// Package models defines the data types of the guide pipeline.
//
// It holds the wire and domain shapes shared by every stage: services of the lineup,
// artwork candidates, durable cache entries, batch fetch responses, the decoded program
// payload, and the assembled Document with its summary counts.
//
// # Errors
//
// The run error taxonomy lives in errors.go. Stages mark concrete failures with a sentinel
// (errors.Mark) and callers classify them with errors.Is. Only ErrAuth and
// ErrDatasetTooSmall abort a run; see IsFatal.
package models
