// Package scheduler implements the background job scheduler: a polling
// loop that discovers queued generation jobs, an admission controller that
// bounds how many execute concurrently, and an executor that drives each
// admitted job to a terminal state. The scheduler owns every job record
// mutation after admission; observers follow along through the record's
// status, progress, and result fields.
package scheduler
