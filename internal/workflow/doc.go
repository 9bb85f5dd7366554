// Package workflow advances assembly jobs through the pipeline stages.
//
// The Manager polls the queue and feeds jobs into registered stage handlers
// (detect, time, mix, assemble) while capturing progress and failure
// metadata. Each stage is bracketed by a status transition: the manager moves
// the job into the stage's processing status before Execute and into the done
// status after, so an interrupted run can be rolled back to the stage
// boundary at startup. A file lock in the log directory enforces a single
// running manager per queue database.
package workflow
