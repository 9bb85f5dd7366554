// Package queue persists assembly jobs in SQLite and exposes helpers for
// driving their lifecycle.
//
// The Store manages database connections, schema initialization, stats
// queries, stuck-job recovery, and the status transitions that mirror the
// pipeline stages. Job rows capture inputs, per-stage artifact paths,
// progress, and review flags so stages can coordinate without additional
// state.
//
// The database is treated as transient storage for in-flight jobs rather than
// a long-term archive. Schema changes bump the version in schema.go; users
// clear the database to adopt the new schema.
package queue
