// Package aggregates owns the transaction boundary of learner-scoped writes.
//
// It composes the table-level repos from internal/data/repos/learning into a
// store.LearnerStore whose transactions either commit every write of a
// session close or none of them.
package aggregates
