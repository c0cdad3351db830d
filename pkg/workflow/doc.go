// Package workflow advances named linear step sequences for
// long-running processes such as assessments. Steps are strictly
// sequential: one step is active at a time, it must be completed by
// its assignee role, and its due date is computed when it becomes
// active. There is no branching or parallelism.
package workflow
