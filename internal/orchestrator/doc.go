// Package orchestrator routes free-text tasks to a pool of workers.
//
// Route classifies a description, picks an approach, and runs it:
//   - single: the worker with the strongest domain affinity handles the whole task
//   - sequential: one subtask per detected domain, in order, each seeing the
//     last two results as context
//   - parallel: independent subtasks run concurrently and every one settles
//   - collaborative: runs the sequential path
//
// Worker failures never escape Route. They become text in the task result,
// and the task still completes.
package orchestrator
