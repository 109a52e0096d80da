// Package operations runs the ETL job as an ordered list of steps.
//
// Core Components:
//
// Manager: Runs the registered steps one after another. The first failure
// ends the run; there are no retries. Every step gets a trace span and a
// duration measurement, and a line in the progress log once it completes.
//
// Step: A single unit of work. Steps read their inputs from, and write their
// outputs to, the shared OperationState.
//
// Registry: Keeps steps in registration order, which is the execution order.
//
// State: Tracks the run's phase (Start, Extracted, Transformed, CSVWritten,
// DBLoaded, QueriesRun, Done) and the status of every step. Resources opened
// by a step are registered on the state and released when the run ends,
// whether it succeeded or not.
//
// Example usage:
//
//	manager, err := operations.NewPipeline(cfg, deps)
//	if err != nil {
//		return err
//	}
//	state, err := manager.Execute(ctx)
package operations
