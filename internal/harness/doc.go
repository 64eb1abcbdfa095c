// Package harness runs one suite of self-describing tests.
//
// A run discovers the eligible tests once, then processes each of them
// exactly once, strictly in discovery order:
//
//	Idle -> Discovering -> { Invoking -> [Stressing] -> Reporting }* -> Done
//
// Invoking calls the test through invoke.Invoker. For the suite's
// stress-paired test a stress worker is started immediately before the call
// and stopped and joined immediately after it (the Stressing state); the
// outcome is reported only once the worker is gone. Reporting writes the
// result line, or routes a harness-internal failure to the diagnostic
// logger.
//
// # Ordering
//
// Every step is stamped with a sequence number from a logical clock and
// appended to the run's event log. The log is the observable proof of the
// ordering guarantees, and tests assert on it instead of on wall-clock
// timing:
//
//	stress_started < invoke_begin < invoke_end < stress_exited < stress_joined < reported
//
// # Failure isolation
//
// Nothing a test does aborts the loop. Run returns an error only for setup
// problems detected before discovery, or when the result writer itself
// fails.
//
// # Observers
//
// Observers receive the run start, every finished record and the final
// result. The run history store and the metrics recorder plug in here;
// observer errors are logged and never fail the run.
package harness
