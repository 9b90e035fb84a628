// Package batch drives a single cancel action over an ordered list of
// identifiers.
//
// The Runner processes identifiers one at a time in list order. After each
// identifier it records the outcome, writes a checkpoint through the
// supplied Checkpointer and then waits: a per-item delay unless the item was
// the last one, plus a longer batch break after every BatchSize items while
// items remain. A failed identifier never stops the loop. Only a cancelled
// context or a checkpoint write error ends a run early.
//
// The Runner knows nothing about resuming. A caller that wants to continue
// an earlier run slices the list itself and passes the earlier progress
// record as Job.Baseline so that the persisted counts stay cumulative.
package batch
