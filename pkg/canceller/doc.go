// Package canceller drives a follow request cancellation run.
//
// It sits between the command line and the batch runner: it decides where a
// run starts (fresh or resumed from the progress file), builds the pacing
// policies from configuration, runs the batch and writes the failed
// identifier list once the run stops.
//
// Two actions are provided. APIAction resolves each username to a user id
// and withdraws the request through the Instagram client. DryRunAction makes
// no requests and reports every identifier as cancelled, which is useful for
// checking an export and the pacing settings.
package canceller
