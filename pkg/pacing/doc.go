// Package pacing decides how long to wait between cancellations and between
// batches, and performs the waits in a way that a cancelled context can cut
// short.
//
// Two shapes of policy are provided. Fixed always returns the same delay and
// matches the API-driven defaults (1s per item, 10s between batches). Uniform
// draws from a closed interval, which is what the slower browser-style
// defaults use (2-4s per item, 20-30s between batches):
//
//	itemDelay := pacing.FromBounds(cfg.Pacing.Delay, cfg.Pacing.DelayMin, cfg.Pacing.DelayMax)
//	batchBreak := pacing.FromBounds(cfg.Pacing.BatchBreak, cfg.Pacing.BatchBreakMin, cfg.Pacing.BatchBreakMax)
//
//	if err := pacing.TimerSleeper{}.Sleep(ctx, itemDelay.Next()); err != nil {
//		return err // ctx was cancelled mid-wait
//	}
package pacing
