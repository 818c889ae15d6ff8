package match

import "time"

// Clock math for the match timer. Elapsed time is always derived as
// now - StartedAt; pause checkpoints the derived value into
// ElapsedSeconds, and resume rewrites StartedAt to a synthetic instant so
// the same derivation keeps working. Persistence holds only the
// checkpoint, never a running countdown.

// Elapsed returns cumulative playing time for a match at the given
// instant. While paused (or before kickoff) the checkpoint is the answer;
// while running it is derived from the start instant.
func Elapsed(m Match, now time.Time) time.Duration {
	if m.Status != StatusRunning || m.StartedAt == nil {
		return time.Duration(m.ElapsedSeconds) * time.Second
	}
	d := now.Sub(*m.StartedAt)
	if d < 0 {
		return 0
	}
	return d
}

// SyntheticStart computes the start instant to record on resume: the
// moment in the past from which the checkpointed elapsed time would have
// accrued naturally.
func SyntheticStart(now time.Time, elapsed time.Duration) time.Time {
	return now.Add(-elapsed)
}

// Remaining returns how much playing time is left before the regulation
// duration runs out. Never negative.
func Remaining(m Match, duration time.Duration, now time.Time) time.Duration {
	left := duration - Elapsed(m, now)
	if left < 0 {
		return 0
	}
	return left
}

// Expired reports whether regulation time has run out.
func Expired(m Match, duration time.Duration, now time.Time) bool {
	return Elapsed(m, now) >= duration
}

// ShouldCheckpoint decides whether a periodic tick should persist the
// elapsed counter. Checkpoints are throttled to the given interval, and a
// short grace window after resume is skipped so a tick that raced the
// resume cannot overwrite the fresh synthetic start.
func ShouldCheckpoint(lastCheckpoint, resumedAt, now time.Time, interval, grace time.Duration) bool {
	if now.Sub(resumedAt) < grace {
		return false
	}
	return now.Sub(lastCheckpoint) >= interval
}
