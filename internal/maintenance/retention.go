package maintenance

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Pruner trims stored history.
type Pruner interface {
	EnsureIndex(ctx context.Context) error
	Prune(ctx context.Context, keep int) (int64, error)
}

const defaultKeep = 50

// StartHistoryRetention runs a daily job at localTime ("HH:MM") in tzName that keeps
// only the latest keepN history entries per session. It returns immediately.
func StartHistoryRetention(ctx context.Context, p Pruner, log *zap.Logger, keepN int, localTime, tzName string) {
	if keepN <= 0 {
		keepN = defaultKeep
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		log.Warn("retention timezone invalid, using local", zap.String("tz", tzName), zap.Error(err))
		loc = time.Local
	}
	h, m := ParseClock(localTime)

	go func() {
		for {
			timer := time.NewTimer(time.Until(NextRun(time.Now().In(loc), h, m)))
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
				RunOnce(ctx, p, log, keepN)
			}
		}
	}()
}

// RunOnce performs a single retention pass.
func RunOnce(ctx context.Context, p Pruner, log *zap.Logger, keepN int) {
	if err := p.EnsureIndex(ctx); err != nil {
		log.Warn("retention ensure index failed", zap.Error(err))
	}
	n, err := p.Prune(ctx, keepN)
	if err != nil {
		log.Error("retention prune failed", zap.Error(err))
		return
	}
	log.Info("history pruned", zap.Int("keep_per_session", keepN), zap.Int64("deleted", n))
}

// ParseClock reads "HH:MM", falling back to 03:00 on anything malformed.
func ParseClock(s string) (hour, minute int) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 3, 0
	}
	h, errH := strconv.Atoi(parts[0])
	mm, errM := strconv.Atoi(parts[1])
	if errH != nil || errM != nil || h < 0 || h > 23 || mm < 0 || mm > 59 {
		return 3, 0
	}
	return h, mm
}

// NextRun is the first hour:minute strictly after now, in now's location.
func NextRun(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
