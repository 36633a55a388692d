package walletauth

import (
	"context"
	"time"

	"github.com/obeahinc-pixel/healingbudstacks-sub001/internal/settings"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	defaultRetentionInterval = 10 * time.Minute
	retentionDeleteBatchSize = 1000
	maxDeleteBatchesPerRun   = 100
)

// RetentionCleaner periodically deletes stale nonce and login-token rows.
//
// The issuance path already sweeps opportunistically; this cleaner keeps a
// quiet deployment from accumulating rows between logins.
type RetentionCleaner struct {
	db       *gorm.DB
	interval time.Duration
}

// NewRetentionCleaner constructs a RetentionCleaner.
func NewRetentionCleaner(db *gorm.DB) *RetentionCleaner {
	if db == nil {
		return nil
	}
	return &RetentionCleaner{db: db, interval: defaultRetentionInterval}
}

// Start launches the cleanup loop in a background goroutine.
func (c *RetentionCleaner) Start(ctx context.Context) {
	if c == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	go c.run(ctx)
	log.Infof("wallet auth retention cleaner started (interval=%s)", c.interval)
}

func (c *RetentionCleaner) run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		c.cleanupOnce(ctx)
		timer := time.NewTimer(c.interval)
		select {
		case <-ctx.Done():
			if !timer.Stop() {
				<-timer.C
			}
			return
		case <-timer.C:
		}
	}
}

func (c *RetentionCleaner) cleanupOnce(ctx context.Context) {
	if c == nil || c.db == nil {
		return
	}

	retentionMinutes := settings.IntValue(settings.NonceRetentionMinutesKey, settings.DefaultNonceRetentionMinutes)
	if retentionMinutes <= 0 {
		return
	}
	cutoff := time.Now().UTC().Add(-time.Duration(retentionMinutes) * time.Minute)

	deleted := c.deleteStale(ctx, "wallet_nonces", "issued_at", cutoff)
	deleted += c.deleteStale(ctx, "login_tokens", "created_at", cutoff)
	if deleted > 0 {
		log.Infof("wallet auth retention cleaner: deleted %d rows (cutoff=%s)", deleted, cutoff.Format(time.RFC3339))
	}
}

// deleteStale removes rows older than cutoff in bounded batches.
func (c *RetentionCleaner) deleteStale(ctx context.Context, table, column string, cutoff time.Time) int64 {
	total := int64(0)
	for i := 0; i < maxDeleteBatchesPerRun; i++ {
		if ctx.Err() != nil {
			return total
		}
		// Limited subquery keeps each delete short-lived.
		res := c.db.WithContext(ctx).Exec(`
			DELETE FROM `+table+`
			WHERE id IN (
				SELECT id FROM `+table+`
				WHERE `+column+` < ?
				ORDER BY `+column+` ASC
				LIMIT ?
			)
		`, cutoff, retentionDeleteBatchSize)
		if res.Error != nil {
			log.WithError(res.Error).Warnf("wallet auth retention cleaner: delete from %s failed", table)
			return total
		}
		if res.RowsAffected <= 0 {
			return total
		}
		total += res.RowsAffected
	}
	return total
}
