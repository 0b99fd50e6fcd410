package doctor

import (
	"context"
	"fmt"
	"time"

	"github.com/colonyops/margin/internal/core/journal"
)

// SessionLister lists recorded journal sessions.
type SessionLister interface {
	Sessions(ctx context.Context, documentID string) ([]journal.Session, error)
}

// Counter counts stored records.
type Counter interface {
	Count(ctx context.Context) (int64, error)
}

// StorageCheck reports on the journal and the stored notices. Sessions
// that ended before the retention window are fixable: the sweep prunes
// them.
type StorageCheck struct {
	journal   SessionLister
	notices   Counter
	retention time.Duration
	now       func() time.Time
}

// NewStorageCheck creates a storage check. A zero retention keeps the
// journal forever.
func NewStorageCheck(journal SessionLister, notices Counter, retention time.Duration) *StorageCheck {
	return &StorageCheck{
		journal:   journal,
		notices:   notices,
		retention: retention,
		now:       time.Now,
	}
}

func (c *StorageCheck) Name() string {
	return "Storage"
}

func (c *StorageCheck) Run(ctx context.Context) Result {
	result := Result{Name: c.Name()}

	sessions, err := c.journal.Sessions(ctx, "")
	if err != nil {
		result.Items = append(result.Items, CheckItem{
			Label:  "journal",
			Status: StatusFail,
			Detail: err.Error(),
		})
		return result
	}

	var entries int64
	for _, s := range sessions {
		entries += s.Entries
	}
	result.Items = append(result.Items, CheckItem{
		Label:  "journal",
		Status: StatusPass,
		Detail: fmt.Sprintf("%d session(s), %d entries", len(sessions), entries),
	})

	if c.retention > 0 {
		cutoff := c.now().Add(-c.retention)
		var stale int
		for _, s := range sessions {
			if s.EndedAt.Before(cutoff) {
				stale++
			}
		}
		if stale > 0 {
			result.Items = append(result.Items, CheckItem{
				Label:   "retention",
				Status:  StatusWarn,
				Detail:  fmt.Sprintf("%d session(s) older than %s", stale, c.retention),
				Fixable: true,
			})
		}
	}

	n, err := c.notices.Count(ctx)
	if err != nil {
		result.Items = append(result.Items, CheckItem{
			Label:  "notices",
			Status: StatusFail,
			Detail: err.Error(),
		})
		return result
	}
	result.Items = append(result.Items, CheckItem{
		Label:  "notices",
		Status: StatusPass,
		Detail: fmt.Sprintf("%d stored", n),
	})

	return result
}
