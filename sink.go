package relay

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-relay/core"
)

const sinkWriteTimeout = 5 * time.Second

// StoreDisallowSink persists pool disallow marks as they happen, so a restart
// rebuilds the same block list the running process had. Writes happen off the
// request path; a failed write only costs durability, never a request.
type StoreDisallowSink struct {
	store  core.DisallowStore
	logger core.Logger
}

func NewStoreDisallowSink(store core.DisallowStore, logger core.Logger) *StoreDisallowSink {
	return &StoreDisallowSink{
		store:  store,
		logger: glog.Ensure(logger),
	}
}

func (s *StoreDisallowSink) DisallowMarked(record core.DisallowRecord) {
	if s == nil || s.store == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), sinkWriteTimeout)
		defer cancel()
		if _, err := s.store.Create(ctx, record); err != nil {
			s.logger.Error("persisting disallow record failed",
				"provider", record.Scope.ProviderID,
				"credential", record.Scope.CredentialID,
				"level", string(record.Level),
				"error", err)
		}
	}()
}

func (s *StoreDisallowSink) DisallowCleared(scope core.DisallowScope) {
	if s == nil || s.store == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), sinkWriteTimeout)
		defer cancel()
		records, err := s.store.List(ctx)
		if err != nil {
			s.logger.Error("listing disallow records for clear failed", "error", err)
			return
		}
		for _, record := range records {
			// Success only clears transient marks; the pool already applied
			// the same rule in memory.
			if record.Level != core.DisallowTransient {
				continue
			}
			if record.Scope != scope {
				continue
			}
			if err := s.store.Delete(ctx, record.ID); err != nil {
				s.logger.Error("deleting cleared disallow record failed",
					"id", record.ID, "error", err)
			}
		}
	}()
}

var _ core.DisallowSink = (*StoreDisallowSink)(nil)
