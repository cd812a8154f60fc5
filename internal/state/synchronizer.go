package state

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/minddock/minddock/internal/debug"
)

// Synchronizer loads the memory list and selected detail for the active user.
// Calls never cancel each other: a completion that no longer matches the Store
// (different user, newer refresh, different selection) is dropped.
type Synchronizer struct {
	repository Repository
	store      *Store
	status     *Status
	log        zerolog.Logger
}

// NewSynchronizer instantiates and returns a Synchronizer.
func NewSynchronizer(repository Repository, store *Store, status *Status) *Synchronizer {
	return &Synchronizer{
		repository: repository,
		store:      store,
		status:     status,
		log:        debug.Component("synchronizer"),
	}
}

// SetActiveUser switches the active user. It clears the transcript and the
// status; an empty id also clears the list and selection. A non-empty id then
// refreshes the list.
func (s *Synchronizer) SetActiveUser(ctx context.Context, userID string) error {
	s.status.Clear()
	s.store.switchUser(userID)
	s.log.Debug().Str("user_id", userID).Msg("active user changed")
	if userID == "" {
		return nil
	}
	return s.refresh(ctx, userID, "")
}

// RefreshMemories reloads the list of userID and re-resolves the selection,
// preferring focusID when it is in the new list. It clears the status first.
func (s *Synchronizer) RefreshMemories(ctx context.Context, userID, focusID string) error {
	s.status.Clear()
	return s.refresh(ctx, userID, focusID)
}

// refresh is RefreshMemories without touching the status, for use after a
// mutation has already reported its outcome.
func (s *Synchronizer) refresh(ctx context.Context, userID, focusID string) error {
	t, err := s.store.beginRefresh(userID)
	if err != nil {
		s.log.Debug().Str("user_id", userID).Msg("refresh for inactive user dropped")
		return nil
	}
	defer s.store.endRefresh()

	memories, err := s.repository.ListMemories(ctx, userID)
	if err != nil {
		if !s.store.current(t) {
			s.log.Debug().Err(err).Str("user_id", userID).Msg("stale list failure dropped")
			return nil
		}
		s.log.Error().Err(err).Str("user_id", userID).Msg("listing memories")
		s.status.SetError(MsgLoadMemories)
		return errors.Wrap(err, "listing memories")
	}

	candidate, err := s.store.applyList(t, memories, focusID)
	if err != nil {
		s.log.Debug().Str("user_id", userID).Msg("stale list dropped")
		return nil
	}
	if candidate == "" {
		return nil
	}
	t.memoryID = candidate
	return s.fetchDetail(ctx, t)
}

// SelectMemory selects a memory from the loaded list and fetches its detail.
// The list is not reloaded.
func (s *Synchronizer) SelectMemory(ctx context.Context, memoryID string) error {
	s.status.Clear()
	t, err := s.store.selectMemory(memoryID)
	if err != nil {
		return errors.Wrapf(err, "selecting %s", memoryID)
	}
	return s.fetchDetail(ctx, t)
}

// ReloadSelected refetches the detail of memoryID. The result is dropped
// unless memoryID is still selected when it arrives.
func (s *Synchronizer) ReloadSelected(ctx context.Context, memoryID string) error {
	if memoryID == "" {
		return nil
	}
	return s.fetchDetail(ctx, s.store.detailTicket(memoryID))
}

func (s *Synchronizer) fetchDetail(ctx context.Context, t ticket) error {
	memory, err := s.repository.GetMemory(ctx, t.memoryID)
	if err != nil {
		if !s.store.current(t) {
			s.log.Debug().Err(err).Str("memory_id", t.memoryID).Msg("stale detail failure dropped")
			return nil
		}
		s.log.Error().Err(err).Str("memory_id", t.memoryID).Msg("getting memory")
		s.status.SetError(MsgLoadSelectedMemory)
		return errors.Wrap(err, "getting memory")
	}
	if err := s.store.applyDetail(t, memory); err != nil {
		s.log.Debug().Str("memory_id", t.memoryID).Msg("stale detail dropped")
	}
	return nil
}
