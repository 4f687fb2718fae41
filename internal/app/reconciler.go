package app

import (
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/huddlehq/huddle/internal/domain"
)

// pruneGhosts cross-checks the room's recorded membership against the
// live subscription table and evicts members whose connection is gone.
// Ghosts accumulate when a tab dies without a clean leave; pruning on
// the next join is what keeps them from holding capacity slots forever.
// Caller holds the room lock.
func (o *Orchestrator) pruneGhosts(roomID domain.RoomID) []domain.SessionID {
	members, err := o.Rooms.ListMembers(roomID)
	if err != nil {
		return nil
	}

	ghosts := lo.Filter(members, func(sid domain.SessionID, _ int) bool {
		return !o.Registry.IsLive(sid)
	})
	for _, ghost := range ghosts {
		// Harmless if nobody is listening on the ghost's channel.
		o.Router.ToSession(ghost, TerminatePeer(ghost))
		o.Router.ToRoom(roomID, ghost, TerminatePeer(ghost))
		if err := o.Rooms.RemoveMember(roomID, ghost); err != nil {
			log.Warn().Err(err).Str("module", "app.reconciler").Str("sid", string(ghost)).Str("room", string(roomID)).Msg("ghost removal failed")
			continue
		}
		o.Registry.UnsubscribeRoom(roomID, ghost)
	}
	if len(ghosts) > 0 {
		log.Info().Str("module", "app.reconciler").Str("room", string(roomID)).Int("pruned", len(ghosts)).Msg("pruned ghost members")
	}
	return ghosts
}
