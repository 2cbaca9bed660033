package replay

import "fmt"

// Identity is a stable player reference reconciled across the ephemeral,
// reusable per-tick slot ids the recorder emits.
type Identity struct {
	SessionKey string
	Name       string
	UserID     string
	Team       Team
}

// identityResolver maintains the mapping from ephemeral slot ids to stable
// identities. Identities are keyed by the recorder session id when one is
// present, otherwise by a composite key derived from the slot id.
//
// Known limitation: when a slot is reused by a different physical player
// after a reconnect and neither carries a session id, the composite fallback
// merges both players' histories. The recorder provides nothing to
// disambiguate this case.
type identityResolver struct {
	roster     map[int]RosterEntry
	bySession  map[string]*Identity
	ephSession map[int]string
}

func newIdentityResolver(meta MetadataPayload) *identityResolver {
	resolver := &identityResolver{
		roster:     make(map[int]RosterEntry, len(meta.Players)),
		bySession:  map[string]*Identity{},
		ephSession: map[int]string{},
	}

	for _, entry := range meta.Players {
		resolver.roster[entry.ID] = entry

		if entry.SessionID != "" {
			resolver.bySession[entry.SessionID] = &Identity{
				SessionKey: entry.SessionID,
				Name:       entry.DisplayName,
				UserID:     entry.UserID,
				Team:       entry.Team,
			}
		}
	}

	return resolver
}

func compositeKey(ephemeralID int) string {
	return fmt.Sprintf("eid:%d", ephemeralID)
}

// observe folds one per-tick player entry into the identity table and
// returns the current identity for that entry. Display names follow
// last-seen-wins, team the most recent snapshot, with roster metadata as
// the fallback for fields the snapshot omits.
func (resolver *identityResolver) observe(delta PlayerDelta) *Identity {
	key := delta.SessionID
	if key == "" {
		key = compositeKey(delta.ID)
	}

	resolver.ephSession[delta.ID] = key

	meta, hasMeta := resolver.roster[delta.ID]

	ident, exists := resolver.bySession[key]
	if !exists {
		ident = &Identity{SessionKey: key, Name: delta.Name}

		if ident.Name == "" && hasMeta {
			ident.Name = meta.DisplayName
		}

		if hasMeta {
			ident.UserID = meta.UserID
		}

		resolver.bySession[key] = ident
	} else if delta.Name != "" {
		ident.Name = delta.Name
	}

	switch {
	case delta.Team != nil:
		ident.Team = *delta.Team
	case ident.Team == UNASSIGNED && hasMeta:
		ident.Team = meta.Team
	}

	return ident
}

// sessionFor resolves an ephemeral slot id to its current session key. The
// fallback order is total: live mapping, roster session id, composite key.
func (resolver *identityResolver) sessionFor(ephemeralID int) string {
	if key, found := resolver.ephSession[ephemeralID]; found {
		return key
	}

	if meta, found := resolver.roster[ephemeralID]; found && meta.SessionID != "" {
		return meta.SessionID
	}

	return compositeKey(ephemeralID)
}
