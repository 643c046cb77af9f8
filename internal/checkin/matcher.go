package checkin

import "checkin/internal/identity"

// Match resolves a parsed identifier against a directory snapshot.
// Primary ids are checked across the whole snapshot before any secondary
// id is considered, so a primary hit always beats an earlier secondary
// hit. Ties within a pass resolve to the first registrant in snapshot
// order.
func Match(parsedID string, directory []Registrant) (Registrant, error) {
	key := identity.Normalize(parsedID)
	if key == "" {
		return Registrant{}, ErrNotFound
	}
	for _, r := range directory {
		if identity.Normalize(r.PrimaryID) == key {
			return r, nil
		}
	}
	for _, r := range directory {
		for _, id := range r.SecondaryIDs {
			if identity.Normalize(id) == key {
				return r, nil
			}
		}
	}
	return Registrant{}, ErrNotFound
}
