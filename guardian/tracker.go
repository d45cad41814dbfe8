package guardian

import "github.com/rustyeddy/sentinel/market"

// diffNewPositions returns the positions in live that the guardian has not
// seen before, then unconditionally replaces the known set with live. Even
// positions the caller declines to act on become known, so the same stale
// position is never re-flagged on a later poll.
//
// Snapshot-diffing (rather than event subscription) tolerates missed polls
// and reconnects: a position alive across two consecutive polls is seen as
// not-new even if the poll that would have caught it opening was skipped.
func (g *Guardian) diffNewPositions(live []market.Position) []market.Position {
	var fresh []market.Position
	for _, p := range live {
		if _, ok := g.state.Known[p.Ticket]; !ok {
			fresh = append(fresh, p)
		}
	}

	next := make(map[int64]struct{}, len(live))
	for _, p := range live {
		next[p.Ticket] = struct{}{}
	}
	g.state.Known = next

	return fresh
}
