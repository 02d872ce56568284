// Package community computes community statistics over a snapshot of the
// social graph.
//
// Both analyses are synchronous and read-only. Every call allocates its own
// visited state, so one Analyzer may serve concurrent callers as long as each
// passes a Graph that is not mutated while the call runs.
package community

import (
	"fmt"
	"strings"

	"github.com/vanshika/socialnet/internal/domain"
)

// PathMode selects how a depth-first excursion tracks the path it explores.
type PathMode int

const (
	// PathModeShared grows one path buffer across sibling branches and never
	// removes vertices from it. The excursion result is the pre-order of
	// every vertex the walk reaches from its root. This is the historical
	// behaviour of the most-active-community report.
	PathModeShared PathMode = iota

	// PathModeIsolated backtracks: each branch sees only its own ancestors,
	// and the excursion result is the longest simple path from the root.
	// The search is exponential in the worst case.
	PathModeIsolated
)

func (m PathMode) String() string {
	switch m {
	case PathModeShared:
		return "shared"
	case PathModeIsolated:
		return "isolated"
	default:
		return fmt.Sprintf("PathMode(%d)", int(m))
	}
}

// ParsePathMode converts a configuration value into a PathMode.
// The empty string selects PathModeShared.
func ParsePathMode(value string) (PathMode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "shared":
		return PathModeShared, nil
	case "isolated":
		return PathModeIsolated, nil
	default:
		return 0, fmt.Errorf("%w %q", ErrUnknownPathMode, value)
	}
}

// Analyzer runs community analyses against a Graph.
type Analyzer struct {
	Mode PathMode
	// MaxExpansions bounds the number of frames pushed by one isolated
	// excursion. Zero means unbounded. Ignored by PathModeShared.
	MaxExpansions int
}

// NewAnalyzer returns an Analyzer using the given path mode.
func NewAnalyzer(mode PathMode) *Analyzer {
	return &Analyzer{Mode: mode}
}

// visitedSet is the per-call visited marker. It is never shared between calls.
type visitedSet map[domain.Identity]bool

func newVisitedSet(ids []domain.Identity) visitedSet {
	v := make(visitedSet, len(ids))
	for _, id := range ids {
		v[id] = false
	}
	return v
}

// CountCommunities returns the number of connected components in g.
func (a *Analyzer) CountCommunities(g Graph) (int, error) {
	ids := g.Identities()
	visited := newVisitedSet(ids)

	count := 0
	var frontier []domain.Identity
	for _, id := range ids {
		if visited[id] {
			continue
		}
		count++
		frontier = append(frontier[:0], id)

		// Identities may be enqueued more than once; only the first pop
		// expands them.
		for len(frontier) > 0 {
			current := frontier[0]
			frontier = frontier[1:]

			seen, known := visited[current]
			if !known {
				return 0, fmt.Errorf("%w: %s", ErrLookupFailure, current)
			}
			if seen {
				continue
			}
			visited[current] = true

			if friends, ok := g.FriendsOf(current); ok {
				frontier = append(frontier, friends...)
			}
		}
	}
	return count, nil
}

// MostActiveCommunity returns the users discovered by the longest depth-first
// excursion, in discovery order. Every identity seeds at most one excursion,
// in snapshot order; on equal lengths the earlier excursion wins.
func (a *Analyzer) MostActiveCommunity(g Graph) ([]domain.User, error) {
	ids := g.Identities()
	visited := newVisitedSet(ids)

	var best []domain.Identity
	for _, root := range ids {
		if visited[root] {
			continue
		}
		visited[root] = true

		path, err := a.excursion(g, root)
		if err != nil {
			return nil, err
		}
		if len(best) < len(path) {
			best = path
		}
	}
	return Users(g, best)
}

// Analyze runs both analyses against the same graph.
func (a *Analyzer) Analyze(g Graph) (domain.CommunityReport, error) {
	count, err := a.CountCommunities(g)
	if err != nil {
		return domain.CommunityReport{}, fmt.Errorf("count communities: %w", err)
	}
	users, err := a.MostActiveCommunity(g)
	if err != nil {
		return domain.CommunityReport{}, fmt.Errorf("most active community: %w", err)
	}
	return domain.CommunityReport{Communities: count, MostActive: users}, nil
}

func (a *Analyzer) excursion(g Graph, root domain.Identity) ([]domain.Identity, error) {
	switch a.Mode {
	case PathModeShared:
		return sharedExcursion(g, root)
	case PathModeIsolated:
		return isolatedExcursion(g, root, a.MaxExpansions)
	default:
		return nil, fmt.Errorf("%w %s", ErrUnknownPathMode, a.Mode)
	}
}

// frame is one level of the explicit depth-first stack.
type frame struct {
	id      domain.Identity
	friends []domain.Identity
	next    int
}

func newFrame(g Graph, id domain.Identity) frame {
	friends, _ := g.FriendsOf(id)
	return frame{id: id, friends: friends}
}

func checkKnown(g Graph, id domain.Identity) error {
	if _, ok := g.User(id); !ok {
		return fmt.Errorf("%w: %s", ErrLookupFailure, id)
	}
	return nil
}

// sharedExcursion walks depth-first from root. The path buffer is shared by
// every branch: a sibling sees the vertices appended by earlier siblings, and
// nothing is removed when a branch is exhausted.
func sharedExcursion(g Graph, root domain.Identity) ([]domain.Identity, error) {
	if err := checkKnown(g, root); err != nil {
		return nil, err
	}
	path := []domain.Identity{root}
	inPath := map[domain.Identity]struct{}{root: {}}
	stack := []frame{newFrame(g, root)}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next >= len(top.friends) {
			stack = stack[:len(stack)-1]
			continue
		}
		friend := top.friends[top.next]
		top.next++

		if _, ok := inPath[friend]; ok {
			continue
		}
		if err := checkKnown(g, friend); err != nil {
			return nil, err
		}
		path = append(path, friend)
		inPath[friend] = struct{}{}
		stack = append(stack, newFrame(g, friend))
	}
	return path, nil
}

// isolatedExcursion returns the longest simple path starting at root. Vertices
// are removed from the path when their branch is exhausted.
func isolatedExcursion(g Graph, root domain.Identity, budget int) ([]domain.Identity, error) {
	if err := checkKnown(g, root); err != nil {
		return nil, err
	}
	path := []domain.Identity{root}
	inPath := map[domain.Identity]struct{}{root: {}}
	stack := []frame{newFrame(g, root)}
	best := []domain.Identity{root}
	expansions := 0

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next >= len(top.friends) {
			delete(inPath, top.id)
			path = path[:len(path)-1]
			stack = stack[:len(stack)-1]
			continue
		}
		friend := top.friends[top.next]
		top.next++

		if _, ok := inPath[friend]; ok {
			continue
		}
		if err := checkKnown(g, friend); err != nil {
			return nil, err
		}
		expansions++
		if budget > 0 && expansions > budget {
			return nil, fmt.Errorf("%w: root %s after %d expansions", ErrSearchBudget, root, budget)
		}

		path = append(path, friend)
		inPath[friend] = struct{}{}
		stack = append(stack, newFrame(g, friend))
		if len(path) > len(best) {
			best = append(best[:0:0], path...)
		}
	}
	return best, nil
}
