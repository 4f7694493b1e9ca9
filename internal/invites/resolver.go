// Package invites maps one-time invite codes to canonical team identifiers.
// The code table is static configuration, not a database entity; multiple
// codes may point at the same team.
package invites

import (
	"errors"
	"sort"
)

var (
	// ErrEmptyCode is returned for a blank invite code.
	ErrEmptyCode = errors.New("invite code is required")
	// ErrUnknownCode is returned when no table entry matches the code.
	ErrUnknownCode = errors.New("unknown invite code")
)

// Resolver resolves invite codes and owns the canonical team set. Codes are
// matched by exact, case-sensitive equality: "feb" and "FEB" are different
// codes. This strictness is deliberate and covered by tests.
type Resolver struct {
	codes map[string]string
	teams []string
}

// NewResolver builds a Resolver from a code -> team table. The canonical
// team set is the deduplicated value set, naturally sorted; it backs the
// closed dropdown admins pick from.
func NewResolver(codes map[string]string) *Resolver {
	seen := make(map[string]bool, len(codes))
	teams := make([]string, 0, len(codes))
	for _, team := range codes {
		if !seen[team] {
			seen[team] = true
			teams = append(teams, team)
		}
	}
	sort.Slice(teams, func(i, j int) bool { return naturalLess(teams[i], teams[j]) })

	table := make(map[string]string, len(codes))
	for code, team := range codes {
		table[code] = team
	}
	return &Resolver{codes: table, teams: teams}
}

// Resolve maps a code to its team. Deterministic: the same code always
// yields the same team or the same error.
func (r *Resolver) Resolve(code string) (string, error) {
	if code == "" {
		return "", ErrEmptyCode
	}
	team, ok := r.codes[code]
	if !ok {
		return "", ErrUnknownCode
	}
	return team, nil
}

// Teams returns the canonical team identifiers in natural sort order.
func (r *Resolver) Teams() []string {
	out := make([]string, len(r.teams))
	copy(out, r.teams)
	return out
}

// IsCanonical reports whether the team is one of the canonical identifiers.
// Admin profile edits that set a team directly must pass this check; a team
// string from any other surface is never accepted.
func (r *Resolver) IsCanonical(team string) bool {
	for _, t := range r.teams {
		if t == team {
			return true
		}
	}
	return false
}

// naturalLess compares strings so that embedded numbers order numerically:
// "team2" < "team10".
func naturalLess(a, b string) bool {
	for len(a) > 0 && len(b) > 0 {
		if isDigit(a[0]) && isDigit(b[0]) {
			na, ra := leadingInt(a)
			nb, rb := leadingInt(b)
			if na != nb {
				return na < nb
			}
			a, b = ra, rb
			continue
		}
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		a, b = a[1:], b[1:]
	}
	return len(a) < len(b)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func leadingInt(s string) (int64, string) {
	var n int64
	i := 0
	for i < len(s) && isDigit(s[i]) {
		n = n*10 + int64(s[i]-'0')
		i++
	}
	return n, s[i:]
}
