package deps

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Severity classifies a duplicate group.
type Severity string

const (
	SeverityExact      Severity = "exact"      // every install has the same version
	SeverityConflict   Severity = "conflict"   // installs differ in version
	SeverityResolvable Severity = "resolvable" // reserved for range-aware resolution; never produced
)

// Duplicate is a package name with more than one physical install.
type Duplicate struct {
	Name             string   `json:"name"`
	Versions         []Node   `json:"versions"`
	Severity         Severity `json:"severity"`
	PotentialSavings int      `json:"potentialSavings"`
	Suggestions      []string `json:"suggestions,omitempty"`
}

// DetectDuplicates groups nodes by name and returns every group with at
// least two installs, in order of each name's first occurrence.
//
// Root nodes (depth 0) are never grouped, and groups named "root" or after
// the root package, or containing a member named "root", are dropped.
func DetectDuplicates(nodes []Node) []Duplicate {
	excluded := map[string]bool{RootLabel: true}
	var order []string
	groups := make(map[string][]Node)
	for _, n := range nodes {
		if n.IsRoot() {
			excluded[n.Name] = true
			continue
		}
		if _, ok := groups[n.Name]; !ok {
			order = append(order, n.Name)
		}
		groups[n.Name] = append(groups[n.Name], n)
	}

	var out []Duplicate
	for _, name := range order {
		members := groups[name]
		if excluded[name] || len(members) < 2 || hasMember(members, RootLabel) {
			continue
		}
		out = append(out, Duplicate{
			Name:             name,
			Versions:         members,
			Severity:         severity(members),
			PotentialSavings: len(members) - 1,
			Suggestions:      suggestions(members),
		})
	}
	return out
}

func hasMember(members []Node, name string) bool {
	for _, m := range members {
		if m.Name == name {
			return true
		}
	}
	return false
}

func severity(members []Node) Severity {
	for _, m := range members[1:] {
		if m.Version != members[0].Version {
			return SeverityConflict
		}
	}
	return SeverityExact
}

func suggestions(members []Node) []string {
	var out []string
	if version, count := mostFrequent(members); count > 1 {
		out = append(out, fmt.Sprintf("Consider standardizing on version %s (used by %d dependencies)", version, count))
	}
	if parents := distinctParents(members); len(parents) > 1 {
		out = append(out, fmt.Sprintf("Check if newer versions of consuming packages (%s) would resolve this duplicate", strings.Join(parents, ", ")))
	}
	return out
}

// mostFrequent returns the most common version among members. Ties go to
// the higher semantic version; versions that do not parse lose to those
// that do, and among themselves the lexically smallest wins.
func mostFrequent(members []Node) (string, int) {
	counts := make(map[string]int)
	var versions []string
	for _, m := range members {
		if counts[m.Version] == 0 {
			versions = append(versions, m.Version)
		}
		counts[m.Version]++
	}

	best := versions[0]
	for _, v := range versions[1:] {
		switch {
		case counts[v] > counts[best]:
			best = v
		case counts[v] == counts[best] && preferVersion(v, best):
			best = v
		}
	}
	return best, counts[best]
}

// preferVersion reports whether a wins a frequency tie against b.
func preferVersion(a, b string) bool {
	va, errA := semver.NewVersion(a)
	vb, errB := semver.NewVersion(b)
	switch {
	case errA == nil && errB == nil:
		if c := va.Compare(vb); c != 0 {
			return c > 0
		}
		return a < b
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return a < b
	}
}

func distinctParents(members []Node) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range members {
		if m.Parent == "" || seen[m.Parent] {
			continue
		}
		seen[m.Parent] = true
		out = append(out, m.Parent)
	}
	return out
}
