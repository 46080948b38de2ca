package checks

import (
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

var versionToken = regexp.MustCompile(`\d+(\.(\d+|[xX*]))?(\.(\d+|[xX*]))?`)

// minVersion returns the lowest version satisfying the range c was parsed
// from. Candidates are 0.0.0 plus every version literal in the range and its
// patch successor (for exclusive lower bounds).
func minVersion(raw string, c *semver.Constraints) *semver.Version {
	candidates := []*semver.Version{semver.MustParse("0.0.0")}
	for _, tok := range versionToken.FindAllString(raw, -1) {
		tok = strings.NewReplacer("x", "0", "X", "0", "*", "0").Replace(tok)
		v, err := semver.NewVersion(tok)
		if err != nil {
			continue
		}
		next := v.IncPatch()
		candidates = append(candidates, v, &next)
	}

	var best *semver.Version
	for _, v := range candidates {
		if c.Check(v) && (best == nil || v.LessThan(best)) {
			best = v
		}
	}
	return best
}

// nodeEngineCompatible reports whether a package declaring engines.node
// may rely on a feature available from the required Node version range.
// It holds when the required minimum lies below the engines range or
// inside it. Unparseable ranges are treated as compatible.
func nodeEngineCompatible(required, engines string) bool {
	req, err := semver.NewConstraint(required)
	if err != nil {
		return true
	}
	eng, err := semver.NewConstraint(engines)
	if err != nil {
		return true
	}
	reqMin := minVersion(required, req)
	if reqMin == nil {
		return true
	}
	if eng.Check(reqMin) {
		return true
	}
	engMin := minVersion(engines, eng)
	return engMin != nil && reqMin.LessThan(engMin)
}
