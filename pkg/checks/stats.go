package checks

// DependencyCount holds the dependency counters of a report.
type DependencyCount struct {
	Production  int `json:"production"`
	Development int `json:"development"`
	CJS         int `json:"cjs"`
	ESM         int `json:"esm"`
	Duplicate   int `json:"duplicate"`
}

// Stat is a named statistic contributed by a checker. Value is a number or
// a string.
type Stat struct {
	Name  string `json:"name"`
	Label string `json:"label,omitempty"`
	Value any    `json:"value"`
}

// DisplayName returns Label, falling back to Name.
func (s Stat) DisplayName() string {
	if s.Label != "" {
		return s.Label
	}
	return s.Name
}

// Stats are the aggregate counters of a report.
type Stats struct {
	Name            string          `json:"name"`
	Version         string          `json:"version"`
	InstallSize     int64           `json:"installSize"`
	DependencyCount DependencyCount `json:"dependencyCount"`
	ExtraStats      []Stat          `json:"extraStats,omitempty"`
}

// Merge folds o into s. Counters and install size add up, name and version
// keep the first non-empty value, and extra stats are de-duplicated by name
// with the first occurrence kept. A nil o is a no-op.
func (s *Stats) Merge(o *Stats) {
	if o == nil {
		return
	}
	if s.Name == "" {
		s.Name = o.Name
	}
	if s.Version == "" {
		s.Version = o.Version
	}
	s.InstallSize += o.InstallSize

	s.DependencyCount.Production += o.DependencyCount.Production
	s.DependencyCount.Development += o.DependencyCount.Development
	s.DependencyCount.CJS += o.DependencyCount.CJS
	s.DependencyCount.ESM += o.DependencyCount.ESM
	s.DependencyCount.Duplicate += o.DependencyCount.Duplicate

	for _, st := range o.ExtraStats {
		if !s.hasExtra(st.Name) {
			s.ExtraStats = append(s.ExtraStats, st)
		}
	}
}

func (s *Stats) hasExtra(name string) bool {
	for _, st := range s.ExtraStats {
		if st.Name == name {
			return true
		}
	}
	return false
}
