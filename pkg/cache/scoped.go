package cache

// ScopedKeyer wraps a Keyer with a prefix for namespace isolation, e.g. one
// namespace per service deployment sharing a Redis instance.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "nodehealth:prod:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// ReportKey generates a prefixed report key.
func (k *ScopedKeyer) ReportKey(digest string, opts ReportKeyOpts) string {
	return k.prefix + k.inner.ReportKey(digest, opts)
}
