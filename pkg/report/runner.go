package report

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/nodehealth/pkg/cache"
	"github.com/matzehuels/nodehealth/pkg/checks"
	"github.com/matzehuels/nodehealth/pkg/deps"
	"github.com/matzehuels/nodehealth/pkg/filestore"
	"github.com/matzehuels/nodehealth/pkg/manifest"
	"github.com/matzehuels/nodehealth/pkg/modtype"
	"github.com/matzehuels/nodehealth/pkg/observability"
)

// unknownName is reported for packages without a usable name.
const unknownName = "unknown"

// Options configures one report run.
type Options struct {
	Deps         deps.Options         // Resolver options for the dependencies checker
	Replacements []checks.Replacement // Custom replacement entries, ahead of the built-in list
	Checkers     []checks.Checker     // Overrides the default checkers when non-empty
	Refresh      bool                 // Bypass cached reports
}

func (o Options) checkers() []checks.Checker {
	if len(o.Checkers) > 0 {
		return o.Checkers
	}
	return checks.Defaults(o.Deps, o.Replacements)
}

func (o Options) keyOpts(checkers []checks.Checker) cache.ReportKeyOpts {
	d := o.Deps.WithDefaults()
	k := cache.ReportKeyOpts{
		DevDependencies: d.DevDependencies.String(),
		MaxDepth:        d.MaxDepth,
	}
	for _, c := range checkers {
		k.Checkers = append(k.Checkers, c.Name())
	}
	if len(o.Replacements) > 0 {
		data, _ := json.Marshal(o.Replacements)
		k.Manifests = []string{cache.Hash(data)}
	}
	return k
}

// Runner produces reports with caching.
//
// The Runner is stateless except for the cache and logger; multiple
// goroutines can share one Runner.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Run analyzes the package in store.
//
// It fails when the root package.json is missing or malformed, when a
// required checker fails, or when ctx is cancelled. Failures of other
// checkers are recorded in the report's timings and logged.
func (r *Runner) Run(ctx context.Context, store filestore.Store, opts Options) (*Report, error) {
	start := time.Now()
	root, _ := store.Root(ctx)
	observability.Report().OnReportStart(ctx, root)

	rep, err := r.run(ctx, store, root, opts)

	name, count := "", 0
	if rep != nil {
		name, count = rep.Info.Name, len(rep.Messages)
	}
	observability.Report().OnReportComplete(ctx, name, count, time.Since(start), err)
	return rep, err
}

func (r *Runner) run(ctx context.Context, store filestore.Store, root string, opts Options) (*Report, error) {
	desc, err := manifest.LoadRoot(ctx, store, manifest.FileName)
	if err != nil {
		return nil, err
	}
	info := Info{Name: unknownName, Version: desc.Version, Type: modtype.Classify(desc)}
	if desc.HasName() {
		info.Name = desc.Name
	}

	checkers := opts.checkers()
	digest := ""
	if d, ok := store.(filestore.Digester); ok {
		digest = d.Digest()
	}
	key := ""
	if digest != "" {
		key = r.Keyer.ReportKey(digest, opts.keyOpts(checkers))
		if !opts.Refresh {
			if rep, ok := r.cached(ctx, key); ok {
				r.Logger.Debug("report cache hit", "package", info.Name, "digest", shortDigest(digest))
				return rep, nil
			}
		}
	}

	results, timings, err := r.runCheckers(ctx, store, checkers)
	if err != nil {
		return nil, err
	}

	rep := &Report{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Root:      root,
		Digest:    digest,
		Info:      info,
		Timings:   timings,
		Messages:  []checks.Message{},
	}
	for i, res := range results {
		if res == nil {
			continue
		}
		for _, m := range res.Messages {
			if m.Source == "" {
				m.Source = checkers[i].Name()
			}
			rep.Messages = append(rep.Messages, m)
		}
		rep.Stats.Merge(res.Stats)
		if res.Dependencies != nil && rep.Dependencies.Nodes == nil {
			rep.Dependencies = *res.Dependencies
		}
	}
	if rep.Stats.Name == "" {
		rep.Stats.Name = info.Name
	}
	if rep.Stats.Version == "" {
		rep.Stats.Version = info.Version
	}

	r.Logger.Info("analyzed package",
		"package", info.Name,
		"nodes", len(rep.Dependencies.Nodes),
		"duplicates", len(rep.Dependencies.Duplicates),
		"messages", len(rep.Messages))

	if key != "" {
		r.store(ctx, key, rep)
	}
	return rep, nil
}

// runCheckers runs every checker concurrently. Each checker writes only its
// own result and timing slot, so output order is checker order.
func (r *Runner) runCheckers(ctx context.Context, store filestore.Store, checkers []checks.Checker) ([]*checks.Result, []Timing, error) {
	results := make([]*checks.Result, len(checkers))
	timings := make([]Timing, len(checkers))

	g, gctx := errgroup.WithContext(ctx)
	for i, c := range checkers {
		g.Go(func() error {
			observability.Report().OnCheckStart(gctx, c.Name())
			start := time.Now()
			res, err := c.Check(gctx, store)
			elapsed := time.Since(start)

			messages := 0
			if res != nil {
				messages = len(res.Messages)
			}
			observability.Report().OnCheckComplete(gctx, c.Name(), messages, elapsed, err)

			timings[i] = Timing{Name: c.Name(), Duration: elapsed}
			if err != nil {
				timings[i].Error = err.Error()
				if checks.IsRequired(c) {
					return fmt.Errorf("%s: %w", c.Name(), err)
				}
				if gctx.Err() == nil {
					r.Logger.Warn("checker failed", "checker", c.Name(), "error", err)
				}
				return nil
			}
			r.Logger.Debug("checker finished", "checker", c.Name(), "messages", messages, "duration", elapsed)
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	return results, timings, nil
}

func (r *Runner) cached(ctx context.Context, key string) (*Report, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("report cache read failed", "error", err)
	}
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, "report")
		return nil, false
	}
	var rep Report
	if err := json.Unmarshal(data, &rep); err != nil {
		observability.Cache().OnCacheMiss(ctx, "report")
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, "report")
	rep.Cached = true
	return &rep, true
}

func (r *Runner) store(ctx context.Context, key string, rep *Report) {
	data, err := json.Marshal(rep)
	if err != nil {
		return
	}
	if err := r.Cache.Set(ctx, key, data, cache.DefaultTTL); err != nil {
		r.Logger.Warn("report cache write failed", "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, "report", len(data))
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}
