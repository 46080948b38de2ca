// Package deps resolves the installed dependency graph of a Node.js package
// and detects dependencies that are physically installed more than once.
//
// # Resolution
//
// [Resolver.Resolve] reads the root package.json from a [Store] and walks
// its declared dependencies depth-first. Each dependency name is located the
// way Node's module resolution does it: starting from the declaring
// package's directory, look for node_modules/<name>/package.json and move
// one directory up on each miss ([Lookup]). Unresolvable names are omitted.
//
// Every location is recorded at most once per run, no matter how many
// packages depend on it. Two nodes with the same name therefore always
// denote two distinct physical installs, which is what
// [DetectDuplicates] reports.
//
// Locations are opaque forward-slash paths relative to the package root, so
// the resolver works identically over a directory on disk and over an
// unpacked tarball held in memory.
//
// # Failures
//
// Only the root descriptor is load-bearing: if it is missing or malformed,
// Resolve fails with [errors.ErrCodeManifestNotFound] or
// [errors.ErrCodeInvalidManifest] and returns no graph. Any other
// descriptor that cannot be read, parsed, or lacks a name prunes its branch
// silently.
//
// # Duplicates
//
// [DetectDuplicates] groups nodes by name, ignoring the root package, and
// classifies each group with two or more installs as [SeverityExact] (all
// version strings identical) or [SeverityConflict].
//
//	g, err := deps.NewResolver(store, deps.Options{}).Resolve(ctx, manifest.FileName)
//	if err != nil {
//	    return err
//	}
//	for _, d := range deps.DetectDuplicates(g.Nodes) {
//	    fmt.Println(d.Name, d.Severity, len(d.Versions))
//	}
//
// [errors.ErrCodeManifestNotFound]: github.com/matzehuels/nodehealth/pkg/errors.ErrCodeManifestNotFound
// [errors.ErrCodeInvalidManifest]: github.com/matzehuels/nodehealth/pkg/errors.ErrCodeInvalidManifest
package deps
