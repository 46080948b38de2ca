// Package pkg provides the core libraries for nodehealth package analysis.
//
// # Overview
//
// nodehealth inspects an npm package (a project directory or a packed
// tarball) and reports on its installed dependency graph, duplicated
// installs, type declarations, packaging metadata and dependencies that have
// lighter replacements. The pkg directory is organized into three areas:
//
//  1. Domain logic: [manifest], [modtype], [deps], [checks]
//  2. Orchestration and output: [report], [output], [render]
//  3. Infrastructure: [filestore], [pack], [cache], [history], [server],
//     [config], [observability], [errors], [buildinfo]
//
// # Architecture
//
// The typical data flow:
//
//	directory or .tgz
//	         ↓
//	    [filestore] package (Local, or Memory via FromTarball)
//	         ↓
//	    [deps] package (resolve installs, detect duplicates)
//	         ↓
//	    [checks] package (dependencies, replacements, types, publint)
//	         ↓
//	    [report] package (concurrent runner, stats merge, cache)
//	         ↓
//	    text, JSON, SARIF or DOT/SVG output
//
// # Quick Start
//
//	store, _ := filestore.NewLocal("path/to/project")
//	runner := report.NewRunner(nil, nil, log.Default())
//	rep, err := runner.Run(ctx, store, report.Options{})
//	if err != nil {
//	    return err
//	}
//	for _, d := range rep.Dependencies.Duplicates {
//	    fmt.Println(checks.FormatDuplicate(d))
//	}
//
// [manifest]: github.com/matzehuels/nodehealth/pkg/manifest
// [modtype]: github.com/matzehuels/nodehealth/pkg/modtype
// [deps]: github.com/matzehuels/nodehealth/pkg/deps
// [checks]: github.com/matzehuels/nodehealth/pkg/checks
// [report]: github.com/matzehuels/nodehealth/pkg/report
// [output]: github.com/matzehuels/nodehealth/pkg/output
// [render]: github.com/matzehuels/nodehealth/pkg/render
// [filestore]: github.com/matzehuels/nodehealth/pkg/filestore
// [pack]: github.com/matzehuels/nodehealth/pkg/pack
// [cache]: github.com/matzehuels/nodehealth/pkg/cache
// [history]: github.com/matzehuels/nodehealth/pkg/history
// [server]: github.com/matzehuels/nodehealth/pkg/server
// [config]: github.com/matzehuels/nodehealth/pkg/config
// [observability]: github.com/matzehuels/nodehealth/pkg/observability
// [errors]: github.com/matzehuels/nodehealth/pkg/errors
// [buildinfo]: github.com/matzehuels/nodehealth/pkg/buildinfo
package pkg
