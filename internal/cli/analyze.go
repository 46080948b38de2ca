package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nodehealth/pkg/checks"
	"github.com/matzehuels/nodehealth/pkg/config"
	"github.com/matzehuels/nodehealth/pkg/deps"
	"github.com/matzehuels/nodehealth/pkg/errors"
	"github.com/matzehuels/nodehealth/pkg/filestore"
	"github.com/matzehuels/nodehealth/pkg/observability"
	"github.com/matzehuels/nodehealth/pkg/output"
	"github.com/matzehuels/nodehealth/pkg/pack"
	"github.com/matzehuels/nodehealth/pkg/render"
	"github.com/matzehuels/nodehealth/pkg/report"
)

// ErrProblemsFound is returned after a report with error messages has been
// written. main exits 1 on it without printing anything further.
var ErrProblemsFound = stderrors.New("problems found")

const (
	formatText  = "text"
	formatJSON  = "json"
	formatSARIF = "sarif"
)

// analyzeOpts holds the command-line flags for the analyze command.
type analyzeOpts struct {
	pack        string   // auto, npm, yarn, pnpm, bun or none
	manifests   []string // custom replacement manifests
	format      string   // text, json or sarif
	output      string   // report file; stdout when empty
	graph       string   // graph file (.dot, .svg, .pdf, .png)
	devDeps     string   // root, all or none
	maxDepth    int      // resolver depth limit
	noCache     bool     // skip the report cache
	interactive bool     // open the duplicate browser
	logLevel    string   // debug, info, warn or error
}

// analyzeCommand creates the analyze command.
func (c *CLI) analyzeCommand() *cobra.Command {
	var opts analyzeOpts

	cmd := &cobra.Command{
		Use:   "analyze [path]",
		Short: "Analyze a package directory or tarball",
		Long: `Analyze a package directory or a packed .tgz.

A directory is packed with its package manager first (--pack auto), unless
--pack none analyzes it in place, including its node_modules.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := "."
			if len(args) == 1 {
				target = args[0]
			}
			return c.runAnalyze(cmd.Context(), cmd, target, &opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.pack, "pack", "auto", "package manager used to pack a directory: auto, npm, yarn, pnpm, bun, none")
	f.StringArrayVar(&opts.manifests, "manifest", nil, "custom replacements manifest (repeatable)")
	f.StringVarP(&opts.format, "format", "f", formatText, "report format: text, json, sarif")
	f.StringVarP(&opts.output, "output", "o", "", "write the report to a file instead of stdout")
	f.StringVar(&opts.graph, "graph", "", "write the dependency graph (.dot, .svg, .pdf, .png)")
	f.StringVar(&opts.devDeps, "dev-deps", "root", "whose devDependencies to traverse: root, all, none")
	f.IntVar(&opts.maxDepth, "max-depth", deps.DefaultMaxDepth, "maximum dependency depth")
	f.BoolVar(&opts.noCache, "no-cache", false, "disable the report cache")
	f.BoolVarP(&opts.interactive, "interactive", "i", false, "browse duplicate dependencies interactively")
	f.StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn, error")

	return cmd
}

// applyConfig fills options the user did not set on the command line.
func (o *analyzeOpts) applyConfig(cmd *cobra.Command, cfg *config.Config) {
	set := func(name string) bool { return cmd.Flags().Changed(name) }
	a := cfg.Analyze
	if !set("pack") && a.Pack != "" {
		o.pack = a.Pack
	}
	if !set("format") && a.Format != "" {
		o.format = a.Format
	}
	if !set("dev-deps") && a.DevDeps != "" {
		o.devDeps = a.DevDeps
	}
	if !set("max-depth") && a.MaxDepth > 0 {
		o.maxDepth = a.MaxDepth
	}
	if !set("log-level") && a.LogLevel != "" {
		o.logLevel = a.LogLevel
	}
	if !set("no-cache") {
		o.noCache = cfg.Cache.Disabled
	}
	o.manifests = slices.Concat(a.Manifests, o.manifests)
}

// runAnalyze executes the analyze command.
func (c *CLI) runAnalyze(ctx context.Context, cmd *cobra.Command, target string, opts *analyzeOpts) error {
	info, err := os.Stat(target)
	if err != nil {
		return errors.Wrap(errors.ErrCodeFileNotFound, err, "cannot read %s", target)
	}
	dir := target
	if !info.IsDir() {
		dir = filepath.Dir(target)
	}

	cfg, err := config.Load(dir)
	if err != nil {
		return err
	}
	if cfg.Path != "" {
		c.Logger.Debug("loaded config", "path", cfg.Path)
	}
	for _, k := range cfg.Unknown {
		c.Logger.Warn("unknown config key", "key", k, "path", cfg.Path)
	}
	opts.applyConfig(cmd, cfg)

	level, err := parseLevel(opts.logLevel)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") || c.Logger.GetLevel() > level {
		c.SetLogLevel(level)
	}

	runOpts, manager, err := c.buildOptions(opts)
	if err != nil {
		return err
	}

	prog := newProgress(c.Logger)
	store, err := c.openStore(ctx, target, info.IsDir(), manager)
	if err != nil {
		return err
	}

	lh := &logHooks{logger: c.Logger}
	observability.SetCacheHooks(lh)
	hooks := reportHooksFanout{lh}
	var spin *Spinner
	if opts.format == formatText && opts.output == "" && !opts.interactive {
		spin = newSpinner(ctx, os.Stderr, "Analyzing...")
		hooks = append(hooks, spinnerHooks{spinner: spin})
		spin.Start()
	}
	observability.SetReportHooks(hooks)
	rep, err := c.newRunner(opts.noCache, cfg.Cache.Dir).Run(ctx, store, runOpts)
	if spin != nil {
		spin.Stop()
	}
	observability.SetReportHooks(lh)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Analyzed %s", rep.Info.Name))

	if err := c.writeReport(rep, opts); err != nil {
		return err
	}
	if opts.graph != "" {
		if err := writeGraph(ctx, rep, opts.graph); err != nil {
			return err
		}
		printFile(os.Stderr, opts.graph)
	}
	if opts.interactive {
		if err := browseDuplicates(rep.Dependencies.Duplicates); err != nil {
			return err
		}
	}

	if rep.HasErrors() {
		return ErrProblemsFound
	}
	return nil
}

// buildOptions validates the flags and loads custom manifests. Manifests
// that fail to load are skipped with a warning.
func (c *CLI) buildOptions(opts *analyzeOpts) (report.Options, pack.Manager, error) {
	var ro report.Options
	switch opts.format {
	case formatText, formatJSON, formatSARIF:
	default:
		return ro, "", errors.New(errors.ErrCodeInvalidInput, "invalid format %q (want text, json or sarif)", opts.format)
	}
	if opts.graph != "" {
		if _, err := render.FormatFor(opts.graph); err != nil {
			return ro, "", err
		}
	}
	manager, err := pack.ParseManager(opts.pack)
	if err != nil {
		return ro, "", err
	}
	scope, err := deps.ParseDevScope(opts.devDeps)
	if err != nil {
		return ro, "", err
	}
	if opts.maxDepth <= 0 {
		return ro, "", errors.New(errors.ErrCodeInvalidInput, "--max-depth must be positive")
	}

	ro.Deps = deps.Options{DevDependencies: scope, MaxDepth: opts.maxDepth}
	for _, p := range opts.manifests {
		entries, err := checks.LoadManifest(p)
		if err != nil {
			c.Logger.Warn("skipping replacements manifest", "path", p, "error", errors.UserMessage(err))
			continue
		}
		c.Logger.Debug("loaded replacements manifest", "path", p, "entries", len(entries))
		ro.Replacements = append(ro.Replacements, entries...)
	}
	return ro, manager, nil
}

// openStore picks the file store for target: a tarball file is unpacked in
// memory, a directory is packed first or, with --pack none, read in place.
func (c *CLI) openStore(ctx context.Context, target string, isDir bool, manager pack.Manager) (filestore.Store, error) {
	var store filestore.Store
	switch {
	case !isDir:
		data, err := os.ReadFile(target)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "read tarball %s", target)
		}
		if store, err = filestore.FromTarball(data); err != nil {
			return nil, err
		}
	case manager == pack.None:
		local, err := filestore.NewLocal(target)
		if err != nil {
			return nil, err
		}
		store = local
	default:
		if manager == pack.Auto {
			manager = pack.Detect(target)
		}
		c.Logger.Debug("packing", "dir", target, "manager", manager)
		data, err := pack.Pack(ctx, target, manager)
		if err != nil {
			return nil, err
		}
		if store, err = filestore.FromTarball(data); err != nil {
			return nil, err
		}
	}
	return filestore.NewCached(store, 0)
}

// writeReport writes rep in the requested format.
func (c *CLI) writeReport(rep *report.Report, opts *analyzeOpts) error {
	w := c.out
	if opts.output != "" {
		f, err := os.Create(opts.output)
		if err != nil {
			return fmt.Errorf("create %s: %w", opts.output, err)
		}
		defer f.Close()
		w = f
	}
	if err := encodeReport(w, rep, opts.format); err != nil {
		return err
	}
	if opts.output != "" {
		printFile(os.Stderr, opts.output)
	}
	return nil
}

func encodeReport(w io.Writer, rep *report.Report, format string) error {
	switch format {
	case formatJSON:
		return output.WriteJSON(rep, w)
	case formatSARIF:
		return output.WriteSARIF(rep, w)
	default:
		writeText(w, rep)
		return nil
	}
}

// writeGraph renders the dependency graph to path, choosing the format by
// extension.
func writeGraph(ctx context.Context, rep *report.Report, path string) error {
	format, err := render.FormatFor(path)
	if err != nil {
		return err
	}
	data, err := render.Render(ctx, render.ToDOT(rep.Dependencies, render.Options{}), format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
