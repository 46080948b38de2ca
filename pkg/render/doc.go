// Package render draws resolved dependency graphs as node-link diagrams.
//
// [ToDOT] produces Graphviz DOT source in which every physical install is a
// box labelled with its name and version. Installs that belong to a
// duplicate group are filled: blue when all copies share a version, amber
// when versions conflict. [Render] turns DOT into SVG in-process using
// [github.com/goccy/go-graphviz], and into PDF or PNG by piping the SVG
// through rsvg-convert (librsvg).
//
//	dot := render.ToDOT(rep.Dependencies, render.Options{})
//	svg, err := render.Render(ctx, dot, render.FormatSVG)
package render
