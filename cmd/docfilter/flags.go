package main

import (
	"fmt"

	flag "github.com/spf13/pflag"
)

// cliFlags holds all parsed command-line options.
type cliFlags struct {
	to        string
	mode      string
	assetDir  string
	font      string
	libraries []string
	noImages  bool
	htmlOut   bool
	config    string
	watch     bool
	verbose   bool
	wordCount bool
	version   bool

	input  string
	output string
}

// parseFlags parses args (including the program name) into cliFlags.
func parseFlags(args []string) (*cliFlags, error) {
	f := &cliFlags{}

	fs := flag.NewFlagSet("docfilter", flag.ContinueOnError)
	fs.StringVarP(&f.to, "to", "t", "", "output format: latex, html, beamer, docx")
	fs.StringVarP(&f.mode, "mode", "m", "", "annotation mode: draft, print, hide")
	fs.StringVar(&f.assetDir, "asset-dir", "", "managed asset directory (default ~/.docfilter/assets)")
	fs.StringVar(&f.font, "font", "", "diagram font override")
	fs.StringSliceVar(&f.libraries, "tikz-library", nil, "TikZ library to include (repeatable)")
	fs.BoolVar(&f.noImages, "no-images", false, "disable image processing entirely")
	fs.BoolVar(&f.htmlOut, "html", false, "emit standalone HTML (html format only)")
	fs.StringVarP(&f.config, "config", "c", "", "config file path or name")
	fs.BoolVarP(&f.watch, "watch", "w", false, "re-filter whenever the input file changes")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "verbose diagnostics on stderr")
	fs.BoolVar(&f.wordCount, "wordcount", false, "report the body word count on stderr")
	fs.BoolVar(&f.version, "version", false, "print version and exit")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: docfilter [flags] <input.md> [output.md]\n\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args[1:]); err != nil {
		return nil, err
	}

	rest := fs.Args()
	if len(rest) > 0 {
		f.input = rest[0]
	}
	if len(rest) > 1 {
		f.output = rest[1]
	}
	if len(rest) > 2 {
		return nil, fmt.Errorf("%w: unexpected argument %q", ErrUsage, rest[2])
	}

	return f, nil
}
