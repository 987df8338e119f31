package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/wudi/orderkit/assets"
	"github.com/wudi/orderkit/document"
	"github.com/wudi/orderkit/intake"
	"github.com/wudi/orderkit/observability"
	"github.com/wudi/orderkit/order"
	"github.com/wudi/orderkit/request"
)

type options struct {
	in         string
	out        string
	assetDirs  []string
	noPaginate bool
	verbose    bool
	extract    string
}

type dirList []string

func (d *dirList) String() string { return fmt.Sprint(*d) }

func (d *dirList) Set(v string) error {
	*d = append(*d, filepath.SplitList(v)...)
	return nil
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "orderform: %v\n", err)
		os.Exit(2)
	}
	if err := run(context.Background(), opts, os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "orderform: %v\n", err)
		var inv *request.InvalidError
		if errors.As(err, &inv) {
			for _, m := range inv.Messages {
				fmt.Fprintf(os.Stderr, "  %s\n", m)
			}
		}
		os.Exit(1)
	}
}

func parseFlags(args []string) (options, error) {
	var opts options
	var dirs dirList
	fs := flag.NewFlagSet("orderform", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: orderform [flags] -in order.json\n       orderform -extract upload.docx\n")
		fs.PrintDefaults()
	}
	fs.StringVar(&opts.in, "in", "", "Order request JSON (\"-\" for stdin)")
	fs.StringVar(&opts.out, "out", "", "Output PDF path (default: the generated file name)")
	fs.Var(&dirs, "assets", "Extra font/logo directory, searched first (repeatable)")
	fs.BoolVar(&opts.noPaginate, "no-paginate", false, "Draw the services table in one pass without page breaks")
	fs.BoolVar(&opts.verbose, "v", false, "Debug logging")
	fs.StringVar(&opts.extract, "extract", "", "Print order fields found in a .txt/.html/.docx upload as JSON")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if opts.in == "" && opts.extract == "" {
		fs.Usage()
		return options{}, fmt.Errorf("missing -in or -extract")
	}
	opts.assetDirs = dirs
	return opts, nil
}

func run(ctx context.Context, opts options, stdin io.Reader, stdout, stderr io.Writer) error {
	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	log := observability.NewSlogLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))

	if opts.extract != "" {
		return extract(opts.extract, stdout)
	}

	in := stdin
	if opts.in != "-" {
		f, err := os.Open(opts.in)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	req, err := request.Decode(in)
	if err != nil {
		return err
	}
	v, err := order.NewValidator()
	if err != nil {
		return err
	}
	now := time.Now()
	ord, items, err := req.Resolve(v, now)
	if err != nil {
		return err
	}

	resolver := assets.NewResolver(assets.WithDirs(opts.assetDirs...), assets.WithLogger(log))
	res, err := document.Render(ctx, ord, items,
		document.WithAssets(resolver),
		document.WithLogger(log),
		document.WithClock(func() time.Time { return now }),
		document.WithTablePagination(!opts.noPaginate),
	)
	if err != nil {
		return err
	}

	out := opts.out
	if out == "" {
		out = res.Filename
	}
	if out == "-" {
		_, err = stdout.Write(res.Bytes)
		return err
	}
	if err := os.WriteFile(out, res.Bytes, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(stderr, "wrote %s (%d pages, total %s)\n", out, res.Pages, order.FormatMoney(res.Total))
	return nil
}

func extract(path string, stdout io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	o, _, err := intake.Extract(filepath.Base(path), f)
	if err != nil {
		return err
	}
	return writeJSON(stdout, o)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
