// Command medscan extracts prescription or patient fields from a scanned
// document and prints them as JSON or writes a spreadsheet.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"github.com/toricodesthings/medscan-service/internal/app"
	"github.com/toricodesthings/medscan-service/internal/config"
	"github.com/toricodesthings/medscan-service/internal/export"
	"github.com/toricodesthings/medscan-service/internal/extract"
)

type options struct {
	docType  string
	format   string
	out      string
	textOnly bool
	verbose  bool
}

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "medscan:", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	var opts options
	fs := pflag.NewFlagSet("medscan", pflag.ContinueOnError)
	fs.StringVarP(&opts.docType, "type", "t", "", "document type: prescription or patient (required)")
	fs.StringVarP(&opts.format, "format", "f", "json", "output format: json or xlsx")
	fs.StringVarP(&opts.out, "out", "o", "", "write output to this file instead of stdout")
	fs.BoolVar(&opts.textOnly, "text", false, "treat the input as already recognized text")
	fs.BoolVarP(&opts.verbose, "verbose", "v", false, "include recognized text and page details in JSON output")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: medscan --type prescription|patient [flags] <file|->")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	if strings.TrimSpace(opts.docType) == "" {
		return errors.New("--type is required")
	}
	if opts.format != "json" && opts.format != "xlsx" {
		return fmt.Errorf("unknown --format %q", opts.format)
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errors.New("exactly one input file is required")
	}
	input := fs.Arg(0)

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	level, _ := config.ParseLevel(cfg.LogLevel)
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	router, err := app.NewRouter(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ExtractTimeout)
	defer cancel()

	res, err := extractInput(ctx, router, input, opts, stdin)
	if err != nil {
		return err
	}

	w := stdout
	if opts.out != "" {
		f, err := os.Create(opts.out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	if opts.format == "xlsx" {
		return export.WriteXLSX(w, res.Record)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if opts.verbose {
		return enc.Encode(res)
	}
	return enc.Encode(res.Record)
}

func extractInput(ctx context.Context, router *extract.Router, input string, opts options, stdin io.Reader) (extract.Result, error) {
	if opts.textOnly || strings.EqualFold(filepath.Ext(input), ".txt") {
		var b []byte
		var err error
		if input == "-" {
			b, err = io.ReadAll(stdin)
		} else {
			b, err = os.ReadFile(input)
		}
		if err != nil {
			return extract.Result{}, err
		}
		return router.ExtractText(opts.docType, string(b))
	}

	if input == "-" {
		return router.ExtractReader(ctx, stdin, "stdin", opts.docType)
	}

	st, err := os.Stat(input)
	if err != nil {
		return extract.Result{}, err
	}
	return router.Extract(ctx, extract.Job{
		LocalPath: input,
		FileName:  filepath.Base(input),
		MIMEType:  extract.DetectMIME(input),
		FileSize:  st.Size(),
		DocType:   opts.docType,
	})
}
