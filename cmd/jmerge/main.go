//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Copyright (C) 2025 The jexplode authors
//
// This file is part of jexplode.
//
// jexplode is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// jexplode is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with jexplode. If not, see https://www.gnu.org/licenses/.

// Command jmerge recombines a JSONL stream by a dot-path key: all records
// sharing a key value are deep-merged into a single output record, with a
// SQLite spill file keeping memory bounded. It is the inverse companion to
// jexplode. Endpoints accept the same designators as jexplode: "-", a local
// file (optionally .gz/.gzip), or s3://bucket/key.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/jsonltools/jexplode"
	"github.com/jsonltools/jexplode/analyze"
	"github.com/jsonltools/jexplode/awsconfig"
	"github.com/jsonltools/jexplode/dotpath"
	"github.com/jsonltools/jexplode/endpoint"
	"github.com/jsonltools/jexplode/filter"
	"github.com/jsonltools/jexplode/merge"
	"github.com/jsonltools/jexplode/readers"
	"github.com/jsonltools/jexplode/writers"
)

type options struct {
	inputs       []string
	output       string
	mergeField   string
	outputField  string
	strategy     string
	dbPath       string
	batchSize    int
	keepOriginal bool
	skipMissing  bool
	analyzeFirst bool
	cleanupDB    bool
	verbose      bool
}

func main() {
	_ = godotenv.Load()
	log.SetFlags(0)
	log.SetPrefix("jmerge: ")

	var opts options
	flags := pflag.NewFlagSet("jmerge", pflag.ContinueOnError)
	flags.StringVarP(&opts.output, "output", "o", "", "output designator (default: <input>_merged, or \"-\" for stdin input)")
	flags.StringVar(&opts.mergeField, "merge-field", "id", "dot path of the merge key")
	flags.StringVar(&opts.outputField, "output-field", "merge_id", "dot path the merge key is written to in output records")
	flags.StringVar(&opts.strategy, "numeric-merge-strategy", "max", "numeric collision strategy: sum, max, min, append, overwrite")
	flags.StringVar(&opts.dbPath, "db-path", "", "SQLite spill file (default: a unique file under the system temp dir)")
	flags.IntVar(&opts.batchSize, "batch-size", merge.DefaultBatchSize, "upserts per spill-store commit")
	flags.BoolVar(&opts.keepOriginal, "keep-original", false, "keep the merge key field in output records")
	flags.BoolVar(&opts.skipMissing, "skip-missing", false, "silently drop records without the merge key")
	flags.BoolVar(&opts.analyzeFirst, "analyze-first", false, "print a structure analysis of the input before merging (file inputs only)")
	flags.BoolVar(&opts.cleanupDB, "cleanup-db", false, "remove the spill file after a successful run")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "verbose progress logging")
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: jmerge [flags] <input> [<input>...]\n\n%s", flags.FlagUsages())
	}

	if err := flags.Parse(os.Args[1:]); err != nil {
		os.Exit(1)
	}
	if flags.NArg() < 1 {
		flags.Usage()
		os.Exit(1)
	}
	opts.inputs = flags.Args()

	if err := run(&opts); err != nil {
		log.Fatal(err)
	}
}

func run(opts *options) error {
	ctx := context.Background()

	keyPath, err := dotpath.Parse(opts.mergeField)
	if err != nil {
		return fmt.Errorf("--merge-field: %w", err)
	}
	outField, err := dotpath.Parse(opts.outputField)
	if err != nil {
		return fmt.Errorf("--output-field: %w", err)
	}
	strategy, err := merge.ParseStrategy(opts.strategy)
	if err != nil {
		return err
	}

	ins := make([]endpoint.Endpoint, 0, len(opts.inputs))
	anyS3 := false
	for _, raw := range opts.inputs {
		in, err := endpoint.Parse(raw)
		if err != nil {
			return fmt.Errorf("input %s: %w", raw, err)
		}
		ins = append(ins, in)
		anyS3 = anyS3 || in.IsS3()
	}
	if opts.output == "" {
		opts.output = defaultOutput(ins)
	}
	out, err := endpoint.Parse(opts.output)
	if err != nil {
		return fmt.Errorf("output: %w", err)
	}

	var readerOpts []readers.ReaderOptionS3
	var writerOpts []writers.WriterOptionS3
	if anyS3 || out.IsS3() {
		cfg, err := awsconfig.Preflight(ctx, awsconfig.Options{
			Region:  os.Getenv("AWS_REGION"),
			Profile: os.Getenv("AWS_PROFILE"),
		})
		if err != nil {
			return err
		}
		readerOpts = append(readerOpts, readers.WithS3Config(cfg))
		writerOpts = append(writerOpts, writers.WithS3WriteConfig(cfg))
	}

	if opts.analyzeFirst {
		for _, in := range ins {
			if err := analyzeInput(ctx, in, opts.mergeField, readerOpts); err != nil {
				return err
			}
		}
	}

	dbPath := opts.dbPath
	if dbPath == "" {
		dbPath = filepath.Join(os.TempDir(), "jmerge-"+uuid.NewString()+".db")
		// A caller-supplied spill file is theirs to manage; a generated one
		// is always removed.
		defer os.Remove(dbPath)
	}
	store, err := merge.OpenStore(dbPath, opts.batchSize)
	if err != nil {
		return err
	}
	defer store.Close()

	merger, err := merge.NewMerger(store, merge.MergerOptions{
		KeyPath:      keyPath,
		OutField:     outField,
		Strategy:     strategy,
		KeepOriginal: opts.keepOriginal,
	})
	if err != nil {
		return err
	}

	// Each input folds into the shared store; Drain then emits the union.
	for i, in := range ins {
		if opts.verbose {
			log.Printf("merging input %d/%d: %s", i+1, len(ins), in.Raw)
		}
		source, err := readers.Open(ctx, in, readerOpts...)
		if err != nil {
			return err
		}

		builder := jexplode.NewPipeline().From(source).To(merger)
		if opts.skipMissing {
			builder.Filter(filter.HasPath(keyPath))
		}
		pipeline, err := builder.Build()
		if err != nil {
			return err
		}
		if err := pipeline.Execute(ctx); err != nil {
			return fmt.Errorf("merge %s: %w", in.Raw, err)
		}
	}

	sink, err := writers.Open(ctx, out, writerOpts...)
	if err != nil {
		return err
	}
	written, err := merger.Drain(ctx, sink)
	if cerr := sink.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	stats := merger.Stats()
	if opts.verbose {
		log.Printf("input records: %d", stats.RecordsIn)
		log.Printf("missing merge key: %d", stats.MissingKey)
		log.Printf("unsupported key shape: %d", stats.BadKeyType)
		log.Printf("store upserts: %d", stats.Upserts)
	}
	log.Printf("%d records merged into %d", stats.RecordsIn, written)

	if opts.cleanupDB && opts.dbPath != "" {
		store.Close()
		if err := os.Remove(opts.dbPath); err != nil {
			return fmt.Errorf("cleanup spill file: %w", err)
		}
	}
	return nil
}

// defaultOutput derives "<base>_merged<ext>" for a single file input, stdout
// for everything else (stdin, S3, or several inputs).
func defaultOutput(ins []endpoint.Endpoint) string {
	if len(ins) != 1 || ins[0].Kind != endpoint.File {
		return "-"
	}
	name := ins[0].Raw
	ext := ""
	for hasKnownExt(name) {
		e := filepath.Ext(name)
		ext = e + ext
		name = strings.TrimSuffix(name, e)
	}
	return name + "_merged" + ext
}

func hasKnownExt(name string) bool {
	switch filepath.Ext(name) {
	case ".gz", ".gzip", ".jsonl", ".json", ".ndjson":
		return true
	default:
		return false
	}
}

// analyzeInput streams the input once and prints its structure. Stdin cannot
// be rewound, so analysis is limited to file and S3 inputs (S3 objects are
// simply fetched twice).
func analyzeInput(ctx context.Context, in endpoint.Endpoint, mergeField string, readerOpts []readers.ReaderOptionS3) error {
	if in.Kind == endpoint.Stdio {
		return fmt.Errorf("--analyze-first cannot re-read stdin; use a file or S3 input")
	}

	source, err := readers.Open(ctx, in, readerOpts...)
	if err != nil {
		return err
	}
	defer source.Close()

	report, err := analyze.Run(ctx, source)
	if err != nil {
		return err
	}
	report.WriteTo(os.Stderr)

	if !report.HasPath(mergeField) {
		log.Printf("warning: merge field %q not seen in input", mergeField)
		if similar := report.SimilarPaths(mergeField); len(similar) > 0 {
			log.Printf("similar paths: %s", strings.Join(similar, ", "))
		}
	}
	return nil
}
