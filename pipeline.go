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

package jexplode

import (
	"context"
	"fmt"
	"io"
)

// PipelineBuilder provides a fluent API for constructing streaming pipelines.
// Use NewPipeline() to create a new builder, then chain From, Explode, Filter,
// and To before calling Build.
//
// Example usage:
//
//	pipeline, err := jexplode.NewPipeline().
//	    From(source).
//	    Explode(exploder).
//	    To(sink).
//	    Build()
//	if err != nil { log.Fatal(err) }
//	if err := pipeline.Execute(context.Background()); err != nil { log.Fatal(err) }
//
// Execution is streaming and single-pass: memory use is bounded by one record
// plus I/O buffers, never by total input size. Errors are fatal; the pipeline
// stops at the first fault and reports it.
type PipelineBuilder struct {
	pipeline *Pipeline
}

// NewPipeline creates a new PipelineBuilder.
func NewPipeline() *PipelineBuilder {
	return &PipelineBuilder{
		pipeline: &Pipeline{
			filters: make([]Filter, 0),
		},
	}
}

// From sets the DataSource for the pipeline.
func (pb *PipelineBuilder) From(source DataSource) *PipelineBuilder {
	pb.pipeline.source = source
	return pb
}

// Explode sets the Exploder for the pipeline. At most one Exploder is
// supported; omitting it makes the pipeline a pass-through copy.
func (pb *PipelineBuilder) Explode(exploder Exploder) *PipelineBuilder {
	pb.pipeline.exploder = exploder
	return pb
}

// Filter adds a Filter to the pipeline. Filters run before the Exploder and
// drop records that do not match.
func (pb *PipelineBuilder) Filter(filter Filter) *PipelineBuilder {
	pb.pipeline.filters = append(pb.pipeline.filters, filter)
	return pb
}

// Where adds a filtering condition to the pipeline using a function.
func (pb *PipelineBuilder) Where(fn func(ctx context.Context, record Record) (bool, error)) *PipelineBuilder {
	return pb.Filter(FilterFunc(fn))
}

// To sets the DataSink for the pipeline.
func (pb *PipelineBuilder) To(sink DataSink) *PipelineBuilder {
	pb.pipeline.sink = sink
	return pb
}

// Build validates and constructs the Pipeline from the builder.
func (pb *PipelineBuilder) Build() (*Pipeline, error) {
	if pb.pipeline.source == nil {
		return nil, fmt.Errorf("pipeline requires a data source")
	}
	if pb.pipeline.sink == nil {
		return nil, fmt.Errorf("pipeline requires a data sink")
	}
	return pb.pipeline, nil
}

// Pipeline represents a streaming record-processing pipeline.
//
// Use Execute to process all records from the DataSource through the optional
// Filters and Exploder, writing each resulting record to the DataSink.
type Pipeline struct {
	source   DataSource
	sink     DataSink
	exploder Exploder
	filters  []Filter

	recordsIn  int64
	recordsOut int64
}

// Stats reports the number of records consumed and emitted by the last
// Execute call.
func (p *Pipeline) Stats() (in, out int64) {
	return p.recordsIn, p.recordsOut
}

// Execute runs the pipeline, processing all records from source to sink.
//
// The first error from any stage aborts the run and is returned after the
// source and sink are released. A record that explodes into n records produces
// exactly n consecutive writes, preserving both input order and explosion
// order. The sink may hold a truncated stream when Execute fails mid-run.
func (p *Pipeline) Execute(ctx context.Context) (err error) {
	defer func() {
		if p.source != nil {
			if cerr := p.source.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}
		if p.sink != nil {
			if ferr := p.sink.Flush(); ferr != nil && err == nil {
				err = ferr
			}
			if cerr := p.sink.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		record, rerr := p.source.Read(ctx)
		if rerr == io.EOF {
			return nil
		}
		if rerr != nil {
			return rerr
		}
		p.recordsIn++

		include, ferr := p.applyFilters(ctx, record)
		if ferr != nil {
			return ferr
		}
		if !include {
			continue
		}

		outputs := []Record{record}
		if p.exploder != nil {
			outputs, err = p.exploder.Explode(ctx, record)
			if err != nil {
				return err
			}
		}

		for _, out := range outputs {
			if werr := p.sink.Write(ctx, out); werr != nil {
				return werr
			}
			p.recordsOut++
		}
	}
}

func (p *Pipeline) applyFilters(ctx context.Context, record Record) (bool, error) {
	for _, filter := range p.filters {
		include, err := filter.ShouldInclude(ctx, record)
		if err != nil {
			return false, err
		}
		if !include {
			return false, nil
		}
	}
	return true, nil
}
