// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

/*
varcall-preprocess reads candidate structural/small variants and a BAM
alignment file, and emits one recordio-encoded observation
record per variant, ready for the downstream likelihood and event
layers to consume.
*/
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"os"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"

	"github.com/grailbio/varcall/encoding/fasta"
	"github.com/grailbio/varcall/extract"
	"github.com/grailbio/varcall/genome"
	"github.com/grailbio/varcall/process"
	"github.com/grailbio/varcall/realign"
	"github.com/grailbio/varcall/refbuffer"
)

var (
	candidatesPath = flag.String("candidates", "", "Input candidate-variant file path (VCF-like)")
	indexPath      = flag.String("index", "", "Alignment index path; not read: the BAM file is scanned sequentially in full")
	refFaPath      = flag.String("ref", "", "Indexed reference FASTA path")
	refFaiPath     = flag.String("ref-index", "", "Reference FASTA index (.fai) path; defaults to refFaPath + .fai")
	genRefIndex    = flag.Bool("generate-ref-index", false, "Build the .fai index in memory from -ref instead of reading one from -ref-index")
	outPath        = flag.String("out", "varcall-preprocess.rio", "Output recordio path")
	maxDepth       = flag.Int("max-depth", 200, "Maximum fragments contributing an observation per variant")
	maxWindow      = flag.Int("max-window", 50, "Read-side padding applied around a located breakpoint")
	minRefetch     = flag.Int("min-refetch-distance", 1000, "Minimum refetch distance; recorded in the output header options, not used by extraction")
	logEvery       = flag.Int64("log-every", 10000, "How often to log skip-counter summaries, in records; 0 disables periodic logging")
)

func usage() {
	fmt.Printf("Usage: %s [OPTIONS] bampath\n", os.Args[0])
	fmt.Printf("Other options:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	shutdown := grail.Init()
	defer shutdown()
	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatalf("missing positional argument (bampath required); please check flag syntax")
	}
	bamPath := flag.Arg(0)

	if *candidatesPath == "" || *refFaPath == "" {
		log.Fatalf("-candidates and -ref are required")
	}

	ctx := vcontext.Background()
	if err := run(ctx, bamPath); err != nil {
		log.Panicf("%v", err)
	}
	log.Debug.Printf("varcall-preprocess: exiting")
}

func run(ctx context.Context, bamPath string) error {
	refFile, err := file.Open(ctx, *refFaPath)
	if err != nil {
		return err
	}
	defer file.CloseAndReport(ctx, refFile, &err)
	refReader := refFile.Reader(ctx)

	var faiReader io.Reader
	if *genRefIndex {
		var buf bytes.Buffer
		if err := fasta.GenerateIndex(&buf, refReader); err != nil {
			return err
		}
		seeker, ok := refReader.(io.Seeker)
		if !ok {
			return fmt.Errorf("-generate-ref-index: %s's reader does not support seeking", *refFaPath)
		}
		if _, err := seeker.Seek(0, io.SeekStart); err != nil {
			return err
		}
		faiReader = bytes.NewReader(buf.Bytes())
	} else {
		faiPath := *refFaiPath
		if faiPath == "" {
			faiPath = *refFaPath + ".fai"
		}
		faiFile, err := file.Open(ctx, faiPath)
		if err != nil {
			return err
		}
		defer file.CloseAndReport(ctx, faiFile, &err)
		faiReader = faiFile.Reader(ctx)
	}

	seekableRef, ok := refReader.(io.ReadSeeker)
	if !ok {
		return fmt.Errorf("%s's reader does not support seeking, required for indexed FASTA access", *refFaPath)
	}
	fa, err := fasta.NewIndexed(seekableRef, faiReader)
	if err != nil {
		return err
	}
	refBuf := refbuffer.New(fa)

	source, err := newBAMFragmentSource(ctx, bamPath, *indexPath)
	if err != nil {
		return err
	}
	defer source.Close(ctx)

	sample := &extract.Sample{
		Source:             source,
		Realigner:          realign.New(refBuf, genome.PosType(*maxWindow)),
		MaxDepth:           *maxDepth,
		MinRefetchDistance: genome.PosType(*minRefetch),
	}

	outFile, err := file.Create(ctx, *outPath)
	if err != nil {
		return err
	}
	defer file.CloseAndReport(ctx, outFile, &err)

	opts := process.Opts{
		MaxDepth:           *maxDepth,
		MinRefetchDistance: genome.PosType(*minRefetch),
		MaxWindow:          genome.PosType(*maxWindow),
		LogEvery:           *logEvery,
	}
	writer, err := process.NewWriter(outFile.Writer(ctx), opts)
	if err != nil {
		return err
	}

	candidatesFile, err := file.Open(ctx, *candidatesPath)
	if err != nil {
		return err
	}
	candidatesBytes, err := ioutil.ReadAll(candidatesFile.Reader(ctx))
	file.CloseAndReport(ctx, candidatesFile, &err)
	if err != nil {
		return err
	}

	index, err := newBreakendIndex(newVCFCandidateReader(bytes.NewReader(candidatesBytes)))
	if err != nil {
		return err
	}
	reader := newVCFCandidateReader(bytes.NewReader(candidatesBytes))

	proc := process.NewProcessor(opts, sample, index, writer)
	if err := proc.Run(ctx, reader); err != nil {
		return err
	}
	return writer.Finish()
}
