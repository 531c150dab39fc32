// Copyright 2025 Alexander Alten (novatechflow), NovaTechflow (novatechflow.com).
// This project is supported and financed by Scalytics, Inc. (www.scalytics.io).
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// idxtool inspects and rewrites compaction index files.
//
//	idxtool inspect -index <path>
//	idxtool verify  -index <path>
//	idxtool dump    -index <path> [-limit n]
//	idxtool compact -index <path> -out <path> [-mem bytes]
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/novatechflow/compactix/pkg/compactindex"
	"github.com/novatechflow/compactix/pkg/resources"
	"github.com/novatechflow/compactix/pkg/storage"
)

var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := newLogger()
	if err := run(ctx, os.Args[1:], os.Stdout, logger); err != nil {
		logger.Error("idxtool failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer, logger *slog.Logger) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: idxtool <inspect|verify|dump|compact> [flags]")
	}
	switch args[0] {
	case "inspect":
		return runInspect(ctx, args[1:], out)
	case "verify":
		return runVerify(ctx, args[1:], out)
	case "dump":
		return runDump(ctx, args[1:], out)
	case "compact":
		return runCompact(ctx, args[1:], out, logger)
	case "version":
		fmt.Fprintln(out, version)
		return nil
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func openReader(path string, readBuf int) (*compactindex.Reader, *storage.FileBacking, error) {
	backing, err := storage.OpenFileBacking(path)
	if err != nil {
		return nil, nil, err
	}
	return compactindex.NewReader(path, backing, readBuf, nil), backing, nil
}

func runInspect(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	index := fs.String("index", "", "path to the compaction index file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *index == "" {
		return fmt.Errorf("inspect: -index required")
	}
	r, backing, err := openReader(*index, 0)
	if err != nil {
		return err
	}
	defer backing.Close()
	footer, err := r.LoadFooter(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s: %s\n", *index, footer)
	return nil
}

func runVerify(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	index := fs.String("index", "", "path to the compaction index file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *index == "" {
		return fmt.Errorf("verify: -index required")
	}
	r, backing, err := openReader(*index, 0)
	if err != nil {
		return err
	}
	defer backing.Close()
	if err := r.VerifyIntegrity(ctx); err != nil {
		return err
	}
	fmt.Fprintf(out, "%s: ok\n", *index)
	return nil
}

func runDump(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("dump", flag.ContinueOnError)
	index := fs.String("index", "", "path to the compaction index file")
	limit := fs.Int("limit", 0, "print at most this many entries (0 = all)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *index == "" {
		return fmt.Errorf("dump: -index required")
	}
	r, backing, err := openReader(*index, 0)
	if err != nil {
		return err
	}
	defer backing.Close()
	entries, err := compactindex.ReadToMemory(ctx, r)
	if err != nil {
		return err
	}
	for i, e := range entries {
		if *limit > 0 && i >= *limit {
			fmt.Fprintf(out, "... %d more\n", len(entries)-i)
			break
		}
		key := e.RecordKey()
		printable := fmt.Sprintf("%q", key)
		if len(key) > 32 {
			printable = fmt.Sprintf("%q... (%d bytes)", key[:32], len(key))
		}
		fmt.Fprintf(out, "offset=%d delta=%d type=%d key=%s\n", e.Offset, e.Delta, e.Type, printable)
	}
	return nil
}

func runCompact(ctx context.Context, args []string, out io.Writer, logger *slog.Logger) error {
	fs := flag.NewFlagSet("compact", flag.ContinueOnError)
	index := fs.String("index", "", "path to the source compaction index file")
	outPath := fs.String("out", "", "path for the compacted index file")
	mem := fs.Int("mem", 4*1024*1024, "memory budget in bytes for deduplication")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *index == "" || *outPath == "" {
		return fmt.Errorf("compact: -index and -out required")
	}

	r, srcBacking, err := openReader(*index, 0)
	if err != nil {
		return err
	}
	defer srcBacking.Close()
	if err := r.VerifyIntegrity(ctx); err != nil {
		return err
	}

	coord := resources.NewCoordinator(int64(2 * *mem))
	keep, err := compactindex.OffsetsToKeep(ctx, r, coord, *mem)
	if err != nil {
		return err
	}
	logger.Info("keep-set computed", "index", *index, "offsets", keep.GetCardinality())

	dstBacking, err := storage.CreateFileBacking(*outPath)
	if err != nil {
		return err
	}
	w, err := compactindex.NewWriter(*outPath, dstBacking, coord, *mem, nil)
	if err != nil {
		dstBacking.Close()
		return err
	}
	copied, err := compactindex.FilterInto(ctx, r, keep, w)
	if err != nil {
		dstBacking.Close()
		return err
	}
	if err := w.Close(ctx); err != nil {
		dstBacking.Close()
		return err
	}
	if err := dstBacking.Sync(); err != nil {
		return err
	}
	if err := dstBacking.Close(); err != nil {
		return err
	}
	footer, err := r.LoadFooter(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s: kept %d of %d entries -> %s\n", *index, copied, footer.Keys, *outPath)
	return nil
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(os.Getenv("IDXTOOL_LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(handler).With("component", "idxtool")
}
