package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/Brownie44l1/trash-api/pkg/client"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	addr := flag.String("addr", "http://localhost:8000", "Base URL of the classification service")
	timeout := flag.Duration("timeout", 30*time.Second, "Request timeout")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <image>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*addr, flag.Arg(0), *timeout, os.Stdout); err != nil {
		log.Error().Err(err).Msg("Classification failed")
		os.Exit(1)
	}
}

// run uploads the image at path and writes the ranked distribution to out.
func run(addr, path string, timeout time.Duration, out io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	result, err := client.New(addr).Classify(ctx, filepath.Base(path), contentType, f)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s (%.2f%%)\n", result.PredictedClass, result.Confidence)

	names := make([]string, 0, len(result.AllClasses))
	for name := range result.AllClasses {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return result.AllClasses[names[i]] > result.AllClasses[names[j]]
	})
	for _, name := range names {
		fmt.Fprintf(out, "  %-12s %6.2f%%\n", name, result.AllClasses[name])
	}
	return nil
}
