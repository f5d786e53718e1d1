package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/sambeau/itlang/pkg/itlang/itlang"
)

type checkOutcome struct {
	source string
	err    error
}

// checkFiles parses every file concurrently and reports syntax errors in
// argument order. A file that cannot be read aborts the check with status 2.
func checkFiles(ctx context.Context, files []string, stdout, stderr io.Writer) (int, error) {
	outcomes := make([]checkOutcome, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, filename := range files {
		i, filename := i, filename
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			content, err := os.ReadFile(filename)
			if err != nil {
				return fmt.Errorf("reading %s: %w", filename, err)
			}
			outcomes[i] = checkOutcome{
				source: string(content),
				err:    itlang.Check(filename, string(content)),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 2, err
	}

	failed := 0
	for i, outcome := range outcomes {
		if outcome.err != nil {
			reportError(stderr, outcome.err, outcome.source)
			failed++
			continue
		}
		fmt.Fprintf(stdout, "%s: ok\n", files[i])
	}

	if failed > 0 {
		fmt.Fprintf(stderr, "%d of %d files have errors\n", failed, len(files))
		return 1, nil
	}
	return 0, nil
}
