package database

import (
	"cmp"
	"slices"

	"golang.org/x/sync/errgroup"
)

type orderedOutput[T any] struct {
	order  int
	output T
}

// ConcurrentMap runs f over inputs with bounded concurrency and returns
// results in input order (0 disables concurrency, <0 means unlimited),
// grounded on database/concurrent.go's ConcurrentMapFuncWithError but
// made generic over the output type directly rather than boxing through
// any+a type assertion. Dialects whose DumpSnapshot issues one
// round-trip per table (MySQL's SHOW CREATE TABLE, SQL Server's
// per-table sys.columns query) use this when
// GeneratorConfig.DumpConcurrency asks for it.
func ConcurrentMap[Tin any, Tout any](inputs []Tin, concurrency int, f func(Tin) (Tout, error)) ([]Tout, error) {
	eg := errgroup.Group{}
	switch {
	case concurrency == 0:
		eg.SetLimit(1)
	case concurrency > 0:
		eg.SetLimit(concurrency)
	}

	results := make([]orderedOutput[Tout], len(inputs))
	for i := range inputs {
		i := i
		eg.Go(func() error {
			out, err := f(inputs[i])
			if err != nil {
				return err
			}
			results[i] = orderedOutput[Tout]{order: i, output: out}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b orderedOutput[Tout]) int {
		return cmp.Compare(a.order, b.order)
	})
	outputs := make([]Tout, len(results))
	for i, r := range results {
		outputs[i] = r.output
	}
	return outputs, nil
}
