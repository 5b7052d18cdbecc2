package main

import (
	"fmt"
	"os"

	"github.com/tako0614/takomusic/internal/diag"
	"github.com/tako0614/takomusic/internal/eval"
	"github.com/tako0614/takomusic/internal/ir"
	"github.com/tako0614/takomusic/internal/resolver"
	"github.com/tako0614/takomusic/internal/source"
	"github.com/tako0614/takomusic/internal/stdlib"
	"github.com/tako0614/takomusic/internal/types"
	"github.com/tako0614/takomusic/internal/value"
)

// pipelineResult carries everything a subcommand might want out of a
// single compile: the normalized IR (nil if an earlier stage failed)
// and the diagnostic bag every stage fed into.
type pipelineResult struct {
	doc *ir.Document
	bag *diag.Bag
}

// runPipeline takes an entry file through resolve, type-check, evaluate
// and normalize — the same stage order main.go drove by hand for a
// single .sng/.chart file, generalized to TakoMusic's module graph.
// It stops as soon as the bag holds an error, mirroring spec.md §7's
// "IR is emitted only when no errors were recorded".
func runPipeline(entryPath string) (*pipelineResult, error) {
	bag := diag.NewBag()

	text, err := os.ReadFile(entryPath)
	if err != nil {
		return nil, fmt.Errorf("tako: reading %s: %w", entryPath, err)
	}

	provider := newSourceComposite(entryPath)
	mods := resolver.Resolve(string(text), "main", provider, bag)
	if bag.HasErrors() {
		return &pipelineResult{bag: bag}, nil
	}

	types.NewChecker(bag).Check(mods)
	if bag.HasErrors() {
		return &pipelineResult{bag: bag}, nil
	}

	result, err := eval.NewEvaluator(mods, bag).Evaluate(mods, "main")
	if err != nil {
		return &pipelineResult{bag: bag}, fmt.Errorf("tako: evaluating %s: %w", entryPath, err)
	}
	if bag.HasErrors() {
		return &pipelineResult{bag: bag}, nil
	}

	score, ok := result.(value.Score)
	if !ok {
		return nil, fmt.Errorf("tako: %s's main() returned %v, expected a Score", entryPath, result)
	}

	doc := ir.Normalize(score, bag)
	return &pipelineResult{doc: doc, bag: bag}, nil
}

func newSourceComposite(entryPath string) source.Provider {
	return source.NewComposite(stdlib.NewProvider(), newFileProvider(entryPath))
}
