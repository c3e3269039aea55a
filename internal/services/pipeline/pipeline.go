// Package pipeline runs a fixed sequence of named stages over a shared state,
// stopping at the first failure.
package pipeline

import (
	"context"
	"fmt"
)

type StageFunc[T any] func(ctx context.Context, state *T) error

type Stage[T any] struct {
	Name string
	Run  StageFunc[T]
}

// StageError records which stage failed.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

type Pipeline[T any] struct {
	stages []Stage[T]
}

func New[T any](stages ...Stage[T]) *Pipeline[T] {
	return &Pipeline[T]{stages: stages}
}

// Then returns a copy of the pipeline with one more stage.
func (p *Pipeline[T]) Then(name string, run StageFunc[T]) *Pipeline[T] {
	stages := make([]Stage[T], len(p.stages), len(p.stages)+1)
	copy(stages, p.stages)
	return &Pipeline[T]{stages: append(stages, Stage[T]{Name: name, Run: run})}
}

func (p *Pipeline[T]) Run(ctx context.Context, state *T) error {
	for _, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			return &StageError{Stage: stage.Name, Err: err}
		}
		if err := stage.Run(ctx, state); err != nil {
			return &StageError{Stage: stage.Name, Err: err}
		}
	}
	return nil
}

func (p *Pipeline[T]) Stages() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name
	}
	return names
}
