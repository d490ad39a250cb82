// Package pipeline runs an ordered list of named stages over a typed state.
//
// Each stage reads the fields of the state it needs and writes the fields it
// produces, so the wiring between stages is carried by the state struct itself.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Stage is a single named step of a pipeline.
type Stage[S any] struct {
	Name string
	Run  func(ctx context.Context, state *S) error
}

type Pipeline[S any] struct {
	name   string
	stages []Stage[S]
	logger *slog.Logger
}

func New[S any](name string) *Pipeline[S] {
	return &Pipeline[S]{
		name:   name,
		logger: slog.Default(),
	}
}

// Add appends a stage. Stage names must be unique within a pipeline.
func (p *Pipeline[S]) Add(name string, run func(ctx context.Context, state *S) error) *Pipeline[S] {
	for _, s := range p.stages {
		if s.Name == name {
			panic(fmt.Sprintf("pipeline %s: duplicate stage %q", p.name, name))
		}
	}
	p.stages = append(p.stages, Stage[S]{Name: name, Run: run})
	return p
}

// Stages returns the stage names in execution order.
func (p *Pipeline[S]) Stages() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name
	}
	return names
}

// Run executes the stages in order and stops at the first failure.
func (p *Pipeline[S]) Run(ctx context.Context, state *S) error {
	for _, s := range p.stages {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s/%s: %w", p.name, s.Name, err)
		}
		start := time.Now()
		if err := s.Run(ctx, state); err != nil {
			return fmt.Errorf("%s/%s: %w", p.name, s.Name, err)
		}
		p.logger.Debug("stage done", "pipeline", p.name, "stage", s.Name, "took", time.Since(start))
	}
	return nil
}
