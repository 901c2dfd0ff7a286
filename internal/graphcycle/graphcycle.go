// Package graphcycle finds cycles in directed graphs given by an edge
// function.
package graphcycle

import (
	"fmt"
	"slices"
	"strings"
)

type visitState uint8

const (
	stateVisiting visitState = iota + 1
	stateDone
)

// CycleError reports the first cycle found. Path starts and ends with the
// same node.
type CycleError[K comparable] struct {
	Path []K
}

// Error returns the cycle as a chain of nodes.
func (e *CycleError[K]) Error() string {
	parts := make([]string, len(e.Path))
	for i, k := range e.Path {
		parts[i] = fmt.Sprint(k)
	}
	return "cycle " + strings.Join(parts, " -> ")
}

// Contains reports whether key lies on the cycle.
func (e *CycleError[K]) Contains(key K) bool {
	return slices.Contains(e.Path, key)
}

// Config configures cycle detection.
type Config[K comparable] struct {
	Starts []K
	// Next returns the direct successors of a node.
	Next func(K) ([]K, error)
}

// Detect walks edges depth-first from Starts and returns a *CycleError for
// the first cycle reached, or the first error returned by Next.
func Detect[K comparable](cfg Config[K]) error {
	if cfg.Next == nil {
		return fmt.Errorf("cycle detect: next function is nil")
	}
	states := make(map[K]visitState, len(cfg.Starts))
	var stack []K

	var visit func(key K) error
	visit = func(key K) error {
		switch states[key] {
		case stateVisiting:
			start := slices.Index(stack, key)
			path := append(slices.Clone(stack[start:]), key)
			return &CycleError[K]{Path: path}
		case stateDone:
			return nil
		}
		states[key] = stateVisiting
		stack = append(stack, key)
		next, err := cfg.Next(key)
		if err != nil {
			return err
		}
		for _, n := range next {
			if err := visit(n); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		states[key] = stateDone
		return nil
	}

	for _, start := range cfg.Starts {
		if err := visit(start); err != nil {
			return err
		}
	}
	return nil
}
