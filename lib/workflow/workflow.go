// Copyright 2026 The Construct @ RIT Developers
// SPDX-License-Identifier: Apache-2.0

// Package workflow runs ordered chains of steps that hop between
// background goroutines and a single-threaded UI loop.
//
// A chain is composed once, at startup, from static step descriptors.
// Starting a chain creates a cursor that advances through the steps in
// order: each step receives the cursor plus whatever arguments the
// previous step passed to [Cursor.Next]. Steps marked UI-bound are
// posted to the [Dispatcher] and run on the UI loop; all other steps
// run on their own goroutine. A step that returns without calling Next
// halts the chain, which is the normal way a workflow ends early.
package workflow

import "sync"

// Dispatcher marshals a function onto the UI loop. Implementations
// must run dispatched functions serially in dispatch order.
type Dispatcher interface {
	Dispatch(func())
}

// DispatchFunc adapts a function to the Dispatcher interface.
type DispatchFunc func(func())

func (dispatch DispatchFunc) Dispatch(task func()) { dispatch(task) }

// Step is one stage of a chain. Zero-value Steps are not useful;
// construct them with Do or OnUI.
type Step struct {
	// UIBound routes the step through the Dispatcher instead of a
	// fresh goroutine.
	UIBound bool

	// Run is the step body. Arguments are whatever the previous step
	// passed to Next (the chain's start arguments for the first step).
	Run func(cursor *Cursor, args ...any)
}

// Do declares a background step.
func Do(run func(cursor *Cursor, args ...any)) Step {
	return Step{Run: run}
}

// OnUI declares a UI-bound step.
func OnUI(run func(cursor *Cursor, args ...any)) Step {
	return Step{UIBound: true, Run: run}
}

// Chain is an ordered list of steps. Compose it fully before starting
// it; composition is not synchronized with execution.
type Chain struct {
	steps []Step
}

// NewChain creates a chain from the given steps.
func NewChain(steps ...Step) *Chain {
	chain := &Chain{}
	for _, step := range steps {
		chain.Append(step)
	}
	return chain
}

// Append adds a step to the end of the chain.
func (chain *Chain) Append(step Step) *Chain {
	chain.steps = append(chain.steps, step)
	return chain
}

// AppendChain splices another chain's steps onto the end of this one.
// The steps are copied at composition time; later changes to the inner
// chain are not reflected.
func (chain *Chain) AppendChain(inner *Chain) *Chain {
	chain.steps = append(chain.steps, inner.steps...)
	return chain
}

// Len returns the number of steps in the chain.
func (chain *Chain) Len() int { return len(chain.steps) }

// Start runs the chain. Each call creates an independent cursor, so
// concurrent invocations of the same chain do not interfere. The start
// arguments are handed to the first step.
func (chain *Chain) Start(dispatcher Dispatcher, args ...any) {
	cursor := &Cursor{
		steps:      chain.steps,
		dispatcher: dispatcher,
	}
	cursor.Next(args...)
}

// Cursor tracks one invocation's position in a chain. Exactly one step
// is live at a time; a step advances the chain by calling Next, at
// most once.
type Cursor struct {
	steps      []Step
	dispatcher Dispatcher

	mu   sync.Mutex
	next int
}

// Next advances to the next step, passing args to it. The step runs on
// a fresh goroutine, or on the UI loop if it is UI-bound. Calling Next
// past the final step is a no-op; the chain is simply complete.
func (cursor *Cursor) Next(args ...any) {
	cursor.mu.Lock()
	if cursor.next >= len(cursor.steps) {
		cursor.mu.Unlock()
		return
	}
	step := cursor.steps[cursor.next]
	cursor.next++
	cursor.mu.Unlock()

	if step.UIBound {
		cursor.dispatcher.Dispatch(func() {
			step.Run(cursor, args...)
		})
		return
	}
	go step.Run(cursor, args...)
}
