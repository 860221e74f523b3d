// Package progress reports nested units of work while an aggregation runs.
//
// A Tracker is a scope. Entering a fan-out pushes a child scope with NewGroup
// or NewItem, and Finish pops it again. Items count units: AddWork grows the
// expected total, CompleteWork advances it.
package progress

// Tracker is a hierarchical progress counter.
type Tracker interface {
	NewGroup(label string) Tracker
	NewItem(label string, total int) Tracker
	AddWork(n int)
	CompleteWork(n int)
	Finish()
}

// Noop discards all progress.
type Noop struct{}

// NewGroup, NewItem, AddWork, CompleteWork and Finish do nothing; scopes
// opened on a Noop are Noop as well.
func (Noop) NewGroup(string) Tracker     { return Noop{} }
func (Noop) NewItem(string, int) Tracker { return Noop{} }
func (Noop) AddWork(int)                 {}
func (Noop) CompleteWork(int)            {}
func (Noop) Finish()                     {}
