package progress

import (
	"io"
	"strings"
	"sync"

	"github.com/pterm/pterm"
)

// Terminal renders items as pterm progress bars. Groups only contribute
// their label to the titles of the items below them.
type Terminal struct {
	mu     *sync.Mutex
	writer io.Writer
	labels []string

	bar   *pterm.ProgressbarPrinter
	total int
	done  int
}

// NewTerminal returns the root scope writing to w, usually stderr.
func NewTerminal(w io.Writer) *Terminal {
	return &Terminal{mu: &sync.Mutex{}, writer: w}
}

func (t *Terminal) child(label string) *Terminal {
	labels := make([]string, 0, len(t.labels)+1)
	labels = append(labels, t.labels...)
	labels = append(labels, label)
	return &Terminal{mu: t.mu, writer: t.writer, labels: labels}
}

// NewGroup opens a labelled scope.
func (t *Terminal) NewGroup(label string) Tracker {
	return t.child(label)
}

// NewItem opens a scope counting total units. The total may start at zero
// and grow with AddWork.
func (t *Terminal) NewItem(label string, total int) Tracker {
	item := t.child(label)
	item.AddWork(total)
	return item
}

// Title is the item label prefixed by its enclosing groups.
func (t *Terminal) Title() string {
	return strings.Join(t.labels, " > ")
}

// AddWork grows the number of expected units.
func (t *Terminal) AddWork(n int) {
	if n <= 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	t.total += n
	if t.bar == nil {
		t.bar, _ = pterm.DefaultProgressbar.
			WithTotal(t.total).
			WithTitle(t.Title()).
			WithWriter(t.writer).
			WithRemoveWhenDone(true).
			Start()
		if t.bar != nil && t.done > 0 {
			t.bar.Add(t.done)
		}
		return
	}
	t.bar.Total = t.total
}

// CompleteWork advances the item by n units.
func (t *Terminal) CompleteWork(n int) {
	if n <= 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	t.done += n
	if t.bar != nil {
		t.bar.Add(n)
	}
}

// Finish closes the scope and removes its bar.
func (t *Terminal) Finish() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.bar != nil {
		_, _ = t.bar.Stop() // Error is not critical for UI cleanup
		t.bar = nil
	}
}

// Done reports the units completed and expected so far.
func (t *Terminal) Done() (done, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done, t.total
}
