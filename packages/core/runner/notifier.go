package runner

import (
	"strings"
	"sync"
)

// Description is a reporting node. A parameterized method is a suite node with
// one child per row; everything else is a leaf.
type Description struct {
	Name     string
	Class    string
	Method   string
	Children []*Description
}

// IsSuite reports whether d has children.
func (d *Description) IsSuite() bool {
	return len(d.Children) > 0
}

// ChildFor returns the first child whose name starts with identity.
func (d *Description) ChildFor(identity string) *Description {
	for _, child := range d.Children {
		if strings.HasPrefix(child.Name, identity) {
			return child
		}
	}
	return nil
}

// Notifier receives the lifecycle events of every reporting node.
type Notifier interface {
	Begin(node *Description)
	End(node *Description)
	ReportAssumptionFailure(node *Description, err error)
	ReportFailure(node *Description, err error)
	Ignored(node *Description, reason string)
}

// NopNotifier discards all events.
type NopNotifier struct{}

func (NopNotifier) Begin(*Description)                          {}
func (NopNotifier) End(*Description)                            {}
func (NopNotifier) ReportAssumptionFailure(*Description, error) {}
func (NopNotifier) ReportFailure(*Description, error)           {}
func (NopNotifier) Ignored(*Description, string)                {}

// MultiNotifier fans events out to several notifiers in order.
type MultiNotifier struct {
	mu        sync.Mutex
	notifiers []Notifier
}

func NewMultiNotifier(notifiers ...Notifier) *MultiNotifier {
	return &MultiNotifier{notifiers: notifiers}
}

// Add registers another notifier.
func (m *MultiNotifier) Add(n Notifier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifiers = append(m.notifiers, n)
}

func (m *MultiNotifier) each(fn func(Notifier)) {
	m.mu.Lock()
	notifiers := append([]Notifier(nil), m.notifiers...)
	m.mu.Unlock()
	for _, n := range notifiers {
		fn(n)
	}
}

func (m *MultiNotifier) Begin(node *Description) {
	m.each(func(n Notifier) { n.Begin(node) })
}

func (m *MultiNotifier) End(node *Description) {
	m.each(func(n Notifier) { n.End(node) })
}

func (m *MultiNotifier) ReportAssumptionFailure(node *Description, err error) {
	m.each(func(n Notifier) { n.ReportAssumptionFailure(node, err) })
}

func (m *MultiNotifier) ReportFailure(node *Description, err error) {
	m.each(func(n Notifier) { n.ReportFailure(node, err) })
}

func (m *MultiNotifier) Ignored(node *Description, reason string) {
	m.each(func(n Notifier) { n.Ignored(node, reason) })
}
