package flow

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

// sequentialIDs yields kind-1, edge-2, ... so tests can name ids up front.
func sequentialIDs() func(prefix string) string {
	n := 0
	return func(prefix string) string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func newTestEngine(opts ...Option) *Engine {
	base := []Option{
		WithIDGenerator(sequentialIDs()),
		WithPlacement(func() Position { return Position{} }),
		WithClock(func() time.Time { return testNow }),
	}
	return NewEngine(append(base, opts...)...)
}

func template(t *testing.T, kind Kind, label string) Template {
	t.Helper()
	tpl, ok := Lookup(kind, label)
	require.True(t, ok, "template %s %q", kind, label)
	return tpl
}

func mustAdd(t *testing.T, e *Engine, kind Kind, label string) Node {
	t.Helper()
	s, err := e.AddNode(template(t, kind, label), nil)
	require.NoError(t, err)
	return s.Nodes[len(s.Nodes)-1]
}

func edgePairs(edges []Edge) [][2]string {
	out := make([][2]string, len(edges))
	for i, e := range edges {
		out[i] = [2]string{e.Source, e.Target}
	}
	return out
}
