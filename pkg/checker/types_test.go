package checker_test

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/boundsec/pkg/checker"
	"github.com/dmitrymomot/boundsec/pkg/rbac"
)

type typedObject struct {
	rbac.BasicObject
	checkerType string
}

func (o *typedObject) CheckerType() string { return o.checkerType }

func diamond() *checker.TypeGraph {
	g := checker.NewTypeGraph()
	g.Declare("invoice", "document", "taggable")
	g.Declare("document", "object")
	g.Declare("taggable", "object")
	g.Declare("credit-note", "invoice")
	return g
}

func TestTypeGraphCandidates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		graph   func() *checker.TypeGraph
		subject any
		want    []string
	}{
		{
			name:    "unknown type yields itself",
			graph:   checker.NewTypeGraph,
			subject: "folder",
			want:    []string{"folder"},
		},
		{
			name:    "diamond keeps declaration order and puts shared supertype last",
			graph:   diamond,
			subject: "invoice",
			want:    []string{"invoice", "document", "taggable", "object"},
		},
		{
			name:    "object subject uses its type name",
			graph:   diamond,
			subject: &rbac.BasicObject{ID: "1", Type: "credit-note"},
			want:    []string{"credit-note", "invoice", "document", "taggable", "object"},
		},
		{
			name: "aliases map to checker types without duplicates",
			graph: func() *checker.TypeGraph {
				g := diamond()
				g.Alias("invoice", "document")
				g.Alias("taggable", "object")
				return g
			},
			subject: "invoice",
			want:    []string{"document", "object"},
		},
		{
			name:  "instance hook wins",
			graph: diamond,
			subject: &typedObject{
				BasicObject: rbac.BasicObject{ID: "1", Type: "invoice"},
				checkerType: "special",
			},
			want: []string{"special", "invoice", "document", "taggable", "object"},
		},
		{
			name: "cycle members are kept",
			graph: func() *checker.TypeGraph {
				g := checker.NewTypeGraph()
				g.Declare("a", "b")
				g.Declare("b", "a")
				return g
			},
			subject: "a",
			want:    []string{"a", "b"},
		},
		{
			name:    "nil subject has no candidates",
			graph:   diamond,
			subject: nil,
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.graph().Candidates(tt.subject))
		})
	}
}

func TestTypeGraphCandidatesAreTopological(t *testing.T) {
	t.Parallel()

	g := checker.NewTypeGraph()
	g.Declare("e", "c", "d")
	g.Declare("d", "b")
	g.Declare("c", "a", "b")
	g.Declare("b", "a")

	got := g.Candidates("e")
	assert.Len(t, got, 5)
	for _, sub := range []string{"e", "d", "c", "b"} {
		for _, super := range g.Supertypes(sub) {
			assert.Less(t, slices.Index(got, sub), slices.Index(got, super),
				"%s must precede its supertype %s in %v", sub, super, got)
		}
	}
}
