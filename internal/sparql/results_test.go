package sparql

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func uri(v string) Binding { return Binding{Type: TypeURI, Value: v} }

func lit(v, lang string) Binding { return Binding{Type: TypeLiteral, Value: v, Lang: lang} }

func TestFormat_NoRows(t *testing.T) {
	assert.Equal(t, "No results.", Format(&Results{Vars: []string{"s"}}))
	assert.Equal(t, "No results.", Format(nil))
}

func TestFormat_Table(t *testing.T) {
	r := &Results{
		Vars: []string{"uri", "label"},
		Bindings: []Row{
			{"uri": uri("https://example.com/b"), "label": lit("Bayern", "de")},
			{"uri": uri("https://example.com/a"), "label": lit("Sachsen", "de")},
		},
	}

	assert.Equal(t,
		"uri | label\n"+
			"---\n"+
			"https://example.com/b | Bayern\n"+
			"https://example.com/a | Sachsen",
		Format(r))
}

func TestFormat_TrailingMissingField(t *testing.T) {
	r := &Results{
		Vars:     []string{"uri", "label"},
		Bindings: []Row{{"uri": uri("https://example.com/x")}},
	}

	out := Format(r)

	assert.True(t, strings.HasSuffix(out, "https://example.com/x | "), "got %q", out)
}

func TestFormat_LeadingMissingAndEmptyValue(t *testing.T) {
	r := &Results{
		Vars: []string{"a", "b", "c"},
		Bindings: []Row{
			{"b": lit("", ""), "c": lit("z", "")},
		},
	}

	assert.Equal(t, "a | b | c\n---\n |  | z", Format(r))
}

func TestFormat_IgnoresExtraVariables(t *testing.T) {
	r := &Results{
		Vars:     []string{"a"},
		Bindings: []Row{{"a": lit("1", ""), "zzz": lit("hidden", "")}},
	}

	assert.Equal(t, "a\n---\n1", Format(r))
}

func TestFormat_FiftyRows(t *testing.T) {
	r := &Results{Vars: []string{"s"}}
	for i := 0; i < 50; i++ {
		r.Bindings = append(r.Bindings, Row{"s": uri("https://example.com/n")})
	}

	lines := strings.Split(Format(r), "\n")

	assert.Len(t, lines, 52)
}

func TestResults_Column(t *testing.T) {
	r := &Results{
		Vars: []string{"parent", "child"},
		Bindings: []Row{
			{"parent": uri("p1"), "child": uri("c1")},
			{"child": uri("c2")},
			{"parent": uri("p2"), "child": uri("c3")},
		},
	}

	assert.Equal(t, []string{"p1", "p2"}, r.Column("parent"))
	assert.Equal(t, []string{"c1", "c2", "c3"}, r.Column("child"))
	assert.Nil(t, (*Results)(nil).Column("x"))
	assert.Equal(t, 3, r.Len())
}
