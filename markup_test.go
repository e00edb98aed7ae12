package tutorchat

import (
	"context"
	"reflect"
	"testing"
)

func mustParse(t *testing.T, feedback string) []*Node {
	t.Helper()
	nodes, err := newMarkupParser().Parse(context.Background(), feedback)
	if err != nil {
		t.Fatalf("Parse(%q) unexpected error: %v", feedback, err)
	}
	return nodes
}

func TestParseEmpty(t *testing.T) {
	t.Parallel()

	for _, feedback := range []string{"", "   ", "\n\n"} {
		nodes, err := newMarkupParser().Parse(context.Background(), feedback)
		if err != nil {
			t.Errorf("Parse(%q) unexpected error: %v", feedback, err)
		}
		if nodes != nil {
			t.Errorf("Parse(%q) = %d nodes, want nil", feedback, len(nodes))
		}
	}
}

func TestParseCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := newMarkupParser().Parse(ctx, "content"); err == nil {
		t.Error("Parse() with cancelled context expected error, got nil")
	}
}

func TestParseParagraphStructure(t *testing.T) {
	t.Parallel()

	nodes := mustParse(t, "Hello **bold** world")
	if len(nodes) != 1 {
		t.Fatalf("Parse() returned %d nodes, want 1", len(nodes))
	}

	p := nodes[0]
	if p.Tag != TagP {
		t.Fatalf("top node tag = %v, want TagP", p.Tag)
	}
	if p.Text != "Hello " {
		t.Errorf("leading text = %q, want %q", p.Text, "Hello ")
	}
	if len(p.Children) != 1 {
		t.Fatalf("paragraph has %d children, want 1", len(p.Children))
	}
	strong := p.Children[0]
	if strong.Node.Tag != TagStrong {
		t.Errorf("child tag = %v, want TagStrong", strong.Node.Tag)
	}
	if strong.Node.Text != "bold" {
		t.Errorf("child text = %q, want %q", strong.Node.Text, "bold")
	}
	if strong.Tail != " world" {
		t.Errorf("child tail = %q, want %q", strong.Tail, " world")
	}
}

func TestParseMultipleBlocks(t *testing.T) {
	t.Parallel()

	nodes := mustParse(t, "first\n\nsecond")
	if len(nodes) != 2 {
		t.Fatalf("Parse() returned %d nodes, want 2", len(nodes))
	}
	for i, want := range []string{"first", "second"} {
		if nodes[i].Tag != TagP || nodes[i].Text != want {
			t.Errorf("node %d = {%v %q}, want paragraph %q", i, nodes[i].Tag, nodes[i].Text, want)
		}
	}
}

func TestParseHeadings(t *testing.T) {
	t.Parallel()

	nodes := mustParse(t, "# One\n\n## Two\n\n### Three")
	wantTags := []Tag{TagH1, TagH2, TagH3}
	if len(nodes) != len(wantTags) {
		t.Fatalf("Parse() returned %d nodes, want %d", len(nodes), len(wantTags))
	}
	for i, want := range wantTags {
		if nodes[i].Tag != want {
			t.Errorf("node %d tag = %v, want %v", i, nodes[i].Tag, want)
		}
	}
}

func TestParseListStructure(t *testing.T) {
	t.Parallel()

	nodes := mustParse(t, "3. first\n4. second")
	if len(nodes) != 1 {
		t.Fatalf("Parse() returned %d nodes, want 1", len(nodes))
	}

	ol := nodes[0]
	if ol.Tag != TagOL {
		t.Fatalf("top node tag = %v, want TagOL", ol.Tag)
	}
	if got := ol.Attr("start"); got != "3" {
		t.Errorf("start attribute = %q, want %q", got, "3")
	}
	items := ol.directChildren(TagLI)
	if len(items) != 2 {
		t.Fatalf("list has %d items, want 2", len(items))
	}
}

func TestParseTableNormalization(t *testing.T) {
	t.Parallel()

	nodes := mustParse(t, "| Name | Score |\n| --- | --- |\n| Ada | 95 |")
	if len(nodes) != 1 {
		t.Fatalf("Parse() returned %d nodes, want 1", len(nodes))
	}

	table := nodes[0]
	if table.Tag != TagTable {
		t.Fatalf("top node tag = %v, want TagTable", table.Tag)
	}

	// Section wrappers are hoisted: rows are direct tr children.
	rows := table.directChildren(TagTR)
	if len(rows) != 2 {
		t.Fatalf("table has %d direct rows, want 2", len(rows))
	}

	// Header cells are normalized from th to td.
	header := rows[0].directChildren(TagTD)
	if len(header) != 2 {
		t.Fatalf("header row has %d td cells, want 2", len(header))
	}
	if got := header[0].RawText(); got != "Name" {
		t.Errorf("first header cell = %q, want %q", got, "Name")
	}
}

func TestParseFencedCode(t *testing.T) {
	t.Parallel()

	nodes := mustParse(t, "```\nx = 1\ny = 2\n```")
	if len(nodes) != 1 {
		t.Fatalf("Parse() returned %d nodes, want 1", len(nodes))
	}
	if nodes[0].Tag != TagPre {
		t.Fatalf("top node tag = %v, want TagPre", nodes[0].Tag)
	}
	if got := nodes[0].RawText(); got != "x = 1\ny = 2\n" {
		t.Errorf("pre raw text = %q, want %q", got, "x = 1\ny = 2\n")
	}
}

func TestParseRawInlineMarkers(t *testing.T) {
	t.Parallel()

	nodes := mustParse(t, "H<sub>2</sub>O and x<sup>n</sup>")
	if len(nodes) != 1 {
		t.Fatalf("Parse() returned %d nodes, want 1", len(nodes))
	}

	p := nodes[0]
	var tags []Tag
	for _, c := range p.Children {
		tags = append(tags, c.Node.Tag)
	}
	if !reflect.DeepEqual(tags, []Tag{TagSub, TagSup}) {
		t.Errorf("inline child tags = %v, want [TagSub TagSup]", tags)
	}
}

func TestParseRendersEndToEnd(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		feedback string
		want     []LayoutUnit
	}{
		{
			name:     "emphasis paragraph",
			feedback: "good *work* overall",
			want: []LayoutUnit{
				ParagraphUnit{Markup: "good <i>work</i> overall", Role: RoleBody},
			},
		},
		{
			name:     "code span stays literal",
			feedback: "use `a < b` here",
			want: []LayoutUnit{
				ParagraphUnit{Markup: "use <code>a &lt; b</code> here", Role: RoleBody},
			},
		},
		{
			name:     "code span markers are not interpreted",
			feedback: "`**not bold**`",
			want: []LayoutUnit{
				ParagraphUnit{Markup: "<code>**not bold**</code>", Role: RoleBody},
			},
		},
		{
			name:     "link flattens with href",
			feedback: "[docs](https://example.com)",
			want: []LayoutUnit{
				ParagraphUnit{Markup: "docs (https://example.com)", Role: RoleBody},
			},
		},
		{
			name:     "blockquote",
			feedback: "> remember this",
			want: []LayoutUnit{
				ParagraphUnit{Markup: "remember this", Role: RoleBlockQuote},
				SpacerUnit{Height: 4},
			},
		},
		{
			name:     "bulleted list",
			feedback: "- alpha\n- beta",
			want: []LayoutUnit{
				ListUnit{Items: []string{"alpha", "beta"}, Numbered: false, Start: 1},
				SpacerUnit{Height: 6},
			},
		},
		{
			name:     "table rows flatten",
			feedback: "| a | b |\n| --- | --- |\n| c | d |",
			want: []LayoutUnit{
				ParagraphUnit{Markup: "a | b", Role: RoleBody},
				ParagraphUnit{Markup: "c | d", Role: RoleBody},
				SpacerUnit{Height: 6},
			},
		},
		{
			name:     "formula paragraph stays raw",
			feedback: "$$E = mc^2$$",
			want: []LayoutUnit{
				PreformattedUnit{Text: "$$E = mc^2$$"},
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := feedbackUnits(mustParse(t, tt.feedback))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("feedbackUnits() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestParseIsRepeatable(t *testing.T) {
	t.Parallel()

	// The parser is reused across exports; repeated parses of the same
	// input must produce identical trees.
	p := newMarkupParser()
	const feedback = "# Title\n\nbody with **bold**\n\n- item"

	first, err := p.Parse(context.Background(), feedback)
	if err != nil {
		t.Fatalf("first Parse() error: %v", err)
	}
	second, err := p.Parse(context.Background(), feedback)
	if err != nil {
		t.Fatalf("second Parse() error: %v", err)
	}

	if !reflect.DeepEqual(feedbackUnits(first), feedbackUnits(second)) {
		t.Error("repeated Parse() produced different layout units")
	}
}
