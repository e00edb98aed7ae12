package tutorchat

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// feedbackParser abstracts feedback-to-tree conversion to allow different
// backends.
type feedbackParser interface {
	Parse(ctx context.Context, feedback string) ([]*Node, error)
}

// Compile-time interface check.
var _ feedbackParser = (*markupParser)(nil)

// markupParser converts feedback text into the semantic node tree.
// Goldmark handles the Markdown layer (fenced code blocks, lists, tables);
// the resulting fragment is re-parsed with x/net/html and normalized into
// the closed Tag vocabulary.
type markupParser struct {
	md goldmark.Markdown
}

func newMarkupParser() *markupParser {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.Table,
		),
		goldmark.WithRendererOptions(
			gmhtml.WithXHTML(),
			// Feedback may carry literal <sub>/<sup>/<br> markers; they must
			// survive into the tree. The output is never served as live HTML,
			// only flattened into print layout units.
			gmhtml.WithUnsafe(),
		),
	)
	return &markupParser{md: md}
}

// Parse converts feedback text to the ordered top-level nodes of the
// semantic tree. An empty or whitespace-only conversion yields (nil, nil).
// Supports context cancellation via goroutine + select since Goldmark does
// not natively take a context.
func (p *markupParser) Parse(ctx context.Context, feedback string) ([]*Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type result struct {
		nodes []*Node
		err   error
	}

	done := make(chan result, 1)

	go func() {
		var buf bytes.Buffer
		if err := p.md.Convert([]byte(feedback), &buf); err != nil {
			done <- result{err: fmt.Errorf("%w: %v", ErrMarkupParse, err)}
			return
		}
		fragment := strings.TrimSpace(buf.String())
		if fragment == "" {
			done <- result{}
			return
		}
		nodes, err := parseFragment(fragment)
		done <- result{nodes: nodes, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		return r.nodes, r.err
	}
}

// parseFragment parses an HTML fragment and converts its top-level elements
// into Nodes. Text between top-level elements carries no block semantics and
// is dropped, matching the element-only iteration of the tree consumer.
func parseFragment(fragment string) ([]*Node, error) {
	body := &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	}
	parsed, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMarkupParse, err)
	}

	var nodes []*Node
	for _, h := range parsed {
		if h.Type != html.ElementNode {
			continue
		}
		nodes = append(nodes, convertElement(h))
	}
	return nodes, nil
}

// convertElement maps one parsed element (and its subtree) to a Node.
// Leading text attaches to the Node, text after a child element attaches to
// that child's Tail. Table section wrappers (thead/tbody) and header cells
// (th) are outside the closed vocabulary and are normalized away so that a
// table's rows are always direct tr children holding td cells.
func convertElement(h *html.Node) *Node {
	name := strings.ToLower(h.Data)
	if name == "th" {
		name = "td"
	}

	n := &Node{Tag: TagFromName(name)}
	if len(h.Attr) > 0 {
		n.Attrs = make(map[string]string, len(h.Attr))
		for _, a := range h.Attr {
			n.Attrs[strings.ToLower(a.Key)] = a.Val
		}
	}

	for c := h.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			n.appendText(c.Data)
		case html.ElementNode:
			if n.Tag == TagTable && isTableSection(c.Data) {
				// Hoist rows out of thead/tbody/tfoot.
				for row := c.FirstChild; row != nil; row = row.NextSibling {
					if row.Type == html.ElementNode {
						n.Children = append(n.Children, Child{Node: convertElement(row)})
					}
				}
				continue
			}
			n.Children = append(n.Children, Child{Node: convertElement(c)})
		}
	}
	return n
}

func (n *Node) appendText(text string) {
	if len(n.Children) == 0 {
		n.Text += text
		return
	}
	n.Children[len(n.Children)-1].Tail += text
}

func isTableSection(name string) bool {
	switch strings.ToLower(name) {
	case "thead", "tbody", "tfoot":
		return true
	}
	return false
}
