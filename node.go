package tutorchat

import "strings"

// Tag identifies a semantic tree element. The vocabulary is closed: every
// element the markup parser can emit maps to one of these constants, and
// anything else maps to TagUnknown so dispatch never falls through silently.
type Tag int

const (
	TagUnknown Tag = iota
	TagP
	TagDiv
	TagSpan
	TagH1
	TagH2
	TagH3
	TagUL
	TagOL
	TagLI
	TagPre
	TagCode
	TagBlockquote
	TagTable
	TagTR
	TagTD
	TagStrong
	TagB
	TagEm
	TagI
	TagA
	TagBR
	TagSub
	TagSup
)

var tagNames = map[string]Tag{
	"p":          TagP,
	"div":        TagDiv,
	"span":       TagSpan,
	"h1":         TagH1,
	"h2":         TagH2,
	"h3":         TagH3,
	"ul":         TagUL,
	"ol":         TagOL,
	"li":         TagLI,
	"pre":        TagPre,
	"code":       TagCode,
	"blockquote": TagBlockquote,
	"table":      TagTable,
	"tr":         TagTR,
	"td":         TagTD,
	"strong":     TagStrong,
	"b":          TagB,
	"em":         TagEm,
	"i":          TagI,
	"a":          TagA,
	"br":         TagBR,
	"sub":        TagSub,
	"sup":        TagSup,
}

// TagFromName maps an element name (case-insensitive) to its Tag.
// Unrecognized names map to TagUnknown.
func TagFromName(name string) Tag {
	if t, ok := tagNames[strings.ToLower(name)]; ok {
		return t
	}
	return TagUnknown
}

// Child is a reference to a child node plus the text that follows the child
// element but still belongs to the parent's text stream. Keeping the trailing
// text on the reference (instead of on the child itself) makes the ownership
// explicit: a child never renders its own tail.
type Child struct {
	Node *Node
	Tail string
}

// Node is one element of the semantic tree produced by the markup parser.
// Text is the leading text segment before the first child.
type Node struct {
	Tag      Tag
	Attrs    map[string]string
	Text     string
	Children []Child
}

// Attr returns the named attribute value, or "" when absent.
func (n *Node) Attr(name string) string {
	if n == nil || n.Attrs == nil {
		return ""
	}
	return n.Attrs[name]
}

// RawText returns the concatenated text content of the node and all of its
// descendants in document order, including trailing text segments.
func (n *Node) RawText() string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	n.rawText(&b)
	return b.String()
}

func (n *Node) rawText(b *strings.Builder) {
	b.WriteString(n.Text)
	for _, c := range n.Children {
		if c.Node != nil {
			c.Node.rawText(b)
		}
		b.WriteString(c.Tail)
	}
}

// directChildren returns the child nodes whose tag matches t, in order.
func (n *Node) directChildren(t Tag) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Node != nil && c.Node.Tag == t {
			out = append(out, c.Node)
		}
	}
	return out
}
