package tutorchat

import "strings"

// escapeMarkup escapes the three reserved markup characters. It is applied
// to every raw text fragment exactly once, before any wrapping, so the wrap
// markers the renderer inserts are never themselves escaped.
func escapeMarkup(text string) string {
	text = strings.ReplaceAll(text, "&", "&amp;")
	text = strings.ReplaceAll(text, "<", "&lt;")
	text = strings.ReplaceAll(text, ">", "&gt;")
	return text
}

// inlineMarkup renders a node's inline content: escaped leading text, each
// child wrapped according to its tag, and each child's escaped trailing text.
func inlineMarkup(n *Node) string {
	var b strings.Builder
	b.WriteString(escapeMarkup(n.Text))
	for _, c := range n.Children {
		if c.Node != nil {
			b.WriteString(wrapInline(c.Node))
		}
		b.WriteString(escapeMarkup(c.Tail))
	}
	return b.String()
}

// wrapInline maps one inline node to its markup annotation. The switch is
// exhaustive over the Tag vocabulary; block-level tags appearing inline and
// TagUnknown pass their content through unwrapped.
func wrapInline(n *Node) string {
	switch n.Tag {
	case TagStrong, TagB:
		return "<b>" + inlineMarkup(n) + "</b>"
	case TagEm, TagI:
		return "<i>" + inlineMarkup(n) + "</i>"
	case TagCode:
		// Code spans render their raw descendant text literally; nested tag
		// syntax inside the span is not interpreted.
		return "<code>" + escapeMarkup(n.RawText()) + "</code>"
	case TagBR:
		return "<br/>"
	case TagA:
		inner := inlineMarkup(n)
		if href := n.Attr("href"); href != "" {
			return inner + " (" + escapeMarkup(href) + ")"
		}
		return inner
	case TagSub:
		return "<sub>" + inlineMarkup(n) + "</sub>"
	case TagSup:
		return "<sup>" + inlineMarkup(n) + "</sup>"
	case TagP, TagDiv, TagSpan, TagH1, TagH2, TagH3, TagUL, TagOL, TagLI,
		TagPre, TagBlockquote, TagTable, TagTR, TagTD, TagUnknown:
		return inlineMarkup(n)
	}
	return inlineMarkup(n)
}
