package tutorchat

import (
	"strconv"
	"strings"
)

// LayoutUnit is one opaque, ordered instruction for the layout engine.
// Units carry no cross-references; a document is simply an ordered sequence.
// The type is a sealed sum: only the four unit kinds below implement it.
type LayoutUnit interface {
	layoutUnit()
}

// ParagraphUnit is a styled paragraph of escaped, markup-annotated text.
type ParagraphUnit struct {
	Markup string
	Role   Role
}

// SpacerUnit is a fixed-height vertical gap, in points.
type SpacerUnit struct {
	Height float64
}

// ListUnit is a bulleted or numbered list of paragraph items. Start applies
// to numbered lists only.
type ListUnit struct {
	Items    []string
	Numbered bool
	Start    int
}

// PreformattedUnit is a literal text block rendered in the Code style.
type PreformattedUnit struct {
	Text string
}

func (ParagraphUnit) layoutUnit()    {}
func (SpacerUnit) layoutUnit()       {}
func (ListUnit) layoutUnit()         {}
func (PreformattedUnit) layoutUnit() {}

// formulaDelimiter marks literal formula blocks that must stay unparsed.
const formulaDelimiter = "$$"

// blockUnits dispatches one block-level node to its layout units. It never
// fails for a structurally valid tree; malformed attribute values are
// normalized. Unknown tags degrade to a paragraph or a small spacer so no
// block is ever dropped without preserving vertical rhythm.
func blockUnits(n *Node) []LayoutUnit {
	switch n.Tag {
	case TagP, TagSpan, TagDiv:
		return paragraphUnits(n)
	case TagH1:
		return []LayoutUnit{ParagraphUnit{Markup: inlineMarkup(n), Role: RoleHeading1}}
	case TagH2:
		return []LayoutUnit{ParagraphUnit{Markup: inlineMarkup(n), Role: RoleHeading2}}
	case TagH3:
		return []LayoutUnit{ParagraphUnit{Markup: inlineMarkup(n), Role: RoleHeading3}}
	case TagUL, TagOL:
		return listUnits(n)
	case TagPre:
		return []LayoutUnit{PreformattedUnit{Text: preformattedText(n)}}
	case TagCode:
		return []LayoutUnit{PreformattedUnit{Text: n.RawText()}}
	case TagBlockquote:
		markup := strings.TrimSpace(inlineMarkup(n))
		if markup == "" {
			return nil
		}
		return []LayoutUnit{
			ParagraphUnit{Markup: markup, Role: RoleBlockQuote},
			SpacerUnit{Height: 4},
		}
	case TagTable:
		return tableUnits(n)
	case TagLI, TagTR, TagTD, TagStrong, TagB, TagEm, TagI, TagA, TagBR,
		TagSub, TagSup, TagUnknown:
		return fallthroughUnits(n)
	}
	return fallthroughUnits(n)
}

// paragraphUnits handles p/span/div. Empty content becomes a spacer; a
// literal $$-delimited formula is preserved unparsed as a preformatted
// block; everything else is a Body paragraph of inline markup.
func paragraphUnits(n *Node) []LayoutUnit {
	raw := strings.TrimSpace(n.RawText())
	if raw == "" {
		return []LayoutUnit{SpacerUnit{Height: 6}}
	}
	if isFormulaBlock(raw) {
		return []LayoutUnit{PreformattedUnit{Text: raw}}
	}
	return []LayoutUnit{ParagraphUnit{Markup: strings.TrimSpace(inlineMarkup(n)), Role: RoleBody}}
}

func isFormulaBlock(raw string) bool {
	return strings.HasPrefix(raw, formulaDelimiter) &&
		strings.HasSuffix(raw, formulaDelimiter) &&
		strings.Count(raw, formulaDelimiter) >= 2
}

// listUnits collects direct li children, dropping items whose trimmed text
// is empty. A list with no surviving items emits nothing. Numbered lists
// honor any integer start attribute; non-integer values normalize to 1.
func listUnits(n *Node) []LayoutUnit {
	var items []string
	for _, li := range n.directChildren(TagLI) {
		text := strings.TrimSpace(inlineMarkup(li))
		if text == "" {
			continue
		}
		items = append(items, text)
	}
	if len(items) == 0 {
		return nil
	}

	unit := ListUnit{Items: items, Numbered: n.Tag == TagOL, Start: 1}
	if unit.Numbered {
		if start, err := strconv.Atoi(n.Attr("start")); err == nil {
			unit.Start = start
		}
	}
	return []LayoutUnit{unit, SpacerUnit{Height: 6}}
}

// preformattedText joins the node's text lines, right-trimming each line and
// stripping leading/trailing blank lines as a whole. An empty result becomes
// a single space so the layout engine never sees a zero-height block.
func preformattedText(n *Node) string {
	lines := strings.Split(n.RawText(), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t\r")
	}
	text := strings.Trim(strings.Join(lines, "\n"), "\n")
	if text == "" {
		return " "
	}
	return text
}

// tableUnits flattens each row to a bar-separated plain paragraph, skipping
// empty cells. Column alignment is intentionally discarded.
func tableUnits(n *Node) []LayoutUnit {
	var units []LayoutUnit
	for _, tr := range n.directChildren(TagTR) {
		var cells []string
		for _, td := range tr.directChildren(TagTD) {
			cell := strings.Join(strings.Fields(td.RawText()), " ")
			if cell == "" {
				continue
			}
			cells = append(cells, cell)
		}
		if len(cells) == 0 {
			continue
		}
		units = append(units, ParagraphUnit{
			Markup: escapeMarkup(strings.Join(cells, " | ")),
			Role:   RoleBody,
		})
	}
	if len(units) > 0 {
		units = append(units, SpacerUnit{Height: 6})
	}
	return units
}

// fallthroughUnits treats an unrecognized block as a pass-through paragraph.
func fallthroughUnits(n *Node) []LayoutUnit {
	markup := strings.TrimSpace(inlineMarkup(n))
	if markup == "" {
		return []LayoutUnit{SpacerUnit{Height: 4}}
	}
	return []LayoutUnit{ParagraphUnit{Markup: markup, Role: RoleBody}}
}
