package tutorchat

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/nkovalenko/tutorchat/internal/assets"
)

// htmlDocTemplate wraps the generated stylesheet and story body in a
// complete HTML5 document for the print engine.
const htmlDocTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
%s
</style>
</head>
<body>
%s
</body>
</html>`

// defaultCodeTheme selects the chroma style used for preformatted blocks.
const defaultCodeTheme = "github"

// storyHTML renders the ordered layout unit sequence into a standalone HTML
// document: role classes generated from the stylesheet, @font-face rules
// from the resolved font, a chroma-derived code palette, all layered over
// the embedded base print stylesheet. overrideCSS, when non-empty, is
// appended last so it wins the cascade.
func storyHTML(story []LayoutUnit, sheet StyleSheet, font FontHandle, codeTheme, overrideCSS string) string {
	var css strings.Builder
	css.WriteString(assets.BaseStylesheet())
	css.WriteString(fontFaceCSS(font))
	css.WriteString(roleCSS(sheet))
	css.WriteString(codePaletteCSS(sheet, codeTheme))
	css.WriteString(overrideCSS)

	var body strings.Builder
	for _, unit := range story {
		writeUnitHTML(&body, unit)
	}

	return fmt.Sprintf(htmlDocTemplate, documentTitle, css.String(), body.String())
}

// writeUnitHTML emits the HTML for one layout unit. The switch is exhaustive
// over the sealed unit sum.
func writeUnitHTML(b *strings.Builder, unit LayoutUnit) {
	switch u := unit.(type) {
	case ParagraphUnit:
		// Markup is already escaped and annotated by the inline renderer.
		fmt.Fprintf(b, "<p class=%q>%s</p>\n", roleClass(u.Role), u.Markup)
	case SpacerUnit:
		fmt.Fprintf(b, `<div class="spacer" style="height:%spt"></div>`+"\n", formatPt(u.Height))
	case ListUnit:
		if u.Numbered {
			fmt.Fprintf(b, "<ol class=\"list\" start=\"%d\">\n", u.Start)
		} else {
			b.WriteString("<ul class=\"list\">\n")
		}
		for _, item := range u.Items {
			fmt.Fprintf(b, "<li class=%q>%s</li>\n", roleClass(RoleListBody), item)
		}
		if u.Numbered {
			b.WriteString("</ol>\n")
		} else {
			b.WriteString("</ul>\n")
		}
	case PreformattedUnit:
		// Literal text: escaped here once for embedding, never interpreted.
		fmt.Fprintf(b, "<pre class=%q>%s</pre>\n", roleClass(RoleCode), html.EscapeString(u.Text))
	}
}

// fontFaceCSS declares one @font-face per registered variant file. Fallback
// fonts carry no files and need no declarations.
func fontFaceCSS(font FontHandle) string {
	if font.Fallback || len(font.Files) == 0 {
		return ""
	}

	var b strings.Builder
	for _, fv := range fontVariantFiles {
		path, ok := font.Files[fv.variant]
		if !ok {
			continue
		}
		weight, style := "normal", "normal"
		switch fv.variant {
		case VariantBold:
			weight = "bold"
		case VariantItalic:
			style = "italic"
		case VariantBoldItalic:
			weight, style = "bold", "italic"
		}
		fmt.Fprintf(&b, `@font-face {
  font-family: %q;
  src: url("file://%s");
  font-weight: %s;
  font-style: %s;
}
`, font.Family, path, weight, style)
	}
	return b.String()
}

// roleCSS generates one class per style role. Space-before/after map to
// margins, indents to left/right margins, leading to line-height.
func roleCSS(sheet StyleSheet) string {
	var b strings.Builder
	for _, role := range []Role{
		RoleBody, RoleHeading1, RoleHeading2, RoleHeading3,
		RoleMeta, RoleListBody, RoleBlockQuote, RoleCode,
	} {
		s := sheet.Get(role)
		fmt.Fprintf(&b, ".%s {\n", roleClass(role))
		fmt.Fprintf(&b, "  font-family: %s;\n", fontStack(s.FontFamily))
		fmt.Fprintf(&b, "  font-size: %spt;\n", formatPt(s.FontSize))
		fmt.Fprintf(&b, "  line-height: %spt;\n", formatPt(s.Leading))
		if s.TextColor != "" {
			fmt.Fprintf(&b, "  color: %s;\n", s.TextColor)
		}
		if s.BackColor != "" {
			fmt.Fprintf(&b, "  background-color: %s;\n", s.BackColor)
		}
		fmt.Fprintf(&b, "  margin: %spt %spt %spt %spt;\n",
			formatPt(s.SpaceBefore), formatPt(s.RightIndent),
			formatPt(s.SpaceAfter), formatPt(s.LeftIndent))
		b.WriteString("}\n")
	}

	// List bullets pin the monospace family regardless of the body font.
	fmt.Fprintf(&b, "ul.list li::marker, ol.list li::marker { font-family: %s; }\n", fontStack(monoFontFamily))
	return b.String()
}

// codePaletteCSS overrides the preformatted block palette from a chroma
// style. Unknown theme names resolve to chroma's fallback style.
func codePaletteCSS(sheet StyleSheet, theme string) string {
	if theme == "" {
		theme = defaultCodeTheme
	}
	cs := styles.Get(theme)
	if cs == nil {
		return ""
	}

	bg := cs.Get(chroma.Background)
	var b strings.Builder
	fmt.Fprintf(&b, "pre.%s {\n", roleClass(RoleCode))
	if bg.Background.IsSet() {
		fmt.Fprintf(&b, "  background-color: %s;\n", bg.Background.String())
	}
	if bg.Colour.IsSet() {
		fmt.Fprintf(&b, "  color: %s;\n", bg.Colour.String())
	}
	b.WriteString("}\n")
	return b.String()
}

func roleClass(role Role) string {
	return "role-" + strings.ToLower(string(role))
}

// fontStack appends the generic CSS family for the given font name.
func fontStack(family string) string {
	if family == monoFontFamily {
		return fmt.Sprintf("%q, monospace", family)
	}
	return fmt.Sprintf("%q, sans-serif", family)
}

// formatPt formats a point value without trailing zeros.
func formatPt(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
