package tutorchat

// Role names a typographic style by its semantic function.
type Role string

// Style roles used by the document skeleton and block renderer.
const (
	RoleBody       Role = "Body"
	RoleHeading1   Role = "Heading1"
	RoleHeading2   Role = "Heading2"
	RoleHeading3   Role = "Heading3"
	RoleMeta       Role = "Meta"
	RoleListBody   Role = "ListBody"
	RoleBlockQuote Role = "BlockQuote"
	RoleCode       Role = "Code"
)

// monoFontFamily is pinned for code spans, preformatted blocks, and list
// bullets regardless of the resolved body font.
const monoFontFamily = "Courier"

// Style is an immutable named typographic record. Sizes and spacing are in
// points; colors are CSS hex strings, empty meaning unset.
type Style struct {
	Name        Role
	FontFamily  string
	FontSize    float64
	Leading     float64
	TextColor   string
	BackColor   string
	LeftIndent  float64
	RightIndent float64
	SpaceBefore float64
	SpaceAfter  float64
}

// StyleSheet maps style roles to concrete styles.
type StyleSheet map[Role]Style

// Get looks up a role. Heading3 falls back to Heading2 when absent; any
// other missing role falls back to Body.
func (ss StyleSheet) Get(role Role) Style {
	if s, ok := ss[role]; ok {
		return s
	}
	if role == RoleHeading3 {
		if s, ok := ss[RoleHeading2]; ok {
			return s
		}
	}
	return ss[RoleBody]
}

// buildStyles derives the eight document styles from the resolved font.
// Pure function: every derived style copies Body and overrides fields.
func buildStyles(font FontHandle) StyleSheet {
	body := Style{
		Name:       RoleBody,
		FontFamily: font.Family,
		FontSize:   11,
		Leading:    14,
		TextColor:  "#000000",
		SpaceAfter: 6,
	}

	heading1 := body
	heading1.Name = RoleHeading1
	heading1.FontSize = 18
	heading1.Leading = 22
	heading1.SpaceAfter = 12

	heading2 := body
	heading2.Name = RoleHeading2
	heading2.FontSize = 14
	heading2.Leading = 18
	heading2.SpaceAfter = 8

	heading3 := body
	heading3.Name = RoleHeading3
	heading3.FontSize = 12
	heading3.Leading = 16
	heading3.SpaceAfter = 6

	meta := body
	meta.Name = RoleMeta
	meta.TextColor = "#808080"
	meta.SpaceAfter = 4

	listBody := body
	listBody.Name = RoleListBody
	listBody.SpaceAfter = 2

	blockQuote := body
	blockQuote.Name = RoleBlockQuote
	blockQuote.LeftIndent = 12
	blockQuote.TextColor = "#a9a9a9"
	blockQuote.SpaceBefore = 4
	blockQuote.SpaceAfter = 6

	code := body
	code.Name = RoleCode
	code.FontFamily = monoFontFamily
	code.FontSize = 10
	code.Leading = 12
	code.BackColor = "#f5f5f5"
	code.LeftIndent = 6
	code.RightIndent = 6
	code.SpaceBefore = 4
	code.SpaceAfter = 8

	return StyleSheet{
		RoleBody:       body,
		RoleHeading1:   heading1,
		RoleHeading2:   heading2,
		RoleHeading3:   heading3,
		RoleMeta:       meta,
		RoleListBody:   listBody,
		RoleBlockQuote: blockQuote,
		RoleCode:       code,
	}
}
