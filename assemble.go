package tutorchat

import "strings"

// Fixed document skeleton strings.
const (
	documentTitle   = "Assessment Result"
	feedbackLabel   = "Feedback:"
	noFeedbackText  = "No feedback."
	dateLinePrefix  = "Date: "
	scoreLinePrefix = "Score: "
)

// buildStory assembles the ordered layout unit sequence for one export:
// title, metadata block, feedback label, then the rendered feedback blocks
// (or a literal fallback paragraph when the tree produced nothing).
func buildStory(timestamp, score string, blocks []LayoutUnit) []LayoutUnit {
	story := make([]LayoutUnit, 0, len(blocks)+8)

	story = append(story,
		ParagraphUnit{Markup: documentTitle, Role: RoleHeading1},
		SpacerUnit{Height: 10},
		ParagraphUnit{Markup: dateLinePrefix + escapeMarkup(timestamp), Role: RoleMeta},
	)

	if score = strings.TrimSpace(score); score != "" {
		story = append(story, ParagraphUnit{
			Markup: scoreLinePrefix + "<b>" + escapeMarkup(score) + "</b>",
			Role:   RoleMeta,
		})
	}

	story = append(story,
		SpacerUnit{Height: 12},
		ParagraphUnit{Markup: feedbackLabel, Role: RoleHeading2},
		SpacerUnit{Height: 6},
	)

	if len(blocks) == 0 {
		return append(story, ParagraphUnit{Markup: noFeedbackText, Role: RoleBody})
	}
	return append(story, blocks...)
}

// feedbackUnits renders every top-level child of the feedback tree in
// document order.
func feedbackUnits(nodes []*Node) []LayoutUnit {
	var units []LayoutUnit
	for _, n := range nodes {
		units = append(units, blockUnits(n)...)
	}
	return units
}
