package production

import (
	"fmt"
	"strings"

	"github.com/oreline/oreline/internal/models"
	"github.com/oreline/oreline/internal/tui/components"
)

// MilestonesView shows the milestone ladder and progress toward the current one.
type MilestonesView struct {
	src         Source
	milestones  []models.Milestone
	current     models.Milestone
	hasCurrent  bool
	progress    []models.RequirementProgress
	canComplete bool
	styles      components.Styles
}

// NewMilestonesView creates a milestone view.
func NewMilestonesView(src Source) *MilestonesView {
	return &MilestonesView{src: src, styles: components.DefaultStyles()}
}

// SetStyles sets the palette.
func (v *MilestonesView) SetStyles(s components.Styles) {
	v.styles = s
}

// Refresh reloads milestone state.
func (v *MilestonesView) Refresh() {
	v.milestones = v.src.Milestones()
	v.current, v.hasCurrent = v.src.CurrentMilestone()
	v.progress = v.src.MilestoneProgress()
	v.canComplete = v.src.CanCompleteCurrentMilestone()
}

// CanComplete reports whether the current milestone's requirements are met.
func (v *MilestonesView) CanComplete() bool {
	return v.canComplete
}

// Render renders the ladder and the current milestone's requirements.
func (v *MilestonesView) Render(width, height int) string {
	var b strings.Builder
	cat := v.src.Catalog()

	b.WriteString(v.styles.Title.Render("=== MILESTONES ==="))
	b.WriteString("\n\n")

	for _, m := range v.milestones {
		mark, style := "[ ]", v.styles.Muted
		switch {
		case m.Unlocked:
			mark, style = "[x]", v.styles.Value
		case v.hasCurrent && m.ID == v.current.ID:
			mark, style = "[>]", v.styles.Focus
		}

		unlocks := make([]string, len(m.Unlocks))
		for i, u := range m.Unlocks {
			unlocks[i] = cat.Name(u)
		}
		line := fmt.Sprintf("%s %-26s unlocks %s", mark, m.Name, strings.Join(unlocks, ", "))
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if !v.hasCurrent {
		b.WriteString(v.styles.Focus.Render("All milestones complete."))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(v.styles.Header.Render("Current: " + v.current.Name))
	b.WriteString("\n")

	barWidth := 20
	if width < 60 {
		barWidth = 10
	}
	for _, p := range v.progress {
		style := v.styles.Label
		if p.Met() {
			style = v.styles.Value
		}
		b.WriteString(style.Width(20).Render(p.Name))
		b.WriteString(" ")
		b.WriteString(components.ProgressBar(v.styles, p.Fraction(), barWidth))
		b.WriteString(" ")
		b.WriteString(style.Render(fmt.Sprintf("%g/%g", min(p.Current, p.Required), p.Required)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if v.canComplete {
		b.WriteString(v.styles.Focus.Render("Ready. Press Enter to complete."))
	} else {
		b.WriteString(v.styles.Muted.Render("Gather the items above to complete this milestone."))
	}
	return b.String()
}
