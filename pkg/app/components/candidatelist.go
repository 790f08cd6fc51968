package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/kerbaras/mangashelf/pkg/app/styles"
	"github.com/kerbaras/mangashelf/pkg/services"
)

// CandidateList is a wrap-around selectable list of tracker matches.
type CandidateList struct {
	Items         []services.Candidate
	SelectedIndex int
	Width         int
}

func NewCandidateList() *CandidateList {
	return &CandidateList{
		Items: []services.Candidate{},
		Width: 80,
	}
}

// SetItems replaces the candidates, keeping only the best match per tracker
// id since every title variant is scored separately.
func (c *CandidateList) SetItems(items []services.Candidate) {
	seen := make(map[int]bool, len(items))
	c.Items = c.Items[:0]
	for _, item := range items {
		if seen[item.TrackerID] {
			continue
		}
		seen[item.TrackerID] = true
		c.Items = append(c.Items, item)
	}
	if c.SelectedIndex >= len(c.Items) {
		c.SelectedIndex = 0
	}
}

func (c *CandidateList) Next() {
	if len(c.Items) == 0 {
		return
	}
	c.SelectedIndex++
	if c.SelectedIndex >= len(c.Items) {
		c.SelectedIndex = 0
	}
}

func (c *CandidateList) Prev() {
	if len(c.Items) == 0 {
		return
	}
	c.SelectedIndex--
	if c.SelectedIndex < 0 {
		c.SelectedIndex = len(c.Items) - 1
	}
}

func (c *CandidateList) Selected() *services.Candidate {
	if len(c.Items) == 0 || c.SelectedIndex >= len(c.Items) {
		return nil
	}
	return &c.Items[c.SelectedIndex]
}

func (c *CandidateList) View() string {
	if len(c.Items) == 0 {
		return styles.MutedStyle.Render("No close matches in the tracker list")
	}

	var b strings.Builder
	for i, item := range c.Items {
		style := styles.CardStyle
		if i == c.SelectedIndex {
			style = styles.ActiveCardStyle
		}
		content := lipgloss.JoinHorizontal(
			lipgloss.Top,
			styles.TextStyle.Render(item.Title),
			"  ",
			styles.MutedStyle.Render(fmt.Sprintf("#%d  distance %d", item.TrackerID, item.Distance)),
		)
		b.WriteString(style.Width(c.Width - 4).Render(content))
		b.WriteString("\n")
	}
	return b.String()
}
