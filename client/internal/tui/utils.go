package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/maynagashev/redactvault/models"
)

// formatConfidence renders the confidence percentage, marking values outside [0,100].
func formatConfidence(e models.VaultEntry) string {
	p := e.ConfidencePercent()
	if p < 0 || p > 100 {
		return fmt.Sprintf("%d%%!", p)
	}
	return fmt.Sprintf("%d%%", p)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncate shortens s to at most n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
