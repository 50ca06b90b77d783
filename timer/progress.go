package timer

import (
	"fmt"
	"strings"
)

const (
	BarCells      = 20
	barFilledChar = "█"
	barEmptyChar  = "░"
)

// FilledCells is floor(elapsed/total*BarCells), bounded to the bar.
func FilledCells(elapsedSeconds, totalSeconds int) int {
	if totalSeconds <= 0 || elapsedSeconds <= 0 {
		return 0
	}
	return min(elapsedSeconds*BarCells/totalSeconds, BarCells)
}

func ProgressBar(elapsedSeconds, totalSeconds int) string {
	filled := FilledCells(elapsedSeconds, totalSeconds)
	return strings.Repeat(barFilledChar, filled) + strings.Repeat(barEmptyChar, BarCells-filled)
}

// FormatProgress renders the clock line and bar shared by every transport.
func FormatProgress(elapsedSeconds, totalSeconds int, paused bool) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "⏱ %d:%02d / %d:%02d", elapsedSeconds/60, elapsedSeconds%60, totalSeconds/60, totalSeconds%60)
	if paused {
		sb.WriteString(" ⏸ paused")
	}
	sb.WriteString("\n")
	sb.WriteString(ProgressBar(elapsedSeconds, totalSeconds))
	return sb.String()
}
