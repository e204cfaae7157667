package trainer

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rivo/tview"

	"github.com/lowaak/circuit-timer/internal/session"
	"github.com/lowaak/circuit-timer/internal/workout"
)

// formatDuration formats a duration for display
func formatDuration(d time.Duration) string {
	total := int(d.Round(time.Second).Seconds())
	switch {
	case total < 60:
		return fmt.Sprintf("%ds", total)
	case total < 3600:
		if total%60 == 0 {
			return fmt.Sprintf("%d min", total/60)
		}
		return fmt.Sprintf("%d min %ds", total/60, total%60)
	default:
		hours, mins := total/3600, (total%3600)/60
		if mins > 0 {
			return fmt.Sprintf("%dh %dm", hours, mins)
		}
		return fmt.Sprintf("%dh", hours)
	}
}

func pluralize(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}

// formatWorkoutSummary is the secondary line of a list entry.
func formatWorkoutSummary(w workout.Definition) string {
	parts := []string{
		pluralize(len(w.Exercises), "exercise", "exercises"),
		formatDuration(w.TotalDuration()),
	}
	if w.CircuitCount() > 1 {
		parts = append(parts, pluralize(w.CircuitCount(), "circuit", "circuits"))
	}
	return strings.Join(parts, " · ")
}

func formatWorkoutDetails(w workout.Definition) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n  [yellow]%s[white]\n\n", tview.Escape(w.Name))
	fmt.Fprintf(&b, "  [gray]Circuits:[white]    %d\n", w.CircuitCount())
	fmt.Fprintf(&b, "  [gray]Per circuit:[white] %s\n", formatDuration(w.PassDuration()))
	fmt.Fprintf(&b, "  [gray]Total:[white]       %s\n\n", formatDuration(w.TotalDuration()))

	if len(w.Exercises) == 0 {
		b.WriteString("  [red]No exercises yet.[white] Press [yellow]E[white] to add some.\n")
		return b.String()
	}

	b.WriteString("  [gray]Exercises:[white]\n")
	for i, e := range w.Normalized().Exercises {
		fmt.Fprintf(&b, "    %d. %s [gray]%s[white]\n", i+1, tview.Escape(e.Name), session.FormatMMSS(e.Seconds()))
	}
	b.WriteString("\n  [green]Press Enter to start this workout[white]\n")
	return b.String()
}

// formatProgressBar draws fraction (clamped to 0..1) as a bar of width cells
// followed by a percentage.
func formatProgressBar(fraction float64, width int) string {
	fraction = math.Max(0, math.Min(1, fraction))
	filled := int(fraction * float64(width))
	return fmt.Sprintf("[green]%s[gray]%s[white] %3d%%",
		strings.Repeat("█", filled),
		strings.Repeat("░", width-filled),
		int(math.Round(fraction*100)))
}

var bigGlyphs = map[rune][5]string{
	'0': {"███", "█ █", "█ █", "█ █", "███"},
	'1': {" █ ", "██ ", " █ ", " █ ", "███"},
	'2': {"███", "  █", "███", "█  ", "███"},
	'3': {"███", "  █", "███", "  █", "███"},
	'4': {"█ █", "█ █", "███", "  █", "  █"},
	'5': {"███", "█  ", "███", "  █", "███"},
	'6': {"███", "█  ", "███", "█ █", "███"},
	'7': {"███", "  █", "  █", "  █", "  █"},
	'8': {"███", "█ █", "███", "█ █", "███"},
	'9': {"███", "█ █", "███", "  █", "███"},
	':': {" ", "█", " ", "█", " "},
}

// bigText renders digits and colons five rows tall. Other runes are dropped.
func bigText(s string) []string {
	rows := make([]string, 5)
	first := true
	for _, r := range s {
		glyph, ok := bigGlyphs[r]
		if !ok {
			continue
		}
		for i := range rows {
			if !first {
				rows[i] += " "
			}
			rows[i] += glyph[i]
		}
		first = false
	}
	return rows
}

func clockColor(s session.State) string {
	switch s.Status {
	case session.StatusRunning:
		return "green"
	case session.StatusPaused:
		return "yellow"
	default:
		return "white"
	}
}

// formatSessionDisplay renders the session screen.
func formatSessionDisplay(s session.State) string {
	if s.SessionID == "" {
		return "\n\n[gray]No session open.[white]\n\nPick a workout in the list (press [yellow]1[white]) and press [yellow]Enter[white]."
	}

	name := tview.Escape(s.Workout.Name)
	var b strings.Builder

	if s.IsFinished {
		b.WriteString("\n\n[green]Workout Complete![white]\n\n")
		fmt.Fprintf(&b, "Great job crushing %s!\n\n", name)
		b.WriteString("[yellow]R[white] Restart Workout  |  [yellow]Esc[white] Back to Workouts\n")
		return b.String()
	}

	b.WriteString("\n")
	fmt.Fprintf(&b, "[yellow]%s[white]", name)
	if s.Status == session.StatusPaused {
		b.WriteString(" [gray](PAUSED)[white]")
	}
	b.WriteString("\n")
	if label := s.CircuitLabel(); label != "" {
		fmt.Fprintf(&b, "[gray]%s[white]\n", label)
	}

	b.WriteString("\n[gray]CURRENT EXERCISE[white]\n")
	fmt.Fprintf(&b, "[::b]%s[::-]\n\n", tview.Escape(s.CurrentExercise().Name))

	color := clockColor(s)
	for _, row := range bigText(s.TimeLeftDisplay()) {
		fmt.Fprintf(&b, "[%s]%s[white]\n", color, row)
	}
	b.WriteString("\n")
	b.WriteString(formatProgressBar(s.Progress(), progressBarWidth))
	b.WriteString("\n\n")

	if next, ok := s.NextExercise(); ok {
		fmt.Fprintf(&b, "[gray]UP NEXT[white]\n[::b]%s[::-]\n%d Seconds\n", tview.Escape(next.Name), next.Seconds())
	} else if s.CircuitIndex+1 < s.Workout.CircuitCount() {
		b.WriteString("[gray]UP NEXT[white]\nNext circuit\n")
	} else {
		b.WriteString("[gray]Next:[white] [green]Finish![white]\n")
	}

	if s.Stalled() {
		b.WriteString("\n[yellow]Circuit complete. Press R to start the next pass.[white]\n")
	}

	b.WriteString("\n[gray]─────────────────────────[white]\n")
	switch s.Status {
	case session.StatusRunning:
		b.WriteString("[yellow]Space[white] Pause  |  [yellow]R[white] Reset\n")
	case session.StatusPaused:
		b.WriteString("[yellow]Space[white] Resume  |  [yellow]R[white] Reset\n")
	default:
		b.WriteString("[yellow]Space[white] Start  |  [yellow]R[white] Reset\n")
	}
	return b.String()
}
