package msg

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// ProgressBar renders a single-line bar counting finished items, e.g. classified files.
type ProgressBar struct {
	Total      int
	Current    int
	Indent     int
	Label      string
	Start      time.Time
	W          io.Writer
	lastPrint  time.Time
	throbIndex int
}

var throbbers = []rune{'|', '/', '-', '\\'}

func NewProgressBar(total int, label string, indent int, w io.Writer) *ProgressBar {
	return &ProgressBar{
		Total:  total,
		Indent: indent,
		Label:  label,
		Start:  time.Now(),
		W:      w,
	}
}

// Step records one finished item and redraws at most every 40ms.
func (pb *ProgressBar) Step() {
	pb.Current++
	if time.Since(pb.lastPrint) > 40*time.Millisecond {
		pb.print(false)
		pb.lastPrint = time.Now()
	}
}

func (pb *ProgressBar) print(finish bool) {
	width := 40
	percent := float64(pb.Current) / float64(max(pb.Total, 1))
	if finish {
		percent = 1
	}

	filled := min(int(percent*float64(width)), width)
	bar := strings.Repeat("█", filled) + strings.Repeat("-", width-filled)

	throb := throbbers[pb.throbIndex%len(throbbers)]
	pb.throbIndex++
	if finish {
		throb = ' '
	}

	if pb.Total > 0 {
		fmt.Fprintf(pb.W, "\r%s%s %6.f%% [%s] %c",
			strings.Repeat(" ", pb.Indent),
			pb.Label,
			percent*100,
			bar,
			throb,
		)
	} else {
		fmt.Fprintf(pb.W, "\r%s%s %d %c",
			strings.Repeat(" ", pb.Indent),
			pb.Label,
			pb.Current,
			throb,
		)
	}
}

func (pb *ProgressBar) Finish() {
	pb.print(true)
	fmt.Fprintf(pb.W, " %d files in %s\n", pb.Current, time.Since(pb.Start).Round(time.Millisecond))
}
