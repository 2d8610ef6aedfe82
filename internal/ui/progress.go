package ui

import (
	"fmt"
	"io"

	"github.com/desertthunder/cdx/internal/tasks"
)

var phaseIcons = map[tasks.Phase]string{
	tasks.FetchCollection: "📥",
	tasks.FetchValue:      "💰",
	tasks.FetchWishlist:   "📋",
	tasks.CheckPrices:     "🔍",
	tasks.Analyze:         "🤖",
	tasks.ExportLibrary:   "📝",
}

// ProgressLine renders one update. Steps after the first are indented under their phase.
func ProgressLine(update tasks.ProgressUpdate) string {
	icon, ok := phaseIcons[update.Phase]
	if !ok {
		icon = "•"
	}
	if update.Step > 1 {
		return "   " + update.Message
	}
	return icon + " " + update.Message
}

// Follow writes every update from progress to w until the channel closes, then closes done.
func Follow(w io.Writer, progress <-chan tasks.ProgressUpdate, done chan<- struct{}) {
	defer close(done)
	for update := range progress {
		fmt.Fprintln(w, ProgressLine(update))
	}
}
