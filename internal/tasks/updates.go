package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or server layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	FetchCollection Phase = iota
	FetchValue
	FetchWishlist
	CheckPrices
	Analyze
	ExportLibrary
)

func (p Phase) String() string {
	switch p {
	case FetchCollection:
		return "fetch_collection"
	case FetchValue:
		return "fetch_value"
	case FetchWishlist:
		return "fetch_wishlist"
	case CheckPrices:
		return "check_prices"
	case Analyze:
		return "analyze"
	case ExportLibrary:
		return "export_library"
	default:
		return ""
	}
}

// sendProgress sends update without blocking. A nil or full channel drops it.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func fetchPageUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchCollection,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Fetching collection page %d of %d...", step, total),
	}
}

func pageFetchedUpdate(step, total, cds int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchCollection,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %d CDs", step, total, cds),
		Data:    cds,
	}
}

func pageFailedUpdate(step, total int, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchCollection,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ page skipped: %v", step, total, err),
	}
}

func fetchValueUpdate() ProgressUpdate {
	return ProgressUpdate{Phase: FetchValue, Step: 1, Total: 1, Message: "Fetching collection value..."}
}

func fetchWishlistUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchWishlist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Loaded wishlist (%d items)", count),
	}
}

func alertCheckedUpdate(step, total int, res AlertRefreshResult) ProgressUpdate {
	if res.Error != nil {
		return ProgressUpdate{
			Phase:   CheckPrices,
			Step:    step,
			Total:   total,
			Message: fmt.Sprintf("[%d/%d] ✗ release %d: %v", step, total, res.Alert.DiscogsReleaseID, res.Error),
		}
	}

	marker := "✓"
	if res.Alert.Triggered() {
		marker = "★"
	}
	return ProgressUpdate{
		Phase:   CheckPrices,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s release %d", step, total, marker, res.Alert.DiscogsReleaseID),
		Data:    res.Alert,
	}
}

func analyzeUpdate(kind AnalysisType, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Analyze,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Requesting %s analysis of %d CDs...", kind, count),
	}
}

func exportUpdate(step, total int, file string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportLibrary,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Wrote %s", step, total, file),
	}
}
