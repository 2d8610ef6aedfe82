package ui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/cdx/internal/models"
	"github.com/desertthunder/cdx/internal/tasks"
)

func TestMoney(t *testing.T) {
	tests := []struct {
		name     string
		value    *float64
		currency string
		want     string
	}{
		{"with currency", floatPtr(12.5), "USD", "12.50 USD"},
		{"without currency", floatPtr(3), "", "3.00"},
		{"nil", nil, "EUR", "-"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MoneyPtr(tt.value, tt.currency); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestTables(t *testing.T) {
	t.Run("releases", func(t *testing.T) {
		out := ReleaseTable([]models.CollectionRelease{{
			ID: 7,
			BasicInformation: models.BasicInformation{
				Title:   "Mezzanine",
				Year:    1998,
				Formats: []models.Format{{Name: "CD"}},
				Artists: []models.Artist{{Name: "Massive Attack"}},
			},
		}})

		for _, want := range []string{"Artist", "Massive Attack", "Mezzanine", "1998", "CD"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected table to contain %q:\n%s", want, out)
			}
		}
	})

	t.Run("wishlist with alert", func(t *testing.T) {
		item := models.NewWishlistItem("u1", 42, "OK Computer", "Radiohead")
		item.SetID("w1")

		out := WishlistTable([]*models.WishlistItem{item}, map[string]*models.PriceAlert{
			"w1": {WishlistID: "w1", TargetPrice: 10, Currency: "USD"},
		})

		if !strings.Contains(out, "OK Computer") || !strings.Contains(out, "10.00 USD") {
			t.Errorf("unexpected table:\n%s", out)
		}
	})

	t.Run("alerts", func(t *testing.T) {
		checked := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		out := AlertTable([]*models.PriceAlert{
			{WishlistID: "w1", DiscogsReleaseID: 42, TargetPrice: 10, LastMinPrice: floatPtr(8), Currency: "USD", LastCheckedAt: &checked},
			{WishlistID: "w2", DiscogsReleaseID: 43, TargetPrice: 5, Currency: "USD"},
		})

		for _, want := range []string{"triggered", "8.00 USD", "2024-03-01 12:00", "never"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected table to contain %q:\n%s", want, out)
			}
		}
	})
}

func TestFollow(t *testing.T) {
	var buf bytes.Buffer
	progress := make(chan tasks.ProgressUpdate, 3)
	done := make(chan struct{})

	progress <- tasks.ProgressUpdate{Phase: tasks.FetchCollection, Step: 1, Total: 2, Message: "page one"}
	progress <- tasks.ProgressUpdate{Phase: tasks.FetchCollection, Step: 2, Total: 2, Message: "page two"}
	close(progress)

	Follow(&buf, progress, done)
	<-done

	want := "📥 page one\n   page two\n"
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}

func floatPtr(v float64) *float64 { return &v }
