package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/desertthunder/cdx/internal/models"
)

var (
	headerStyle = NewBold("#7D56F4").Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// Table renders rows under headers with a rounded border.
func Table(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(NewStyle("#626262")).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return t.Render()
}

// ReleaseTable lists collection releases.
func ReleaseTable(releases []models.CollectionRelease) string {
	rows := make([][]string, 0, len(releases))
	for _, r := range releases {
		info := r.BasicInformation
		rows = append(rows, []string{
			fmt.Sprint(r.ID),
			r.Artist(),
			info.Title,
			yearCell(info.Year),
			formatCell(info.Formats),
		})
	}
	return Table([]string{"ID", "Artist", "Title", "Year", "Format"}, rows)
}

// SearchTable lists database search hits.
func SearchTable(results []models.SearchResult) string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{
			fmt.Sprint(r.ID),
			r.Title,
			r.Year,
			r.Country,
			strings.Join(r.Label, ", "),
		})
	}
	return Table([]string{"ID", "Title", "Year", "Country", "Label"}, rows)
}

// WishlistTable lists wishlist items, with the alert target when one is set.
func WishlistTable(items []*models.WishlistItem, alerts map[string]*models.PriceAlert) string {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		year := ""
		if item.Year() != nil {
			year = yearCell(*item.Year())
		}
		rows = append(rows, []string{
			item.ID(),
			fmt.Sprint(item.ReleaseID()),
			item.Artist(),
			item.Title(),
			year,
			alertCell(alerts[item.ID()]),
		})
	}
	return Table([]string{"ID", "Release", "Artist", "Title", "Year", "Alert"}, rows)
}

// AlertTable lists price alerts, marking triggered ones.
func AlertTable(alerts []*models.PriceAlert) string {
	rows := make([][]string, 0, len(alerts))
	for _, a := range alerts {
		status := ""
		if a.Triggered() {
			status = styles.OK("triggered")
		}
		checked := "never"
		if a.LastCheckedAt != nil {
			checked = a.LastCheckedAt.Format("2006-01-02 15:04")
		}
		rows = append(rows, []string{
			a.WishlistID,
			fmt.Sprint(a.DiscogsReleaseID),
			Money(a.TargetPrice, a.Currency),
			MoneyPtr(a.LastMinPrice, a.Currency),
			checked,
			status,
		})
	}
	return Table([]string{"Wishlist", "Release", "Target", "Lowest", "Checked", ""}, rows)
}

// Money formats an amount with its currency code.
func Money(v float64, currency string) string {
	if currency == "" {
		return fmt.Sprintf("%.2f", v)
	}
	return fmt.Sprintf("%.2f %s", v, currency)
}

// MoneyPtr is [Money] that renders nil as a dash.
func MoneyPtr(v *float64, currency string) string {
	if v == nil {
		return "-"
	}
	return Money(*v, currency)
}

func alertCell(a *models.PriceAlert) string {
	if a == nil {
		return ""
	}
	return "≤ " + Money(a.TargetPrice, a.Currency)
}

func yearCell(y int) string {
	if y <= 0 {
		return ""
	}
	return fmt.Sprint(y)
}

func formatCell(formats []models.Format) string {
	names := make([]string, 0, len(formats))
	for _, f := range formats {
		names = append(names, f.Name)
	}
	return strings.Join(names, ", ")
}
