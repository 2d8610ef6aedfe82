// package formatter renders a library export (CD collection plus wishlist) as JSON, CSV, Markdown, or plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/cdx/internal/models"
	"github.com/desertthunder/cdx/internal/shared"
)

const dateLayout = "2006-01-02"

// CollectionToCSV converts releases to CSV with columns: Release ID, Artist, Title, Year, Formats, Labels, Catalog Numbers, Genres, Styles, Date Added
func CollectionToCSV(releases []models.CollectionRelease) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Release ID", "Artist", "Title", "Year", "Formats", "Labels", "Catalog Numbers", "Genres", "Styles", "Date Added"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, r := range releases {
		info := r.BasicInformation
		record := []string{
			strconv.Itoa(r.ID),
			r.Artist(),
			info.Title,
			yearString(info.Year),
			formatNames(info.Formats),
			labelField(info.Labels, func(l models.Label) string { return l.Name }),
			labelField(info.Labels, func(l models.Label) string { return l.Catno }),
			strings.Join(info.Genres, "; "),
			strings.Join(info.Styles, "; "),
			r.DateAdded,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// WishlistToCSV converts wishlist items to CSV with columns: ID, Release ID, Artist, Title, Year, Genres, Labels, Notes, Added
func WishlistToCSV(items []*models.WishlistItem) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Release ID", "Artist", "Title", "Year", "Genres", "Labels", "Notes", "Added"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, item := range items {
		record := []string{
			item.ID(),
			strconv.Itoa(item.ReleaseID()),
			item.Artist(),
			item.Title(),
			yearPtrString(item.Year()),
			strings.Join(item.Genres(), "; "),
			strings.Join(item.Labels(), "; "),
			item.Notes(),
			item.CreatedAt().Format(dateLayout),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders export as a Markdown document with optional cover image
func ExportToMarkdown(export *models.LibraryExport, imageFilename string) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", title(export)))

	if imageFilename != "" {
		buf.WriteString(fmt.Sprintf("![Cover](%s)\n\n", imageFilename))
	}

	buf.WriteString(fmt.Sprintf("**Exported**: %s\n", export.ExportedAt.Format(dateLayout)))
	buf.WriteString(fmt.Sprintf("**CDs**: %d\n", len(export.Releases)))
	buf.WriteString(fmt.Sprintf("**Wishlist**: %d\n", len(export.Wishlist)))
	if v := export.Value; v != nil {
		buf.WriteString(fmt.Sprintf("**Estimated value**: %s (min) / %s (median) / %s (max)\n", v.Minimum, v.Median, v.Maximum))
	}
	buf.WriteString("\n")

	buf.WriteString("## Collection\n\n")
	if len(export.Releases) == 0 {
		buf.WriteString("_No CDs._\n\n")
	} else {
		buf.WriteString("| # | Artist | Title | Year | Label |\n")
		buf.WriteString("|---|--------|-------|------|-------|\n")
		for i, r := range export.Releases {
			info := r.BasicInformation
			label := ""
			if len(info.Labels) > 0 {
				label = info.Labels[0].Name
			}
			buf.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s |\n",
				i+1, cell(r.Artist()), cell(info.Title), yearString(info.Year), cell(label)))
		}
		buf.WriteString("\n")
	}

	buf.WriteString("## Wishlist\n\n")
	if len(export.Wishlist) == 0 {
		buf.WriteString("_Nothing wanted._\n")
	} else {
		for i, item := range export.Wishlist {
			yearPart := ""
			if y := yearPtrString(item.Year()); y != "" {
				yearPart = fmt.Sprintf(" (%s)", y)
			}
			buf.WriteString(fmt.Sprintf("%d. %s - %s%s\n", i+1, item.Artist(), item.Title(), yearPart))
		}
	}

	return buf.Bytes(), nil
}

// ExportToText renders export as plain text
func ExportToText(export *models.LibraryExport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Collection: %s\n", title(export)))
	buf.WriteString(fmt.Sprintf("Exported: %s\n", export.ExportedAt.Format(dateLayout)))
	buf.WriteString(fmt.Sprintf("CDs: %d\n\n", len(export.Releases)))

	for i, r := range export.Releases {
		buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, r.Artist(), r.BasicInformation.Title))
	}

	buf.WriteString(fmt.Sprintf("\nWishlist: %d\n\n", len(export.Wishlist)))
	for i, item := range export.Wishlist {
		buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, item.Artist(), item.Title()))
	}

	return buf.Bytes(), nil
}

// DownloadImage downloads an image from the given URL and returns the raw bytes.
// Discogs image hosts reject requests without a User-Agent.
func DownloadImage(url, userAgent string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create image request: %w", err)
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

type exportMetadata struct {
	DiscogsUsername string                  `json:"discogs_username"`
	ExportedAt      time.Time               `json:"exported_at"`
	Releases        int                     `json:"releases"`
	WishlistItems   int                     `json:"wishlist_items"`
	Value           *models.CollectionValue `json:"value,omitempty"`
}

// ToMetadataJSON generates a JSON summary of export (without releases or wishlist items)
func ToMetadataJSON(export *models.LibraryExport) ([]byte, error) {
	return shared.MarshalJSON(exportMetadata{
		DiscogsUsername: export.DiscogsUsername,
		ExportedAt:      export.ExportedAt,
		Releases:        len(export.Releases),
		WishlistItems:   len(export.Wishlist),
		Value:           export.Value,
	}, true)
}

// WriteJSONExport writes the full export as indented JSON. Defaults to cdx_export.json.
func WriteJSONExport(export *models.LibraryExport, path string) (string, error) {
	if path == "" {
		path = "cdx_export.json"
	}

	data, err := shared.MarshalJSON(export, true)
	if err != nil {
		return "", fmt.Errorf("failed to marshal export: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write JSON file: %w", err)
	}
	return path, nil
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	CollectionFile string
	WishlistFile   string
	MetadataFile   string
}

// Files lists every path in r.
func (r *CSVExportResult) Files() []string {
	return []string{r.CollectionFile, r.WishlistFile, r.MetadataFile}
}

// WriteCSVExport exports the collection and wishlist to CSV with an accompanying metadata JSON file.
//
// Defaults to "cdx" as the base filename & creates {base}_collection.csv, {base}_wishlist.csv and {base}_metadata.json
func WriteCSVExport(export *models.LibraryExport, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = "cdx"
	}

	collectionData, err := CollectionToCSV(export.Releases)
	if err != nil {
		return nil, fmt.Errorf("failed to generate collection CSV: %w", err)
	}
	wishlistData, err := WishlistToCSV(export.Wishlist)
	if err != nil {
		return nil, fmt.Errorf("failed to generate wishlist CSV: %w", err)
	}
	metadataJSON, err := ToMetadataJSON(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	result := &CSVExportResult{
		CollectionFile: baseFilepath + "_collection.csv",
		WishlistFile:   baseFilepath + "_wishlist.csv",
		MetadataFile:   baseFilepath + "_metadata.json",
	}

	writes := []struct {
		path string
		data []byte
	}{
		{result.CollectionFile, collectionData},
		{result.WishlistFile, wishlistData},
		{result.MetadataFile, metadataJSON},
	}
	for _, w := range writes {
		if err := os.WriteFile(w.path, w.data, 0644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", w.path, err)
		}
	}

	return result, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory  string
	Files      []string
	CoverImage string
}

// WriteMarkdownExport exports the library to Markdown in a dedicated directory.
//
// Directory name defaults to "cdx_export".
// The imageURL parameter is optional - if provided, attempts to download it as the cover image.
// Creates a directory structure: {dir}/README.md and optionally {dir}/cover.jpg
func WriteMarkdownExport(export *models.LibraryExport, outputDir, imageURL, userAgent string) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = "cdx_export"
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{
		Directory: outputDir,
		Files:     []string{},
	}

	var coverImageFilename string
	if imageURL != "" {
		imageData, err := DownloadImage(imageURL, userAgent)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to download cover image: %v\n", err)
		} else {
			coverImageFilename = "cover.jpg"
			coverImagePath := filepath.Join(outputDir, coverImageFilename)
			if err := os.WriteFile(coverImagePath, imageData, 0644); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to save cover image: %v\n", err)
				coverImageFilename = ""
			} else {
				result.CoverImage = coverImagePath
				result.Files = append(result.Files, coverImagePath)
			}
		}
	}

	mdData, err := ExportToMarkdown(export, coverImageFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	result.Files = append(result.Files, mdFile)

	return result, nil
}

// WriteTextExport exports the library to plain text.
//
// Defaults to cdx_export.txt as the filename.
func WriteTextExport(export *models.LibraryExport, path string) (string, error) {
	if path == "" {
		path = "cdx_export.txt"
	}

	textData, err := ExportToText(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(path, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return path, nil
}

// WriteManifest writes manifest as indented JSON to path.
func WriteManifest(manifest *models.ExportManifest, path string) error {
	data, err := shared.MarshalJSON(manifest, true)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

func title(export *models.LibraryExport) string {
	if export.DiscogsUsername == "" {
		return "CD Collection"
	}
	return export.DiscogsUsername + "'s CD Collection"
}

func yearString(y int) string {
	if y <= 0 {
		return ""
	}
	return strconv.Itoa(y)
}

func yearPtrString(y *int) string {
	if y == nil {
		return ""
	}
	return yearString(*y)
}

func formatNames(formats []models.Format) string {
	names := make([]string, 0, len(formats))
	for _, f := range formats {
		names = append(names, f.Name)
	}
	return strings.Join(names, "; ")
}

func labelField(labels []models.Label, field func(models.Label) string) string {
	vals := make([]string, 0, len(labels))
	for _, l := range labels {
		if v := field(l); v != "" {
			vals = append(vals, v)
		}
	}
	return strings.Join(vals, "; ")
}

// cell escapes pipes so a value stays inside its Markdown table cell.
func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
