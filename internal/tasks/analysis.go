package tasks

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"io"
	"text/template"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/cdx/internal/models"
	"github.com/desertthunder/cdx/internal/shared"
)

// maxAnalyzed caps how many releases are summarized into a prompt.
const maxAnalyzed = 100

//go:embed prompts/*.tmpl
var promptFS embed.FS

var prompts = template.Must(template.ParseFS(promptFS, "prompts/*.tmpl"))

// AnalysisType selects the prompt pair sent to the gateway.
type AnalysisType string

const (
	AnalysisOverview AnalysisType = "overview"
	AnalysisValue    AnalysisType = "value"
	AnalysisTaste    AnalysisType = "taste"
)

// ParseAnalysisType validates s, returning [shared.ErrInvalidAnalysis] for unknown kinds.
func ParseAnalysisType(s string) (AnalysisType, error) {
	switch t := AnalysisType(s); t {
	case AnalysisOverview, AnalysisValue, AnalysisTaste:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q (want overview, value, or taste)", shared.ErrInvalidAnalysis, s)
	}
}

// ReleaseSummary is the per-release projection included in prompts.
type ReleaseSummary struct {
	Title  string   `json:"title"`
	Artist string   `json:"artist"`
	Year   int      `json:"year"`
	Genres []string `json:"genres"`
	Styles []string `json:"styles"`
}

// Summarize projects the first 100 releases for a prompt.
func Summarize(releases []models.CollectionRelease) []ReleaseSummary {
	n := min(len(releases), maxAnalyzed)
	out := make([]ReleaseSummary, 0, n)
	for _, r := range releases[:n] {
		info := r.BasicInformation
		out = append(out, ReleaseSummary{
			Title:  info.Title,
			Artist: r.Artist(),
			Year:   info.Year,
			Genres: info.Genres,
			Styles: info.Styles,
		})
	}
	return out
}

type promptData struct {
	Count   int
	Summary string
}

// BuildPrompts renders the system and user prompt for kind.
func BuildPrompts(kind AnalysisType, releases []models.CollectionRelease) (system, user string, err error) {
	if _, err := ParseAnalysisType(string(kind)); err != nil {
		return "", "", err
	}

	summary, err := shared.MarshalJSON(Summarize(releases), true)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode collection summary: %w", err)
	}
	data := promptData{Count: len(releases), Summary: string(summary)}

	var sys, usr bytes.Buffer
	if err := prompts.ExecuteTemplate(&sys, string(kind)+".system", data); err != nil {
		return "", "", fmt.Errorf("failed to render prompt: %w", err)
	}
	if err := prompts.ExecuteTemplate(&usr, string(kind)+".user", data); err != nil {
		return "", "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return sys.String(), usr.String(), nil
}

// AnalysisEngine asks the gateway for a written analysis of a collection.
type AnalysisEngine struct {
	gateway Completer
	logger  *log.Logger
}

// NewAnalysisEngine creates an engine. A nil gateway makes every analysis fail with [shared.ErrMissingCredentials].
func NewAnalysisEngine(gateway Completer, logger *log.Logger) *AnalysisEngine {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &AnalysisEngine{gateway: gateway, logger: logger}
}

// Analyze returns the gateway's analysis of releases for kind.
//
// Gateway rate and quota errors pass through as [shared.ErrRateLimited] and [shared.ErrQuotaExhausted].
func (e *AnalysisEngine) Analyze(ctx context.Context, releases []models.CollectionRelease, kind AnalysisType, progress chan<- ProgressUpdate) (string, error) {
	system, user, err := BuildPrompts(kind, releases)
	if err != nil {
		return "", err
	}
	if e.gateway == nil {
		return "", fmt.Errorf("%w: AI gateway api key not configured", shared.ErrMissingCredentials)
	}

	e.logger.Info("analyzing collection", "items", len(releases), "type", kind)
	sendProgress(progress, analyzeUpdate(kind, len(releases)))

	return e.gateway.Complete(ctx, system, user)
}
