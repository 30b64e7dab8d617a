// Package push analyzes push events: it compares the before/after commits
// and asks the heavy model for a structured summary of what landed.
package push

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/Tejaswini-002/repo-agent/internal/ghapi"
	"github.com/Tejaswini-002/repo-agent/internal/llm"
	"github.com/Tejaswini-002/repo-agent/internal/prompts"
)

const (
	maxPatchFiles = 15
	maxPatchBytes = 8000
)

// Comparer is the GitHub surface the analyzer needs.
type Comparer interface {
	Compare(ctx context.Context, repo, base, head string) (*ghapi.Comparison, error)
}

// Commit is one pushed commit as delivered in the webhook payload.
type Commit struct {
	ID      string
	Message string
}

// Stats counts the size of a push.
type Stats struct {
	Additions int `json:"additions"`
	Deletions int `json:"deletions"`
	Files     int `json:"files"`
}

// Analysis is the structured result for one push.
type Analysis struct {
	Summary      string   `json:"summary"`
	KeyChanges   []string `json:"key_changes"`
	ImpactLevel  string   `json:"impact_level"`
	FilesChanged []string `json:"files_changed"`
	Stats        Stats    `json:"stats"`
}

// Service runs push analyses.
type Service struct {
	gh      Comparer
	model   llm.Client
	prompts *prompts.Set
}

// NewService wires the analyzer.
func NewService(gh Comparer, model llm.Client, set *prompts.Set) *Service {
	return &Service{gh: gh, model: model, prompts: set}
}

// Analyze compares before...after and asks the model for a summary.
// Malformed model output degrades to the raw text as the summary; compare
// failures are the only hard error.
func (s *Service) Analyze(ctx context.Context, repo, before, after string, commits []Commit) (*Analysis, error) {
	cmp, err := s.gh.Compare(ctx, repo, before, after)
	if err != nil {
		return nil, err
	}

	prompt := s.prompts.Render(prompts.SlotPushAnalysis, map[string]string{
		"repo":            repo,
		"before":          before,
		"after":           after,
		"commit_messages": commitMessages(commits),
		"patches":         samplePatches(cmp.Files),
	})

	content, err := s.model.Generate(ctx, prompt)
	if err != nil {
		log.Warn().Err(err).Str("repo", repo).Msg("push analysis generation failed")
		content = ""
	}

	var analysis Analysis
	if err := llm.DecodeLenient(content, &analysis); err != nil {
		analysis = Analysis{
			Summary:     llm.Truncate(content, 500),
			ImpactLevel: "Medium",
		}
	}
	if analysis.ImpactLevel == "" {
		analysis.ImpactLevel = "Medium"
	}

	if len(analysis.FilesChanged) == 0 {
		for _, f := range cmp.Files {
			if f.Filename != "" {
				analysis.FilesChanged = append(analysis.FilesChanged, f.Filename)
			}
		}
	}
	if analysis.Stats == (Stats{}) {
		for _, f := range cmp.Files {
			analysis.Stats.Additions += f.Additions
			analysis.Stats.Deletions += f.Deletions
		}
		analysis.Stats.Files = len(cmp.Files)
	}

	return &analysis, nil
}

// samplePatches renders up to maxPatchFiles patches, capped at
// maxPatchBytes, as prompt context.
func samplePatches(files []ghapi.FileChange) string {
	var patches []string
	for _, f := range files {
		if len(patches) >= maxPatchFiles {
			break
		}
		if f.Filename == "" || f.Patch == "" {
			continue
		}
		patches = append(patches, "--- "+f.Filename+"\n"+f.Patch)
	}
	text := strings.Join(patches, "\n\n")
	if text == "" {
		return "(no patches)"
	}
	return llm.Truncate(text, maxPatchBytes)
}

func commitMessages(commits []Commit) string {
	var lines []string
	for _, c := range commits {
		subject := c.Message
		if idx := strings.IndexByte(subject, '\n'); idx >= 0 {
			subject = subject[:idx]
		}
		lines = append(lines, "- "+llm.Truncate(c.ID, 7)+" "+subject)
	}
	if len(lines) == 0 {
		return "(none)"
	}
	return strings.Join(lines, "\n")
}
