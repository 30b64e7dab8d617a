package review

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/Tejaswini-002/repo-agent/internal/diff"
	"github.com/Tejaswini-002/repo-agent/internal/ghapi"
	"github.com/Tejaswini-002/repo-agent/internal/llm"
	"github.com/Tejaswini-002/repo-agent/internal/markers"
	"github.com/Tejaswini-002/repo-agent/internal/prompts"
)

// ReviewPullRequest runs one reconciliation cycle without publishing.
// Fetch failures terminate in a skipped result; they are never returned as
// errors because the triggering event is considered handled either way.
func (s *Service) ReviewPullRequest(ctx context.Context, repo string, number int) *Result {
	pr, err := s.gh.PullRequest(ctx, repo, number)
	if err != nil {
		log.Warn().Err(err).Str("repo", repo).Int("pr", number).Msg("failed to fetch PR details")
		return skipResult("", "failed to fetch PR details")
	}

	if s.cfg.IgnoreKeyword != "" && strings.Contains(pr.Body, s.cfg.IgnoreKeyword) {
		return skipResult("", "ignored by keyword")
	}

	headSHA := pr.Head.SHA
	baseSHA := pr.Base.SHA

	reviewedIDs := s.recoverLedger(ctx, repo, number)
	allCommits := s.listCommits(ctx, repo, number)
	highestReviewed := markers.HighestReviewedCommitID(allCommits, reviewedIDs)

	compareBase := highestReviewed
	if compareBase == "" {
		compareBase = baseSHA
	}

	cmp, err := s.gh.Compare(ctx, repo, compareBase, headSHA)
	if err != nil {
		log.Warn().Err(err).Str("repo", repo).Int("pr", number).
			Str("base", compareBase).Str("head", headSHA).Msg("failed to compare commits")
		return skipResult(headSHA, "failed to compare commits")
	}
	if len(cmp.Files) == 0 {
		return skipResult(headSHA, "no files to review")
	}

	simple, docsOnly := s.classify(cmp.Files)

	summaries := s.summarizeFiles(ctx, pr, cmp.Files)
	rawSummary := joinRawSummary(summaries)
	summary, releaseNotes, shortSummary := s.synthesize(ctx, rawSummary)

	result := &Result{
		Summary:      summary,
		ReleaseNotes: releaseNotes,
		RawSummary:   rawSummary,
		ShortSummary: shortSummary,
		ReviewedSHA:  headSHA,
	}

	// Documentation-only changes get a summary but no line review at all;
	// simple changes and APPROVED files are line-reviewed only when the
	// service is configured to review simple changes.
	if docsOnly {
		return result
	}

	for _, file := range cmp.Files {
		if file.Filename == "" || file.Patch == "" {
			continue
		}
		if !s.cfg.ReviewSimpleChanges {
			if simple {
				continue
			}
			if triageFor(summaries, file.Filename) == TriageApproved {
				continue
			}
		}
		result.Comments = append(result.Comments, s.reviewFile(ctx, file.Filename, file.Patch, shortSummary)...)
	}

	return result
}

// classify reports the simple-change and documentation-only verdicts for a
// changeset. Simple means the total touched line count is at or below the
// threshold; documentation-only means every file extension is in the
// skip list.
func (s *Service) classify(files []ghapi.FileChange) (simple, docsOnly bool) {
	total := 0
	extensions := map[string]bool{}
	for _, f := range files {
		total += f.Additions + f.Deletions
		if f.Filename != "" {
			extensions[extensionOf(f.Filename)] = true
		}
	}

	simple = !s.cfg.ReviewSimpleChanges && total <= s.cfg.SimpleChangeThreshold

	if len(extensions) > 0 {
		docsOnly = true
		for ext := range extensions {
			if !s.isSkippedExtension(ext) {
				docsOnly = false
				break
			}
		}
	}
	return simple, docsOnly
}

func (s *Service) recoverLedger(ctx context.Context, repo string, number int) []string {
	existing, err := s.gh.FindIssueCommentWithTag(ctx, repo, number, markers.SummarizeTag)
	if err != nil {
		log.Warn().Err(err).Str("repo", repo).Int("pr", number).Msg("failed to look up summary comment")
		return nil
	}
	if existing == nil {
		return nil
	}
	return markers.ReviewedCommitIDs(existing.Body)
}

func (s *Service) listCommits(ctx context.Context, repo string, number int) []string {
	if !s.gh.HasToken() {
		return nil
	}
	commits, err := s.gh.ListCommitSHAs(ctx, repo, number)
	if err != nil {
		// Without the commit list the cycle falls back to reviewing
		// from the PR base, which is correct just not incremental.
		log.Warn().Err(err).Str("repo", repo).Int("pr", number).Msg("failed to list PR commits")
		return nil
	}
	return commits
}

// summarizeFiles runs the light-tier summary+triage prompt per eligible
// file, in comparison-API order, truncating at MaxFiles when configured.
func (s *Service) summarizeFiles(ctx context.Context, pr *ghapi.PullRequest, files []ghapi.FileChange) []FileSummary {
	var summaries []FileSummary
	for _, file := range files {
		if file.Filename == "" || file.Patch == "" {
			continue
		}
		if s.isSkippedExtension(extensionOf(file.Filename)) {
			continue
		}

		prompt := s.prompts.Render(prompts.SlotFileSummary, map[string]string{
			"title":       pr.Title,
			"description": llm.Truncate(pr.Body, 2000),
			"path":        file.Filename,
			"diff":        file.Patch,
		})
		content, err := s.light.Generate(ctx, prompt)
		if err != nil {
			log.Warn().Err(err).Str("path", file.Filename).Msg("file summary generation failed")
			summaries = append(summaries, FileSummary{Path: file.Filename, Triage: TriageNeedsReview})
			continue
		}

		var parsed struct {
			Summary string `json:"summary"`
			Triage  string `json:"triage"`
		}
		if err := llm.DecodeLenient(content, &parsed); err != nil {
			parsed.Summary = llm.Truncate(content, 300)
			parsed.Triage = TriageNeedsReview
		}
		if parsed.Triage == "" {
			parsed.Triage = TriageNeedsReview
		}
		summaries = append(summaries, FileSummary{Path: file.Filename, Summary: parsed.Summary, Triage: parsed.Triage})

		if s.cfg.MaxFiles > 0 && len(summaries) >= s.cfg.MaxFiles {
			break
		}
	}
	return summaries
}

// synthesize runs the heavy-tier pipeline: merge changesets, then branch
// into the PR summary, release notes, and the short summary used as
// line-review context. Each stage consumes the previous stage's text, so
// token usage stays bounded as the file count grows.
func (s *Service) synthesize(ctx context.Context, rawSummary string) (summary string, releaseNotes []string, shortSummary string) {
	merged, err := s.heavy.Generate(ctx, s.prompts.Render(prompts.SlotMergeChangesets, map[string]string{
		"raw_summary": rawSummary,
	}))
	if err != nil {
		log.Warn().Err(err).Msg("changeset merge generation failed")
	} else if strings.TrimSpace(merged) != "" {
		rawSummary = merged
	}

	summary, err = s.heavy.Generate(ctx, s.prompts.Render(prompts.SlotSummary, map[string]string{
		"raw_summary": rawSummary,
	}))
	if err != nil {
		log.Warn().Err(err).Msg("summary generation failed")
		summary = ""
	}

	notesRaw, err := s.heavy.Generate(ctx, s.prompts.Render(prompts.SlotReleaseNotes, map[string]string{
		"raw_summary": rawSummary,
	}))
	if err != nil {
		log.Warn().Err(err).Msg("release notes generation failed")
	} else {
		var parsed struct {
			ReleaseNotes []string `json:"release_notes"`
		}
		if err := llm.DecodeLenient(notesRaw, &parsed); err == nil {
			releaseNotes = parsed.ReleaseNotes
		}
	}

	shortSummary, err = s.heavy.Generate(ctx, s.prompts.Render(prompts.SlotShortSummary, map[string]string{
		"raw_summary": rawSummary,
	}))
	if err != nil {
		log.Warn().Err(err).Msg("short summary generation failed")
		shortSummary = ""
	}

	return strings.TrimSpace(summary), releaseNotes, strings.TrimSpace(shortSummary)
}

// reviewFile runs the heavy-tier line review over one file's numbered
// hunks and normalizes the model's findings.
func (s *Service) reviewFile(ctx context.Context, path, patch, shortSummary string) []InlineComment {
	numbered := diff.Annotate(patch)
	if strings.TrimSpace(numbered) == "" {
		return nil
	}

	prompt := s.prompts.Render(prompts.SlotFileReview, map[string]string{
		"system_message": s.prompts.Template(prompts.SlotSystemMessage),
		"path":           path,
		"short_summary":  shortSummary,
		"numbered_hunks": numbered,
	})
	content, err := s.heavy.Generate(ctx, prompt)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("line review generation failed")
		return nil
	}

	var items []struct {
		Path      string `json:"path"`
		Line      int    `json:"line"`
		StartLine int    `json:"start_line"`
		EndLine   int    `json:"end_line"`
		Comment   string `json:"comment"`
	}
	if err := llm.DecodeLenient(content, &items); err != nil {
		log.Debug().Str("path", path).Msg("line review output not parseable, dropping")
		return nil
	}

	var comments []InlineComment
	for _, item := range items {
		if item.Path == "" {
			item.Path = path
		}
		if item.EndLine == 0 && item.Line > 0 {
			item.EndLine = item.Line
		}
		if item.StartLine == 0 {
			item.StartLine = item.EndLine
		}
		comments = append(comments, InlineComment{
			Path:      item.Path,
			StartLine: item.StartLine,
			EndLine:   item.EndLine,
			Body:      item.Comment,
		})
	}
	return comments
}

func (s *Service) isSkippedExtension(ext string) bool {
	for _, skip := range s.cfg.SkipExtensions {
		if ext == strings.ToLower(skip) {
			return true
		}
	}
	return false
}

func extensionOf(filename string) string {
	idx := strings.LastIndexByte(filename, '.')
	if idx < 0 || idx == len(filename)-1 {
		return ""
	}
	return strings.ToLower(filename[idx+1:])
}

func triageFor(summaries []FileSummary, path string) string {
	for _, fs := range summaries {
		if fs.Path == path {
			return fs.Triage
		}
	}
	return TriageNeedsReview
}

func joinRawSummary(summaries []FileSummary) string {
	lines := make([]string, 0, len(summaries))
	for _, fs := range summaries {
		lines = append(lines, fs.Path+": "+fs.Summary)
	}
	return strings.Join(lines, "\n")
}
