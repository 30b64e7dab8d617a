package review

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/Tejaswini-002/repo-agent/internal/ghapi"
	"github.com/Tejaswini-002/repo-agent/internal/markers"
)

// PostReview runs a reconciliation cycle and publishes the outcome:
// summary comment upsert, optional description release notes, and one
// atomic review submission carrying the inline comments. Skipped cycles
// and missing credentials publish nothing.
func (s *Service) PostReview(ctx context.Context, repo string, number int) *Result {
	result := s.ReviewPullRequest(ctx, repo, number)
	if result.Skipped {
		log.Info().Str("repo", repo).Int("pr", number).Str("reason", result.SkipReason).Msg("review skipped")
		return result
	}
	if !s.gh.HasToken() {
		log.Warn().Str("repo", repo).Int("pr", number).Msg("GitHub token missing; review generated but not posted")
		return result
	}

	s.publish(ctx, repo, number, result)
	return result
}

func (s *Service) publish(ctx context.Context, repo string, number int, result *Result) {
	commitID := result.ReviewedSHA
	if pr, err := s.gh.PullRequest(ctx, repo, number); err == nil {
		commitID = pr.Head.SHA
	} else {
		log.Warn().Err(err).Str("repo", repo).Int("pr", number).Msg("failed to refetch PR before publish")
	}

	ledger := s.recoverLedger(ctx, repo, number)
	ledger = markers.AppendCommitID(ledger, result.ReviewedSHA)

	body := buildSummaryComment(result, markers.CommitIDsBlock(ledger))
	if err := s.gh.UpsertIssueCommentByTag(ctx, repo, number, body, markers.SummarizeTag); err != nil {
		log.Warn().Err(err).Str("repo", repo).Int("pr", number).Msg("failed to upsert summary comment")
	}

	if s.cfg.UpdateDescription && len(result.ReleaseNotes) > 0 {
		s.updateDescription(ctx, repo, number, result.ReleaseNotes)
	}

	if commitID != "" && len(result.Comments) > 0 {
		s.submitComments(ctx, repo, number, commitID, result.Comments)
	}
}

// buildSummaryComment renders the single persistent artifact per PR: the
// visible summary and release notes followed by the hidden raw summary,
// short summary, and commit-id ledger regions.
func buildSummaryComment(result *Result, ledgerBlock string) string {
	notes := "- (none)"
	if len(result.ReleaseNotes) > 0 {
		bullets := make([]string, len(result.ReleaseNotes))
		for i, n := range result.ReleaseNotes {
			bullets[i] = "- " + n
		}
		notes = strings.Join(bullets, "\n")
	}

	return markers.SummarizeTag + "\n" +
		"### Summary\n\n" + result.Summary + "\n\n" +
		"### Release Notes\n" + notes + "\n\n" +
		markers.RawSummaryStartTag + "\n" + result.RawSummary + "\n" + markers.RawSummaryEndTag + "\n" +
		markers.ShortSummaryStartTag + "\n" + result.ShortSummary + "\n" + markers.ShortSummaryEndTag + "\n\n" +
		ledgerBlock + "\n"
}

// updateDescription replaces the tagged release-notes region in the PR
// description, preserving the human-written text around it. Best-effort.
func (s *Service) updateDescription(ctx context.Context, repo string, number int, notes []string) {
	pr, err := s.gh.PullRequest(ctx, repo, number)
	if err != nil {
		log.Warn().Err(err).Str("repo", repo).Int("pr", number).Msg("failed to fetch PR for description update")
		return
	}

	bullets := make([]string, len(notes))
	for i, n := range notes {
		bullets[i] = "- " + n
	}
	region := markers.ReleaseNotesRegion(strings.Join(bullets, "\n"))

	description := markers.StripReleaseNotes(pr.Body)
	updated := strings.TrimSpace(description + "\n\n" + region)
	if err := s.gh.UpdatePullRequestBody(ctx, repo, number, updated); err != nil {
		log.Warn().Err(err).Str("repo", repo).Int("pr", number).Msg("failed to update PR description")
	}
}

// submitComments replaces this service's previous inline comments with the
// new findings in one COMMENT review. Stale-comment deletion and pending
// review cleanup are best-effort; if the atomic submission fails, each
// comment is posted individually instead.
func (s *Service) submitComments(ctx context.Context, repo string, number int, commitID string, comments []InlineComment) {
	buffered := s.bufferComments(comments)
	if len(buffered) == 0 {
		return
	}

	existing, err := s.gh.ListReviewComments(ctx, repo, number)
	if err != nil {
		log.Warn().Err(err).Str("repo", repo).Int("pr", number).Msg("failed to list review comments")
	}
	for _, comment := range existing {
		if strings.Contains(comment.Body, markers.CommentTag) {
			if err := s.gh.DeleteReviewComment(ctx, repo, comment.ID); err != nil {
				log.Warn().Err(err).Int64("comment", comment.ID).Msg("failed to delete stale review comment")
			}
		}
	}

	s.gh.DeletePendingReview(ctx, repo, number)

	drafts := make([]ghapi.DraftComment, 0, len(buffered))
	for _, c := range buffered {
		draft := ghapi.DraftComment{Path: c.Path, Body: c.Body, Line: c.EndLine}
		if c.StartLine != c.EndLine {
			draft.StartLine = c.StartLine
			draft.StartSide = "RIGHT"
		}
		drafts = append(drafts, draft)
	}

	reviewBody := s.cfg.BotName + "\n\nReview completed"
	if err := s.gh.SubmitReview(ctx, repo, number, commitID, reviewBody, drafts); err != nil {
		log.Warn().Err(err).Str("repo", repo).Int("pr", number).Msg("atomic review submission failed, posting comments individually")
		for _, c := range buffered {
			if err := s.gh.CreateReviewComment(ctx, repo, number, c.Body, commitID, c.Path, c.EndLine); err != nil {
				log.Warn().Err(err).Str("path", c.Path).Int("line", c.EndLine).Msg("fallback comment posting failed")
			}
		}
	}
}

// bufferComments applies the publication filters: malformed positions and
// empty messages are dropped, LGTM-only praise is dropped unless enabled,
// and the total is capped at MaxComments. Each surviving comment gets the
// greeting and the identifying tag.
func (s *Service) bufferComments(comments []InlineComment) []InlineComment {
	var buffered []InlineComment
	for _, c := range comments {
		if len(buffered) >= s.cfg.MaxComments {
			break
		}
		if c.Path == "" || strings.TrimSpace(c.Body) == "" || c.EndLine <= 0 {
			continue
		}
		if !s.cfg.PostLGTMComments && strings.Contains(c.Body, "LGTM") {
			continue
		}
		start := c.StartLine
		if start <= 0 {
			start = c.EndLine
		}
		buffered = append(buffered, InlineComment{
			Path:      c.Path,
			StartLine: start,
			EndLine:   c.EndLine,
			Body:      s.cfg.BotName + "\n\n" + c.Body + "\n\n" + markers.CommentTag,
		})
	}
	return buffered
}
