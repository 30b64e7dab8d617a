package review

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Tejaswini-002/repo-agent/internal/ghapi"
	"github.com/Tejaswini-002/repo-agent/internal/markers"
	"github.com/Tejaswini-002/repo-agent/internal/prompts"
)

func newTestService(gh *fakeGitHub, model *fakeLLM, cfg Config) *Service {
	if cfg.IgnoreKeyword == "" {
		cfg.IgnoreKeyword = "@repo-agent: ignore"
	}
	return NewService(gh, model, model, prompts.NewSet(nil), cfg)
}

func testPR() *ghapi.PullRequest {
	return &ghapi.PullRequest{
		Number: 42,
		Title:  "Add retries",
		Body:   "Retry transient failures",
		State:  "open",
		Head:   ghapi.Ref{SHA: "headsha"},
		Base:   ghapi.Ref{SHA: "basesha"},
	}
}

func bigPatch(lines int) string {
	var sb strings.Builder
	sb.WriteString("@@ -1,1 +1," + itoa(lines) + " @@\n")
	for i := 0; i < lines; i++ {
		sb.WriteString("+line\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func itoa(i int) string {
	digits := "0123456789"
	if i < 10 {
		return string(digits[i])
	}
	return itoa(i/10) + string(digits[i%10])
}

func TestReviewSkipsOnIgnoreKeyword(t *testing.T) {
	pr := testPR()
	pr.Body = "WIP\n\n@repo-agent: ignore"
	gh := &fakeGitHub{pr: pr, token: true}
	model := defaultFakeLLM()

	result := newTestService(gh, model, Config{}).ReviewPullRequest(context.Background(), "octo/repo", 42)

	require.True(t, result.Skipped)
	require.Equal(t, "ignored by keyword", result.SkipReason)
	require.Zero(t, model.callCount())
	require.Empty(t, gh.compareCalls)
}

func TestReviewSkipsWhenFetchFails(t *testing.T) {
	gh := &fakeGitHub{prErr: context.DeadlineExceeded, token: true}
	model := defaultFakeLLM()

	result := newTestService(gh, model, Config{}).ReviewPullRequest(context.Background(), "octo/repo", 42)

	require.True(t, result.Skipped)
	require.Equal(t, "failed to fetch PR details", result.SkipReason)
	require.Zero(t, model.callCount())
}

func TestReviewSkipsWhenNoFilesChanged(t *testing.T) {
	gh := &fakeGitHub{pr: testPR(), comparison: &ghapi.Comparison{}, token: true}
	model := defaultFakeLLM()
	svc := newTestService(gh, model, Config{})

	result := svc.PostReview(context.Background(), "octo/repo", 42)

	require.True(t, result.Skipped)
	require.Equal(t, "no files to review", result.SkipReason)
	require.Zero(t, model.callCount())
	require.Empty(t, gh.issueComments, "skip must publish nothing")
	require.Empty(t, gh.submitted)
}

func TestCompareBaseFallsBackToPRBase(t *testing.T) {
	gh := &fakeGitHub{
		pr:         testPR(),
		comparison: &ghapi.Comparison{Files: []ghapi.FileChange{{Filename: "a.go", Additions: 30, Patch: bigPatch(30)}}},
		commits:    []string{"c0", "c1"},
		token:      true,
	}
	model := defaultFakeLLM()

	newTestService(gh, model, Config{}).ReviewPullRequest(context.Background(), "octo/repo", 42)

	require.Equal(t, [2]string{"basesha", "headsha"}, gh.compareCalls[0])
}

func TestCompareBaseUsesHighestReviewedCommit(t *testing.T) {
	ledger := markers.SummarizeTag + "\nold summary\n" + markers.CommitIDsBlock([]string{"c1", "c3"})
	gh := &fakeGitHub{
		pr:            testPR(),
		comparison:    &ghapi.Comparison{Files: []ghapi.FileChange{{Filename: "a.go", Additions: 30, Patch: bigPatch(30)}}},
		commits:       []string{"c0", "c1", "c2", "c3", "c4"},
		token:         true,
		issueComments: []ghapi.IssueComment{{ID: 1, Body: ledger}},
	}
	model := defaultFakeLLM()

	newTestService(gh, model, Config{}).ReviewPullRequest(context.Background(), "octo/repo", 42)

	// c3 is the last PR commit present in the ledger; chronology wins
	// over ledger append order.
	require.Equal(t, [2]string{"c3", "headsha"}, gh.compareCalls[0])
}

func TestSimpleChangeSuppressesLineReviewButSummarizes(t *testing.T) {
	gh := &fakeGitHub{
		pr: testPR(),
		comparison: &ghapi.Comparison{Files: []ghapi.FileChange{
			{Filename: "a.go", Additions: 10, Deletions: 5, Patch: bigPatch(10)},
		}},
		token: true,
	}
	model := defaultFakeLLM()
	model.lineReview = `[{"path": "a.go", "start_line": 1, "end_line": 1, "comment": "should not appear"}]`

	result := newTestService(gh, model, Config{SimpleChangeThreshold: 20}).
		ReviewPullRequest(context.Background(), "octo/repo", 42)

	require.False(t, result.Skipped)
	require.Empty(t, result.Comments, "15 changed lines under threshold 20 is a simple change")
	require.NotEmpty(t, result.Summary)
	require.Equal(t, []string{"Add retry support"}, result.ReleaseNotes)
	require.Equal(t, "headsha", result.ReviewedSHA)
}

func TestDocsOnlySuppressesLineReviewButPostsSummary(t *testing.T) {
	gh := &fakeGitHub{
		pr: testPR(),
		comparison: &ghapi.Comparison{Files: []ghapi.FileChange{
			{Filename: "README.md", Additions: 100, Patch: bigPatch(100)},
			{Filename: "docs/notes.txt", Additions: 50, Patch: bigPatch(50)},
		}},
		token: true,
	}
	model := defaultFakeLLM()
	svc := newTestService(gh, model, Config{})

	result := svc.PostReview(context.Background(), "octo/repo", 42)

	require.False(t, result.Skipped)
	require.Empty(t, result.Comments)
	require.Len(t, gh.issueComments, 1, "summary comment is still posted")
	require.Contains(t, gh.issueComments[0].Body, markers.SummarizeTag)
	require.Empty(t, gh.submitted, "no inline review for documentation-only changes")
}

func TestApprovedFilesSkipLineReview(t *testing.T) {
	gh := &fakeGitHub{
		pr: testPR(),
		comparison: &ghapi.Comparison{Files: []ghapi.FileChange{
			{Filename: "a.go", Additions: 40, Patch: bigPatch(40)},
		}},
		token: true,
	}
	model := defaultFakeLLM()
	model.fileSummary = `{"summary": "formatting only", "triage": "APPROVED"}`
	model.lineReview = `[{"path": "a.go", "end_line": 2, "comment": "x"}]`

	result := newTestService(gh, model, Config{}).ReviewPullRequest(context.Background(), "octo/repo", 42)

	require.Empty(t, result.Comments)
}

func TestLineReviewNormalizesItems(t *testing.T) {
	gh := &fakeGitHub{
		pr: testPR(),
		comparison: &ghapi.Comparison{Files: []ghapi.FileChange{
			{Filename: "a.go", Additions: 40, Patch: bigPatch(40)},
		}},
		token: true,
	}
	model := defaultFakeLLM()
	// One item uses "line" instead of end_line and omits path.
	model.lineReview = `[
		{"line": 7, "comment": "missing error check"},
		{"path": "a.go", "start_line": 3, "end_line": 5, "comment": "simplify"}
	]`

	result := newTestService(gh, model, Config{}).ReviewPullRequest(context.Background(), "octo/repo", 42)

	require.Len(t, result.Comments, 2)
	require.Equal(t, InlineComment{Path: "a.go", StartLine: 7, EndLine: 7, Body: "missing error check"}, result.Comments[0])
	require.Equal(t, InlineComment{Path: "a.go", StartLine: 3, EndLine: 5, Body: "simplify"}, result.Comments[1])
}

func TestMalformedFileSummaryFallsBackToRawText(t *testing.T) {
	gh := &fakeGitHub{
		pr: testPR(),
		comparison: &ghapi.Comparison{Files: []ghapi.FileChange{
			{Filename: "a.go", Additions: 40, Patch: bigPatch(40)},
		}},
		token: true,
	}
	model := defaultFakeLLM()
	model.fileSummary = "not json at all, but still a useful sentence"

	result := newTestService(gh, model, Config{}).ReviewPullRequest(context.Background(), "octo/repo", 42)

	require.Contains(t, result.RawSummary, "a.go: ")
	require.False(t, result.Skipped)
}

func TestMaxFilesTruncatesDeterministically(t *testing.T) {
	gh := &fakeGitHub{
		pr: testPR(),
		comparison: &ghapi.Comparison{Files: []ghapi.FileChange{
			{Filename: "one.go", Additions: 30, Patch: bigPatch(30)},
			{Filename: "two.go", Additions: 30, Patch: bigPatch(30)},
			{Filename: "three.go", Additions: 30, Patch: bigPatch(30)},
		}},
		token: true,
	}
	model := defaultFakeLLM()
	model.merged = "" // keep the per-file raw summary observable

	result := newTestService(gh, model, Config{MaxFiles: 2}).ReviewPullRequest(context.Background(), "octo/repo", 42)

	require.Contains(t, result.RawSummary, "one.go:")
	require.Contains(t, result.RawSummary, "two.go:")
	require.NotContains(t, result.RawSummary, "three.go:")
}
