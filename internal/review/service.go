// Package review implements the incremental PR review engine: the
// reconciler that decides what changed since the last reviewed commit, the
// two-tier prompt pipeline that turns diffs into summaries and inline
// comments, the publisher that writes results back to GitHub, and the
// handler for review-comment replies.
package review

import (
	"context"

	"github.com/Tejaswini-002/repo-agent/internal/ghapi"
	"github.com/Tejaswini-002/repo-agent/internal/llm"
	"github.com/Tejaswini-002/repo-agent/internal/prompts"
)

// GitHub is the API surface the engine needs. *ghapi.Client satisfies it.
type GitHub interface {
	PullRequest(ctx context.Context, repo string, number int) (*ghapi.PullRequest, error)
	Compare(ctx context.Context, repo, base, head string) (*ghapi.Comparison, error)
	ListCommitSHAs(ctx context.Context, repo string, number int) ([]string, error)
	FindIssueCommentWithTag(ctx context.Context, repo string, number int, tag string) (*ghapi.IssueComment, error)
	UpsertIssueCommentByTag(ctx context.Context, repo string, number int, body, tag string) error
	UpdatePullRequestBody(ctx context.Context, repo string, number int, body string) error
	ListReviewComments(ctx context.Context, repo string, number int) ([]ghapi.PullComment, error)
	DeleteReviewComment(ctx context.Context, repo string, commentID int64) error
	CreateReviewComment(ctx context.Context, repo string, number int, body, commitID, path string, line int) error
	ReplyToReviewComment(ctx context.Context, repo string, number int, body string, inReplyTo int64) error
	DeletePendingReview(ctx context.Context, repo string, number int)
	SubmitReview(ctx context.Context, repo string, number int, commitID, body string, comments []ghapi.DraftComment) error
	HasToken() bool
}

// Config tunes the review engine.
type Config struct {
	ReviewSimpleChanges   bool
	SimpleChangeThreshold int
	SkipExtensions        []string
	MaxFiles              int
	MaxComments           int
	IgnoreKeyword         string
	UpdateDescription     bool
	PostLGTMComments      bool
	BotName               string
	BotMention            string
}

// Service runs reconciliation cycles for pull requests.
type Service struct {
	gh      GitHub
	light   llm.Client
	heavy   llm.Client
	prompts *prompts.Set
	cfg     Config
}

// NewService wires the engine. light handles per-file triage, heavy the
// cross-file synthesis, line review, and replies.
func NewService(gh GitHub, light, heavy llm.Client, set *prompts.Set, cfg Config) *Service {
	if cfg.SimpleChangeThreshold <= 0 {
		cfg.SimpleChangeThreshold = 20
	}
	if cfg.MaxComments <= 0 {
		cfg.MaxComments = 20
	}
	if len(cfg.SkipExtensions) == 0 {
		cfg.SkipExtensions = []string{"md", "txt", "rst", "png", "jpg", "jpeg", "gif"}
	}
	if cfg.BotName == "" {
		cfg.BotName = "repo-agent"
	}
	if cfg.BotMention == "" {
		cfg.BotMention = "@" + cfg.BotName
	}
	return &Service{gh: gh, light: light, heavy: heavy, prompts: set, cfg: cfg}
}

// Result is the outcome of one reconciliation cycle.
type Result struct {
	Summary      string
	ReleaseNotes []string
	RawSummary   string
	ShortSummary string
	Comments     []InlineComment
	ReviewedSHA  string
	Skipped      bool
	SkipReason   string
}

// InlineComment is one pending line-level finding.
type InlineComment struct {
	Path      string
	StartLine int
	EndLine   int
	Body      string
}

// FileSummary is the light-tier verdict for one changed file.
type FileSummary struct {
	Path    string
	Summary string
	Triage  string
}

const (
	TriageNeedsReview = "NEEDS_REVIEW"
	TriageApproved    = "APPROVED"
)

func skipResult(sha, reason string) *Result {
	return &Result{ReviewedSHA: sha, Skipped: true, SkipReason: reason}
}
