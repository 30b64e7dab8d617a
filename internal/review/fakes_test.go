package review

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/Tejaswini-002/repo-agent/internal/ghapi"
)

// fakeGitHub is an in-memory GitHub. Issue comments behave like the real
// API: upserts locate by tag and update in place.
type fakeGitHub struct {
	mu sync.Mutex

	pr         *ghapi.PullRequest
	prErr      error
	comparison *ghapi.Comparison
	compareErr error
	commits    []string
	token      bool

	issueComments  []ghapi.IssueComment
	reviewComments []ghapi.PullComment

	compareCalls     [][2]string
	updatedPRBody    string
	descriptionCalls int
	submitted        []submission
	submitErr        error
	fallbackPosts    []fallbackPost
	deletedComments  []int64
	pendingDeletes   int
	replies          []reply
	nextCommentID    int64
}

type submission struct {
	commitID string
	body     string
	comments []ghapi.DraftComment
}

type fallbackPost struct {
	body string
	path string
	line int
}

type reply struct {
	body      string
	inReplyTo int64
}

func (f *fakeGitHub) PullRequest(ctx context.Context, repo string, number int) (*ghapi.PullRequest, error) {
	if f.prErr != nil {
		return nil, f.prErr
	}
	if f.pr == nil {
		return nil, errors.New("no such pull request")
	}
	return f.pr, nil
}

func (f *fakeGitHub) Compare(ctx context.Context, repo, base, head string) (*ghapi.Comparison, error) {
	f.mu.Lock()
	f.compareCalls = append(f.compareCalls, [2]string{base, head})
	f.mu.Unlock()
	if f.compareErr != nil {
		return nil, f.compareErr
	}
	if f.comparison == nil {
		return &ghapi.Comparison{}, nil
	}
	return f.comparison, nil
}

func (f *fakeGitHub) ListCommitSHAs(ctx context.Context, repo string, number int) ([]string, error) {
	return f.commits, nil
}

func (f *fakeGitHub) FindIssueCommentWithTag(ctx context.Context, repo string, number int, tag string) (*ghapi.IssueComment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.issueComments {
		if strings.Contains(f.issueComments[i].Body, tag) {
			c := f.issueComments[i]
			return &c, nil
		}
	}
	return nil, nil
}

func (f *fakeGitHub) UpsertIssueCommentByTag(ctx context.Context, repo string, number int, body, tag string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.issueComments {
		if strings.Contains(f.issueComments[i].Body, tag) {
			f.issueComments[i].Body = body
			return nil
		}
	}
	f.nextCommentID++
	f.issueComments = append(f.issueComments, ghapi.IssueComment{ID: f.nextCommentID, Body: body})
	return nil
}

func (f *fakeGitHub) UpdatePullRequestBody(ctx context.Context, repo string, number int, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updatedPRBody = body
	f.descriptionCalls++
	return nil
}

func (f *fakeGitHub) ListReviewComments(ctx context.Context, repo string, number int) ([]ghapi.PullComment, error) {
	return f.reviewComments, nil
}

func (f *fakeGitHub) DeleteReviewComment(ctx context.Context, repo string, commentID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedComments = append(f.deletedComments, commentID)
	return nil
}

func (f *fakeGitHub) CreateReviewComment(ctx context.Context, repo string, number int, body, commitID, path string, line int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fallbackPosts = append(f.fallbackPosts, fallbackPost{body: body, path: path, line: line})
	return nil
}

func (f *fakeGitHub) ReplyToReviewComment(ctx context.Context, repo string, number int, body string, inReplyTo int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, reply{body: body, inReplyTo: inReplyTo})
	return nil
}

func (f *fakeGitHub) DeletePendingReview(ctx context.Context, repo string, number int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pendingDeletes++
}

func (f *fakeGitHub) SubmitReview(ctx context.Context, repo string, number int, commitID, body string, comments []ghapi.DraftComment) error {
	if f.submitErr != nil {
		return f.submitErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, submission{commitID: commitID, body: body, comments: comments})
	return nil
}

func (f *fakeGitHub) HasToken() bool { return f.token }

// fakeLLM routes prompts to canned responses by recognizable fragments of
// the default templates.
type fakeLLM struct {
	mu            sync.Mutex
	calls         []string
	fileSummary   string
	merged        string
	summary       string
	releaseNotes  string
	shortSummary  string
	lineReview    string
	replyResponse string
	err           error
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, prompt)
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	switch {
	case strings.Contains(prompt, "Summarize this file diff"):
		return f.fileSummary, nil
	case strings.Contains(prompt, "Merge related changesets"):
		return f.merged, nil
	case strings.Contains(prompt, "Provide a clear summary"):
		return f.summary, nil
	case strings.Contains(prompt, "release notes"):
		return f.releaseNotes, nil
	case strings.Contains(prompt, "Provide a short summary"):
		return f.shortSummary, nil
	case strings.Contains(prompt, "Review the new hunks"):
		return f.lineReview, nil
	case strings.Contains(prompt, "replying to a PR review comment"):
		return f.replyResponse, nil
	default:
		return "", nil
	}
}

func (f *fakeLLM) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func defaultFakeLLM() *fakeLLM {
	return &fakeLLM{
		fileSummary:   `{"summary": "adds retry support", "triage": "NEEDS_REVIEW"}`,
		merged:        "client.go: adds retry support",
		summary:       "This PR adds retry support to the client.",
		releaseNotes:  `{"release_notes": ["Add retry support"]}`,
		shortSummary:  "Adds retries to the HTTP client.",
		lineReview:    `[]`,
		replyResponse: "The retry count is configurable.",
	}
}
