package ghapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

// ListIssueComments returns the PR's conversation comments, paged.
func (c *Client) ListIssueComments(ctx context.Context, repo string, number int) ([]IssueComment, error) {
	var all []IssueComment
	for page := 1; ; page++ {
		var comments []IssueComment
		path := fmt.Sprintf("/repos/%s/issues/%d/comments?per_page=100&page=%d", repo, number, page)
		if err := c.do(ctx, http.MethodGet, path, nil, &comments); err != nil {
			return nil, err
		}
		if len(comments) == 0 {
			break
		}
		all = append(all, comments...)
		if len(comments) < 100 {
			break
		}
	}
	return all, nil
}

// CreateIssueComment posts a new conversation comment.
func (c *Client) CreateIssueComment(ctx context.Context, repo string, number int, body string) error {
	path := fmt.Sprintf("/repos/%s/issues/%d/comments", repo, number)
	return c.do(ctx, http.MethodPost, path, map[string]string{"body": body}, nil)
}

// UpdateIssueComment rewrites an existing conversation comment.
func (c *Client) UpdateIssueComment(ctx context.Context, repo string, commentID int64, body string) error {
	path := fmt.Sprintf("/repos/%s/issues/comments/%d", repo, commentID)
	return c.do(ctx, http.MethodPatch, path, map[string]string{"body": body}, nil)
}

// FindIssueCommentWithTag returns the first conversation comment whose
// body contains tag, or nil when none exists.
func (c *Client) FindIssueCommentWithTag(ctx context.Context, repo string, number int, tag string) (*IssueComment, error) {
	comments, err := c.ListIssueComments(ctx, repo, number)
	if err != nil {
		return nil, err
	}
	for i := range comments {
		if strings.Contains(comments[i].Body, tag) {
			return &comments[i], nil
		}
	}
	return nil, nil
}

// UpsertIssueCommentByTag updates the first comment carrying tag, creating
// a new comment when none exists yet.
func (c *Client) UpsertIssueCommentByTag(ctx context.Context, repo string, number int, body, tag string) error {
	existing, err := c.FindIssueCommentWithTag(ctx, repo, number, tag)
	if err != nil {
		return err
	}
	if existing != nil {
		return c.UpdateIssueComment(ctx, repo, existing.ID, body)
	}
	return c.CreateIssueComment(ctx, repo, number, body)
}

// ListReviewComments returns the PR's inline review comments, paged.
func (c *Client) ListReviewComments(ctx context.Context, repo string, number int) ([]PullComment, error) {
	var all []PullComment
	for page := 1; ; page++ {
		var comments []PullComment
		path := fmt.Sprintf("/repos/%s/pulls/%d/comments?per_page=100&page=%d", repo, number, page)
		if err := c.do(ctx, http.MethodGet, path, nil, &comments); err != nil {
			return nil, err
		}
		if len(comments) == 0 {
			break
		}
		all = append(all, comments...)
		if len(comments) < 100 {
			break
		}
	}
	return all, nil
}

// DeleteReviewComment removes one inline comment.
func (c *Client) DeleteReviewComment(ctx context.Context, repo string, commentID int64) error {
	path := fmt.Sprintf("/repos/%s/pulls/comments/%d", repo, commentID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// CreateReviewComment posts one standalone inline comment on the new side
// of the diff. Used as the fallback path when atomic review submission
// fails.
func (c *Client) CreateReviewComment(ctx context.Context, repo string, number int, body, commitID, path string, line int) error {
	apiPath := fmt.Sprintf("/repos/%s/pulls/%d/comments", repo, number)
	payload := map[string]interface{}{
		"body":      body,
		"commit_id": commitID,
		"path":      path,
		"line":      line,
		"side":      "RIGHT",
	}
	return c.do(ctx, http.MethodPost, apiPath, payload, nil)
}

// ReplyToReviewComment posts a threaded reply to an inline comment.
func (c *Client) ReplyToReviewComment(ctx context.Context, repo string, number int, body string, inReplyTo int64) error {
	path := fmt.Sprintf("/repos/%s/pulls/%d/comments", repo, number)
	payload := map[string]interface{}{
		"body":        body,
		"in_reply_to": inReplyTo,
	}
	return c.do(ctx, http.MethodPost, path, payload, nil)
}

// ListReviews returns the PR's reviews.
func (c *Client) ListReviews(ctx context.Context, repo string, number int) ([]Review, error) {
	var reviews []Review
	path := fmt.Sprintf("/repos/%s/pulls/%d/reviews", repo, number)
	if err := c.do(ctx, http.MethodGet, path, nil, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

// DeletePendingReview removes a leftover PENDING review if one exists.
// Best-effort: a failure is logged, not returned, since a stale pending
// review only blocks the next submission.
func (c *Client) DeletePendingReview(ctx context.Context, repo string, number int) {
	reviews, err := c.ListReviews(ctx, repo, number)
	if err != nil {
		log.Warn().Err(err).Str("repo", repo).Int("pr", number).Msg("failed to list reviews")
		return
	}
	for _, review := range reviews {
		if review.State == "PENDING" {
			path := fmt.Sprintf("/repos/%s/pulls/%d/reviews/%d", repo, number, review.ID)
			if err := c.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
				log.Warn().Err(err).Str("repo", repo).Int("pr", number).Msg("failed to delete pending review")
			}
			return
		}
	}
}

// SubmitReview posts one COMMENT review carrying all inline comments
// atomically.
func (c *Client) SubmitReview(ctx context.Context, repo string, number int, commitID, body string, comments []DraftComment) error {
	path := fmt.Sprintf("/repos/%s/pulls/%d/reviews", repo, number)
	payload := map[string]interface{}{
		"event":     "COMMENT",
		"body":      body,
		"commit_id": commitID,
		"comments":  comments,
	}
	return c.do(ctx, http.MethodPost, path, payload, nil)
}
