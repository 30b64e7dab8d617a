package api

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/Tejaswini-002/repo-agent/internal/events"
	"github.com/Tejaswini-002/repo-agent/internal/ghapi"
	"github.com/Tejaswini-002/repo-agent/internal/push"
	"github.com/Tejaswini-002/repo-agent/internal/review"
)

// webhookPayload covers the fields used across the three handled events.
type webhookPayload struct {
	Action     string `json:"action"`
	Repository struct {
		FullName string `json:"full_name"`
	} `json:"repository"`
	PullRequest struct {
		Number       int        `json:"number"`
		Title        string     `json:"title"`
		ChangedFiles int        `json:"changed_files"`
		HTMLURL      string     `json:"html_url"`
		User         ghapi.User `json:"user"`
	} `json:"pull_request"`
	Comment struct {
		ID        int64      `json:"id"`
		Body      string     `json:"body"`
		Path      string     `json:"path"`
		DiffHunk  string     `json:"diff_hunk"`
		InReplyTo int64      `json:"in_reply_to_id"`
		User      ghapi.User `json:"user"`
	} `json:"comment"`
	Before  string `json:"before"`
	After   string `json:"after"`
	Commits []struct {
		ID      string `json:"id"`
		Message string `json:"message"`
	} `json:"commits"`
}

// reviewedActions are the pull_request actions that trigger a
// reconciliation cycle; the rest (closed, labeled, ...) only land in the
// event ring.
var reviewedActions = map[string]bool{
	"opened":           true,
	"synchronize":      true,
	"reopened":         true,
	"ready_for_review": true,
}

func (s *Server) handleWebhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "unreadable body"})
	}

	if s.opts.WebhookSecret != "" {
		signature := c.Request().Header.Get("X-Hub-Signature-256")
		if !verifySignature(s.opts.WebhookSecret, body, signature) {
			log.Warn().Msg("invalid webhook signature")
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid signature"})
		}
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid JSON payload"})
	}

	eventName := c.Request().Header.Get("X-GitHub-Event")
	if eventName == "" {
		eventName = "unknown"
	}
	s.recordEvent(eventName, payload)
	log.Info().Str("event", eventName).Str("action", payload.Action).
		Str("repo", payload.Repository.FullName).Msg("webhook received")

	switch eventName {
	case "pull_request":
		s.dispatchReview(payload)
	case "pull_request_review_comment":
		s.dispatchReply(payload)
	case "push":
		return s.handlePush(c, payload)
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) recordEvent(eventName string, payload webhookPayload) {
	event := events.Event{
		Name:   eventName,
		Action: payload.Action,
		Repo:   payload.Repository.FullName,
	}
	switch eventName {
	case "pull_request":
		event.Summary = map[string]interface{}{
			"pr_number":           payload.PullRequest.Number,
			"title":               payload.PullRequest.Title,
			"author":              payload.PullRequest.User.Login,
			"changed_files_count": payload.PullRequest.ChangedFiles,
			"url":                 payload.PullRequest.HTMLURL,
		}
	case "pull_request_review_comment":
		event.Summary = map[string]interface{}{
			"pr_number":    payload.PullRequest.Number,
			"comment_id":   payload.Comment.ID,
			"comment_body": payload.Comment.Body,
			"path":         payload.Comment.Path,
		}
	case "push":
		event.Summary = map[string]interface{}{
			"before":       payload.Before,
			"after":        payload.After,
			"commit_count": len(payload.Commits),
		}
	}
	s.ring.Add(event)
}

func (s *Server) dispatchReview(payload webhookPayload) {
	if !s.opts.AutoReview || !reviewedActions[payload.Action] {
		return
	}
	repo := payload.Repository.FullName
	number := payload.PullRequest.Number
	if repo == "" || number == 0 {
		return
	}
	s.pool.Submit("pr-review", func(ctx context.Context) {
		s.reviews.PostReview(ctx, repo, number)
	})
}

func (s *Server) dispatchReply(payload webhookPayload) {
	if !s.opts.ReplyEnabled {
		return
	}
	event := review.CommentEvent{
		Action:   payload.Action,
		Repo:     payload.Repository.FullName,
		PRNumber: payload.PullRequest.Number,
		PRTitle:  payload.PullRequest.Title,
		Comment: ghapi.PullComment{
			ID:        payload.Comment.ID,
			Body:      payload.Comment.Body,
			Path:      payload.Comment.Path,
			DiffHunk:  payload.Comment.DiffHunk,
			InReplyTo: payload.Comment.InReplyTo,
			User:      payload.Comment.User,
		},
	}
	s.pool.Submit("comment-reply", func(ctx context.Context) {
		s.reviews.HandleCommentEvent(ctx, event)
	})
}

func (s *Server) handlePush(c echo.Context, payload webhookPayload) error {
	repo := payload.Repository.FullName
	if repo == "" || payload.Before == "" || payload.After == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"status": "error", "message": "missing push metadata"})
	}

	commits := make([]push.Commit, len(payload.Commits))
	for i, commit := range payload.Commits {
		commits[i] = push.Commit{ID: commit.ID, Message: commit.Message}
	}

	if s.opts.PushSync {
		analysis, err := s.pushes.Analyze(c.Request().Context(), repo, payload.Before, payload.After, commits)
		if err != nil {
			log.Warn().Err(err).Str("repo", repo).Msg("push analysis failed")
			return c.JSON(http.StatusInternalServerError, map[string]string{"status": "error", "message": "push analysis failed"})
		}
		s.setLastAnalysis(analysis)
		return c.JSON(http.StatusOK, map[string]interface{}{"status": "ok", "analysis": analysis})
	}

	before, after := payload.Before, payload.After
	s.pool.Submit("push-analysis", func(ctx context.Context) {
		analysis, err := s.pushes.Analyze(ctx, repo, before, after, commits)
		if err != nil {
			log.Warn().Err(err).Str("repo", repo).Msg("push analysis failed")
			return
		}
		s.setLastAnalysis(analysis)
	})
	return c.JSON(http.StatusOK, map[string]string{"status": "ok", "message": "push analysis started"})
}

// verifySignature checks the X-Hub-Signature-256 header against the HMAC
// SHA-256 of the payload.
func verifySignature(secret string, payload []byte, header string) bool {
	if header == "" {
		return false
	}
	parts := strings.SplitN(header, "=", 2)
	if len(parts) != 2 || parts[0] != "sha256" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(parts[1]))
}
