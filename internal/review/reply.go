package review

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/Tejaswini-002/repo-agent/internal/ghapi"
	"github.com/Tejaswini-002/repo-agent/internal/llm"
	"github.com/Tejaswini-002/repo-agent/internal/markers"
	"github.com/Tejaswini-002/repo-agent/internal/prompts"
)

// CommentEvent is a pull_request_review_comment webhook reduced to the
// fields the reply handler needs.
type CommentEvent struct {
	Action   string
	Repo     string
	PRNumber int
	PRTitle  string
	Comment  ghapi.PullComment
}

// HandleCommentEvent replies to a review comment that mentions the bot.
// Only newly created comments are considered; the service's own tagged
// comments are skipped so it never answers itself, and without the mention
// string in the comment or its reply chain the event is silently ignored.
func (s *Service) HandleCommentEvent(ctx context.Context, event CommentEvent) {
	if event.Action != "created" {
		return
	}
	body := event.Comment.Body
	if strings.Contains(body, markers.CommentTag) || strings.Contains(body, markers.ReplyTag) {
		return
	}
	if event.Repo == "" || event.PRNumber == 0 {
		return
	}

	chainText, topLevel := s.commentChain(ctx, event.Repo, event.PRNumber, event.Comment)
	if !strings.Contains(body, s.cfg.BotMention) && !strings.Contains(chainText, s.cfg.BotMention) {
		return
	}

	prompt := s.prompts.Render(prompts.SlotCommentReply, map[string]string{
		"title":         event.PRTitle,
		"path":          event.Comment.Path,
		"diff_hunk":     event.Comment.DiffHunk,
		"comment_chain": chainText,
	})
	content, err := s.heavy.Generate(ctx, prompt)
	if err != nil {
		log.Warn().Err(err).Str("repo", event.Repo).Int("pr", event.PRNumber).Msg("reply generation failed")
		return
	}

	if !s.gh.HasToken() || topLevel.ID == 0 {
		return
	}

	author := event.Comment.User.Login
	if author == "" {
		author = "user"
	}
	reply := "@" + author + " " + llm.Truncate(strings.TrimSpace(content), 2000) + "\n\n" + markers.ReplyTag
	if err := s.gh.ReplyToReviewComment(ctx, event.Repo, event.PRNumber, reply, topLevel.ID); err != nil {
		log.Warn().Err(err).Str("repo", event.Repo).Int("pr", event.PRNumber).Msg("failed to post reply")
	}
}

// commentChain rebuilds the reply thread by walking in_reply_to links back
// to the top-level comment, then renders it oldest-first as
// "login: body" lines.
func (s *Service) commentChain(ctx context.Context, repo string, number int, comment ghapi.PullComment) (string, ghapi.PullComment) {
	all, err := s.gh.ListReviewComments(ctx, repo, number)
	if err != nil {
		log.Warn().Err(err).Str("repo", repo).Int("pr", number).Msg("failed to list review comments for chain")
		return renderChain([]ghapi.PullComment{comment}), comment
	}

	byID := make(map[int64]ghapi.PullComment, len(all))
	for _, c := range all {
		byID[c.ID] = c
	}

	var chain []ghapi.PullComment
	current := comment
	topLevel := comment
	for {
		chain = append(chain, current)
		if current.InReplyTo == 0 {
			topLevel = current
			break
		}
		parent, ok := byID[current.InReplyTo]
		if !ok {
			break
		}
		current = parent
	}

	// Reverse into chronological order.
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return renderChain(chain), topLevel
}

func renderChain(chain []ghapi.PullComment) string {
	lines := make([]string, 0, len(chain))
	for _, c := range chain {
		login := c.User.Login
		if login == "" {
			login = "user"
		}
		lines = append(lines, login+": "+c.Body)
	}
	return strings.Join(lines, "\n")
}
