// Package prompts holds the enumerated prompt slots used by the review
// pipeline. Each slot ships a compiled-in default and can be overridden
// per-deployment through configuration; there is no free-form template
// registry, so the pipeline's prompt surface is fixed and auditable.
package prompts

import "strings"

// Slot identifies one prompt template.
type Slot string

const (
	SlotSystemMessage   Slot = "system_message"
	SlotFileSummary     Slot = "file_summary"
	SlotMergeChangesets Slot = "merge_changesets"
	SlotSummary         Slot = "summary"
	SlotReleaseNotes    Slot = "release_notes"
	SlotShortSummary    Slot = "short_summary"
	SlotFileReview      Slot = "file_review"
	SlotCommentReply    Slot = "comment_reply"
	SlotPushAnalysis    Slot = "push_analysis"
)

const defaultSystemMessage = "You are a senior code reviewer. Be concise and actionable."

const defaultFileSummary = `Summarize this file diff in <= 100 words.
Return JSON with keys: summary (string), triage (NEEDS_REVIEW or APPROVED).

PR Title: {title}
PR Description: {description}
File: {path}
Diff:
{diff}`

const defaultMergeChangesets = `You are given file-level summaries. Merge related changesets and de-duplicate.
Return the updated changesets using the same format.

Changesets:
{raw_summary}`

const defaultSummary = `Provide a clear summary of the PR in 2-4 sentences.
Use the provided changesets.

Changesets:
{raw_summary}`

const defaultReleaseNotes = `Create concise release notes as bullet points based on the changesets.
Return JSON with key: release_notes (array of strings).

Changesets:
{raw_summary}`

const defaultShortSummary = `Provide a short summary (2-4 sentences) for reviewers to use as context.

Changesets:
{raw_summary}`

const defaultFileReview = `Review the new hunks for substantive issues only. Use the short summary for context.
Return a JSON array of comments. Each comment must include: path, start_line, end_line, comment.
If no issues, return an empty array [].

System: {system_message}
File: {path}
Short summary:
{short_summary}
Numbered hunks:
{numbered_hunks}`

const defaultCommentReply = `You are replying to a PR review comment with requested guidance.
Be concise and specific. Reply in 2-6 sentences.

PR Title: {title}
File: {path}
Diff Hunk:
{diff_hunk}
Comment Chain:
{comment_chain}`

const defaultPushAnalysis = `You are analyzing a GitHub push event. Summarize what changed and provide an analysis.
Return JSON with keys:
- summary (string)
- key_changes (array of strings)
- impact_level (Low/Medium/High)
- files_changed (array of strings)
- stats (object with additions, deletions, files)

Repository: {repo}
Before: {before}
After: {after}
Commit Messages:
{commit_messages}

Changed Files (sample patches):
{patches}`

var defaults = map[Slot]string{
	SlotSystemMessage:   defaultSystemMessage,
	SlotFileSummary:     defaultFileSummary,
	SlotMergeChangesets: defaultMergeChangesets,
	SlotSummary:         defaultSummary,
	SlotReleaseNotes:    defaultReleaseNotes,
	SlotShortSummary:    defaultShortSummary,
	SlotFileReview:      defaultFileReview,
	SlotCommentReply:    defaultCommentReply,
	SlotPushAnalysis:    defaultPushAnalysis,
}

// Set resolves slots to templates, applying deployment overrides.
type Set struct {
	overrides map[string]string
}

// NewSet builds a Set from config overrides keyed by slot name. Unknown
// keys are ignored; unset slots resolve to the defaults above.
func NewSet(overrides map[string]string) *Set {
	return &Set{overrides: overrides}
}

// Template returns the raw template for a slot.
func (s *Set) Template(slot Slot) string {
	if s != nil && s.overrides != nil {
		if tpl, ok := s.overrides[string(slot)]; ok && strings.TrimSpace(tpl) != "" {
			return tpl
		}
	}
	return defaults[slot]
}

// Render substitutes {name} placeholders in the slot's template. Unmatched
// placeholders are left in place so a malformed override fails loudly in
// the model output rather than silently dropping context.
func (s *Set) Render(slot Slot, vars map[string]string) string {
	tpl := s.Template(slot)
	if len(vars) == 0 {
		return tpl
	}
	pairs := make([]string, 0, len(vars)*2)
	for name, value := range vars {
		pairs = append(pairs, "{"+name+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(tpl)
}
