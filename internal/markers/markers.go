// Package markers implements the tag-delimited state regions embedded in
// GitHub comment and description bodies. The tags are invisible HTML
// comments; everything the service needs to resume an incremental review
// (raw file summaries, the short summary, the ledger of reviewed commit
// ids) is recovered by re-reading them from the PR, so no local storage is
// required.
package markers

import "strings"

// Tags identifying generated content. These are persisted-state layout:
// changing any of them orphans every comment posted by earlier versions.
const (
	CommentTag   = "<!-- auto-generated comment: pr review -->"
	ReplyTag     = "<!-- auto-generated reply: pr review -->"
	SummarizeTag = "<!-- auto-generated comment: pr summary -->"

	RawSummaryStartTag = "<!-- auto-generated: raw summary start -->\n<!--"
	RawSummaryEndTag   = "-->\n<!-- auto-generated: raw summary end -->"

	ShortSummaryStartTag = "<!-- auto-generated: short summary start -->\n<!--"
	ShortSummaryEndTag   = "-->\n<!-- auto-generated: short summary end -->"

	CommitIDsStartTag = "<!-- commit_ids_reviewed_start -->"
	CommitIDsEndTag   = "<!-- commit_ids_reviewed_end -->"

	DescriptionStartTag = "<!-- auto-generated release notes start -->"
	DescriptionEndTag   = "<!-- auto-generated release notes end -->"
)

// ContentWithin returns the text between startTag and endTag in content,
// trimmed. Missing tags yield the empty string, never an error: an absent
// region simply means there is no prior state.
func ContentWithin(content, startTag, endTag string) string {
	start := strings.Index(content, startTag)
	if start < 0 {
		return ""
	}
	start += len(startTag)
	end := strings.Index(content[start:], endTag)
	if end < 0 {
		return ""
	}
	return strings.TrimSpace(content[start : start+end])
}

// RemoveContentWithin deletes the tagged region, tags included. Content
// without the region is returned unchanged.
func RemoveContentWithin(content, startTag, endTag string) string {
	start := strings.Index(content, startTag)
	if start < 0 {
		return content
	}
	rest := content[start+len(startTag):]
	end := strings.Index(rest, endTag)
	if end < 0 {
		return content
	}
	return content[:start] + rest[end+len(endTag):]
}

// RawSummary extracts the hidden raw per-file summary region.
func RawSummary(comment string) string {
	return ContentWithin(comment, RawSummaryStartTag, RawSummaryEndTag)
}

// ShortSummary extracts the hidden short summary region.
func ShortSummary(comment string) string {
	return ContentWithin(comment, ShortSummaryStartTag, ShortSummaryEndTag)
}

// ReviewedCommitIDs parses the commit-id ledger region out of a summary
// comment body, one SHA per line.
func ReviewedCommitIDs(comment string) []string {
	block := ContentWithin(comment, CommitIDsStartTag, CommitIDsEndTag)
	if block == "" {
		return nil
	}
	var ids []string
	for _, line := range strings.Split(block, "\n") {
		if id := strings.TrimSpace(line); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// AppendCommitID adds id to the ledger, keeping append order. Adding an id
// already present is a no-op.
func AppendCommitID(ids []string, id string) []string {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

// CommitIDsBlock renders the tagged ledger region, one id per line.
func CommitIDsBlock(ids []string) string {
	if len(ids) == 0 {
		return CommitIDsStartTag + "\n" + CommitIDsEndTag
	}
	return CommitIDsStartTag + "\n" + strings.Join(ids, "\n") + "\n" + CommitIDsEndTag
}

// AddReviewedCommitID appends commitID to the ledger region of comment and
// returns the updated body. The append is idempotent: a SHA already present
// leaves the body unchanged. When comment carries no ledger yet, a fresh
// tagged region is appended.
func AddReviewedCommitID(comment, commitID string) string {
	existing := ReviewedCommitIDs(comment)
	for _, id := range existing {
		if id == commitID {
			return comment
		}
	}
	block := CommitIDsBlock(append(existing, commitID))

	if strings.Contains(comment, CommitIDsStartTag) {
		stripped := RemoveContentWithin(comment, CommitIDsStartTag, CommitIDsEndTag)
		return strings.TrimRight(stripped, "\n") + "\n" + block
	}
	if comment == "" {
		return block
	}
	return strings.TrimRight(comment, "\n") + "\n" + block
}

// HighestReviewedCommitID resolves the most recent commit that has already
// been reviewed: the last element of the PR's chronological commit list
// that appears in the reviewed set. Empty string means nothing reviewed
// yet (or the ledger references commits no longer on the PR, e.g. after a
// force-push).
func HighestReviewedCommitID(allCommits, reviewed []string) string {
	set := make(map[string]struct{}, len(reviewed))
	for _, id := range reviewed {
		set[id] = struct{}{}
	}
	for i := len(allCommits) - 1; i >= 0; i-- {
		if _, ok := set[allCommits[i]]; ok {
			return allCommits[i]
		}
	}
	return ""
}

// ReleaseNotesRegion renders the tagged release-notes block placed in the
// PR description.
func ReleaseNotesRegion(notes string) string {
	return DescriptionStartTag + "\n" + notes + "\n" + DescriptionEndTag
}

// StripReleaseNotes removes a previously inserted release-notes block from
// a PR description.
func StripReleaseNotes(description string) string {
	return strings.TrimRight(RemoveContentWithin(description, DescriptionStartTag, DescriptionEndTag), "\n")
}
