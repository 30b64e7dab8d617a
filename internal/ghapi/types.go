package ghapi

// PullRequest is the subset of the pulls API this service reads.
type PullRequest struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	State  string `json:"state"`
	User   User   `json:"user"`
	Head   Ref    `json:"head"`
	Base   Ref    `json:"base"`
}

// Ref is one side of a pull request.
type Ref struct {
	Ref string `json:"ref"`
	SHA string `json:"sha"`
}

// User identifies a comment or PR author.
type User struct {
	Login string `json:"login"`
}

type commitRef struct {
	SHA string `json:"sha"`
}

// Comparison is the result of the compare API.
type Comparison struct {
	Status       string       `json:"status"`
	AheadBy      int          `json:"ahead_by"`
	TotalCommits int          `json:"total_commits"`
	Files        []FileChange `json:"files"`
}

// FileChange is one changed file in a comparison.
type FileChange struct {
	Filename  string `json:"filename"`
	Status    string `json:"status"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Patch     string `json:"patch"`
}

// IssueComment is a top-level PR conversation comment.
type IssueComment struct {
	ID   int64  `json:"id"`
	Body string `json:"body"`
	User User   `json:"user"`
}

// PullComment is an inline review comment on a diff.
type PullComment struct {
	ID        int64  `json:"id"`
	Body      string `json:"body"`
	Path      string `json:"path"`
	DiffHunk  string `json:"diff_hunk"`
	InReplyTo int64  `json:"in_reply_to_id"`
	User      User   `json:"user"`
	CreatedAt string `json:"created_at"`
}

// DraftComment is one inline comment inside a review submission.
type DraftComment struct {
	Path      string `json:"path"`
	Body      string `json:"body"`
	Line      int    `json:"line"`
	StartLine int    `json:"start_line,omitempty"`
	StartSide string `json:"start_side,omitempty"`
}

// Review is a submitted or pending PR review.
type Review struct {
	ID    int64  `json:"id"`
	State string `json:"state"`
	Body  string `json:"body"`
}
