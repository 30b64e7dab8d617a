// Package diff renders unified-diff patches into line-numbered text for
// review prompts. The numbering follows the post-change (new) side of the
// diff so that line references in model output can be mapped straight to
// review comment positions.
package diff

import (
	"regexp"
	"strconv"
	"strings"
)

// hunkHeaderRe extracts the starting new-side line number from a hunk
// header of the form "@@ -a,b +c,d @@" (counts are optional per RFC diff).
var hunkHeaderRe = regexp.MustCompile(`\+(\d+)`)

// Annotate converts a unified-diff patch into numbered-hunk text.
//
// Each hunk header resets the running counter to the header's new-side
// start line. Added lines render as "N:+text" and advance the counter,
// context lines render as "N: text" and advance the counter, and removed
// lines render as "-: text" without advancing it. Numbering is 1-based,
// taken from the hunk headers themselves.
//
// A patch without any hunk header (binary files, renames without content
// changes) produces an empty string: there is nothing line-addressable to
// review.
func Annotate(patch string) string {
	if patch == "" || !strings.Contains(patch, "@@") {
		return ""
	}

	var (
		out     []string
		newLine int
		inHunk  bool
	)

	for _, line := range strings.Split(patch, "\n") {
		switch {
		case strings.HasPrefix(line, "@@"):
			if m := hunkHeaderRe.FindStringSubmatch(line); m != nil {
				newLine, _ = strconv.Atoi(m[1])
				inHunk = true
			}
			out = append(out, line)
		case !inHunk:
			// Preamble before the first hunk header carries no
			// reviewable content.
		case strings.HasPrefix(line, "+"):
			out = append(out, strconv.Itoa(newLine)+":+"+line[1:])
			newLine++
		case strings.HasPrefix(line, "-"):
			out = append(out, "-: "+line[1:])
		default:
			out = append(out, strconv.Itoa(newLine)+": "+strings.TrimPrefix(line, " "))
			newLine++
		}
	}

	return strings.Join(out, "\n")
}
