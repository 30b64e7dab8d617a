package markers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContentWithinMissingTagsIsEmpty(t *testing.T) {
	require.Empty(t, ContentWithin("no tags here", CommitIDsStartTag, CommitIDsEndTag))
	require.Empty(t, ContentWithin(CommitIDsStartTag+"\nabc", CommitIDsStartTag, CommitIDsEndTag))
	require.Empty(t, ContentWithin("", RawSummaryStartTag, RawSummaryEndTag))
}

func TestRawAndShortSummaryRoundTrip(t *testing.T) {
	body := "visible text\n" +
		RawSummaryStartTag + "\nmain.go: adds retry loop\n" + RawSummaryEndTag + "\n" +
		ShortSummaryStartTag + "\nAdds retries.\n" + ShortSummaryEndTag

	require.Equal(t, "main.go: adds retry loop", RawSummary(body))
	require.Equal(t, "Adds retries.", ShortSummary(body))
}

func TestAddReviewedCommitIDCreatesLedger(t *testing.T) {
	body := AddReviewedCommitID("summary text", "c1")
	require.Equal(t, []string{"c1"}, ReviewedCommitIDs(body))
	require.True(t, strings.HasPrefix(body, "summary text\n"))
}

func TestAddReviewedCommitIDAppendsInOrder(t *testing.T) {
	body := AddReviewedCommitID("", "c1")
	body = AddReviewedCommitID(body, "c2")
	body = AddReviewedCommitID(body, "c3")
	require.Equal(t, []string{"c1", "c2", "c3"}, ReviewedCommitIDs(body))
}

func TestAddReviewedCommitIDIsIdempotent(t *testing.T) {
	body := AddReviewedCommitID("", "c1")
	again := AddReviewedCommitID(body, "c1")
	require.Equal(t, body, again)
	require.Equal(t, []string{"c1"}, ReviewedCommitIDs(again))
}

func TestHighestReviewedCommitID(t *testing.T) {
	all := []string{"c1", "c2", "c3", "c4"}

	require.Equal(t, "c3", HighestReviewedCommitID(all, []string{"c1", "c3"}))
	require.Equal(t, "c4", HighestReviewedCommitID(all, []string{"c4", "c1"}))
	require.Empty(t, HighestReviewedCommitID(all, nil))
	// Ledger entries absent from the PR (force-push) do not count.
	require.Empty(t, HighestReviewedCommitID(all, []string{"gone"}))
}

func TestReleaseNotesRegionRoundTrip(t *testing.T) {
	desc := "original description"
	withNotes := desc + "\n\n" + ReleaseNotesRegion("- added retries")

	require.Equal(t, "- added retries", ContentWithin(withNotes, DescriptionStartTag, DescriptionEndTag))
	require.Equal(t, desc, StripReleaseNotes(withNotes))
	// Descriptions without the region come back unchanged.
	require.Equal(t, desc, StripReleaseNotes(desc))
}
