package push

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Tejaswini-002/repo-agent/internal/ghapi"
	"github.com/Tejaswini-002/repo-agent/internal/prompts"
)

type fakeComparer struct {
	cmp  *ghapi.Comparison
	err  error
	base string
	head string
}

func (f *fakeComparer) Compare(ctx context.Context, repo, base, head string) (*ghapi.Comparison, error) {
	f.base, f.head = base, head
	if f.err != nil {
		return nil, f.err
	}
	return f.cmp, nil
}

type scriptedModel struct {
	response string
	err      error
	prompt   string
}

func (s *scriptedModel) Generate(ctx context.Context, prompt string) (string, error) {
	s.prompt = prompt
	return s.response, s.err
}

func testComparison() *ghapi.Comparison {
	return &ghapi.Comparison{Files: []ghapi.FileChange{
		{Filename: "main.go", Additions: 12, Deletions: 3, Patch: "@@ -1 +1 @@\n+x"},
		{Filename: "util.go", Additions: 5, Deletions: 1, Patch: "@@ -2 +2 @@\n+y"},
	}}
}

func TestAnalyzeParsesStructuredOutput(t *testing.T) {
	gh := &fakeComparer{cmp: testComparison()}
	model := &scriptedModel{response: `{
		"summary": "Adds input validation",
		"key_changes": ["validate args"],
		"impact_level": "Low",
		"files_changed": ["main.go"],
		"stats": {"additions": 12, "deletions": 3, "files": 1}
	}`}
	svc := NewService(gh, model, prompts.NewSet(nil))

	analysis, err := svc.Analyze(context.Background(), "octo/repo", "aaa", "bbb", []Commit{
		{ID: "deadbeefcafe", Message: "validate input\n\nlong body"},
	})
	require.NoError(t, err)

	require.Equal(t, "aaa", gh.base)
	require.Equal(t, "bbb", gh.head)
	require.Equal(t, "Adds input validation", analysis.Summary)
	require.Equal(t, "Low", analysis.ImpactLevel)
	require.Equal(t, []string{"main.go"}, analysis.FilesChanged)
	require.Contains(t, model.prompt, "- deadbee validate input")
	require.NotContains(t, model.prompt, "long body")
}

func TestAnalyzeFillsMissingFieldsFromComparison(t *testing.T) {
	gh := &fakeComparer{cmp: testComparison()}
	model := &scriptedModel{response: `{"summary": "refactor"}`}
	svc := NewService(gh, model, prompts.NewSet(nil))

	analysis, err := svc.Analyze(context.Background(), "octo/repo", "aaa", "bbb", nil)
	require.NoError(t, err)

	require.Equal(t, []string{"main.go", "util.go"}, analysis.FilesChanged)
	require.Equal(t, Stats{Additions: 17, Deletions: 4, Files: 2}, analysis.Stats)
	require.Equal(t, "Medium", analysis.ImpactLevel)
}

func TestAnalyzeDegradesOnMalformedOutput(t *testing.T) {
	gh := &fakeComparer{cmp: testComparison()}
	model := &scriptedModel{response: "the model rambled instead of answering"}
	svc := NewService(gh, model, prompts.NewSet(nil))

	analysis, err := svc.Analyze(context.Background(), "octo/repo", "aaa", "bbb", nil)
	require.NoError(t, err)

	require.Equal(t, "the model rambled instead of answering", analysis.Summary)
	require.Equal(t, "Medium", analysis.ImpactLevel)
	require.Len(t, analysis.FilesChanged, 2)
}

func TestAnalyzeReturnsCompareErrors(t *testing.T) {
	gh := &fakeComparer{err: errors.New("503 Service Unavailable")}
	svc := NewService(gh, &scriptedModel{}, prompts.NewSet(nil))

	_, err := svc.Analyze(context.Background(), "octo/repo", "aaa", "bbb", nil)
	require.Error(t, err)
}

func TestSamplePatchesCapsFileCount(t *testing.T) {
	var files []ghapi.FileChange
	for i := 0; i < 20; i++ {
		files = append(files, ghapi.FileChange{Filename: "f.go", Patch: "@@ +1 @@\n+x"})
	}
	text := samplePatches(files)
	require.Equal(t, maxPatchFiles, strings.Count(text, "--- "))
}
