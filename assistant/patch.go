package assistant

import "strings"

// PatchOutcome describes what an edit did to the target file.
type PatchOutcome int

const (
	// PatchApplied means the file was rewritten with the replacement.
	PatchApplied PatchOutcome = iota

	// PatchNoChange means the replacement produced byte-identical content,
	// so the file was not written at all.
	PatchNoChange
)

// PatchResult reports the outcome of ApplySnippet.
type PatchResult struct {
	Outcome     PatchOutcome
	Occurrences int // exact matches of the snippet in the original content
}

// Ambiguous reports whether the snippet matched more than once. The
// leftmost occurrence was replaced; callers should surface a warning so
// the model can supply a more specific snippet next time.
func (r PatchResult) Ambiguous() bool {
	return r.Occurrences > 1
}

// ApplySnippet replaces one exact occurrence of snippet with replacement in
// the file at path. Matching is byte-exact, whitespace included, with no
// normalization.
//
// If the snippet does not occur, the edit aborts with SnippetNotFoundError
// and the file is untouched. If it occurs more than once, the leftmost
// occurrence is replaced and the result is marked ambiguous. If the
// replacement yields content identical to the original, nothing is written.
func ApplySnippet(fs Filesystem, path, snippet, replacement string) (PatchResult, error) {
	content, err := fs.ReadFile(path)
	if err != nil {
		return PatchResult{}, err
	}

	count := strings.Count(content, snippet)
	if count == 0 {
		return PatchResult{}, &SnippetNotFoundError{Path: path, Snippet: snippet}
	}

	updated := strings.Replace(content, snippet, replacement, 1)
	if updated == content {
		return PatchResult{Outcome: PatchNoChange, Occurrences: count}, nil
	}

	if err := fs.WriteFile(path, updated); err != nil {
		return PatchResult{}, err
	}
	return PatchResult{Outcome: PatchApplied, Occurrences: count}, nil
}
