package analyst

import (
	"context"

	"github.com/albeorla/reddit-pain-radar/internal/domain/entity"
)

// Analyzer extracts and scores a signal from one post in a single call.
// Both backend implementations retry transient failures internally and
// return *entity.AnalysisError on any terminal failure, never a bare
// provider error.
type Analyzer interface {
	Analyze(ctx context.Context, post entity.Post) (entity.Analysis, error)
}

// maxInputChars bounds how much of the post body + comments is sent to
// the provider, a safety measure independent of either model's actual
// context window.
const maxInputChars = 12000

// truncationNotice is appended whenever the user prompt had to be cut down
// to maxInputChars.
const truncationNotice = "\n...(truncated for length)"

// truncate caps a prompt to maxInputChars, appending truncationNotice when
// it had to cut.
func truncate(prompt string) string {
	if len(prompt) <= maxInputChars {
		return prompt
	}
	return prompt[:maxInputChars] + truncationNotice
}
