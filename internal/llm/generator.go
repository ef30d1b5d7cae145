package llm

import (
	"context"
	"errors"
)

// ErrGeneration reports a failed or empty remote generation.
var ErrGeneration = errors.New("llm: generation failed")

// GenerationFailedText is shown in place of a result whose generation failed.
const GenerationFailedText = "An error occurred while generating the LaTeX content."

// Generator turns template text plus user instructions into LaTeX source.
type Generator interface {
	Generate(ctx context.Context, extractedText, userDetails string) (string, error)
}

// Result is the outcome of one generation request.
type Result struct {
	Text string
	Err  error
}

// Display is the string a view shows for r: the generated text, or
// GenerationFailedText when the request failed.
func (r Result) Display() string {
	if r.Err != nil {
		return GenerationFailedText
	}
	return r.Text
}

// Failed reports whether the request behind r failed.
func (r Result) Failed() bool { return r.Err != nil }
