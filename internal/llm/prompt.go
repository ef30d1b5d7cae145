package llm

import "strings"

const latexPrompt = `You are given the extracted text of a document template and a set of details supplied by a user.

[TEMPLATE TEXT]
{{template}}

[USER DETAILS]
{{details}}

Produce a complete LaTeX document that follows the structure of the template and incorporates the user details.
Respond with LaTeX source only. Do not add explanations, commentary, or Markdown code fences before or after the LaTeX.`

// BuildPrompt embeds both inputs verbatim in the fixed LaTeX-only prompt.
func BuildPrompt(extractedText, userDetails string) string {
	r := strings.NewReplacer("{{template}}", extractedText, "{{details}}", userDetails)
	return r.Replace(latexPrompt)
}
