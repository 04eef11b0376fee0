package proposal

import "strings"

// Marker is the literal phrase the assistant is instructed to lead with
// when it wants to rewrite the document. Everything after the first
// occurrence is the proposed replacement content.
const Marker = "I'll update the document with:"

type Proposal struct {
	Content string
}

// Classify scans an assistant response for the edit marker. Only the first
// occurrence is significant; any later marker text stays part of the
// proposed content verbatim. Responses without the marker are plain chat.
func Classify(text string) (Proposal, bool) {
	idx := strings.Index(text, Marker)
	if idx < 0 {
		return Proposal{}, false
	}

	content := strings.TrimSpace(text[idx+len(Marker):])

	return Proposal{Content: content}, true
}
