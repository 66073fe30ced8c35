package domain

// AnswerMode records which generation path produced an answer.
type AnswerMode string

const (
	// ModeAI: the remote model answered over retrieved content.
	ModeAI AnswerMode = "ai"
	// ModeFallbackFound: grounding material existed but the answer is the
	// templated fallback (model unavailable or its call failed).
	ModeFallbackFound AnswerMode = "fallback-found"
	// ModeFallbackEmpty: the owner has no documents at all.
	ModeFallbackEmpty AnswerMode = "fallback-empty"
)

// AnswerResult is the outcome of answering one question. It is built and
// discarded within a single request and holds read-only references to
// stored documents.
type AnswerResult struct {
	Text       string
	References []Citation
	Grounded   bool // true when the remote model produced the text
	Mode       AnswerMode
}
