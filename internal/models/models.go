package models

// Chunk is a bounded segment of document text with positional metadata.
// Chunks are immutable once created; the retriever owns the chunk set for
// the lifetime of one document session and only ever reads it after ingest.
type Chunk struct {
	ID           int
	Text         string
	TokenCount   int
	CharLength   int
	SourceOffset int
	Preview      string
}

// RetrievedChunk pairs a chunk with its ranking against one query.
// Instances are created fresh per query and never persisted.
type RetrievedChunk struct {
	Rank            int
	ChunkID         int
	Content         string
	SimilarityScore float32
	Metadata        Chunk
	IsRelevant      bool
}

// Decision is the structured answer produced for a single question.
type Decision struct {
	Decision      string `json:"decision"`
	Amount        string `json:"amount"`
	Justification string `json:"justification"`
	SourceClause  string `json:"source_clause"`
}

const (
	DecisionApproved = "Approved"
	DecisionRejected = "Rejected"

	AmountNotSpecified = "Not specified"
)
