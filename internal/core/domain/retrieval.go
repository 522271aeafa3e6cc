package domain

type SearchFilter struct {
	SourceType string
}

// RetrievedChunk is a vector-search candidate with the classification metadata
// attached at ingestion time. Score carries the similarity score on the way in
// and the relevance score after reranking; only relative ordering matters.
type RetrievedChunk struct {
	DocumentID     string                 `json:"document_id"`
	Filename       string                 `json:"filename"`
	ChunkIndex     int                    `json:"chunk_index"`
	Text           string                 `json:"text"`
	Score          float64                `json:"score"`
	Classification DocumentClassification `json:"classification"`
	Analysis       ChunkAnalysis          `json:"analysis"`
}

type Answer struct {
	Text    string              `json:"text"`
	Sources []RetrievedChunk    `json:"sources"`
	Query   QueryClassification `json:"query"`
}
