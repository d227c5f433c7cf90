package vector

// searchRequest is the wire payload for a similarity query.
type searchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

// hitPayload is one nearest-neighbor result on the wire. The service sends
// either a ready-made similarity score in (0, 1] or a non-negative L2
// distance, zero meaning identical.
type hitPayload struct {
	EntityID   string   `json:"entity_id"`
	EntityType string   `json:"entity_type"`
	ChunkID    string   `json:"chunk_id"`
	Score      *float64 `json:"score,omitempty"`
	Distance   float64  `json:"distance"`
}

// similarity prefers the native score and falls back to converting the
// distance via 1 / (1 + distance).
func (h hitPayload) similarity() float64 {
	if h.Score != nil {
		return *h.Score
	}
	return 1 / (1 + h.Distance)
}

// searchResponse is the wire envelope for search results.
type searchResponse struct {
	Results []hitPayload `json:"results"`
}

// indexRequest is the wire payload for a bulk document upsert.
type indexRequest struct {
	Documents []documentPayload `json:"documents"`
}

// documentPayload is one indexed document on the wire.
type documentPayload struct {
	EntityID   string   `json:"entity_id"`
	EntityType string   `json:"entity_type"`
	Title      string   `json:"title"`
	Text       string   `json:"text"`
	Tags       []string `json:"tags,omitempty"`
}

// indexResponse reports how many documents the service accepted.
type indexResponse struct {
	Indexed int `json:"indexed"`
}
