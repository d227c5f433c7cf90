package main

import (
	_ "embed"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"
)

//go:embed data.json
var seedData []byte

type document struct {
	EntityID   string   `json:"entity_id"`
	EntityType string   `json:"entity_type"`
	Title      string   `json:"title"`
	Text       string   `json:"text"`
	Tags       []string `json:"tags,omitempty"`
}

type searchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

type hit struct {
	EntityID   string  `json:"entity_id"`
	EntityType string  `json:"entity_type"`
	ChunkID    string  `json:"chunk_id"`
	Distance   float64 `json:"distance"`
}

type store struct {
	mu   sync.RWMutex
	docs []document
}

// search ranks documents by token overlap with the query and reports the
// rank as a pseudo-distance. Crude, but stable enough for local runs and
// demos without a real embedding model.
func (s *store) search(query string, topK int) []hit {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tokens := strings.Fields(strings.ToLower(query))
	var hits []hit
	for _, doc := range s.docs {
		text := strings.ToLower(doc.Title + " " + doc.Text + " " + strings.Join(doc.Tags, " "))
		overlap := 0
		for _, tok := range tokens {
			if strings.Contains(text, tok) {
				overlap++
			}
		}
		if overlap == 0 {
			continue
		}
		// More overlap → smaller distance.
		distance := 1.0/float64(overlap) - 0.5
		if distance < 0 {
			distance = 0
		}
		hits = append(hits, hit{
			EntityID:   doc.EntityID,
			EntityType: doc.EntityType,
			ChunkID:    doc.EntityID + ":0",
			Distance:   distance,
		})
		if len(hits) >= topK && topK > 0 {
			break
		}
	}

	return hits
}

func (s *store) upsert(docs []document) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	byID := make(map[string]int, len(s.docs))
	for i, doc := range s.docs {
		byID[doc.EntityID] = i
	}
	for _, doc := range docs {
		if i, ok := byID[doc.EntityID]; ok {
			s.docs[i] = doc
		} else {
			s.docs = append(s.docs, doc)
		}
	}

	return len(docs)
}

func main() {
	db := &store{}
	if err := json.Unmarshal(seedData, &db.docs); err != nil {
		log.Fatalf("[Vector] Bad seed data: %v", err)
	}

	http.HandleFunc("/api/v1/search", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		var req searchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		// Simulate embedding latency (50-200ms)
		time.Sleep(time.Duration(50+time.Now().UnixNano()%150) * time.Millisecond)

		hits := db.search(req.Query, req.TopK)
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]any{"results": hits}); err != nil {
			log.Printf("[Vector] Write error: %v", err)
		}

		log.Printf("[Vector] search %q -> %d hits", req.Query, len(hits))
	})

	http.HandleFunc("/api/v1/documents", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		var req struct {
			Documents []document `json:"documents"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		n := db.upsert(req.Documents)
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]int{"indexed": n}); err != nil {
			log.Printf("[Vector] Write error: %v", err)
		}

		log.Printf("[Vector] indexed %d documents", n)
	})

	http.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"healthy"}`)); err != nil {
			log.Printf("[Vector] Health write error: %v", err)
		}
	})

	log.Println("Mock vector service running on :8091")
	server := &http.Server{
		Addr:         ":8091",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	log.Fatal(server.ListenAndServe())
}
