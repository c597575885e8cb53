package main

import (
	"encoding/json"
	"log"
	"net/http"

	"linktrust/analyzer"
	"linktrust/trust"
)

type server struct {
	analyzer *analyzer.Analyzer
}

type analyzeRequest struct {
	Links       []trust.LinkCandidate `json:"links"`
	Domain      string                `json:"domain"`
	PageContext string                `json:"page_context,omitempty"`
	PriorityURL string                `json:"priority_url,omitempty"`
	UserID      string                `json:"user_id,omitempty"`
	ForceAI     bool                  `json:"force_ai,omitempty"`
}

type analyzeResponse struct {
	BatchID  string               `json:"batch_id"`
	Verdicts []trust.TrustVerdict `json:"verdicts"`
}

type updatesResponse struct {
	Updates []analyzer.Update `json:"updates"`
	Done    bool              `json:"done"`
}

func (s *server) AnalyzeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Links) == 0 {
		http.Error(w, "links required", http.StatusBadRequest)
		return
	}
	if req.Domain == "" {
		http.Error(w, "domain required", http.StatusBadRequest)
		return
	}

	batchID, verdicts, err := s.analyzer.Analyze(r.Context(), analyzer.Request{
		Links:         req.Links,
		SourceDomain:  req.Domain,
		SourceContext: req.PageContext,
		PriorityURL:   req.PriorityURL,
		CallerID:      req.UserID,
		ForceAI:       req.ForceAI,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(analyzeResponse{BatchID: batchID, Verdicts: verdicts})

	log.Printf("✔ analyzed %d links for %s (batch %s)", len(req.Links), req.Domain, batchID)
}

func (s *server) UpdatesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	batchID := r.URL.Query().Get("batch")
	if batchID == "" {
		http.Error(w, "batch required", http.StatusBadRequest)
		return
	}

	updates, done := s.analyzer.PollUpdates(batchID)
	if updates == nil {
		updates = []analyzer.Update{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(updatesResponse{Updates: updates, Done: done})
}
