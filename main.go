package main

import (
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"linktrust/ai"
	"linktrust/analyzer"
	"linktrust/external"
	"linktrust/store"
	"linktrust/trust"
)

func main() {
	_ = godotenv.Load()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "linktrust.db"
	}

	st, err := store.Open(dbPath)
	if err != nil {
		log.Fatalf("open verdict store: %v", err)
	}
	defer st.Close()

	// AI is optional; without a key the judge reports unavailable and the
	// pipeline runs on heuristics and external checks alone.
	client, err := ai.NewGeminiClient()
	if err != nil {
		log.Printf("⚠️ AI disabled: %v", err)
		client = nil
	}
	judge := ai.NewService(client, st)

	a := analyzer.New(st, external.NewAggregator(), judge, trust.DefaultThresholds())
	defer a.Close()

	srv := &server{analyzer: a}
	http.HandleFunc("/analyze", srv.AnalyzeHandler)
	http.HandleFunc("/analyze/updates", srv.UpdatesHandler)

	log.Printf("✅ linktrust service listening on :%s\n", port)
	log.Println("📍 Endpoints:")
	log.Println("   POST /analyze          - Analyze a batch of links")
	log.Println("   GET  /analyze/updates  - Poll AI refinements for a batch")

	if err := http.ListenAndServe(":"+port, nil); err != nil {
		log.Fatal(err)
	}
}
