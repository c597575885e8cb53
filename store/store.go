package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"linktrust/trust"
)

// TTLs for the two cache tables. Verdicts age out after a day; raw AI
// verdicts live half that because model output drifts with prompt changes.
const (
	VerdictTTL   = 24 * time.Hour
	AIVerdictTTL = 12 * time.Hour
)

// Store is the durable verdict cache. At most one live row exists per
// normalized URL; same-key writes are serialized through a keyed mutex so
// concurrent resolutions cannot interleave partial updates.
type Store struct {
	db    *sql.DB
	locks *KeyedMutex
	now   func() time.Time
}

func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	if err := migrate(db); err != nil {
		return nil, err
	}
	return &Store{db: db, locks: NewKeyedMutex(), now: time.Now}, nil
}

func migrate(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS verdicts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		normalized_url TEXT NOT NULL UNIQUE,
		trust_score REAL NOT NULL,
		category TEXT NOT NULL,
		issues JSON,
		ai_status TEXT,
		ai_summary TEXT,
		ai_recommendation TEXT,
		ai_risk_tags JSON,
		ai_confidence REAL,
		link_text TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_verdicts_url ON verdicts(normalized_url);

	CREATE TABLE IF NOT EXISTS ai_verdicts (
		normalized_url TEXT PRIMARY KEY,
		verdict JSON NOT NULL,
		created_at DATETIME NOT NULL
	);
	`
	_, err := db.Exec(query)
	return err
}

func (s *Store) Close() error { return s.db.Close() }

// GetMany returns the live cached verdicts for the given normalized URLs.
// Rows older than VerdictTTL are treated as absent; misses simply do not
// appear in the result map.
func (s *Store) GetMany(ctx context.Context, urls []string) (map[string]trust.TrustVerdict, error) {
	hits := make(map[string]trust.TrustVerdict)
	if len(urls) == 0 {
		return hits, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(urls)), ",")
	args := make([]any, 0, len(urls)+1)
	for _, u := range urls {
		args = append(args, u)
	}
	args = append(args, s.now().Add(-VerdictTTL))

	query := fmt.Sprintf(`
		SELECT normalized_url, trust_score, category, issues,
		       ai_status, ai_summary, ai_recommendation, ai_risk_tags, ai_confidence
		FROM verdicts
		WHERE normalized_url IN (%s) AND created_at > ?`, placeholders)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return hits, err
	}
	defer rows.Close()

	for rows.Next() {
		var v trust.TrustVerdict
		var issuesJSON, riskTagsJSON []byte
		var aiStatus, aiSummary, aiRecommendation sql.NullString
		var aiConfidence sql.NullFloat64

		if err := rows.Scan(&v.URL, &v.TrustScore, &v.Category, &issuesJSON,
			&aiStatus, &aiSummary, &aiRecommendation, &riskTagsJSON, &aiConfidence); err != nil {
			return hits, err
		}

		_ = json.Unmarshal(issuesJSON, &v.Issues)
		if len(riskTagsJSON) > 0 {
			_ = json.Unmarshal(riskTagsJSON, &v.AIRiskTags)
		}
		v.AIStatus = aiStatus.String
		v.AISummary = aiSummary.String
		v.AIRecommendation = aiRecommendation.String
		v.AIConfidence = aiConfidence.Float64

		hits[v.URL] = v
	}
	return hits, rows.Err()
}

// Upsert writes a verdict under its normalized URL, replacing any previous
// row for the key. AI fields follow COALESCE merge semantics: a write that
// produced no AI data never erases a previously stored AI summary. The
// freshness window is anchored to creation: an in-TTL update keeps the
// original created_at and only advances updated_at, while a write over a
// stale row starts a new window.
func (s *Store) Upsert(ctx context.Context, normalizedURL string, v trust.TrustVerdict, linkText string) error {
	unlock := s.locks.Lock(normalizedURL)
	defer unlock()

	issuesJSON, err := json.Marshal(v.Issues)
	if err != nil {
		return err
	}
	var riskTagsJSON []byte
	if len(v.AIRiskTags) > 0 {
		riskTagsJSON, _ = json.Marshal(v.AIRiskTags)
	}

	// Confidence is only meaningful alongside a resolved AI judgment; a
	// resolved judgment may legitimately report exactly 0.
	var aiConfidence any
	if v.AIStatus == trust.AIStatusDone {
		aiConfidence = v.AIConfidence
	}

	now := s.now()
	cutoff := now.Add(-VerdictTTL)
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO verdicts (normalized_url, trust_score, category, issues,
			ai_status, ai_summary, ai_recommendation, ai_risk_tags, ai_confidence,
			link_text, created_at, updated_at)
		VALUES (?, ?, ?, ?, NULLIF(?, ''), NULLIF(?, ''), NULLIF(?, ''), ?, ?, ?, ?, ?)
		ON CONFLICT(normalized_url) DO UPDATE SET
			trust_score = excluded.trust_score,
			category = excluded.category,
			issues = excluded.issues,
			ai_status = COALESCE(excluded.ai_status, verdicts.ai_status),
			ai_summary = COALESCE(excluded.ai_summary, verdicts.ai_summary),
			ai_recommendation = COALESCE(excluded.ai_recommendation, verdicts.ai_recommendation),
			ai_risk_tags = COALESCE(excluded.ai_risk_tags, verdicts.ai_risk_tags),
			ai_confidence = COALESCE(excluded.ai_confidence, verdicts.ai_confidence),
			link_text = COALESCE(NULLIF(excluded.link_text, ''), verdicts.link_text),
			created_at = CASE WHEN verdicts.created_at > ? THEN verdicts.created_at ELSE excluded.created_at END,
			updated_at = excluded.updated_at`,
		normalizedURL, v.TrustScore, string(v.Category), issuesJSON,
		v.AIStatus, v.AISummary, v.AIRecommendation, riskTagsJSON, aiConfidence,
		linkText, now, now, cutoff)
	return err
}

// GetAIVerdict returns the cached raw AI verdict for a URL if one exists
// and is younger than AIVerdictTTL.
func (s *Store) GetAIVerdict(ctx context.Context, normalizedURL string) (trust.AIVerdict, bool, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT verdict FROM ai_verdicts
		WHERE normalized_url = ? AND created_at > ?`,
		normalizedURL, s.now().Add(-AIVerdictTTL)).Scan(&raw)
	if err == sql.ErrNoRows {
		return trust.AIVerdict{}, false, nil
	}
	if err != nil {
		return trust.AIVerdict{}, false, err
	}

	var v trust.AIVerdict
	if err := json.Unmarshal(raw, &v); err != nil {
		return trust.AIVerdict{}, false, err
	}
	return v, true, nil
}

// SaveAIVerdict caches a raw AI verdict, replacing any prior entry.
func (s *Store) SaveAIVerdict(ctx context.Context, normalizedURL string, v trust.AIVerdict) error {
	unlock := s.locks.Lock("ai:" + normalizedURL)
	defer unlock()

	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO ai_verdicts (normalized_url, verdict, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(normalized_url) DO UPDATE SET
			verdict = excluded.verdict,
			created_at = excluded.created_at`,
		normalizedURL, raw, s.now())
	return err
}
