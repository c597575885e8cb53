package analyzer

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"linktrust/ai"
	"linktrust/heuristics"
	"linktrust/trust"
)

// VerdictStore is the durable cache the orchestrator reads and writes.
type VerdictStore interface {
	GetMany(ctx context.Context, urls []string) (map[string]trust.TrustVerdict, error)
	Upsert(ctx context.Context, url string, v trust.TrustVerdict, linkText string) error
}

// ThreatChecker aggregates external threat-intelligence lookups.
type ThreatChecker interface {
	CheckURL(ctx context.Context, rawURL string) trust.AggregatedExternalResult
}

// Judge produces AI judgments for individual links.
type Judge interface {
	Available() bool
	Analyze(ctx context.Context, in ai.Input) (trust.AIVerdict, error)
}

// Request is one batch of candidate links from a single page.
type Request struct {
	Links         []trust.LinkCandidate
	SourceDomain  string
	SourceContext string
	PriorityURL   string // link the user is hovering; jumps the AI queue
	CallerID      string // AI runs only for identified callers
	ForceAI       bool   // explicit override of the caller gate
}

// Analyzer coordinates the full pipeline: heuristics, cache, external
// checks, scoring, and the sequential AI refinement queue.
type Analyzer struct {
	store    VerdictStore
	scorer   *heuristics.Scorer
	external ThreatChecker
	judge    Judge
	th       trust.Thresholds

	queue   *workQueue
	updates *updateRegistry

	wg   sync.WaitGroup
	once sync.Once
}

func New(store VerdictStore, external ThreatChecker, judge Judge, th trust.Thresholds) *Analyzer {
	a := &Analyzer{
		store:    store,
		scorer:   heuristics.NewScorer(th),
		external: external,
		judge:    judge,
		th:       th,
		queue:    newWorkQueue(),
		updates:  newUpdateRegistry(th.MaxPollAttempts),
	}
	a.wg.Add(1)
	go a.consumeQueue()
	return a
}

// Close stops the AI consumer after the queued work drains.
func (a *Analyzer) Close() {
	a.once.Do(a.queue.Close)
	a.wg.Wait()
}

// Analyze resolves a batch of links to provisional verdicts. Heuristics,
// cache hits and external checks complete before return; AI refinement
// continues in the background and is delivered through PollUpdates under
// the returned batch ID.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (string, []trust.TrustVerdict, error) {
	if len(req.Links) == 0 {
		return "", nil, fmt.Errorf("empty link batch")
	}
	if req.SourceDomain == "" {
		return "", nil, fmt.Errorf("source domain required")
	}

	batchID := fmt.Sprintf("batch_%d", time.Now().UnixNano())
	verdicts := make([]trust.TrustVerdict, len(req.Links))

	// Links stamped by a previous pass get a neutral verdict and no work.
	active := make([]int, 0, len(req.Links))
	for i, link := range req.Links {
		if heuristics.IsAnalyzedMarker(link.Text) {
			verdicts[i] = trust.TrustVerdict{
				URL:        link.URL,
				TrustScore: 0.5,
				Category:   trust.CategoryForScore(0.5),
			}
			continue
		}
		active = append(active, i)
	}

	// Group active positions by normalized URL; one unit of work per URL.
	type group struct {
		first   trust.LinkCandidate
		indices []int
	}
	groups := map[string]*group{}
	order := []string{}
	for _, i := range active {
		norm := trust.NormalizeURL(req.Links[i].URL)
		g, ok := groups[norm]
		if !ok {
			g = &group{first: req.Links[i]}
			groups[norm] = g
			order = append(order, norm)
		}
		g.indices = append(g.indices, i)
	}

	// Batch cache lookup. A failing store is a cache miss, not an error.
	cached, err := a.store.GetMany(ctx, order)
	if err != nil {
		log.Printf("[Analyzer] cache lookup failed: %v", err)
		cached = map[string]trust.TrustVerdict{}
	}

	// External checks fan out across the uncached, untrusted URLs.
	extResults := make(map[string]*trust.AggregatedExternalResult)
	var extMu sync.Mutex
	g := new(errgroup.Group)
	for _, norm := range order {
		if _, hit := cached[norm]; hit {
			continue
		}
		if domain := trust.DomainOf(norm); domain != "" && trust.IsTrustedDomain(domain) {
			continue
		}
		norm := norm
		g.Go(func() error {
			res := a.external.CheckURL(ctx, norm)
			extMu.Lock()
			extResults[norm] = &res
			extMu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	var aiJobs []*aiJob
	expected := 0

	for _, norm := range order {
		grp := groups[norm]

		if hit, ok := cached[norm]; ok {
			for _, i := range grp.indices {
				verdicts[i] = hit
			}
			continue
		}

		hres := a.scorer.Score(grp.first)
		ext := extResults[norm]

		var v trust.TrustVerdict
		if domain := trust.DomainOf(norm); domain != "" && trust.IsTrustedDomain(domain) {
			// Allow-listed domains skip external checks and AI outright.
			v = trust.TrustVerdict{
				URL:        norm,
				TrustScore: 0.95,
				Category:   trust.CategorySafe,
				Issues:     hres.Issues,
				AIStatus:   trust.AIStatusSkippedSafe,
			}
		} else {
			score := initialScore(hres, ext, a.th)
			v = trust.TrustVerdict{
				URL:        norm,
				TrustScore: score,
				Category:   trust.CategoryForScore(score),
				Issues:     mergedIssues(hres, ext),
			}
			v.AIStatus = a.aiDisposition(v, ext, req)
		}

		if err := a.store.Upsert(ctx, norm, v, grp.first.Text); err != nil {
			log.Printf("[Analyzer] cache write failed for %s: %v", norm, err)
		}

		if v.AIStatus == trust.AIStatusQueued {
			aiJobs = append(aiJobs, &aiJob{
				batchID:  batchID,
				url:      norm,
				linkText: grp.first.Text,
				indices:  grp.indices,
				verdict:  &v,
				input: judgeInput{
					rawURL:        grp.first.URL,
					sourceDomain:  req.SourceDomain,
					sourceContext: req.SourceContext,
					issues:        v.Issues,
				},
				heurScore: v.TrustScore,
			})
			expected += len(grp.indices)
		}

		for _, i := range grp.indices {
			verdicts[i] = v
		}
	}

	if len(aiJobs) > 0 {
		a.updates.Expect(batchID, expected)
		a.queue.Push(aiJobs...)
		if req.PriorityURL != "" {
			a.queue.Promote(trust.NormalizeURL(req.PriorityURL))
		}
	}

	return batchID, verdicts, nil
}

// aiDisposition applies the fast-path skip rules and the caller gate.
func (a *Analyzer) aiDisposition(v trust.TrustVerdict, ext *trust.AggregatedExternalResult, req Request) string {
	threats := ext != nil && ext.ThreatCount > 0

	if v.TrustScore < a.th.SkipDangerousBelow && threats {
		return trust.AIStatusSkippedDangerous
	}
	if v.TrustScore > a.th.SkipSafeAbove && len(v.Issues) == 0 {
		return trust.AIStatusSkippedSafe
	}
	if v.TrustScore > a.th.SkipSafeConfirmed && ext != nil && ext.Safe && ext.Confidence > a.th.SkipSafeExtConfMin {
		return trust.AIStatusSkippedSafe
	}
	if req.CallerID == "" && !req.ForceAI {
		return ""
	}
	return trust.AIStatusQueued
}

// PollUpdates drains the refinements delivered so far for a batch.
func (a *Analyzer) PollUpdates(batchID string) ([]Update, bool) {
	return a.updates.Drain(batchID)
}

// consumeQueue is the single AI consumer: jobs run strictly one at a time,
// in queue order.
func (a *Analyzer) consumeQueue() {
	defer a.wg.Done()
	for {
		job, ok := a.queue.Pop()
		if !ok {
			return
		}
		a.processJob(job)
	}
}

func (a *Analyzer) processJob(job *aiJob) {
	ctx := context.Background()

	if !a.judge.Available() {
		job.verdict.AIStatus = trust.AIStatusUnavailable
		a.finishJob(ctx, job)
		return
	}

	aiVerdict, err := a.judge.Analyze(ctx, ai.Input{
		URL:            job.input.rawURL,
		LinkText:       job.linkText,
		SourceDomain:   job.input.sourceDomain,
		SourceContext:  job.input.sourceContext,
		Issues:         job.input.issues,
		HeuristicScore: job.heurScore,
	})
	if err != nil {
		log.Printf("[Analyzer] AI judgment failed for %s: %v", job.url, err)
		job.verdict.AIStatus = trust.AIStatusUnavailable
		a.finishJob(ctx, job)
		return
	}

	applyAIVerdict(job.verdict, aiVerdict)
	a.finishJob(ctx, job)
}

func (a *Analyzer) finishJob(ctx context.Context, job *aiJob) {
	if err := a.store.Upsert(ctx, job.url, *job.verdict, job.linkText); err != nil {
		log.Printf("[Analyzer] cache write failed for %s: %v", job.url, err)
	}

	updates := make([]Update, len(job.indices))
	for n, i := range job.indices {
		updates[n] = Update{Index: i, Verdict: *job.verdict}
	}
	a.updates.Record(job.batchID, updates...)
}
