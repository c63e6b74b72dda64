package enhance

import (
	"context"
	"image"
	"log"
	"strings"
	"time"

	"github.com/bryanwahyu/mediscan-ai/internal/application"
	"github.com/bryanwahyu/mediscan-ai/internal/domain/diagnosis"
	domain "github.com/bryanwahyu/mediscan-ai/internal/domain/enhance"
	"github.com/bryanwahyu/mediscan-ai/internal/domain/lesion"
)

// Default adapter budgets. Overall covers the slowest adapter plus slack.
const (
	DefaultNarrativeTimeout = 15 * time.Second
	DefaultResourceTimeout  = 10 * time.Second
	DefaultKeywordTimeout   = 5 * time.Second
	DefaultOverallTimeout   = 20 * time.Second
)

// Timeouts carries the per-adapter and overall budgets for one run.
type Timeouts struct {
	Narrative time.Duration
	Resource  time.Duration
	Keyword   time.Duration
	Overall   time.Duration
}

// normalized fills zero budgets with defaults and stretches Overall so it
// always covers the largest individual budget.
func (t Timeouts) normalized() Timeouts {
	if t.Narrative <= 0 {
		t.Narrative = DefaultNarrativeTimeout
	}
	if t.Resource <= 0 {
		t.Resource = DefaultResourceTimeout
	}
	if t.Keyword <= 0 {
		t.Keyword = DefaultKeywordTimeout
	}
	if t.Overall <= 0 {
		t.Overall = DefaultOverallTimeout
	}
	for _, d := range []time.Duration{t.Narrative, t.Resource, t.Keyword} {
		if t.Overall < d {
			t.Overall = d
		}
	}
	return t
}

// Service implements the enhancement use-case: three live adapters raced
// against their budgets, with the content library standing in for any of
// them that fails, times out, or is disabled.
// Service is designed to be used concurrently and is thread-safe.
type Service struct {
	Narrative domain.NarrativeGenerator // nil berarti adapter dimatikan
	Resources domain.ResourceSearcher   // nil berarti adapter dimatikan
	Keywords  domain.KeywordExtractor   // nil berarti adapter dimatikan
	Library   domain.ContentLibrary
	Scorer    lesion.Scorer
	Clock     application.Clock
}

//
// ==== USE CASES ====
//

// EnhanceCommand carries one classifier result into enhancement.
type EnhanceCommand struct {
	Result   diagnosis.AnalysisResult
	Image    image.Image // optional; scorer falls back to confidence defaults without it
	Timeouts Timeouts
}

type narrativeOutcome struct {
	narrative domain.Narrative
	err       error
	disabled  bool
}

type resourceOutcome struct {
	articles []domain.ResourceArticle
	err      error
	disabled bool
}

type keywordOutcome struct {
	keywords domain.CategorizedKeywords
	err      error
	disabled bool
}

// Enhance assembles the enhancement bundle for one analysis result.
//
// The three adapters run concurrently, each under its own timeout, and
// the scorer runs alongside them. Enhance never returns an error and
// never blocks past the overall budget: any adapter that has not
// produced a usable result by then is abandoned and its slot filled
// from the library. Late results land in buffered channels and are
// discarded with the goroutine.
func (s *Service) Enhance(ctx context.Context, cmd EnhanceCommand) domain.Bundle {
	t := cmd.Timeouts.normalized()
	label := cmd.Result.Label
	risk := cmd.Result.RiskLevel
	family := diagnosis.FamilyOf(label)

	scoreCh := make(chan lesion.Characteristics, 1)
	go func() {
		scoreCh <- s.Scorer.Score(cmd.Image, label, cmd.Result.Confidence)
	}()

	narrativeCh := make(chan narrativeOutcome, 1)
	if s.Narrative == nil {
		narrativeCh <- narrativeOutcome{disabled: true}
	} else {
		go func() {
			cctx, cancel := context.WithTimeout(ctx, t.Narrative)
			defer cancel()
			n, err := s.Narrative.Generate(cctx, label, cmd.Result.Confidence, risk)
			narrativeCh <- narrativeOutcome{narrative: n, err: err}
		}()
	}

	resourceCh := make(chan resourceOutcome, 1)
	if s.Resources == nil {
		resourceCh <- resourceOutcome{disabled: true}
	} else {
		go func() {
			cctx, cancel := context.WithTimeout(ctx, t.Resource)
			defer cancel()
			articles, err := s.Resources.Search(cctx, label)
			resourceCh <- resourceOutcome{articles: articles, err: err}
		}()
	}

	keywordCh := make(chan keywordOutcome, 1)
	if s.Keywords == nil {
		keywordCh <- keywordOutcome{disabled: true}
	} else {
		text := keywordText(label, risk, s.Library.RecommendationsFor(risk))
		go func() {
			cctx, cancel := context.WithTimeout(ctx, t.Keyword)
			defer cancel()
			kw, err := s.Keywords.Extract(cctx, text)
			keywordCh <- keywordOutcome{keywords: kw, err: err}
		}()
	}

	overall := time.NewTimer(t.Overall)
	defer overall.Stop()

	var (
		narrative           domain.Narrative
		articles            []domain.ResourceArticle
		keywords            domain.CategorizedKeywords
		nDone, rDone, kDone bool
	)
	for !(nDone && rDone && kDone) {
		select {
		case out := <-narrativeCh:
			nDone = true
			narrative = s.resolveNarrative(out, label, risk)
		case out := <-resourceCh:
			rDone = true
			articles = s.resolveResources(out, family)
		case out := <-keywordCh:
			kDone = true
			keywords = s.resolveKeywords(out, label, family)
		case <-overall.C:
			if !nDone {
				nDone = true
				log.Printf("enhance: narrative not resolved within overall budget, using fallback")
				narrative = s.Library.NarrativeFor(label, risk)
			}
			if !rDone {
				rDone = true
				log.Printf("enhance: resources not resolved within overall budget, using fallback")
				articles = s.Library.ResourcesFor(family)
			}
			if !kDone {
				kDone = true
				log.Printf("enhance: keywords not resolved within overall budget, using fallback")
				keywords = s.Library.KeywordsFor(label, family)
			}
		}
	}

	characteristics := <-scoreCh

	return domain.Bundle{
		NarrativeSummary:     narrative.Summary,
		NarrativeExplanation: narrative.Explanation,
		ConfidenceNote:       s.Library.ConfidenceNote(cmd.Result.Confidence),
		RiskNote:             s.Library.RiskNote(risk),
		Resources:            articles,
		Keywords:             normalizeKeywords(keywords, label),
		Characteristics:      characteristics,
		GeneratedAt:          s.Clock.Now().UTC(),
	}
}

func (s *Service) resolveNarrative(out narrativeOutcome, label string, risk diagnosis.RiskLevel) domain.Narrative {
	switch {
	case out.disabled:
		return s.Library.NarrativeFor(label, risk)
	case out.err != nil:
		log.Printf("enhance: narrative fallback (%s): %v", domain.ClassifyError(out.err), out.err)
		return s.Library.NarrativeFor(label, risk)
	case strings.TrimSpace(out.narrative.Summary) == "":
		log.Printf("enhance: narrative fallback (empty_result): blank summary")
		return s.Library.NarrativeFor(label, risk)
	}
	n := out.narrative
	if strings.TrimSpace(n.Explanation) == "" {
		// live summary arrived without the condition section; backfill it
		n.Explanation = s.Library.NarrativeFor(label, risk).Explanation
	}
	return n
}

func (s *Service) resolveResources(out resourceOutcome, family diagnosis.Family) []domain.ResourceArticle {
	switch {
	case out.disabled:
		return s.Library.ResourcesFor(family)
	case out.err != nil:
		log.Printf("enhance: resources fallback (%s): %v", domain.ClassifyError(out.err), out.err)
		return s.Library.ResourcesFor(family)
	case len(out.articles) == 0:
		log.Printf("enhance: resources fallback (empty_result): no articles")
		return s.Library.ResourcesFor(family)
	}
	return out.articles
}

func (s *Service) resolveKeywords(out keywordOutcome, label string, family diagnosis.Family) domain.CategorizedKeywords {
	switch {
	case out.disabled:
		return s.Library.KeywordsFor(label, family)
	case out.err != nil:
		log.Printf("enhance: keywords fallback (%s): %v", domain.ClassifyError(out.err), out.err)
		return s.Library.KeywordsFor(label, family)
	case emptyKeywords(out.keywords):
		log.Printf("enhance: keywords fallback (empty_result): no terms")
		return s.Library.KeywordsFor(label, family)
	}
	return out.keywords
}

// keywordText is the adapter input: label, risk and recommendations as
// one space-joined string.
func keywordText(label string, risk diagnosis.RiskLevel, recommendations []string) string {
	parts := append([]string{label, string(risk)}, recommendations...)
	return strings.Join(parts, " ")
}

func emptyKeywords(kw domain.CategorizedKeywords) bool {
	return len(kw.Conditions)+len(kw.Symptoms)+len(kw.Treatments)+len(kw.Procedures)+len(kw.General) == 0
}

const maxTermsPerCategory = 6

// normalizeKeywords enforces the bundle invariants on whichever keyword
// set won: the label leads the conditions list, every category is
// duplicate-free in first-seen order, and none exceeds the cap.
func normalizeKeywords(kw domain.CategorizedKeywords, label string) domain.CategorizedKeywords {
	return domain.CategorizedKeywords{
		Conditions: dedupe(append([]string{label}, kw.Conditions...)),
		Symptoms:   dedupe(kw.Symptoms),
		Treatments: dedupe(kw.Treatments),
		Procedures: dedupe(kw.Procedures),
		General:    dedupe(kw.General),
	}
}

func dedupe(terms []string) []string {
	seen := make(map[string]bool, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		key := strings.ToLower(t)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
		if len(out) == maxTermsPerCategory {
			break
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
