package server

import (
	"fmt"
	"math"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lazypower/rhythm/internal/model"
)

// Caps keep the digest short enough to paste into a journal or prompt.
const (
	maxDigestMoments = 5
	maxDigestThreads = 5
)

func (s *Server) handleDigest(w http.ResponseWriter, r *http.Request) {
	p, err := s.eng.LoadProfile(r.Context(), chi.URLParam(r, "subjectID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"digest": buildDigest(p, time.Now()),
	})
}

// buildDigest renders the aggregate as a short markdown summary.
func buildDigest(p *model.Profile, now time.Time) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("<digest>\n## Rhythm: %s\n", p.Subject.ID))

	rp := p.Rhythm
	b.WriteString("\n### Rhythm\n")
	b.WriteString(fmt.Sprintf("- Best time: %s (%s)\n", rp.OptimalTime, rp.DailyPeak))
	days := make([]string, len(rp.WeeklyFlow))
	for i, d := range rp.WeeklyFlow {
		days[i] = d.String()
	}
	b.WriteString(fmt.Sprintf("- Weekly flow: %s\n", strings.Join(days, ", ")))
	b.WriteString(fmt.Sprintf("- Season: %s for about %d weeks\n", rp.Season, rp.SeasonWeeks))
	b.WriteString(fmt.Sprintf("- Pause: %s, %d minutes\n", rp.Pause.Frequency, rp.Pause.Minutes))
	if len(rp.MonthlyThemes) > 0 {
		b.WriteString(fmt.Sprintf("- Themes: %s\n", strings.Join(rp.MonthlyThemes, ", ")))
	}

	if v := p.State; v != nil {
		b.WriteString("\n### Current State\n")
		b.WriteString(fmt.Sprintf("- Overall %.1f (clarity %d, peace %d, vitality %d, connection %d, purpose %d)\n",
			v.Overall(), v.Clarity, v.Peace, v.Vitality, v.Connection, v.Purpose))
		b.WriteString(fmt.Sprintf("- Recorded %s\n", v.RecordedAt.Format("2006-01-02 15:04")))
	}

	if len(p.RecentMoments) > 0 {
		b.WriteString("\n### Recent Moments\n")
		for i, m := range p.RecentMoments {
			if i == maxDigestMoments {
				break
			}
			ts := m.OccurredAt.Format("2006-01-02 15:04")
			b.WriteString(fmt.Sprintf("- [%s] %s: %s\n", ts, m.Category, m.Essence))
		}
	}

	// Rank threads so the most integrated, recently tended ones lead.
	threads := append([]model.WisdomThread(nil), p.Threads...)
	sort.SliceStable(threads, func(i, j int) bool {
		return threadScore(threads[i], now) > threadScore(threads[j], now)
	})
	if len(threads) > maxDigestThreads {
		threads = threads[:maxDigestThreads]
	}
	if len(threads) > 0 {
		b.WriteString("\n### Wisdom Threads\n")
		for _, th := range threads {
			b.WriteString(fmt.Sprintf("- [%s %d/10] %s\n", th.Stage, th.IntegrationLevel, th.Insight))
		}
	}

	b.WriteString("</digest>")
	return b.String()
}

// threadScore ranks a thread for the digest. Integration level dominates;
// contemplation in the last few weeks gives a diminishing boost.
func threadScore(th model.WisdomThread, now time.Time) float64 {
	days := now.Sub(th.LastContemplated).Hours() / 24
	if days < 0 {
		days = 0
	}
	// 1 day → ~1.0, 7 days → ~0.5, 30 days → ~0.2
	recency := 1 / (1 + math.Log2(1+days/2))
	return float64(th.IntegrationLevel) + recency
}
