package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lazypower/rhythm/internal/model"
)

const defaultMomentPage = 50

func subjectID(r *http.Request) string {
	return chi.URLParam(r, "subjectID")
}

func (s *Server) handleCreateSubject(w http.ResponseWriter, r *http.Request) {
	var req model.Subject
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid json")
		return
	}

	subj, err := s.eng.CreateSubject(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, subj)
}

func (s *Server) handleGetSubject(w http.ResponseWriter, r *http.Request) {
	subj, err := s.eng.GetSubject(r.Context(), subjectID(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, subj)
}

func (s *Server) handleLoadProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.eng.LoadProfile(r.Context(), subjectID(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleRecordMoment(w http.ResponseWriter, r *http.Request) {
	var req model.Moment
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid json")
		return
	}

	m, err := s.eng.RecordMoment(r.Context(), subjectID(r), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) handleListMoments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var since time.Time
	if v := q.Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			badRequest(w, "since must be RFC3339")
			return
		}
		since = t
	}
	limit, ok := intParam(w, q.Get("limit"), defaultMomentPage)
	if !ok {
		return
	}
	offset, ok := intParam(w, q.Get("offset"), 0)
	if !ok {
		return
	}

	moments, err := s.eng.ListMoments(r.Context(), subjectID(r), since, limit, offset)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if moments == nil {
		moments = []model.Moment{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"moments": moments,
		"limit":   limit,
		"offset":  offset,
	})
}

func (s *Server) handleRecordState(w http.ResponseWriter, r *http.Request) {
	var req model.StateVector
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid json")
		return
	}

	v, err := s.eng.RecordState(r.Context(), subjectID(r), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (s *Server) handleCurrentState(w http.ResponseWriter, r *http.Request) {
	v, err := s.eng.CurrentState(r.Context(), subjectID(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"state": v})
}

func (s *Server) handleRhythm(w http.ResponseWriter, r *http.Request) {
	p, err := s.eng.ComputeRhythmProfile(r.Context(), subjectID(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handlePractice(w http.ResponseWriter, r *http.Request) {
	p, err := s.eng.CuratePractice(r.Context(), subjectID(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleRecordThread(w http.ResponseWriter, r *http.Request) {
	var req model.WisdomThread
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid json")
		return
	}

	th, err := s.eng.RecordThread(r.Context(), subjectID(r), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, th)
}

func (s *Server) handleListThreads(w http.ResponseWriter, r *http.Request) {
	threads, err := s.eng.ListThreads(r.Context(), subjectID(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if threads == nil {
		threads = []model.WisdomThread{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"threads": threads})
}

func (s *Server) handleContemplate(w http.ResponseWriter, r *http.Request) {
	th, err := s.eng.ContemplateThread(r.Context(), subjectID(r), chi.URLParam(r, "threadID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, th)
}

// intParam parses an optional non-negative integer query value, writing a
// 400 and returning false when it is malformed.
func intParam(w http.ResponseWriter, raw string, def int) (int, bool) {
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		badRequest(w, "invalid integer "+strconv.Quote(raw))
		return 0, false
	}
	return n, true
}
