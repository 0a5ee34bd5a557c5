package api

import (
	"net/http"

	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/service"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/validation"
)

func (s *Server) listLeads(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r)
	lq := service.LeadQuery{Stage: q.str("stage"), Kind: q.str("kind")}
	page := q.page()
	if err := q.err(); err != nil {
		writeErr(w, r, err)
		return
	}
	if err := validation.Struct(lq); err != nil {
		writeErr(w, r, err)
		return
	}

	leads, err := s.svc.ListLeads(r.Context(), lq, page)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, leads)
}

func (s *Server) board(w http.ResponseWriter, r *http.Request) {
	lq := service.LeadQuery{Kind: r.URL.Query().Get("kind")}
	if err := validation.Struct(lq); err != nil {
		writeErr(w, r, err)
		return
	}

	columns, err := s.svc.Board(r.Context(), lq.Kind)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, columns)
}

func (s *Server) getLead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeErr(w, r, err)
		return
	}

	lead, err := s.svc.GetLead(r.Context(), id)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

func (s *Server) moveLead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeErr(w, r, err)
		return
	}
	req := service.MoveLeadRequest{}
	if err := validation.DecodeAndValidate(w, r, &req); err != nil {
		writeErr(w, r, err)
		return
	}

	lead, err := s.svc.MoveLead(r.Context(), id, req, actor(r))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

func (s *Server) assignLead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeErr(w, r, err)
		return
	}
	req := service.AssignLeadRequest{}
	if err := validation.DecodeAndValidate(w, r, &req); err != nil {
		writeErr(w, r, err)
		return
	}

	lead, err := s.svc.AssignLead(r.Context(), id, req, actor(r))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

func (s *Server) addLeadNote(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeErr(w, r, err)
		return
	}
	req := service.NoteRequest{}
	if err := validation.DecodeAndValidate(w, r, &req); err != nil {
		writeErr(w, r, err)
		return
	}

	note, err := s.svc.AddLeadNote(r.Context(), id, req, actor(r))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

func (s *Server) syncLead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeErr(w, r, err)
		return
	}

	lead, err := s.svc.SyncLeadToCRM(r.Context(), id, actor(r))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}
