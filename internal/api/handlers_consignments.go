package api

import (
	"net/http"

	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/service"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/validation"
)

func (s *Server) listConsignments(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r)
	cq := service.ConsignmentQuery{Status: q.str("status"), Search: q.str("q")}
	page := q.page()
	if err := q.err(); err != nil {
		writeErr(w, r, err)
		return
	}
	if err := validation.Struct(cq); err != nil {
		writeErr(w, r, err)
		return
	}

	cs, err := s.svc.ListConsignments(r.Context(), cq, page)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cs)
}

func (s *Server) getConsignment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeErr(w, r, err)
		return
	}

	c, err := s.svc.GetConsignment(r.Context(), id)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) updateConsignment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeErr(w, r, err)
		return
	}
	req := service.ConsignmentUpdate{}
	if err := validation.DecodeAndValidate(w, r, &req); err != nil {
		writeErr(w, r, err)
		return
	}

	c, err := s.svc.UpdateConsignment(r.Context(), id, req)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) transitionConsignment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeErr(w, r, err)
		return
	}
	req := service.ConsignmentTransitionRequest{}
	if err := validation.DecodeAndValidate(w, r, &req); err != nil {
		writeErr(w, r, err)
		return
	}

	c, err := s.svc.TransitionConsignment(r.Context(), id, req)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) addDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeErr(w, r, err)
		return
	}
	req := service.DocumentRequest{}
	if err := validation.DecodeAndValidate(w, r, &req); err != nil {
		writeErr(w, r, err)
		return
	}

	d, err := s.svc.AddDocument(r.Context(), id, req)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (s *Server) deleteDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeErr(w, r, err)
		return
	}
	docID, err := pathID(r, "doc")
	if err != nil {
		writeErr(w, r, err)
		return
	}

	if err := s.svc.DeleteDocument(r.Context(), id, docID); err != nil {
		writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
