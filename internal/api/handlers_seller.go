package api

import (
	"net/http"

	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/auth"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/service"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/validation"
)

func (s *Server) sellerVerifyStart(w http.ResponseWriter, r *http.Request) {
	req := service.VerifyStartRequest{}
	if err := validation.DecodeAndValidate(w, r, &req); err != nil {
		writeErr(w, r, err)
		return
	}

	if err := s.svc.StartSellerVerification(r.Context(), req); err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}

func (s *Server) sellerVerifyCheck(w http.ResponseWriter, r *http.Request) {
	req := service.VerifyCheckRequest{}
	if err := validation.DecodeAndValidate(w, r, &req); err != nil {
		writeErr(w, r, err)
		return
	}

	token, err := s.svc.CheckSellerVerification(r.Context(), req)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	s.sessions.SetCookie(w, auth.KindSeller, token)
	writeJSON(w, http.StatusOK, map[string]string{"status": "verified"})
}

func (s *Server) sellerLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.SellerLogout(r.Context(), s.sessions.Token(r, auth.KindSeller)); err != nil {
		writeErr(w, r, err)
		return
	}
	s.sessions.ClearCookie(w, auth.KindSeller)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) sellerConsignments(w http.ResponseWriter, r *http.Request) {
	sess := auth.FromContext(r.Context())

	cs, err := s.svc.SellerConsignments(r.Context(), sess.Phone)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cs)
}
