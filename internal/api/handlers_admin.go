package api

import (
	"net/http"

	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/auth"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/service"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/validation"
)

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	req := service.LoginRequest{}
	if err := validation.DecodeAndValidate(w, r, &req); err != nil {
		writeErr(w, r, err)
		return
	}

	token, user, err := s.svc.Login(r.Context(), req)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	s.sessions.SetCookie(w, auth.KindAdmin, token)
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Logout(r.Context(), s.sessions.Token(r, auth.KindAdmin)); err != nil {
		writeErr(w, r, err)
		return
	}
	s.sessions.ClearCookie(w, auth.KindAdmin)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	sess := auth.FromContext(r.Context())

	user, err := s.svc.Me(r.Context(), sess.UserID)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.svc.ListUsers(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	req := service.UserRequest{}
	if err := validation.DecodeAndValidate(w, r, &req); err != nil {
		writeErr(w, r, err)
		return
	}

	user, err := s.svc.CreateUser(r.Context(), req)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeErr(w, r, err)
		return
	}
	req := service.UserUpdate{}
	if err := validation.DecodeAndValidate(w, r, &req); err != nil {
		writeErr(w, r, err)
		return
	}

	user, err := s.svc.UpdateUser(r.Context(), id, req, auth.FromContext(r.Context()).UserID)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) settings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.svc.Settings(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) updateSettings(w http.ResponseWriter, r *http.Request) {
	values := map[string]string{}
	if err := validation.Decode(w, r, &values); err != nil {
		writeErr(w, r, err)
		return
	}
	if len(values) == 0 {
		writeErr(w, r, validation.FieldError("body", "must set at least one setting"))
		return
	}

	settings, err := s.svc.UpdateSettings(r.Context(), values)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.Dashboard(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// systemCheck answers 200 even when checks fail; the report carries the verdict
func (s *Server) systemCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.SystemCheck(r.Context()))
}
