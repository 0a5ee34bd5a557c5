package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/service"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/validation"
)

func (s *Server) conversations(w http.ResponseWriter, r *http.Request) {
	convs, err := s.svc.Conversations(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, convs)
}

func (s *Server) conversation(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r)
	page := q.page()
	if err := q.err(); err != nil {
		writeErr(w, r, err)
		return
	}

	msgs, err := s.svc.Conversation(r.Context(), mux.Vars(r)["phone"], page)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (s *Server) sendSMS(w http.ResponseWriter, r *http.Request) {
	req := service.SendSMSRequest{}
	if err := validation.DecodeAndValidate(w, r, &req); err != nil {
		writeErr(w, r, err)
		return
	}

	msg, err := s.svc.SendSMS(r.Context(), req, actor(r))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (s *Server) pushHistory(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r)
	page := q.page()
	if err := q.err(); err != nil {
		writeErr(w, r, err)
		return
	}

	history, err := s.svc.PushHistory(r.Context(), page)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *Server) broadcastPush(w http.ResponseWriter, r *http.Request) {
	req := service.BroadcastRequest{}
	if err := validation.DecodeAndValidate(w, r, &req); err != nil {
		writeErr(w, r, err)
		return
	}

	b, err := s.svc.BroadcastPush(r.Context(), req, actor(r))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (s *Server) pushSubscribers(w http.ResponseWriter, r *http.Request) {
	n, err := s.svc.PushSubscriberCount(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"subscribers": n})
}

func (s *Server) notifications(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r)
	unread := q.flag("unread")
	page := q.page()
	if err := q.err(); err != nil {
		writeErr(w, r, err)
		return
	}

	ns, err := s.svc.Notifications(r.Context(), unread, page)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ns)
}

func (s *Server) markRead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeErr(w, r, err)
		return
	}

	n, err := s.svc.MarkNotificationRead(r.Context(), id)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (s *Server) markAllRead(w http.ResponseWriter, r *http.Request) {
	n, err := s.svc.MarkAllNotificationsRead(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"marked": n})
}
