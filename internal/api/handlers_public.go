package api

import (
	"net/http"
	"strings"

	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/service"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/validation"
)

const maxWebhookBytes = 64 << 10

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func vehicleQuery(r *http.Request) (service.VehicleQuery, service.Page, error) {
	q := newQuery(r)
	vq := service.VehicleQuery{
		Status:   q.str("status"),
		Make:     q.str("make"),
		MinPrice: q.num64("min_price"),
		MaxPrice: q.num64("max_price"),
		MinYear:  q.num("min_year"),
		MaxYear:  q.num("max_year"),
		Featured: q.flag("featured"),
		Search:   q.str("q"),
	}
	page := q.page()
	if err := q.err(); err != nil {
		return vq, page, err
	}
	return vq, page, validation.Struct(vq)
}

func (s *Server) listPublicVehicles(w http.ResponseWriter, r *http.Request) {
	vq, page, err := vehicleQuery(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}

	vehicles, err := s.svc.ListPublicVehicles(r.Context(), vq, page)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, vehicles)
}

func (s *Server) getPublicVehicle(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeErr(w, r, err)
		return
	}

	v, err := s.svc.GetPublicVehicle(r.Context(), id)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) publicSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.svc.PublicSettings(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) consignmentTerms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.ConsignmentTerms(r.Context()))
}

func (s *Server) submitConsignment(w http.ResponseWriter, r *http.Request) {
	req := service.ConsignmentRequest{}
	if err := validation.DecodeAndValidate(w, r, &req); err != nil {
		writeErr(w, r, err)
		return
	}

	c, err := s.svc.SubmitConsignment(r.Context(), req)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"consignment_id": c.ConsignmentID,
		"status":         c.Status,
	})
}

func (s *Server) submitInquiry(w http.ResponseWriter, r *http.Request) {
	req := service.InquiryRequest{}
	if err := validation.DecodeAndValidate(w, r, &req); err != nil {
		writeErr(w, r, err)
		return
	}

	i, err := s.svc.SubmitInquiry(r.Context(), req)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"inquiry_id": i.InquiryID})
}

func (s *Server) submitCreditApplication(w http.ResponseWriter, r *http.Request) {
	req := service.CreditApplicationRequest{}
	if err := validation.DecodeAndValidate(w, r, &req); err != nil {
		writeErr(w, r, err)
		return
	}

	i, err := s.svc.SubmitCreditApplication(r.Context(), req)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"inquiry_id": i.InquiryID})
}

func (s *Server) vapidPublicKey(w http.ResponseWriter, r *http.Request) {
	key, err := s.svc.VAPIDPublicKey()
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"public_key": key})
}

func (s *Server) subscribe(w http.ResponseWriter, r *http.Request) {
	req := service.SubscribeRequest{}
	if err := validation.DecodeAndValidate(w, r, &req); err != nil {
		writeErr(w, r, err)
		return
	}

	sub, err := s.svc.Subscribe(r.Context(), req, r.UserAgent())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"subscription_id": sub.SubscriptionID})
}

func (s *Server) unsubscribe(w http.ResponseWriter, r *http.Request) {
	req := service.UnsubscribeRequest{}
	if err := validation.DecodeAndValidate(w, r, &req); err != nil {
		writeErr(w, r, err)
		return
	}

	if err := s.svc.Unsubscribe(r.Context(), req.Endpoint); err != nil {
		writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// smsWebhook takes inbound texts from the provider, which posts a signed form and expects TwiML back
func (s *Server) smsWebhook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBytes)
	if err := r.ParseForm(); err != nil {
		writeErr(w, r, validation.FieldError("body", "must be a form"))
		return
	}

	params := make(map[string]string, len(r.PostForm))
	for k, v := range r.PostForm {
		if len(v) > 0 {
			params[k] = v[0]
		}
	}

	if !s.svc.ValidSMSWebhook(s.smsWebhookURL(r), params, r.Header.Get("X-Twilio-Signature")) {
		WriteError(r.Context(), w, http.StatusForbidden, "INVALID_SIGNATURE", "webhook signature is invalid", nil)
		return
	}

	_, err := s.svc.ReceiveSMS(r.Context(), service.InboundSMS{
		From: params["From"],
		Body: params["Body"],
		SID:  params["MessageSid"],
	})
	if err != nil {
		writeErr(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Response></Response>`))
}

func (s *Server) smsWebhookURL(r *http.Request) string {
	if s.webhookURL != "" {
		return s.webhookURL
	}
	return strings.TrimRight(s.publicBaseURL, "/") + r.URL.RequestURI()
}
