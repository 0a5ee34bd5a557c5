package api

import (
	"net/http"

	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/service"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/validation"
)

func (s *Server) listVehicles(w http.ResponseWriter, r *http.Request) {
	vq, page, err := vehicleQuery(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}

	vehicles, err := s.svc.ListVehicles(r.Context(), vq, page)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, vehicles)
}

func (s *Server) getVehicle(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeErr(w, r, err)
		return
	}

	v, err := s.svc.GetVehicle(r.Context(), id)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) createVehicle(w http.ResponseWriter, r *http.Request) {
	req := service.VehicleRequest{}
	if err := validation.DecodeAndValidate(w, r, &req); err != nil {
		writeErr(w, r, err)
		return
	}

	v, err := s.svc.CreateVehicle(r.Context(), req)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (s *Server) updateVehicle(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeErr(w, r, err)
		return
	}
	req := service.VehicleRequest{}
	if err := validation.DecodeAndValidate(w, r, &req); err != nil {
		writeErr(w, r, err)
		return
	}

	v, err := s.svc.UpdateVehicle(r.Context(), id, req)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) changeVehicleStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeErr(w, r, err)
		return
	}
	req := service.VehicleStatusRequest{}
	if err := validation.DecodeAndValidate(w, r, &req); err != nil {
		writeErr(w, r, err)
		return
	}

	v, err := s.svc.ChangeVehicleStatus(r.Context(), id, req)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) deleteVehicle(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeErr(w, r, err)
		return
	}

	if err := s.svc.DeleteVehicle(r.Context(), id); err != nil {
		writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
