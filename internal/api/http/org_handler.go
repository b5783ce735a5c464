package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"venue-approval-backend/internal/service"
)

type loginRequest struct {
	Name   string `json:"name"`
	Secret string `json:"secret"`
}

type registerRequest struct {
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Secret   string  `json:"secret"`
	ParentID *string `json:"parentId"`
}

type reassignParentRequest struct {
	ParentID *string `json:"parentId"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		Error(w, r, err)
		return
	}
	token, org, err := h.auth.Login(r.Context(), req.Name, req.Secret)
	if err != nil {
		Error(w, r, err)
		return
	}
	OK(w, map[string]interface{}{"token": token, "organization": org})
}

func (h *Handler) RegisterOrganization(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(r, &req); err != nil {
		Error(w, r, err)
		return
	}
	org, err := h.orgs.RegisterOrganization(r.Context(), service.RegisterOrganizationInput{
		Name:     req.Name,
		Email:    req.Email,
		Secret:   req.Secret,
		ParentID: req.ParentID,
	})
	if err != nil {
		Error(w, r, err)
		return
	}
	Created(w, org)
}

func (h *Handler) ListOrganizations(w http.ResponseWriter, r *http.Request) {
	orgs, err := h.orgs.ListOrganizations(r.Context())
	if err != nil {
		Error(w, r, err)
		return
	}
	OK(w, orgs)
}

func (h *Handler) GetOrganization(w http.ResponseWriter, r *http.Request) {
	org, err := h.orgs.GetOrganization(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		Error(w, r, err)
		return
	}
	OK(w, org)
}

func (h *Handler) ReassignParent(w http.ResponseWriter, r *http.Request) {
	var req reassignParentRequest
	if err := decode(r, &req); err != nil {
		Error(w, r, err)
		return
	}
	org, err := h.orgs.ReassignParent(r.Context(), requester(r), mux.Vars(r)["id"], req.ParentID)
	if err != nil {
		Error(w, r, err)
		return
	}
	OK(w, org)
}
