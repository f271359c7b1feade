package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"cargo-logistics-service/internal/api/dto"
	"cargo-logistics-service/internal/services"
)

type ReportHandler struct {
	Reports *services.ReportService
}

// List filters by report type through the "type" query parameter.
func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	lp, err := listParams(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	if t := r.URL.Query().Get("type"); t != "" {
		lp.Status = t
	}
	page, err := h.Reports.List(r.Context(), lp)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewList(page, dto.NewReportSummary))
}

func (h *ReportHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req dto.ReportRequest
	if !decode(w, r, &req) {
		return
	}
	rep := req.Domain()
	if err := h.Reports.Generate(r.Context(), rep, PrincipalFrom(r.Context()).UserID); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, dto.NewReport(*rep, true))
}

func (h *ReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	rep, err := h.Reports.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewReport(*rep, true))
}

// Download renders the workbook in memory so a failed export still gets a
// JSON error instead of a truncated file.
func (h *ReportHandler) Download(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	name, err := h.Reports.Export(r.Context(), r.PathValue("id"), &buf)
	if err != nil {
		fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", h.Reports.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (h *ReportHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Reports.Delete(r.Context(), r.PathValue("id")); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
