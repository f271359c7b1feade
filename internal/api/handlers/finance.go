package handlers

import (
	"net/http"

	"cargo-logistics-service/internal/api/dto"
	"cargo-logistics-service/internal/domain"
	"cargo-logistics-service/internal/services"
)

// FinanceHandler serves income and expense entries. The typed routes
// (/expenses, /income) reuse it with the type fixed.
type FinanceHandler struct {
	Finance *services.FinanceService
}

func (h *FinanceHandler) list(w http.ResponseWriter, r *http.Request, typ domain.TransactionType) {
	lp, err := listParams(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	from, until, err := queryRange(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	q := r.URL.Query()
	if typ == "" {
		typ = domain.TransactionType(q.Get("type"))
	}
	page, err := h.Finance.List(r.Context(), domain.TransactionFilter{
		ListParams: lp,
		Type:       typ,
		Category:   q.Get("category"),
		From:       from,
		To:         until,
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewList(page, dto.NewTransaction))
}

func (h *FinanceHandler) create(w http.ResponseWriter, r *http.Request, typ domain.TransactionType) {
	var req dto.TransactionRequest
	if !decode(w, r, &req) {
		return
	}
	t := req.Domain()
	if typ != "" {
		t.Type = typ
	}
	t.CreatedBy = PrincipalFrom(r.Context()).UserID
	if err := h.Finance.Create(r.Context(), t); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, dto.NewTransaction(*t))
}

func (h *FinanceHandler) List(w http.ResponseWriter, r *http.Request)   { h.list(w, r, "") }
func (h *FinanceHandler) Create(w http.ResponseWriter, r *http.Request) { h.create(w, r, "") }

// Typed returns list and create handlers bound to one transaction type.
func (h *FinanceHandler) Typed(typ domain.TransactionType) (list, create http.HandlerFunc) {
	list = func(w http.ResponseWriter, r *http.Request) { h.list(w, r, typ) }
	create = func(w http.ResponseWriter, r *http.Request) { h.create(w, r, typ) }
	return list, create
}

func (h *FinanceHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, err := h.Finance.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewTransaction(*t))
}

func (h *FinanceHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.TransactionRequest
	if !decode(w, r, &req) {
		return
	}
	t := req.Domain()
	if err := h.Finance.Update(r.Context(), r.PathValue("id"), t); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewTransaction(*t))
}

func (h *FinanceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Finance.Delete(r.Context(), r.PathValue("id")); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Summary covers the inclusive from..to range, defaulting to this year.
func (h *FinanceHandler) Summary(w http.ResponseWriter, r *http.Request) {
	from, err := queryDate(r, "from")
	if err != nil {
		fail(w, r, err)
		return
	}
	to, err := queryDate(r, "to")
	if err != nil {
		fail(w, r, err)
		return
	}
	sum, err := h.Finance.Summary(r.Context(), from, to)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewFinancialSummary(sum))
}
