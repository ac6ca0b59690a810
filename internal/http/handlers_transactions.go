package http

import (
	"net/http"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request, ownerID int64) {
	f, err := parseTransactionFilter(r.URL.Query())
	if err != nil {
		writeError(r.Context(), w, err, log.OpList)
		return
	}
	txs, err := s.svc.Transactions.List(r.Context(), ownerID, f)
	if err != nil {
		writeError(r.Context(), w, err, log.OpList)
		return
	}
	NewJSONResponse().Body(txs).Write(w)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request, ownerID int64) {
	id, err := pathID(r, "transaction")
	if err != nil {
		writeError(r.Context(), w, err, log.OpRead)
		return
	}
	tx, err := s.svc.Transactions.Get(r.Context(), ownerID, id)
	if err != nil {
		writeError(r.Context(), w, err, log.OpRead)
		return
	}
	NewJSONResponse().Body(tx).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request, ownerID int64) {
	n, err := parseNewTransaction(r)
	if err != nil {
		writeError(r.Context(), w, err, log.OpCreate)
		return
	}

	tx, err := s.svc.Transactions.Create(r.Context(), ownerID, n)
	if err != nil {
		writeError(r.Context(), w, err, log.OpCreate)
		return
	}
	s.invalidate(ownerID)
	s.events.LogTransactionPosted(r.Context(), ownerID, tx)
	NewJSONResponse().Status(http.StatusCreated).Body(tx).Write(w)
}

func parseNewTransaction(r *http.Request) (core.NewTransaction, error) {
	var n core.NewTransaction
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		return n, err
	}

	accountID, _, err := p.ID("accountId")
	if err != nil {
		return n, err
	}
	n.AccountID = accountID

	if id, ok, err := p.ID("categoryId"); err != nil {
		return n, err
	} else if ok {
		n.CategoryID = &id
	}

	if v := p.Get("date"); v != "" {
		t, _, err := parseDate(v)
		if err != nil {
			return n, core.Validation("invalid date")
		}
		n.Date = t
	}
	if v := p.Get("amount"); v != "" {
		m, err := core.ParseMoney(v)
		if err != nil {
			return n, err
		}
		n.Amount = m
	}
	n.Description = p.Get("description")
	n.Type = core.TransactionType(strings.ToUpper(p.Get("type")))
	return n, nil
}

// handleUpdateTransaction edits description and category. "categoryId": null
// detaches the category.
func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request, ownerID int64) {
	id, err := pathID(r, "transaction")
	if err != nil {
		writeError(r.Context(), w, err, log.OpUpdate)
		return
	}
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		writeError(r.Context(), w, err, log.OpUpdate)
		return
	}

	for _, immutable := range []string{"amount", "accountId", "date", "type"} {
		if p.Has(immutable) {
			writeError(r.Context(), w, core.Validation(immutable+" cannot be changed"), log.OpUpdate)
			return
		}
	}

	var patch core.TransactionPatch
	if p.Has("description") {
		d := p.Get("description")
		patch.Description = &d
	}
	switch {
	case p.IsNull("categoryId"):
		patch.ClearCategory = true
	case p.Has("categoryId"):
		cid, _, err := p.ID("categoryId")
		if err != nil {
			writeError(r.Context(), w, err, log.OpUpdate)
			return
		}
		patch.CategoryID = &cid
	}

	tx, err := s.svc.Transactions.UpdateMetadata(r.Context(), ownerID, id, patch)
	if err != nil {
		writeError(r.Context(), w, err, log.OpUpdate)
		return
	}
	s.invalidate(ownerID)
	NewJSONResponse().Body(tx).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request, ownerID int64) {
	id, err := pathID(r, "transaction")
	if err != nil {
		writeError(r.Context(), w, err, log.OpDelete)
		return
	}
	if err := s.svc.Transactions.Delete(r.Context(), ownerID, id); err != nil {
		writeError(r.Context(), w, err, log.OpDelete)
		return
	}
	s.invalidate(ownerID)
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request, ownerID int64) {
	if sum, ok := s.summaries.Get(ownerID); ok {
		NewJSONResponse().Header("X-Cache", "HIT").Body(sum).Write(w)
		return
	}

	sum, err := s.svc.Transactions.Summary(r.Context(), ownerID)
	if err != nil {
		writeError(r.Context(), w, err, log.OpRead)
		return
	}
	s.summaries.Set(ownerID, sum)
	NewJSONResponse().Header("X-Cache", "MISS").Body(sum).Write(w)
}
