package http

import (
	"net/http"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request, ownerID int64) {
	accounts, err := s.svc.Accounts.List(r.Context(), ownerID)
	if err != nil {
		writeError(r.Context(), w, err, log.OpList)
		return
	}
	NewJSONResponse().Body(accounts).Write(w)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request, ownerID int64) {
	id, err := pathID(r, "account")
	if err != nil {
		writeError(r.Context(), w, err, log.OpRead)
		return
	}
	account, err := s.svc.Accounts.Get(r.Context(), ownerID, id)
	if err != nil {
		writeError(r.Context(), w, err, log.OpRead)
		return
	}
	NewJSONResponse().Body(account).Write(w)
}

// handleCreateAccount accepts the opening balance as "openingBalance" or "balance".
func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request, ownerID int64) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		writeError(r.Context(), w, err, log.OpCreate)
		return
	}

	n := core.NewAccount{
		Name: p.Get("name"),
		Type: core.AccountType(strings.ToUpper(p.Get("type"))),
	}
	if v, ok := p.First("openingBalance", "balance"); ok && v != "" {
		m, err := core.ParseMoney(v)
		if err != nil {
			writeError(r.Context(), w, err, log.OpCreate)
			return
		}
		n.OpeningBalance = m
	}

	account, err := s.svc.Accounts.Create(r.Context(), ownerID, n)
	if err != nil {
		writeError(r.Context(), w, err, log.OpCreate)
		return
	}
	s.invalidate(ownerID)
	NewJSONResponse().Status(http.StatusCreated).Body(account).Write(w)
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request, ownerID int64) {
	id, err := pathID(r, "account")
	if err != nil {
		writeError(r.Context(), w, err, log.OpUpdate)
		return
	}
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		writeError(r.Context(), w, err, log.OpUpdate)
		return
	}

	var patch core.AccountPatch
	if p.Has("name") && !p.IsNull("name") {
		name := p.Get("name")
		patch.Name = &name
	}
	if p.Has("type") && !p.IsNull("type") {
		typ := core.AccountType(strings.ToUpper(p.Get("type")))
		patch.Type = &typ
	}

	account, err := s.svc.Accounts.Update(r.Context(), ownerID, id, patch)
	if err != nil {
		writeError(r.Context(), w, err, log.OpUpdate)
		return
	}
	s.invalidate(ownerID)
	NewJSONResponse().Body(account).Write(w)
}

func (s *Server) handleArchiveAccount(w http.ResponseWriter, r *http.Request, ownerID int64) {
	id, err := pathID(r, "account")
	if err != nil {
		writeError(r.Context(), w, err, log.OpArchive)
		return
	}
	if err := s.svc.Accounts.Archive(r.Context(), ownerID, id); err != nil {
		writeError(r.Context(), w, err, log.OpArchive)
		return
	}
	s.invalidate(ownerID)
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request, ownerID int64) {
	categories, err := s.svc.Categories.List(r.Context(), ownerID)
	if err != nil {
		writeError(r.Context(), w, err, log.OpList)
		return
	}
	NewJSONResponse().Body(categories).Write(w)
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request, ownerID int64) {
	id, err := pathID(r, "category")
	if err != nil {
		writeError(r.Context(), w, err, log.OpRead)
		return
	}
	category, err := s.svc.Categories.Get(r.Context(), ownerID, id)
	if err != nil {
		writeError(r.Context(), w, err, log.OpRead)
		return
	}
	NewJSONResponse().Body(category).Write(w)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request, ownerID int64) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		writeError(r.Context(), w, err, log.OpCreate)
		return
	}

	category, err := s.svc.Categories.Create(r.Context(), ownerID, core.NewCategory{
		Name: p.Get("name"),
		Type: core.TransactionType(strings.ToUpper(p.Get("type"))),
	})
	if err != nil {
		writeError(r.Context(), w, err, log.OpCreate)
		return
	}
	s.invalidate(ownerID)
	NewJSONResponse().Status(http.StatusCreated).Body(category).Write(w)
}
