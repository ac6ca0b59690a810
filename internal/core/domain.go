package core

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	Checking   AccountType = "CHECKING"
	Savings    AccountType = "SAVINGS"
	Cash       AccountType = "CASH"
	CreditCard AccountType = "CREDIT_CARD"

	Income  TransactionType = "INCOME"
	Expense TransactionType = "EXPENSE"

	Active   AccountState = "active"
	Archived AccountState = "archived"

	MaxNameLength        = 100
	MaxDescriptionLength = 200
	MinPasswordLength    = 6
)

type (
	AccountType     string
	TransactionType string
	AccountState    string

	User struct {
		ID           int64     `json:"id"`
		Name         string    `json:"name"`
		Email        string    `json:"email"`
		PasswordHash string    `json:"-"`
		CreatedAt    time.Time `json:"createdAt"`
	}

	Account struct {
		ID        int64        `json:"id"`
		OwnerID   int64        `json:"userId"`
		Name      string       `json:"name"`
		Type      AccountType  `json:"type"`
		Balance   Money        `json:"balance"`
		State     AccountState `json:"state"`
		CreatedAt time.Time    `json:"createdAt"`
	}

	Category struct {
		ID        int64           `json:"id"`
		OwnerID   int64           `json:"userId"`
		Name      string          `json:"name"`
		Type      TransactionType `json:"type"`
		CreatedAt time.Time       `json:"createdAt"`
	}

	// AccountRef is the account projection joined onto listed transactions.
	AccountRef struct {
		ID   int64       `json:"id"`
		Name string      `json:"name"`
		Type AccountType `json:"type"`
	}

	CategoryRef struct {
		ID   int64           `json:"id"`
		Name string          `json:"name"`
		Type TransactionType `json:"type"`
	}

	Transaction struct {
		ID          int64           `json:"id"`
		OwnerID     int64           `json:"userId"`
		AccountID   int64           `json:"accountId"`
		CategoryID  *int64          `json:"categoryId"`
		Date        time.Time       `json:"date"`
		Description string          `json:"description,omitempty"`
		Amount      Money           `json:"amount"`
		Type        TransactionType `json:"type"`
		CreatedAt   time.Time       `json:"createdAt"`
		Account     AccountRef      `json:"account"`
		Category    *CategoryRef    `json:"category"`
	}

	NewAccount struct {
		Name           string
		Type           AccountType
		OpeningBalance Money
	}

	// AccountPatch carries the optional fields of an account update.
	AccountPatch struct {
		Name *string
		Type *AccountType
	}

	NewCategory struct {
		Name string
		Type TransactionType
	}

	NewTransaction struct {
		AccountID   int64
		CategoryID  *int64
		Date        time.Time
		Description string
		Amount      Money
		Type        TransactionType
	}

	// TransactionPatch edits metadata only. ClearCategory detaches the category.
	TransactionPatch struct {
		Description   *string
		CategoryID    *int64
		ClearCategory bool
	}

	// TransactionFilter is conjunctive; nil or empty fields match everything.
	// From and To are inclusive.
	TransactionFilter struct {
		From      *time.Time
		To        *time.Time
		AccountID *int64
		Type      TransactionType
	}
)

var (
	ErrInvalidAmount      = Validation("amount must be greater than zero")
	ErrNegativeOpening    = Validation("opening balance cannot be negative")
	ErrEmptyName          = Validation("name is required")
	ErrNameTooLong        = Validation("name too long (max 100 characters)")
	ErrDescriptionTooLong = Validation("description too long (max 200 characters)")
	ErrInvalidAccountType = Validation("invalid account type")
	ErrInvalidTxType      = Validation("invalid transaction type")
	ErrMissingDate        = Validation("date is required")
	ErrMissingAccount     = Validation("account is required")
	ErrEmptyPatch         = Validation("nothing to update")
	ErrInvalidEmail       = Validation("invalid email")
	ErrShortPassword      = Validation("password must be at least 6 characters")
)

// NormalizeName is the comparison key for account and category names.
func NormalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return ErrNameTooLong
	}
	return nil
}

func (t AccountType) Validate() error {
	switch t {
	case Checking, Savings, Cash, CreditCard:
		return nil
	}
	return ErrInvalidAccountType
}

func (t TransactionType) Validate() error {
	switch t {
	case Income, Expense:
		return nil
	}
	return ErrInvalidTxType
}

// Signed returns amount with the sign implied by the transaction type.
func (t TransactionType) Signed(amount Money) Money {
	if t == Expense {
		return amount.Neg()
	}
	return amount
}

func (s AccountState) IsArchived() bool { return s == Archived }

func (a Account) Ref() AccountRef {
	return AccountRef{ID: a.ID, Name: a.Name, Type: a.Type}
}

func (c Category) Ref() CategoryRef {
	return CategoryRef{ID: c.ID, Name: c.Name, Type: c.Type}
}

// SignedAmount is the balance effect of the transaction on its account.
func (t Transaction) SignedAmount() Money {
	return t.Type.Signed(t.Amount)
}

func (a NewAccount) Validate() error {
	if err := ValidateName(a.Name); err != nil {
		return err
	}
	if err := a.Type.Validate(); err != nil {
		return err
	}
	if a.OpeningBalance.Cents < 0 {
		return ErrNegativeOpening
	}
	return nil
}

func (p AccountPatch) Validate() error {
	if p.Name == nil && p.Type == nil {
		return ErrEmptyPatch
	}
	if p.Name != nil {
		if err := ValidateName(*p.Name); err != nil {
			return err
		}
	}
	if p.Type != nil {
		if err := p.Type.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c NewCategory) Validate() error {
	if err := ValidateName(c.Name); err != nil {
		return err
	}
	return c.Type.Validate()
}

func ValidateDescription(s string) error {
	if utf8.RuneCountInString(strings.TrimSpace(s)) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}

func (n NewTransaction) Validate() error {
	if n.AccountID <= 0 {
		return ErrMissingAccount
	}
	if n.Date.IsZero() {
		return ErrMissingDate
	}
	if err := n.Amount.Validate(); err != nil {
		return err
	}
	if err := n.Type.Validate(); err != nil {
		return err
	}
	return ValidateDescription(n.Description)
}

func (p TransactionPatch) Validate() error {
	if p.Description == nil && p.CategoryID == nil && !p.ClearCategory {
		return ErrEmptyPatch
	}
	if p.CategoryID != nil && p.ClearCategory {
		return Validation("categoryId and clearing the category are exclusive")
	}
	if p.Description != nil {
		return ValidateDescription(*p.Description)
	}
	return nil
}

// Matches reports whether tx satisfies every set filter field.
func (f TransactionFilter) Matches(tx Transaction) bool {
	if f.From != nil && tx.Date.Before(*f.From) {
		return false
	}
	if f.To != nil && tx.Date.After(*f.To) {
		return false
	}
	if f.AccountID != nil && tx.AccountID != *f.AccountID {
		return false
	}
	if f.Type != "" && tx.Type != f.Type {
		return false
	}
	return true
}

func (f TransactionFilter) Validate() error {
	if f.Type != "" {
		if err := f.Type.Validate(); err != nil {
			return err
		}
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return Validation("from must not be after to")
	}
	return nil
}

// ValidateCredentials checks registration input.
func ValidateCredentials(name, email, password string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	email = NormalizeEmail(email)
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 || strings.ContainsAny(email, " \t") {
		return ErrInvalidEmail
	}
	if len(password) < MinPasswordLength {
		return ErrShortPassword
	}
	return nil
}
