package domain

import "time"

// Partner is a trading partner that exchanges pallets with the company.
type Partner struct {
	ID        string
	Name      string
	CreatedAt time.Time
	Accounts  []*Account
}

// Account is a pallet account owned by a partner. Write paths always book
// against the partner's first account.
type Account struct {
	ID        string
	PartnerID string
	CreatedAt time.Time
}

// DefaultAccount returns the oldest account of the partner, or ErrNoAccount.
func (p *Partner) DefaultAccount() (*Account, error) {
	if len(p.Accounts) == 0 {
		return nil, ErrNoAccount
	}

	first := p.Accounts[0]
	for _, a := range p.Accounts[1:] {
		if a.CreatedAt.Before(first.CreatedAt) {
			first = a
		}
	}
	return first, nil
}

// AccountIDs returns the ids of all accounts of the partner.
func (p *Partner) AccountIDs() []string {
	ids := make([]string, 0, len(p.Accounts))
	for _, a := range p.Accounts {
		ids = append(ids, a.ID)
	}
	return ids
}

// PartnerSummary is a partner row of the overview list with its current balance.
type PartnerSummary struct {
	Partner *Partner
	Balance Quantities
}

// PartnerFilter selects partners for the overview list.
type PartnerFilter struct {
	// Query matches a case-insensitive substring of the name.
	Query  string
	Limit  int
	Offset int
}
