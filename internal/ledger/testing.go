package ledger

import "github.com/shopspring/decimal"

// SeedAccount is a test helper that installs an account with the given
// balance when using the in-memory ledger.
func SeedAccount(l Ledger, tenantID, accountID string, balance decimal.Decimal) {
	if mem, ok := l.(*inMemoryLedger); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		account := mem.accounts[accountID]
		account.ID = accountID
		account.TenantID = tenantID
		account.Balance = balance
		account.Active = true
		mem.accounts[accountID] = account
	}
}

// Deactivate is a test helper that marks an in-memory account inactive.
func Deactivate(l Ledger, accountID string) {
	if mem, ok := l.(*inMemoryLedger); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		account := mem.accounts[accountID]
		account.Active = false
		mem.accounts[accountID] = account
	}
}
