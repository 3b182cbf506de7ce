package exchange

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

// Vault is the engine's internal ledger of free and escrowed balances per
// (account, token). Deposit and Withdraw are the external value boundary;
// every other move is internal and validated before any mutation, so a
// settlement sequence either applies whole or not at all.
type Vault struct {
	mu     sync.RWMutex
	free   map[string]map[string]decimal.Decimal
	escrow map[string]map[string]decimal.Decimal
}

func NewVault() *Vault {
	return &Vault{
		free:   make(map[string]map[string]decimal.Decimal),
		escrow: make(map[string]map[string]decimal.Decimal),
	}
}

func get(m map[string]map[string]decimal.Decimal, account, token string) decimal.Decimal {
	if tokens, ok := m[account]; ok {
		return tokens[token]
	}
	return decimal.Zero
}

func add(m map[string]map[string]decimal.Decimal, account, token string, amount decimal.Decimal) {
	tokens, ok := m[account]
	if !ok {
		tokens = make(map[string]decimal.Decimal)
		m[account] = tokens
	}
	tokens[token] = tokens[token].Add(amount)
}

// Deposit credits external funds to an account's free balance.
func (v *Vault) Deposit(account, token string, amount decimal.Decimal) error {
	if account == "" || token == "" {
		return ErrInvalidAccount
	}
	if !amount.IsPositive() {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	add(v.free, account, token, amount)
	return nil
}

// Withdraw releases free balance back out of the engine.
func (v *Vault) Withdraw(account, token string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if have := get(v.free, account, token); have.LessThan(amount) {
		return fmt.Errorf("%w: have %s, want %s %s", ErrInsufficientBalance, have, amount, token)
	}
	add(v.free, account, token, amount.Neg())
	return nil
}

func (v *Vault) Balance(account, token string) decimal.Decimal {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return get(v.free, account, token)
}

func (v *Vault) Escrowed(account, token string) decimal.Decimal {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return get(v.escrow, account, token)
}

// Escrow moves free balance under the engine's exclusive ownership.
func (v *Vault) Escrow(account, token string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if have := get(v.free, account, token); have.LessThan(amount) {
		return fmt.Errorf("%w: have %s, want %s %s", ErrInsufficientBalance, have, amount, token)
	}
	add(v.free, account, token, amount.Neg())
	add(v.escrow, account, token, amount)
	return nil
}

// Release returns escrowed balance to its owner's free balance.
func (v *Vault) Release(account, token string, amount decimal.Decimal) error {
	if amount.IsZero() {
		return nil
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if have := get(v.escrow, account, token); have.LessThan(amount) {
		return fmt.Errorf("%w: have %s, want %s %s", ErrInsufficientEscrow, have, amount, token)
	}
	add(v.escrow, account, token, amount.Neg())
	add(v.free, account, token, amount)
	return nil
}

// SettleEscrow pays escrowed balance out to another account.
func (v *Vault) SettleEscrow(from, to, token string, amount decimal.Decimal) error {
	if amount.IsZero() {
		return nil
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if have := get(v.escrow, from, token); have.LessThan(amount) {
		return fmt.Errorf("%w: have %s, want %s %s", ErrInsufficientEscrow, have, amount, token)
	}
	add(v.escrow, from, token, amount.Neg())
	add(v.free, to, token, amount)
	return nil
}

// Transfer moves free balance between accounts.
func (v *Vault) Transfer(from, to, token string, amount decimal.Decimal) error {
	if amount.IsZero() {
		return nil
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if have := get(v.free, from, token); have.LessThan(amount) {
		return fmt.Errorf("%w: have %s, want %s %s", ErrInsufficientBalance, have, amount, token)
	}
	add(v.free, from, token, amount.Neg())
	add(v.free, to, token, amount)
	return nil
}

// TotalOf sums free plus escrowed holdings of a token across all accounts.
// Trades move value around but this total only changes on deposit/withdraw.
func (v *Vault) TotalOf(token string) decimal.Decimal {
	v.mu.RLock()
	defer v.mu.RUnlock()
	total := decimal.Zero
	for _, tokens := range v.free {
		total = total.Add(tokens[token])
	}
	for _, tokens := range v.escrow {
		total = total.Add(tokens[token])
	}
	return total
}
