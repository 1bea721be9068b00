package game

import (
	"github.com/shopspring/decimal"
)

// accrueInterest credits one interest tick to SAVINGS and FIXED. CURRENT earns
// nothing.
func accrueInterest(p *PlayerState, rules Rules) {
	for kind, rate := range map[AccountKind]decimal.Decimal{
		AccountSavings: rules.SavingsRate,
		AccountFixed:   rules.FixedRate,
	} {
		acct := p.Accounts[kind]
		interest := acct.Balance.Mul(rate)
		acct.Balance = acct.Balance.Add(interest)
		acct.InterestEarned = acct.InterestEarned.Add(interest)
	}
}

func deposit(p *PlayerState, kind AccountKind, amount decimal.Decimal, day int) (BankReceipt, error) {
	acct, ok := p.Accounts[kind]
	if !ok {
		return BankReceipt{}, ErrInvalidAccount
	}
	if !amount.IsPositive() {
		return BankReceipt{}, ErrInvalidAmount
	}
	if amount.GreaterThan(p.Money) {
		return BankReceipt{}, ErrInsufficientFunds
	}
	p.Money = p.Money.Sub(amount)
	acct.Balance = acct.Balance.Add(amount)
	if kind == AccountFixed {
		acct.LockDay = day
	}
	return BankReceipt{
		Account: kind,
		Amount:  amount,
		Fee:     decimal.Zero,
		Balance: acct.Balance,
		Money:   p.Money,
	}, nil
}

// withdraw debits the full amount from the account and credits amount minus
// fee to money. Early FIXED withdrawal is not refused; it costs a share of the
// interest earned so far. The fee is not capped at the amount, so a withdrawal
// smaller than its fee leaves the player with less money than before.
func withdraw(p *PlayerState, kind AccountKind, amount decimal.Decimal, day int, rules Rules) (BankReceipt, error) {
	acct, ok := p.Accounts[kind]
	if !ok {
		return BankReceipt{}, ErrInvalidAccount
	}
	if !amount.IsPositive() {
		return BankReceipt{}, ErrInvalidAmount
	}
	if amount.GreaterThan(acct.Balance) {
		return BankReceipt{}, ErrInsufficientFunds
	}
	fee, locked := withdrawalFee(acct, kind, day, rules)
	acct.Balance = acct.Balance.Sub(amount)
	p.Money = p.Money.Add(amount.Sub(fee))
	return BankReceipt{
		Account: kind,
		Amount:  amount,
		Fee:     fee,
		Locked:  locked,
		Balance: acct.Balance,
		Money:   p.Money,
	}, nil
}

func withdrawalFee(acct *Account, kind AccountKind, day int, rules Rules) (decimal.Decimal, bool) {
	switch kind {
	case AccountSavings:
		return rules.SavingsFee, false
	case AccountFixed:
		if day-acct.LockDay < rules.FixedLockDays {
			return acct.InterestEarned.Mul(rules.FixedPenalty), true
		}
		return decimal.Zero, false
	default:
		return decimal.Zero, false
	}
}

func bankTotal(p *PlayerState) decimal.Decimal {
	total := decimal.Zero
	for _, acct := range p.Accounts {
		total = total.Add(acct.Balance)
	}
	return total
}
