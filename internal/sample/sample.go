// Package sample defines the demonstration targets used by the CLI: a small
// account hierarchy and a free function.
package sample

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/dispatch/pkg/domain"
)

var (
	// ErrNegativeBalance is returned by Account's write operation.
	ErrNegativeBalance = errors.New("balance cannot be negative")
	// ErrInsufficientFunds is returned by Withdraw.
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// Catalog holds one fresh set of demo targets.
type Catalog struct {
	Account *domain.Class
	Savings *domain.Class
	Add     *domain.Function
}

// NewCatalog defines the demo targets. audit becomes the "audit" attribute of
// Account and log the "log" attribute of add, so plans can refer to them by
// name. nil handlers are replaced by no-ops.
func NewCatalog(audit, log domain.Handler) *Catalog {
	if audit == nil {
		audit = noop
	}
	if log == nil {
		log = noop
	}

	account := domain.NewClass("Account",
		domain.WithAttr("audit", audit),
		domain.WithSlot(domain.OpSetAttr, setBalanceChecked),
		domain.WithMethod("Deposit", deposit),
		domain.WithMethod("Withdraw", withdraw),
		domain.WithMethod("Balance", balance),
	)
	savings := domain.NewClass("SavingsAccount",
		domain.WithParent(account),
		domain.WithMethod("AddInterest", addInterest),
	)
	add := domain.NewFunction("add", addInts, domain.WithFunctionAttr("log", log))

	return &Catalog{Account: account, Savings: savings, Add: add}
}

// Targets indexes the catalog by target name.
func (c *Catalog) Targets() map[string]domain.Target {
	return map[string]domain.Target{
		c.Account.Name(): c.Account,
		c.Savings.Name(): c.Savings,
		c.Add.Name():     c.Add,
	}
}

// NewAccount creates an Account instance.
func (c *Catalog) NewAccount(owner string, balance int) *domain.Object {
	return c.Account.New(map[string]any{"owner": owner, "balance": balance})
}

// NewSavings creates a SavingsAccount instance.
func (c *Catalog) NewSavings(owner string, balance int) *domain.Object {
	return c.Savings.New(map[string]any{"owner": owner, "balance": balance})
}

func noop(context.Context, domain.Event) error { return nil }

func setBalanceChecked(ctx context.Context, self *domain.Object, args domain.Args) (any, error) {
	name, _ := args.Arg(0).(string)
	if name == "balance" {
		if v, ok := args.Arg(1).(int); ok && v < 0 {
			return nil, ErrNegativeBalance
		}
	}
	return nil, self.Store(ctx, name, args.Arg(1))
}

func currentBalance(ctx context.Context, self *domain.Object) (int, error) {
	v, err := self.Get(ctx, "balance")
	if err != nil {
		return 0, err
	}
	n, ok := v.(int)
	if !ok {
		return 0, fmt.Errorf("balance is a %T", v)
	}
	return n, nil
}

func amount(args domain.Args) (int, error) {
	n, ok := args.Arg(0).(int)
	if !ok || n <= 0 {
		return 0, fmt.Errorf("invalid amount %v", args.Arg(0))
	}
	return n, nil
}

func deposit(ctx context.Context, self *domain.Object, args domain.Args) (any, error) {
	n, err := amount(args)
	if err != nil {
		return nil, err
	}
	cur, err := currentBalance(ctx, self)
	if err != nil {
		return nil, err
	}
	return cur + n, self.Set(ctx, "balance", cur+n)
}

func withdraw(ctx context.Context, self *domain.Object, args domain.Args) (any, error) {
	n, err := amount(args)
	if err != nil {
		return nil, err
	}
	cur, err := currentBalance(ctx, self)
	if err != nil {
		return nil, err
	}
	if n > cur {
		return nil, fmt.Errorf("withdraw %d from %d: %w", n, cur, ErrInsufficientFunds)
	}
	return cur - n, self.Set(ctx, "balance", cur-n)
}

func balance(ctx context.Context, self *domain.Object, _ domain.Args) (any, error) {
	return currentBalance(ctx, self)
}

func addInterest(ctx context.Context, self *domain.Object, args domain.Args) (any, error) {
	rate, ok := args.Arg(0).(int)
	if !ok {
		return nil, fmt.Errorf("invalid rate %v", args.Arg(0))
	}
	cur, err := currentBalance(ctx, self)
	if err != nil {
		return nil, err
	}
	next := cur + cur*rate/100
	return next, self.Set(ctx, "balance", next)
}

func addInts(_ context.Context, _ *domain.Object, args domain.Args) (any, error) {
	a, okA := args.Arg(0).(int)
	b, okB := args.Arg(1).(int)
	if !okA || !okB {
		return nil, fmt.Errorf("add expects two ints, got %v", args.Positional)
	}
	return a + b, nil
}

// RunScenario exercises every demo target and writes one line per step.
// Expected failures are reported, not returned.
func RunScenario(ctx context.Context, c *Catalog, out io.Writer) error {
	acct := c.NewAccount("ada", 0)
	savings := c.NewSavings("grace", 200)

	steps := []struct {
		name string
		run  func() (any, error)
	}{
		{"Account.Deposit(100)", func() (any, error) { return acct.CallMethod(ctx, "Deposit", domain.Call(100)) }},
		{"Account.Withdraw(30)", func() (any, error) { return acct.CallMethod(ctx, "Withdraw", domain.Call(30)) }},
		{"Account.owner = linus", func() (any, error) { return nil, acct.Set(ctx, "owner", "linus") }},
		{"Account.owner = linus (unchanged)", func() (any, error) { return nil, acct.Set(ctx, "owner", "linus") }},
		{"Account.balance = -1", func() (any, error) { return nil, acct.Set(ctx, "balance", -1) }},
		{"Account.Withdraw(1000)", func() (any, error) { return acct.CallMethod(ctx, "Withdraw", domain.Call(1000)) }},
		{"SavingsAccount.AddInterest(5)", func() (any, error) { return savings.CallMethod(ctx, "AddInterest", domain.Call(5)) }},
		{"add(2, 3)", func() (any, error) { return c.Add.Call(ctx, domain.Call(2, 3)) }},
	}

	for _, s := range steps {
		v, err := s.run()
		if err != nil {
			if _, werr := fmt.Fprintf(out, "%-36s error: %v\n", s.name, err); werr != nil {
				return werr
			}
			continue
		}
		if _, werr := fmt.Fprintf(out, "%-36s -> %v\n", s.name, v); werr != nil {
			return werr
		}
	}
	return nil
}
