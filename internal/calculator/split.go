// Package calculator turns a shared expense total into per-person owed
// amounts and summarizes owed vs paid rows into member balances.
//
// All money is decimal with two fractional digits. Whatever the split
// method, the payer's share is computed as the total minus every other
// share, so an Allocation always sums to its total exactly.
package calculator

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

type Method string

const (
	MethodEqual      Method = "equal"
	MethodPercentage Method = "percentage"
	MethodCustom     Method = "custom"
)

const centPlaces = 2

var (
	hundred = decimal.NewFromInt(100)

	ErrNonPositiveTotal     = errors.New("total amount must be positive")
	ErrTooManyDecimals      = errors.New("amount has more than two decimal places")
	ErrPayerRequired        = errors.New("payer is required")
	ErrDuplicateParticipant = errors.New("participant listed more than once")
	ErrUnknownParticipant   = errors.New("share given for someone who is not a selected member")
	ErrInvalidPercentage    = errors.New("percentage must be between 0 and 100")
	ErrPercentageOverflow   = errors.New("percentages add up to more than 100")
	ErrNegativeAmount       = errors.New("custom amount must not be negative")
	ErrSplitExceedsTotal    = errors.New("custom amounts add up to more than the total")
	ErrUnknownMethod        = errors.New("unknown split method")
)

// Input describes one split. Members are the selected participants and
// never include the payer. Percentages is read for MethodPercentage and
// Amounts for MethodCustom; members absent from the map get zero.
type Input struct {
	Total       decimal.Decimal
	PayerID     string
	Members     []string
	Method      Method
	Percentages map[string]decimal.Decimal
	Amounts     map[string]decimal.Decimal
}

// Allocation maps user id to the amount that user owes, payer included.
type Allocation map[string]decimal.Decimal

func (a Allocation) Sum() decimal.Decimal {
	sum := decimal.Zero
	for _, amount := range a {
		sum = sum.Add(amount)
	}
	return sum
}

// Share is one entry of an Allocation in a stable order.
type Share struct {
	UserID string
	Amount decimal.Decimal
}

// Ordered lists the payer first followed by members in the given order, then
// any remaining keys sorted by id.
func (a Allocation) Ordered(payerID string, members []string) []Share {
	shares := make([]Share, 0, len(a))
	seen := make(map[string]struct{}, len(a))
	push := func(id string) {
		if _, ok := seen[id]; ok {
			return
		}
		amount, ok := a[id]
		if !ok {
			return
		}
		seen[id] = struct{}{}
		shares = append(shares, Share{UserID: id, Amount: amount})
	}

	push(payerID)
	for _, id := range members {
		push(id)
	}

	rest := make([]string, 0)
	for id := range a {
		if _, ok := seen[id]; !ok {
			rest = append(rest, id)
		}
	}
	sort.Strings(rest)
	for _, id := range rest {
		push(id)
	}
	return shares
}

func ParseMethod(value string) (Method, error) {
	switch Method(value) {
	case MethodEqual, MethodPercentage, MethodCustom:
		return Method(value), nil
	case "":
		return MethodEqual, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMethod, value)
	}
}

// Calculate computes the owed amount for every member and the payer.
func Calculate(in Input) (Allocation, error) {
	if err := ValidateTotal(in.Total); err != nil {
		return nil, err
	}
	if in.PayerID == "" {
		return nil, ErrPayerRequired
	}
	if err := validateMembers(in.PayerID, in.Members); err != nil {
		return nil, err
	}

	var (
		members Allocation
		err     error
	)
	switch in.Method {
	case MethodEqual, "":
		members = equalShares(in.Total, in.Members)
	case MethodPercentage:
		members, err = percentageShares(in.Total, in.Members, in.Percentages)
	case MethodCustom:
		members, err = customShares(in.Total, in.Members, in.Amounts)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownMethod, in.Method)
	}
	if err != nil {
		return nil, err
	}

	result := make(Allocation, len(members)+1)
	for id, amount := range members {
		result[id] = amount
	}
	result[in.PayerID] = in.Total.Sub(members.Sum())
	return result, nil
}

// ValidateTotal rejects zero, negative and sub-cent totals.
func ValidateTotal(total decimal.Decimal) error {
	if !total.IsPositive() {
		return ErrNonPositiveTotal
	}
	if !hasCents(total) {
		return ErrTooManyDecimals
	}
	return nil
}

func validateMembers(payerID string, members []string) error {
	seen := make(map[string]struct{}, len(members)+1)
	seen[payerID] = struct{}{}
	for _, id := range members {
		if id == "" {
			return ErrUnknownParticipant
		}
		if _, ok := seen[id]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateParticipant, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// equalShares truncates each member share to the cent; the remainder stays
// with the payer.
func equalShares(total decimal.Decimal, members []string) Allocation {
	shares := make(Allocation, len(members))
	if len(members) == 0 {
		return shares
	}
	each := total.Div(decimal.NewFromInt(int64(len(members) + 1))).Truncate(centPlaces)
	for _, id := range members {
		shares[id] = each
	}
	return shares
}

// percentageShares truncates each member share to the cent so the members
// never owe more than their percentages; the leftover cents go to the payer.
func percentageShares(total decimal.Decimal, members []string, percentages map[string]decimal.Decimal) (Allocation, error) {
	if err := checkKeys(members, percentages); err != nil {
		return nil, err
	}

	shares := make(Allocation, len(members))
	sum := decimal.Zero
	for _, id := range members {
		pct := percentages[id]
		if pct.IsNegative() || pct.GreaterThan(hundred) {
			return nil, fmt.Errorf("%w: %s has %s", ErrInvalidPercentage, id, pct.String())
		}
		sum = sum.Add(pct)
		shares[id] = total.Mul(pct).Div(hundred).Truncate(centPlaces)
	}
	if sum.GreaterThan(hundred) {
		return nil, fmt.Errorf("%w: %s", ErrPercentageOverflow, sum.String())
	}
	return shares, nil
}

func customShares(total decimal.Decimal, members []string, amounts map[string]decimal.Decimal) (Allocation, error) {
	if err := checkKeys(members, amounts); err != nil {
		return nil, err
	}

	shares := make(Allocation, len(members))
	sum := decimal.Zero
	for _, id := range members {
		amount := amounts[id]
		if amount.IsNegative() {
			return nil, fmt.Errorf("%w: %s", ErrNegativeAmount, id)
		}
		if !hasCents(amount) {
			return nil, fmt.Errorf("%w: %s", ErrTooManyDecimals, id)
		}
		sum = sum.Add(amount)
		shares[id] = amount
	}
	if sum.GreaterThan(total) {
		return nil, fmt.Errorf("%w: %s > %s", ErrSplitExceedsTotal, sum.StringFixed(centPlaces), total.StringFixed(centPlaces))
	}
	return shares, nil
}

func checkKeys(members []string, values map[string]decimal.Decimal) error {
	if len(values) == 0 {
		return nil
	}
	allowed := make(map[string]struct{}, len(members))
	for _, id := range members {
		allowed[id] = struct{}{}
	}
	for id := range values {
		if _, ok := allowed[id]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownParticipant, id)
		}
	}
	return nil
}

func hasCents(value decimal.Decimal) bool {
	return value.Equal(value.Truncate(centPlaces))
}
