package ledger

import (
	"context"
	"fmt"
	"sync"
)

// TransferRequest is one recorded call to Fake.Transfer.
type TransferRequest struct {
	To     string
	Amount uint64
	Ref    string
}

// Fake is an in-memory ledger for tests and DEV_MODE. Payments must be
// registered with Credit before Verify accepts them.
type Fake struct {
	mu          sync.Mutex
	address     string
	payments    map[string]fakePayment
	transfers   []TransferRequest
	TransferErr error
	VerifyErr   error
}

type fakePayment struct {
	amount uint64
	failed bool
}

func NewFake(address string) *Fake {
	return &Fake{address: address, payments: make(map[string]fakePayment)}
}

func (f *Fake) Address() string { return f.address }

// Credit registers a successful payment of amount under ref.
func (f *Fake) Credit(ref string, amount uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payments[ref] = fakePayment{amount: amount}
}

// Fail registers ref as an on-chain failure.
func (f *Fake) Fail(ref string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payments[ref] = fakePayment{failed: true}
}

func (f *Fake) Verify(_ context.Context, ref string, minAmount uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.VerifyErr != nil {
		return f.VerifyErr
	}
	p, ok := f.payments[ref]
	switch {
	case !ok:
		return ErrNotFound
	case p.failed:
		return ErrFailed
	case p.amount < minAmount:
		return fmt.Errorf("%w: got %s want %s", ErrInsufficient,
			FromMinor(p.amount, USDCDecimals), FromMinor(minAmount, USDCDecimals))
	}
	return nil
}

func (f *Fake) Transfer(_ context.Context, to string, amount uint64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req := TransferRequest{To: to, Amount: amount}
	if f.TransferErr == nil {
		req.Ref = fmt.Sprintf("fake-transfer-%d", len(f.transfers)+1)
	}
	f.transfers = append(f.transfers, req)
	if f.TransferErr != nil {
		return "", f.TransferErr
	}
	return req.Ref, nil
}

// Transfers returns a copy of every transfer attempt so far.
func (f *Fake) Transfers() []TransferRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]TransferRequest, len(f.transfers))
	copy(out, f.transfers)
	return out
}
