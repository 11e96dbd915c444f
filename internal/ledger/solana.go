package ledger

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"chess_arena/internal/logger"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
)

// Solana is a USDC ledger backed by a Solana JSON-RPC node
type Solana struct {
	client  *rpc.Client
	wallet  solana.PrivateKey
	owner   solana.PublicKey
	mint    solana.PublicKey
	timeout time.Duration
}

// NewSolana creates a ledger client. The private key is base58 encoded.
func NewSolana(endpoint, privateKey, mint string, timeout time.Duration) (*Solana, error) {
	if privateKey == "" {
		return nil, ErrNotConfigured
	}
	wallet, err := solana.PrivateKeyFromBase58(privateKey)
	if err != nil {
		return nil, fmt.Errorf("decode wallet key: %w", err)
	}
	mintKey, err := solana.PublicKeyFromBase58(mint)
	if err != nil {
		return nil, fmt.Errorf("decode mint: %w", err)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Solana{
		client:  rpc.New(endpoint),
		wallet:  wallet,
		owner:   wallet.PublicKey(),
		mint:    mintKey,
		timeout: timeout,
	}, nil
}

func (s *Solana) Address() string { return s.owner.String() }

// Verify loads the transaction and checks the platform wallet's USDC balance
// delta inside it.
func (s *Solana) Verify(ctx context.Context, ref string, minAmount uint64) error {
	sig, err := solana.SignatureFromBase58(ref)
	if err != nil {
		return fmt.Errorf("%w: bad signature: %v", ErrNotFound, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	maxVersion := uint64(0)
	tx, err := s.client.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingBase64,
		Commitment:                     rpc.CommitmentConfirmed,
		MaxSupportedTransactionVersion: &maxVersion,
	})
	if errors.Is(err, rpc.ErrNotFound) || (err == nil && tx == nil) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get transaction: %w", err)
	}
	if tx.Meta == nil {
		return ErrNotFound
	}
	if tx.Meta.Err != nil {
		return fmt.Errorf("%w: %v", ErrFailed, tx.Meta.Err)
	}

	credited := creditedAmount(tx.Meta.PreTokenBalances, tx.Meta.PostTokenBalances, s.owner, s.mint)
	if credited < minAmount {
		return fmt.Errorf("%w: got %s want %s", ErrInsufficient,
			FromMinor(credited, USDCDecimals), FromMinor(minAmount, USDCDecimals))
	}
	return nil
}

// Transfer sends USDC from the platform wallet to the recipient's associated
// token account, creating it when missing, and waits for confirmation.
func (s *Solana) Transfer(ctx context.Context, to string, amount uint64) (string, error) {
	recipient, err := solana.PublicKeyFromBase58(to)
	if err != nil {
		return "", fmt.Errorf("decode recipient: %w", err)
	}
	source, _, err := solana.FindAssociatedTokenAddress(s.owner, s.mint)
	if err != nil {
		return "", fmt.Errorf("derive source account: %w", err)
	}
	dest, _, err := solana.FindAssociatedTokenAddress(recipient, s.mint)
	if err != nil {
		return "", fmt.Errorf("derive recipient account: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout+ConfirmTimeout)
	defer cancel()

	var instructions []solana.Instruction
	if _, err := s.client.GetAccountInfo(ctx, dest); errors.Is(err, rpc.ErrNotFound) {
		instructions = append(instructions,
			associatedtokenaccount.NewCreateInstruction(s.owner, recipient, s.mint).Build())
	} else if err != nil {
		return "", fmt.Errorf("get recipient account: %w", err)
	}
	instructions = append(instructions,
		token.NewTransferInstruction(amount, source, dest, s.owner, nil).Build())

	recent, err := s.client.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return "", fmt.Errorf("get blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(instructions, recent.Value.Blockhash, solana.TransactionPayer(s.owner))
	if err != nil {
		return "", fmt.Errorf("build transaction: %w", err)
	}
	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(s.owner) {
			return &s.wallet
		}
		return nil
	}); err != nil {
		return "", fmt.Errorf("sign transaction: %w", err)
	}

	sig, err := s.client.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return "", fmt.Errorf("send transaction: %w", err)
	}
	logger.Info("ledger transfer sent", "signature", sig.String(), "to", to, "amount", amount)

	if err := s.waitForConfirmation(ctx, sig); err != nil {
		return sig.String(), err
	}
	return sig.String(), nil
}

// waitForConfirmation polls the signature status until it is confirmed
func (s *Solana) waitForConfirmation(ctx context.Context, sig solana.Signature) error {
	deadline := time.Now().Add(ConfirmTimeout)

	for time.Now().Before(deadline) {
		out, err := s.client.GetSignatureStatuses(ctx, false, sig)
		if err != nil {
			return fmt.Errorf("get signature status: %w", err)
		}
		if out != nil && len(out.Value) > 0 && out.Value[0] != nil {
			st := out.Value[0]
			if st.Err != nil {
				return fmt.Errorf("%w: %v", ErrFailed, st.Err)
			}
			if st.ConfirmationStatus == rpc.ConfirmationStatusConfirmed ||
				st.ConfirmationStatus == rpc.ConfirmationStatusFinalized {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(ConfirmPollInterval):
		}
	}

	return fmt.Errorf("transfer %s not confirmed within timeout", sig)
}

// creditedAmount is the increase of owner's balance of mint across the
// transaction, in minor units.
func creditedAmount(pre, post []rpc.TokenBalance, owner, mint solana.PublicKey) uint64 {
	before := sumBalance(pre, owner, mint)
	after := sumBalance(post, owner, mint)
	if after <= before {
		return 0
	}
	return after - before
}

func sumBalance(balances []rpc.TokenBalance, owner, mint solana.PublicKey) uint64 {
	var total uint64
	for _, b := range balances {
		if b.Owner == nil || !b.Owner.Equals(owner) || !b.Mint.Equals(mint) || b.UiTokenAmount == nil {
			continue
		}
		v, err := strconv.ParseUint(b.UiTokenAmount.Amount, 10, 64)
		if err != nil {
			continue
		}
		total += v
	}
	return total
}
