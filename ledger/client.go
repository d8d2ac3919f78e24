package ledger

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// RPCClient the subset of the Solana RPC API used by the writer; *rpc.Client implements it
type RPCClient interface {
	GetLatestBlockhash(
		ctx context.Context, commitment rpc.CommitmentType,
	) (*rpc.GetLatestBlockhashResult, error)

	SendTransaction(ctx context.Context, transaction *solana.Transaction) (solana.Signature, error)

	GetSignatureStatuses(
		ctx context.Context, searchTransactionHistory bool, transactionSignatures ...solana.Signature,
	) (*rpc.GetSignatureStatusesResult, error)

	GetBalance(
		ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType,
	) (*rpc.GetBalanceResult, error)
}

// DevnetRPCEndpoint public devnet RPC endpoint
const DevnetRPCEndpoint = "https://api.devnet.solana.com"

// NewRPCClient define a JSON RPC client for an endpoint
func NewRPCClient(endpoint string) RPCClient {
	return rpc.New(endpoint)
}

var _ RPCClient = (*rpc.Client)(nil)
