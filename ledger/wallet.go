package ledger

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Wallet signing identity of the ledger writes
type Wallet interface {
	// PublicKey the wallet public key; its base58 form is the document owner identity
	PublicKey() solana.PublicKey

	/*
		SignTransaction add the wallet signature to a transaction

			@param ctx context.Context - execution context
			@param tx *solana.Transaction - the transaction
	*/
	SignTransaction(ctx context.Context, tx *solana.Transaction) error
}

// KeypairWallet Wallet signing with a local private key
type KeypairWallet struct {
	key solana.PrivateKey
}

/*
NewKeypairWallet define a wallet from a private key

	@param key solana.PrivateKey - the private key
	@returns wallet instance
*/
func NewKeypairWallet(key solana.PrivateKey) (*KeypairWallet, error) {
	if len(key) != 64 {
		return nil, fmt.Errorf("private key must be 64 bytes, got %d", len(key))
	}
	return &KeypairWallet{key: key}, nil
}

/*
NewKeypairWalletFromBase58 define a wallet from a base58 encoded private key

	@param encoded string - the base58 private key
	@returns wallet instance
*/
func NewKeypairWalletFromBase58(encoded string) (*KeypairWallet, error) {
	key, err := solana.PrivateKeyFromBase58(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key [%w]", err)
	}
	return NewKeypairWallet(key)
}

// PublicKey the wallet public key
func (w *KeypairWallet) PublicKey() solana.PublicKey {
	return w.key.PublicKey()
}

/*
SignTransaction add the wallet signature to a transaction

	@param ctx context.Context - execution context
	@param tx *solana.Transaction - the transaction
*/
func (w *KeypairWallet) SignTransaction(_ context.Context, tx *solana.Transaction) error {
	self := w.key.PublicKey()
	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(self) {
			return &w.key
		}
		return nil
	}); err != nil {
		return fmt.Errorf("failed to sign transaction [%w]", err)
	}
	return nil
}
