package ledger_test

import (
	"context"
	"testing"

	"github.com/alwitt/notary/ledger"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
)

func TestKeypairWallet(t *testing.T) {
	assert := assert.New(t)

	key, err := solana.NewRandomPrivateKey()
	assert.Nil(err)

	uut, err := ledger.NewKeypairWalletFromBase58(key.String())
	assert.Nil(err)
	assert.True(key.PublicKey().Equals(uut.PublicKey()))

	_, err = ledger.NewKeypairWallet(solana.PrivateKey{1, 2, 3})
	assert.NotNil(err)
	_, err = ledger.NewKeypairWalletFromBase58("0OIl")
	assert.NotNil(err)

	// The wallet only signs for itself
	program, err := solana.PublicKeyFromBase58(ledger.DefaultProgramID)
	assert.Nil(err)
	tx, err := solana.NewTransaction(
		[]solana.Instruction{solana.NewInstruction(
			program,
			solana.AccountMetaSlice{solana.NewAccountMeta(uut.PublicKey(), true, true)},
			[]byte("payload"),
		)},
		solana.Hash{9},
		solana.TransactionPayer(uut.PublicKey()),
	)
	assert.Nil(err)
	assert.Nil(uut.SignTransaction(context.Background(), tx))
	assert.Len(tx.Signatures, 1)
	assert.Nil(tx.VerifySignatures())

	other, err := solana.NewRandomPrivateKey()
	assert.Nil(err)
	foreign, err := solana.NewTransaction(
		[]solana.Instruction{solana.NewInstruction(
			program,
			solana.AccountMetaSlice{solana.NewAccountMeta(other.PublicKey(), true, true)},
			[]byte("payload"),
		)},
		solana.Hash{9},
		solana.TransactionPayer(other.PublicKey()),
	)
	assert.Nil(err)
	assert.NotNil(uut.SignTransaction(context.Background(), foreign))
}
