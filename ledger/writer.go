// Package ledger - best-effort Solana ledger writes of document records
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/alwitt/goutils"
	"github.com/alwitt/notary/models"
	"github.com/apex/log"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/go-playground/validator/v10"
	"github.com/gowebpki/jcs"
)

// DefaultProgramID placeholder program receiving the document instructions
const DefaultProgramID = "11111111111111111111111111111111"

// Writer submits document records to the ledger
type Writer interface {
	/*
		Submit start an asynchronous write of a document

		The write runs detached from ctx; only its log metadata is kept. Use the returned
		handle to wait for or cancel it.

			@param ctx context.Context - execution context
			@param doc models.Document - the document
			@returns the submission handle
	*/
	Submit(ctx context.Context, doc models.Document) *Submission

	/*
		Balance the SOL balance of an owner identity

			@param ctx context.Context - execution context
			@param owner string - base58 public key
			@returns balance in SOL
	*/
	Balance(ctx context.Context, owner string) (float64, error)

	// Signer public key of the wallet signing every write
	Signer() solana.PublicKey
}

// WriterParams ledger writer parameters
type WriterParams struct {
	// Client Solana RPC client
	Client RPCClient `validate:"-"`
	// Wallet signing wallet
	Wallet Wallet `validate:"-"`
	// ProgramID base58 ID of the program receiving the instructions
	ProgramID string `validate:"required"`
	// Commitment commitment a write must reach to be confirmed
	Commitment rpc.CommitmentType `validate:"required,oneof=processed confirmed finalized"`
	// PollInterval interval between signature status checks
	PollInterval time.Duration `validate:"gt=0"`
	// ConfirmTimeout how long to wait for the commitment after sending
	ConfirmTimeout time.Duration `validate:"gt=0"`
	// Sinks receivers of the write outcomes
	Sinks []OutcomeSink `validate:"-"`
}

// solanaWriter implements Writer
type solanaWriter struct {
	goutils.Component
	client         RPCClient
	wallet         Wallet
	programID      solana.PublicKey
	commitment     rpc.CommitmentType
	pollInterval   time.Duration
	confirmTimeout time.Duration
	sinks          []OutcomeSink
}

/*
NewWriter define new Solana ledger writer

	@param params WriterParams - writer parameters
	@returns writer instance
*/
func NewWriter(params WriterParams) (Writer, error) {
	validate := validator.New()
	if err := validate.Struct(&params); err != nil {
		return nil, fmt.Errorf("invalid ledger writer parameters [%w]", err)
	}
	if params.Client == nil {
		return nil, fmt.Errorf("ledger RPC client is not set")
	}
	if params.Wallet == nil {
		return nil, fmt.Errorf("ledger wallet is not set")
	}

	programID, err := solana.PublicKeyFromBase58(params.ProgramID)
	if err != nil {
		return nil, fmt.Errorf("invalid program ID '%s' [%w]", params.ProgramID, err)
	}

	return &solanaWriter{
		Component: goutils.Component{
			LogTags: log.Fields{"module": "ledger", "component": "solana-writer"},
			LogTagModifiers: []goutils.LogMetadataModifier{
				goutils.ModifyLogMetadataByRestRequestParam,
			},
		},
		client:         params.Client,
		wallet:         params.Wallet,
		programID:      programID,
		commitment:     params.Commitment,
		pollInterval:   params.PollInterval,
		confirmTimeout: params.ConfirmTimeout,
		sinks:          params.Sinks,
	}, nil
}

/*
CanonicalPayload the instruction payload of a document: its RFC 8785 canonical JSON form

The passphrase is never part of the payload.

	@param doc models.Document - the document
	@returns the payload
*/
func CanonicalPayload(doc models.Document) ([]byte, error) {
	raw, err := json.Marshal(doc.Redacted())
	if err != nil {
		return nil, fmt.Errorf("failed to serialize document [%w]", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize document [%w]", err)
	}
	return canonical, nil
}

/*
Submit start an asynchronous write of a document

	@param ctx context.Context - execution context
	@param doc models.Document - the document
	@returns the submission handle
*/
func (w *solanaWriter) Submit(ctx context.Context, doc models.Document) *Submission {
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	submission := newSubmission(doc.ID, cancel)

	go func() {
		outcome := w.write(runCtx, doc)
		defer submission.finish(outcome)

		// Sinks still get the outcome of a cancelled write
		sinkCtx := context.WithoutCancel(runCtx)
		for _, sink := range w.sinks {
			if err := sink.Publish(sinkCtx, outcome); err != nil {
				log.WithError(err).
					WithFields(w.GetLogTagsForContext(sinkCtx)).
					WithField("document", doc.ID).
					Error("Outcome sink failed")
			}
		}
	}()

	return submission
}

// write run every stage of one ledger write
func (w *solanaWriter) write(ctx context.Context, doc models.Document) Outcome {
	outcome := Outcome{DocumentID: doc.ID, StartedAt: time.Now().UTC()}

	conclude := func(stage StageENUMType, err error) Outcome {
		outcome.Stage = stage
		outcome.FinishedAt = time.Now().UTC()
		switch {
		case err == nil:
			outcome.Status = OutcomeStatusConfirmed
		case errors.Is(err, context.Canceled) || ctx.Err() != nil:
			outcome.Status = OutcomeStatusCancelled
			outcome.Err = fmt.Errorf("%w: cancelled at %s [%w]", ErrLedgerWriteFailed, stage, err)
		default:
			outcome.Status = OutcomeStatusFailed
			outcome.Err = fmt.Errorf("%w: %s stage [%w]", ErrLedgerWriteFailed, stage, err)
		}
		if outcome.Err != nil {
			outcome.Error = outcome.Err.Error()
		}
		return outcome
	}

	payload, err := CanonicalPayload(doc)
	if err != nil {
		return conclude(StagePayload, err)
	}

	latest, err := w.client.GetLatestBlockhash(ctx, w.commitment)
	if err != nil {
		return conclude(StageBlockhash, err)
	}
	if latest == nil || latest.Value == nil {
		return conclude(StageBlockhash, fmt.Errorf("empty blockhash response"))
	}

	signer := w.wallet.PublicKey()
	instruction := solana.NewInstruction(
		w.programID,
		solana.AccountMetaSlice{solana.NewAccountMeta(signer, true, true)},
		payload,
	)
	tx, err := solana.NewTransaction(
		[]solana.Instruction{instruction},
		latest.Value.Blockhash,
		solana.TransactionPayer(signer),
	)
	if err != nil {
		return conclude(StageSign, fmt.Errorf("failed to build transaction [%w]", err))
	}
	if err := w.wallet.SignTransaction(ctx, tx); err != nil {
		return conclude(StageSign, err)
	}

	signature, err := w.client.SendTransaction(ctx, tx)
	if err != nil {
		return conclude(StageSend, err)
	}
	outcome.Signature = signature.String()

	return conclude(StageConfirm, w.awaitCommitment(ctx, signature))
}

// commitmentRank ordering of the confirmation levels
func commitmentRank(level string) int {
	switch level {
	case string(rpc.ConfirmationStatusProcessed):
		return 1
	case string(rpc.ConfirmationStatusConfirmed):
		return 2
	case string(rpc.ConfirmationStatusFinalized):
		return 3
	}
	return 0
}

// awaitCommitment poll the signature status until it reaches the wanted commitment
func (w *solanaWriter) awaitCommitment(ctx context.Context, signature solana.Signature) error {
	waitCtx, cancel := context.WithTimeout(ctx, w.confirmTimeout)
	defer cancel()

	wanted := commitmentRank(string(w.commitment))
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		statuses, err := w.client.GetSignatureStatuses(waitCtx, false, signature)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.WithError(err).
				WithFields(w.GetLogTagsForContext(ctx)).
				WithField("signature", signature.String()).
				Debug("Signature status query failed")
		} else if statuses != nil && len(statuses.Value) > 0 && statuses.Value[0] != nil {
			status := statuses.Value[0]
			if status.Err != nil {
				return fmt.Errorf("transaction %s failed: %v", signature.String(), status.Err)
			}
			if commitmentRank(string(status.ConfirmationStatus)) >= wanted {
				return nil
			}
		}

		select {
		case <-ticker.C:
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf(
				"transaction %s not %s within %s", signature.String(), w.commitment, w.confirmTimeout,
			)
		}
	}
}

// Signer public key of the wallet signing every write
func (w *solanaWriter) Signer() solana.PublicKey {
	return w.wallet.PublicKey()
}

/*
Balance the SOL balance of an owner identity

	@param ctx context.Context - execution context
	@param owner string - base58 public key
	@returns balance in SOL
*/
func (w *solanaWriter) Balance(ctx context.Context, owner string) (float64, error) {
	account, err := solana.PublicKeyFromBase58(owner)
	if err != nil {
		return 0, fmt.Errorf("invalid owner public key '%s' [%w]", owner, err)
	}
	result, err := w.client.GetBalance(ctx, account, rpc.CommitmentConfirmed)
	if err != nil {
		return 0, fmt.Errorf("failed to query balance of %s [%w]", owner, err)
	}
	return float64(result.Value) / float64(solana.LAMPORTS_PER_SOL), nil
}
