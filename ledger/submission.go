package ledger

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrLedgerWriteFailed the best-effort ledger write did not reach the wanted commitment
var ErrLedgerWriteFailed = errors.New("ledger write failed")

// OutcomeStatusENUMType ledger write outcome status
type OutcomeStatusENUMType string

const (
	// OutcomeStatusConfirmed the transaction reached the wanted commitment
	OutcomeStatusConfirmed OutcomeStatusENUMType = "CONFIRMED"
	// OutcomeStatusFailed the write failed at some stage
	OutcomeStatusFailed OutcomeStatusENUMType = "FAILED"
	// OutcomeStatusCancelled the write was cancelled before finishing
	OutcomeStatusCancelled OutcomeStatusENUMType = "CANCELLED"
)

// StageENUMType ledger write stage
type StageENUMType string

const (
	// StagePayload serializing the document
	StagePayload StageENUMType = "PAYLOAD"
	// StageBlockhash fetching a recent blockhash
	StageBlockhash StageENUMType = "BLOCKHASH"
	// StageSign building and signing the transaction
	StageSign StageENUMType = "SIGN"
	// StageSend submitting the transaction
	StageSend StageENUMType = "SEND"
	// StageConfirm waiting for the commitment
	StageConfirm StageENUMType = "CONFIRM"
)

// Outcome result of one ledger write
type Outcome struct {
	// DocumentID the document written
	DocumentID string `json:"document_id"`
	// Signature transaction signature, once the transaction was sent
	Signature string `json:"signature,omitempty"`
	// Status final status
	Status OutcomeStatusENUMType `json:"status"`
	// Stage the last stage reached
	Stage StageENUMType `json:"stage"`
	// Err the failure, wrapping ErrLedgerWriteFailed
	Err error `json:"-"`
	// Error text of Err
	Error string `json:"error,omitempty"`
	// StartedAt when the write started
	StartedAt time.Time `json:"started_at"`
	// FinishedAt when the write finished
	FinishedAt time.Time `json:"finished_at"`
}

// Submission handle to one asynchronous ledger write
type Submission struct {
	documentID string
	cancel     context.CancelFunc
	done       chan struct{}

	lock    sync.Mutex
	outcome *Outcome
}

// newSubmission define a pending submission
func newSubmission(documentID string, cancel context.CancelFunc) *Submission {
	return &Submission{documentID: documentID, cancel: cancel, done: make(chan struct{})}
}

// finish record the outcome and release waiters
func (s *Submission) finish(outcome Outcome) {
	s.lock.Lock()
	s.outcome = &outcome
	s.lock.Unlock()
	s.cancel()
	close(s.done)
}

// DocumentID the document being written
func (s *Submission) DocumentID() string {
	return s.documentID
}

// Done closed once the outcome is known
func (s *Submission) Done() <-chan struct{} {
	return s.done
}

// Cancel stop the write; a write already finished is unaffected
func (s *Submission) Cancel() {
	s.cancel()
}

// Outcome the outcome, and whether the write has finished
func (s *Submission) Outcome() (Outcome, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.outcome == nil {
		return Outcome{}, false
	}
	return *s.outcome, true
}

/*
Wait block until the write finishes

	@param ctx context.Context - wait context; it does not cancel the write
	@returns the outcome, or the context error if the context ends first
*/
func (s *Submission) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-s.done:
		outcome, _ := s.Outcome()
		return outcome, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}
