package ledger

import (
	"context"

	"github.com/alwitt/goutils"
	"github.com/apex/log"
)

// OutcomeSink receiver of ledger write outcomes
type OutcomeSink interface {
	/*
		Publish report one outcome

			@param ctx context.Context - execution context
			@param outcome Outcome - the outcome
	*/
	Publish(ctx context.Context, outcome Outcome) error
}

// SinkFunc adapter from a plain function to OutcomeSink
type SinkFunc func(ctx context.Context, outcome Outcome) error

// Publish report one outcome
func (f SinkFunc) Publish(ctx context.Context, outcome Outcome) error {
	return f(ctx, outcome)
}

// logSink OutcomeSink writing outcomes to the log
type logSink struct {
	goutils.Component
}

// NewLogSink define an OutcomeSink writing outcomes to the log
func NewLogSink() OutcomeSink {
	return &logSink{
		Component: goutils.Component{
			LogTags: log.Fields{"module": "ledger", "component": "outcome-log"},
			LogTagModifiers: []goutils.LogMetadataModifier{
				goutils.ModifyLogMetadataByRestRequestParam,
			},
		},
	}
}

func (s *logSink) Publish(ctx context.Context, outcome Outcome) error {
	entry := log.WithFields(s.GetLogTagsForContext(ctx)).
		WithField("document", outcome.DocumentID).
		WithField("status", outcome.Status).
		WithField("stage", outcome.Stage).
		WithField("elapsed", outcome.FinishedAt.Sub(outcome.StartedAt).String())
	if outcome.Signature != "" {
		entry = entry.WithField("signature", outcome.Signature)
	}
	switch outcome.Status {
	case OutcomeStatusConfirmed:
		entry.Info("Ledger write confirmed")
	case OutcomeStatusCancelled:
		entry.Warn("Ledger write cancelled")
	default:
		entry.WithError(outcome.Err).Error("Ledger write failed")
	}
	return nil
}

// ChannelSink OutcomeSink forwarding outcomes to a channel
//
// Outcomes are dropped when the channel buffer is full.
type ChannelSink struct {
	goutils.Component
	outcomes chan Outcome
}

/*
NewChannelSink define a channel backed OutcomeSink

	@param bufferLen int - channel buffer length
	@returns sink instance
*/
func NewChannelSink(bufferLen int) *ChannelSink {
	return &ChannelSink{
		Component: goutils.Component{
			LogTags: log.Fields{"module": "ledger", "component": "outcome-channel"},
			LogTagModifiers: []goutils.LogMetadataModifier{
				goutils.ModifyLogMetadataByRestRequestParam,
			},
		},
		outcomes: make(chan Outcome, bufferLen),
	}
}

// Outcomes the outcome channel
func (s *ChannelSink) Outcomes() <-chan Outcome {
	return s.outcomes
}

// Publish report one outcome
func (s *ChannelSink) Publish(ctx context.Context, outcome Outcome) error {
	select {
	case s.outcomes <- outcome:
	default:
		log.WithFields(s.GetLogTagsForContext(ctx)).
			WithField("document", outcome.DocumentID).
			Warn("Outcome channel full, dropping outcome")
	}
	return nil
}
