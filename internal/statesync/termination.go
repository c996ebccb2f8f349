package statesync

import (
	"context"

	"github.com/lumenchain/lumen/libs/log"
)

// TerminateStreamWithFeedback reports the given feedback for the
// notification that ended the stream. A failure here is surfaced to the
// caller: a lost termination leaves the streaming service unaware of the
// abandoned stream.
func TerminateStreamWithFeedback(
	ctx context.Context,
	streamingClient StreamingClient,
	logger log.Logger,
	notificationID NotificationID,
	feedback NotificationFeedback,
) error {
	logger.Info("terminating the current data stream",
		"notification_id", notificationID,
		"feedback", feedback.String(),
	)
	return streamingClient.TerminateStreamWithFeedback(ctx, notificationID, feedback)
}

// HandleEndOfStreamOrInvalidPayload terminates the stream for a
// notification arriving where only an end-of-stream marker is valid. The
// stream is always given feedback; if the payload was not the end-of-stream
// marker the caller additionally gets an ErrInvalidPayload, because having
// informed the streaming service does not make the situation non-erroneous.
func HandleEndOfStreamOrInvalidPayload(
	ctx context.Context,
	streamingClient StreamingClient,
	logger log.Logger,
	dataNotification DataNotification,
) error {
	feedback := FeedbackPayloadTypeIsIncorrect
	if _, ok := dataNotification.Payload.(EndOfStream); ok {
		feedback = FeedbackEndOfStream
	}

	if err := TerminateStreamWithFeedback(
		ctx, streamingClient, logger, dataNotification.ID, feedback,
	); err != nil {
		return err
	}

	if feedback != FeedbackEndOfStream {
		return ErrInvalidPayload{Reason: "unexpected payload type"}
	}
	return nil
}
