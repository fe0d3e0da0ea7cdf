package domain

// =============================================================================
// Dispatch Outcomes
// =============================================================================

// DispatchOutcome describes how an inquiry's emails were handled.
type DispatchOutcome string

const (
	// DispatchSent means both email documents were delivered to the
	// mail transport.
	DispatchSent DispatchOutcome = "sent"

	// DispatchLogged means email is not configured and the inquiry was
	// written to the application log instead.
	DispatchLogged DispatchOutcome = "logged"

	// DispatchFailed means the mail transport rejected the send. The
	// inquiry itself was still accepted.
	DispatchFailed DispatchOutcome = "failed"
)

// Receipt is the result of a successfully accepted inquiry.
// The message is customer-facing and reflects the dispatch outcome.
type Receipt struct {
	Outcome DispatchOutcome
	Message string
}

// =============================================================================
// Media Constants
// =============================================================================

const (
	// ThumbnailMaxWidth is the maximum width for gallery thumbnails.
	ThumbnailMaxWidth = 480

	// ThumbnailMaxHeight is the maximum height for gallery thumbnails.
	ThumbnailMaxHeight = 480

	// ThumbnailJPEGQuality is the JPEG encoding quality for thumbnails.
	ThumbnailJPEGQuality = 85
)
