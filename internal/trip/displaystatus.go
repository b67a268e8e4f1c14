package trip

const (
	DisplayCancelled  = "cancelled"
	DisplayConfirmed  = "confirmed"
	DisplayAlmostFull = "almost_full"
	DisplayForming    = "forming"
)

// DisplayStatus derives the UI-facing status from the persisted status and
// the recomputed aggregate. The order is a deliberate tie-break:
// cancellation always wins, a trip at quorum counts as confirmed even if
// the persisted status lags by one recomputation, and "almost_full" is an
// urgency hint layered on top of forming only.
func DisplayStatus(status string, currentParticipants, minRequired, spotsRemaining int) string {
	switch {
	case status == StatusCancelled:
		return DisplayCancelled
	case status == StatusConfirmed:
		return DisplayConfirmed
	case currentParticipants >= minRequired:
		return DisplayConfirmed
	case spotsRemaining <= 2:
		return DisplayAlmostFull
	default:
		return DisplayForming
	}
}
