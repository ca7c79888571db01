package domain

// PickupResult is the answer to "may this rider attach this tag now?".
// Err is nil when Valid is true; otherwise it is one of *TagNotFoundError,
// *TagNotUsableError or *WrongRiderError.
type PickupResult struct {
	TagID string
	Valid bool
	Err   error
}

// CheckPickup applies the pickup checks to a tag that was found in the store.
// presentingRider may be empty, in which case the rider check is skipped.
func CheckPickup(tag Tag, presentingRider string) PickupResult {
	if tag.Status != StatusIssued {
		return PickupResult{TagID: tag.ID, Err: &TagNotUsableError{TagID: tag.ID, Status: tag.Status}}
	}
	if presentingRider != "" && tag.IssuedTo != presentingRider {
		return PickupResult{TagID: tag.ID, Err: &WrongRiderError{TagID: tag.ID, IssuedTo: tag.IssuedTo, Presenter: presentingRider}}
	}
	return PickupResult{TagID: tag.ID, Valid: true}
}
