package domain

// ReconciliationResult compares a rider's ledger against a physical count.
// Remaining is Issued - Used - Voided; LOST_SUSPECT tags stay in Remaining
// because nobody has accounted for them yet.
type ReconciliationResult struct {
	RiderID       string `json:"rider_id"`
	Issued        int    `json:"issued"`
	Used          int    `json:"used"`
	Voided        int    `json:"voided"`
	Remaining     int    `json:"remaining"`
	PhysicalCount int    `json:"physical_count"`
	Mismatch      bool   `json:"mismatch"`

	// Diagnostics. They never influence Mismatch.
	LostSuspect int      `json:"lost_suspect"`
	Outstanding []string `json:"outstanding"`
}

// Reconcile is a pure function over a ledger snapshot and the number of tags
// a human physically counted. Same inputs always give the same result.
func Reconcile(riderID string, tags []Tag, physicalCount int) ReconciliationResult {
	res := ReconciliationResult{
		RiderID:       riderID,
		PhysicalCount: physicalCount,
		Outstanding:   []string{},
	}
	for _, t := range tags {
		res.Issued++
		switch t.Status {
		case StatusUsed:
			res.Used++
		case StatusVoid:
			res.Voided++
		case StatusLostSuspect:
			res.LostSuspect++
		case StatusIssued:
			res.Outstanding = append(res.Outstanding, t.ID)
		}
	}
	res.Remaining = res.Issued - res.Used - res.Voided
	res.Mismatch = res.Remaining != physicalCount
	return res
}
