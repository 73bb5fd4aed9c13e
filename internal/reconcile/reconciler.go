// Package reconcile decides whether a freshly extracted candidate duplicates
// an already-stored transaction, so overlapping sync windows never re-import
// the same notification.
package reconcile

import (
	"log/slog"
	"strings"

	"github.com/gastoslab/gastos-tracker/internal/entity"
)

// Reconciler checks candidates against a point-in-time snapshot of a user's
// stored transactions. The snapshot is taken once per sync run, before any
// message is processed.
type Reconciler struct {
	logger *slog.Logger
}

// NewReconciler creates a reconciler with the given logger.
func NewReconciler(logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{logger: logger}
}

// IsDuplicate reports whether cand matches any stored transaction.
//
// Two transactions are the same real-world event when they agree on calendar
// date (time-of-day ignored), amount (exact, after fixed-point
// normalization) and trimmed description. Bank and currency are ignored: the
// same purchase may re-sync under a different account configuration. This is
// a conservative heuristic: it accepts a small false-negative risk (two
// genuine same-day, same-amount, same-description charges merged) to avoid
// re-importing every notification on each overlapping sync.
//
// Ambiguity breaks toward NOT duplicate: a candidate with no usable
// description is always surfaced for human review rather than dropped.
func (r *Reconciler) IsDuplicate(cand *entity.Candidate, stored []entity.Transaction) bool {
	desc := strings.TrimSpace(cand.Description)
	if desc == "" {
		return false
	}
	date := cand.DateOnly()

	for _, txn := range stored {
		if !txn.DateOnly().Equal(date) {
			continue
		}
		if !txn.Amount.Equal(cand.Amount) {
			continue
		}
		if txn.TrimmedDescription() != desc {
			continue
		}
		r.logger.Debug("candidate matches stored transaction",
			"date", date.Format("2006-01-02"),
			"amount", cand.Amount.StringFixed(2),
			"description", desc,
			"stored_id", txn.ID)
		return true
	}
	return false
}

// FilterNew returns the candidates that are not duplicates of stored
// transactions, preserving input order.
func (r *Reconciler) FilterNew(cands []*entity.Candidate, stored []entity.Transaction) []*entity.Candidate {
	out := make([]*entity.Candidate, 0, len(cands))
	for _, c := range cands {
		if r.IsDuplicate(c, stored) {
			continue
		}
		out = append(out, c)
	}
	return out
}
