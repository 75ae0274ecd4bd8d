/*
ledger.go - Per-tenant view of the activity log

PURPOSE:
  The Ledger guards appends to the activity log. Balances are always
  computed by replaying activities (TenantBalance); there is no stored
  balance that can drift from the log.

INVARIANTS:
  1. APPEND-ONLY: activities are never edited
  2. ONE RENT CHARGE PER MONTH: a generated rent charge is rejected when the
     tenant already has one for the period (ErrDuplicateRentCharge)

CORRECTIONS:
  A wrong entry is not edited. The landlord records a compensating
  activity (a Payment against a wrong Expense, or an Other with the
  opposite sign) and both stay in the log.
*/
package ledger

import "context"

type Ledger struct {
	Store ActivityStore
}

func NewLedger(store ActivityStore) *Ledger {
	return &Ledger{Store: store}
}

// Append stores the activity. Generated rent is checked against the month
// first, mirroring what stores with a unique index enforce on insert.
func (l *Ledger) Append(ctx context.Context, a Activity) (Activity, error) {
	if a.GeneratedKind == GeneratedAutoRent {
		month, err := l.Store.ListActivities(ctx, a.OwnerID, ActivityFilter{
			TenantID: a.TenantID,
			From:     StartOfMonth(a.Date.Year(), a.Date.Month()),
			To:       EndOfMonth(a.Date.Year(), a.Date.Month()),
		})
		if err != nil {
			return Activity{}, err
		}
		for _, existing := range month {
			if IsRentChargeFor(existing, a.Date) {
				return Activity{}, ErrDuplicateRentCharge
			}
		}
	}
	return l.Store.InsertActivity(ctx, a)
}
