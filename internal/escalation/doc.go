// Package escalation evaluates escalation rules against open tickets and
// advances each ticket's escalation level at most one step per sweep.
//
// A sweep runs Match, then Evaluator.Fires, then Decide for every open
// ticket. A legal transition is resolved to a recipient by the Resolver,
// committed to the Ledger as a compare-and-set on the ticket's current level,
// and announced to the Notifier. Delivery failures never undo a committed
// transition.
package escalation
