package service

import "intranet/internal/models"

// OutcomeClass classifies a single item of a batch operation.
type OutcomeClass string

const (
	OutcomeCreated          OutcomeClass = "created"
	OutcomeAlreadyRequested OutcomeClass = "alreadyRequested"
	OutcomeAlreadyActive    OutcomeClass = "alreadyActive"
	OutcomeNoAccess         OutcomeClass = "noAccess"
	OutcomeFailed           OutcomeClass = "error"
)

// ItemOutcome is the tagged per-item result of a batch operation. Ref is the
// identifier the caller submitted for the item (an application id for
// activation, an entitlement id for revocation). Ticket is set for created and
// alreadyRequested outcomes; Reason is set for failed ones.
type ItemOutcome struct {
	Ref    uint
	Class  OutcomeClass
	Ticket *models.AccessTicket
	Reason string
}

// BatchFailure pairs a submitted identifier with the reason it failed.
type BatchFailure struct {
	Ref    uint   `json:"id"`
	Reason string `json:"reason"`
}

// BatchResult holds the per-item outcomes of one batch call in submission
// order. One item's failure never affects its siblings, so every submitted
// identifier appears in exactly one outcome.
type BatchResult struct {
	Items []ItemOutcome
}

func (r *BatchResult) add(o ItemOutcome) {
	r.Items = append(r.Items, o)
}

// Created returns the tickets created by the batch.
func (r *BatchResult) Created() []*models.AccessTicket {
	var tickets []*models.AccessTicket
	for _, item := range r.Items {
		if item.Class == OutcomeCreated {
			tickets = append(tickets, item.Ticket)
		}
	}
	return tickets
}

// Refs returns the submitted identifiers classified under the given class.
func (r *BatchResult) Refs(class OutcomeClass) []uint {
	var refs []uint
	for _, item := range r.Items {
		if item.Class == class {
			refs = append(refs, item.Ref)
		}
	}
	return refs
}

// Failures returns the failed items with their reasons.
func (r *BatchResult) Failures() []BatchFailure {
	var failures []BatchFailure
	for _, item := range r.Items {
		if item.Class == OutcomeFailed {
			failures = append(failures, BatchFailure{Ref: item.Ref, Reason: item.Reason})
		}
	}
	return failures
}
