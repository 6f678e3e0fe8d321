// Package deal implements the deal stage state machine and derived views.
// Everything here is pure: no I/O, no clock reads, no store access. The store
// layer calls into this package immediately before each write so that every
// entry point that can change a deal's stage (board move, field edit, mark as
// won/lost) produces identical history and archival effects.
package deal

import (
	"time"

	"github.com/dealdesk/dealdesk/internal/model"
)

// StageLost is the terminal stage that triggers auto-archival. Moving a deal
// here sets Archived; moving away again never clears it.
const StageLost = "Closed Lost"

// StageWon is the terminal winning stage. It has no archival side effect.
const StageWon = "Closed Won"

// Owner identifies the user a deal is assigned to, with the denormalized
// display fields stored on the deal itself.
type Owner struct {
	ID       string
	Name     string
	PhotoURL string
}

// Patch is an explicit partial update to a deal. All fields are optional;
// nil means "leave unchanged". A Stage change goes through Transition and is
// the only field with side effects (history append, conditional archival).
type Patch struct {
	Title        *string
	Value        *float64
	Company      *string
	Contact      *model.Contact
	Stage        *string
	Notes        *string
	CustomFields *model.FieldValues
	Owner        *Owner
}

// New builds a deal in its initial state: archived false and a single
// synthesized history entry recording the arrival at the initial stage.
func New(orgID string, owner Owner, title, company string, value float64, contact model.Contact, notes, stage string, fields model.FieldValues, now time.Time) *model.Deal {
	return &model.Deal{
		OrganizationID: orgID,
		Title:          title,
		Value:          value,
		Company:        company,
		Contact:        contact,
		Stage:          stage,
		Notes:          notes,
		CustomFields:   fields,
		StageHistory:   model.StageHistory{{From: "", To: stage, Timestamp: now}},
		OwnerID:        owner.ID,
		OwnerName:      owner.Name,
		OwnerPhotoURL:  owner.PhotoURL,
		Archived:       false,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Transition moves d to toStage at the given time. It is the single stage
// change path in the system.
//
// A transition to the stage the deal is already in is a no-op: no history
// entry, no UpdatedAt change, and the caller must not write. Otherwise
// exactly one history entry {from: old, to: new} is appended, and when the
// target is StageLost the deal is archived. Archived is never cleared here,
// including on transitions away from StageLost.
//
// toStage is not validated against the organization's pipeline: stage names
// on deals are display data, and a stage deleted or renamed in the pipeline
// leaves old names behind by design of the data model.
func Transition(d *model.Deal, toStage string, now time.Time) bool {
	if toStage == d.Stage {
		return false
	}
	d.StageHistory = append(d.StageHistory, model.StageChange{
		From:      d.Stage,
		To:        toStage,
		Timestamp: now,
	})
	d.Stage = toStage
	d.UpdatedAt = now
	if toStage == StageLost {
		d.Archived = true
	}
	return true
}

// Apply merges p into d and reports whether anything changed. Stage changes
// are delegated to Transition so the patch path and the board-move path
// cannot diverge. UpdatedAt is bumped only when at least one field changed.
func Apply(d *model.Deal, p Patch, now time.Time) bool {
	changed := false

	if p.Title != nil && *p.Title != d.Title {
		d.Title = *p.Title
		changed = true
	}
	if p.Value != nil && *p.Value != d.Value {
		d.Value = *p.Value
		changed = true
	}
	if p.Company != nil && *p.Company != d.Company {
		d.Company = *p.Company
		changed = true
	}
	if p.Contact != nil && *p.Contact != d.Contact {
		d.Contact = *p.Contact
		changed = true
	}
	if p.Notes != nil && *p.Notes != d.Notes {
		d.Notes = *p.Notes
		changed = true
	}
	if p.CustomFields != nil {
		d.CustomFields = *p.CustomFields
		changed = true
	}
	if p.Owner != nil && p.Owner.ID != "" {
		d.OwnerID = p.Owner.ID
		d.OwnerName = p.Owner.Name
		d.OwnerPhotoURL = p.Owner.PhotoURL
		changed = true
	}
	if p.Stage != nil {
		if Transition(d, *p.Stage, now) {
			changed = true
		}
	}

	if changed {
		d.UpdatedAt = now
	}
	return changed
}
