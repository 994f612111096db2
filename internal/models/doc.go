// Package models defines the core domain models for Settlr.
//
// # Model Overview
//
// A restaurant check being split is represented by a Tab aggregate:
//   - Tab: the shared check for one table, owning its items and participants
//   - Item: a single line item on the check, owning the claims made against it
//   - Claim: one participant's assertion of responsibility for part of an item
//   - Participant: a guest (or the host) attached to the tab
//   - Totals: derived check-wide amounts, always recomputed from items and claims
//
// All money is carried in integer cents. Derived fields (claimed amounts,
// owes-to-host, totals, statuses) are never mutated directly; they are
// recomputed by the settlement package whenever a claim or payment changes.
//
// # Ownership
//
// The Tab exclusively owns its Items and Participants. Claims are owned by
// their Item and reference a Participant by ID only; removing a claim never
// removes a participant.
//
// # Design Principles
//
//  1. Integer money: no floating-point currency arithmetic anywhere
//  2. Derived state is a pure function of claims, payments, and tip
//  3. Avoid circular references: use ID strings instead of pointers
package models
