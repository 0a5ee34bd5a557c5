package pipeline

import (
	"errors"
	"fmt"

	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/store"
)

// ErrInvalidTransition is returned when a status can't move to the one asked for
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrReasonRequired is returned when a consignment is rejected without saying why
var ErrReasonRequired = errors.New("a rejection reason is required")

var consignmentTransitions = map[string][]string{
	store.ConsignmentStatusPending:  {store.ConsignmentStatusApproved, store.ConsignmentStatusRejected},
	store.ConsignmentStatusApproved: {store.ConsignmentStatusListed, store.ConsignmentStatusRejected},
	store.ConsignmentStatusListed:   {store.ConsignmentStatusSold, store.ConsignmentStatusApproved},
	store.ConsignmentStatusSold:     {},
	store.ConsignmentStatusRejected: {},
}

var vehicleTransitions = map[string][]string{
	store.VehicleStatusDraft:     {store.VehicleStatusAvailable, store.VehicleStatusPending},
	store.VehicleStatusAvailable: {store.VehicleStatusPending, store.VehicleStatusSold, store.VehicleStatusDraft},
	store.VehicleStatusPending:   {store.VehicleStatusAvailable, store.VehicleStatusSold},
	store.VehicleStatusSold:      {},
}

// Stages is the board's column order
var Stages = []string{
	store.StageNew,
	store.StageContacted,
	store.StageQualified,
	store.StageNegotiating,
	store.StageSold,
	store.StageLost,
}

// ConsignmentStatuses lists every consignment status in lifecycle order
var ConsignmentStatuses = []string{
	store.ConsignmentStatusPending,
	store.ConsignmentStatusApproved,
	store.ConsignmentStatusListed,
	store.ConsignmentStatusSold,
	store.ConsignmentStatusRejected,
}

// VehicleStatuses lists every inventory status
var VehicleStatuses = []string{
	store.VehicleStatusDraft,
	store.VehicleStatusAvailable,
	store.VehicleStatusPending,
	store.VehicleStatusSold,
}

// PublicVehicleStatuses are the statuses the public catalog shows
var PublicVehicleStatuses = []string{store.VehicleStatusAvailable, store.VehicleStatusPending, store.VehicleStatusSold}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func check(kind string, table map[string][]string, from, to string) error {
	next, ok := table[from]
	if !ok {
		return fmt.Errorf("%w: unknown %s status %q", ErrInvalidTransition, kind, from)
	}
	if _, ok := table[to]; !ok {
		return fmt.Errorf("%w: unknown %s status %q", ErrInvalidTransition, kind, to)
	}
	if !contains(next, to) {
		return fmt.Errorf("%w: %s %s -> %s", ErrInvalidTransition, kind, from, to)
	}
	return nil
}

// ConsignmentTransition checks a consignment status change; rejecting needs a reason
func ConsignmentTransition(from, to, reason string) error {
	if err := check("consignment", consignmentTransitions, from, to); err != nil {
		return err
	}
	if to == store.ConsignmentStatusRejected && reason == "" {
		return ErrReasonRequired
	}
	return nil
}

func VehicleTransition(from, to string) error {
	if from == to {
		return nil
	}
	return check("vehicle", vehicleTransitions, from, to)
}

func ValidStage(stage string) bool {
	return contains(Stages, stage)
}

/*
StageTransition checks a lead move. Open stages move freely (and within their own column);
sold is final, and a lost lead can only be reopened as new or contacted.
*/
func StageTransition(from, to string) error {
	if !ValidStage(from) || !ValidStage(to) {
		return fmt.Errorf("%w: unknown stage %q -> %q", ErrInvalidTransition, from, to)
	}

	switch from {
	case store.StageSold:
		if to != store.StageSold {
			return fmt.Errorf("%w: lead %s -> %s", ErrInvalidTransition, from, to)
		}
	case store.StageLost:
		if to != store.StageLost && to != store.StageNew && to != store.StageContacted {
			return fmt.Errorf("%w: lead %s -> %s", ErrInvalidTransition, from, to)
		}
	}
	return nil
}

// Column is one stage of the board
type Column struct {
	Stage string          `json:"stage"`
	Leads []store.Inquiry `json:"leads"`
	Count int             `json:"count"`
}

// Board groups leads into stage columns in board order, keeping each column's order as given
func Board(leads []store.Inquiry) []Column {
	idx := make(map[string]int, len(Stages))
	cols := make([]Column, len(Stages))
	for i, s := range Stages {
		idx[s] = i
		cols[i] = Column{Stage: s, Leads: []store.Inquiry{}}
	}

	for _, l := range leads {
		i, ok := idx[l.Stage]
		if !ok {
			continue
		}
		cols[i].Leads = append(cols[i].Leads, l)
		cols[i].Count++
	}
	return cols
}
