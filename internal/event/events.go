package event

import (
	"github.com/json0755/call-option-token/pkg/quant"
)

// Type defines the type of event.
type Type uint16

const (
	EvIssued Type = iota + 1
	EvExercised
	EvExpired
)

// Event is the interface for all instrument lifecycle notifications.
type Event interface {
	GetSeq() uint64
	GetTs() quant.TimeStamp
	GetType() Type
}

// BaseEvent contains common fields for all events.
type BaseEvent struct {
	Seq uint64          `json:"seq"`
	Ts  quant.TimeStamp `json:"ts"`
}

func (e BaseEvent) GetSeq() uint64         { return e.Seq }
func (e BaseEvent) GetTs() quant.TimeStamp { return e.Ts }

// IssuedEvent records an issuer depositing collateral and minting units.
type IssuedEvent struct {
	BaseEvent
	Issuer     string     `json:"issuer"`
	AmountSats quant.Sats `json:"amount,string"`
}

func (e IssuedEvent) GetType() Type { return EvIssued }

// ExercisedEvent records a holder burning units against escrowed collateral.
type ExercisedEvent struct {
	BaseEvent
	Holder       string     `json:"holder"`
	UnitSats     quant.Sats `json:"units,string"`
	ReleasedSats quant.Sats `json:"released,string"`
	PaidSats     quant.Sats `json:"paid,string"`
}

func (e ExercisedEvent) GetType() Type { return EvExercised }

// ExpiredEvent records the terminal sweep of unclaimed collateral.
type ExpiredEvent struct {
	BaseEvent
	Issuer    string     `json:"issuer"`
	SweptSats quant.Sats `json:"swept,string"`
}

func (e ExpiredEvent) GetType() Type { return EvExpired }
