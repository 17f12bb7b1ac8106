package model

import "time"

// VendorScore is the persisted trust score for one (vendor, persona) pair.
// Score decays toward fresh evidence via an exponential blend; History is an
// append-only log of the pre-blend snapshots that produced each update.
type VendorScore struct {
	VendorID       string       `json:"vendor_id"`
	Persona        string       `json:"persona"`
	Score          float64      `json:"score"`
	AggregatedRisk float64      `json:"aggregated_risk"`
	LastUpdated    time.Time    `json:"last_updated"`
	DecayWeight    float64      `json:"decay_weight,omitempty"`
	History        []ScoreEvent `json:"history"`

	// Version supports optimistic concurrency in stores that use
	// compare-and-swap instead of row locks. Zero for a record that has
	// never been persisted.
	Version int64 `json:"-"`
}

// ScoreEvent is one history entry: the fresh (un-blended) score and risk at
// the time of an update.
type ScoreEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Score     float64   `json:"score"`
	Risk      float64   `json:"risk"`
}
