package domain

import "time"

// AssetStatus enumerates operational states for monitored assets.
type AssetStatus string

const (
	AssetStatusOperational    AssetStatus = "OPERATIONAL"
	AssetStatusStandby        AssetStatus = "STANDBY"
	AssetStatusInMaintenance  AssetStatus = "IN_MAINTENANCE"
	AssetStatusBreakdown      AssetStatus = "BREAKDOWN"
	AssetStatusDecommissioned AssetStatus = "DECOMMISSIONED"
)

// Asset models a monitored facility asset (chiller, elevator, pump, ...).
type Asset struct {
	ID              string
	Tag             string
	Name            string
	Category        string
	Building        string
	Location        string
	Status          AssetStatus
	StatusChangedAt time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// AssetStatusChange is the ephemeral record of one status transition,
// consumed once by the reaction rule.
type AssetStatusChange struct {
	AssetID        string
	AssetTag       string
	AssetName      string
	Building       string
	Location       string
	PreviousStatus AssetStatus
	NewStatus      AssetStatus
	OccurredAt     time.Time
}
