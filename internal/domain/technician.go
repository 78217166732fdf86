package domain

import "time"

// TechnicianTrade enumerates maintenance specialities.
type TechnicianTrade string

const (
	TradeGeneral    TechnicianTrade = "GENERAL"
	TradeElectrical TechnicianTrade = "ELECTRICAL"
	TradeHVAC       TechnicianTrade = "HVAC"
	TradePlumbing   TechnicianTrade = "PLUMBING"
)

// Technician models a field responder tickets are assigned to.
type Technician struct {
	ID        string
	Name      string
	Email     string
	Trade     TechnicianTrade
	Building  *string
	OnCall    bool
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
