package dto

import (
	"time"

	"github.com/spec-kit/facility-ops/internal/domain"
)

// CreateAssetRequest payload.
type CreateAssetRequest struct {
	Tag      string `json:"tag" validate:"required,max=50"`
	Name     string `json:"name" validate:"required,max=200"`
	Category string `json:"category" validate:"max=100"`
	Building string `json:"building" validate:"max=100"`
	Location string `json:"location" validate:"max=200"`
}

// ChangeAssetStatusRequest payload.
type ChangeAssetStatusRequest struct {
	Status domain.AssetStatus `json:"status" validate:"required,oneof=OPERATIONAL STANDBY IN_MAINTENANCE BREAKDOWN DECOMMISSIONED"`
}

// AssetResponse mirrors one asset record.
type AssetResponse struct {
	ID              string             `json:"id"`
	Tag             string             `json:"tag"`
	Name            string             `json:"name"`
	Category        string             `json:"category,omitempty"`
	Building        string             `json:"building,omitempty"`
	Location        string             `json:"location,omitempty"`
	Status          domain.AssetStatus `json:"status"`
	StatusChangedAt time.Time          `json:"status_changed_at"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// AssetStatusChangeResponse reports a transition, including the reference of
// any ticket the reaction rule opened for it.
type AssetStatusChangeResponse struct {
	Asset           AssetResponse `json:"asset"`
	TicketReference *string       `json:"ticket_reference,omitempty"`
	TicketID        *string       `json:"ticket_id,omitempty"`
}

// NewAssetResponse maps an asset.
func NewAssetResponse(asset *domain.Asset) AssetResponse {
	return AssetResponse{
		ID:              asset.ID,
		Tag:             asset.Tag,
		Name:            asset.Name,
		Category:        asset.Category,
		Building:        asset.Building,
		Location:        asset.Location,
		Status:          asset.Status,
		StatusChangedAt: asset.StatusChangedAt,
		CreatedAt:       asset.CreatedAt,
		UpdatedAt:       asset.UpdatedAt,
	}
}

// NewAssetStatusChangeResponse maps a transition result.
func NewAssetStatusChangeResponse(asset *domain.Asset, ticket *domain.Ticket) AssetStatusChangeResponse {
	resp := AssetStatusChangeResponse{Asset: NewAssetResponse(asset)}
	if ticket != nil {
		resp.TicketReference = &ticket.ReferenceCode
		resp.TicketID = &ticket.ID
	}
	return resp
}
