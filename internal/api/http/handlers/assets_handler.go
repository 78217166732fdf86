package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/facility-ops/internal/api/dto"
	"github.com/spec-kit/facility-ops/internal/domain"
	"github.com/spec-kit/facility-ops/internal/repository"
	"github.com/spec-kit/facility-ops/internal/service"
	apperrors "github.com/spec-kit/facility-ops/pkg/util"
)

// AssetsHandler manages monitored-asset endpoints.
type AssetsHandler struct {
	assets *service.AssetService
}

// NewAssetsHandler constructs handler.
func NewAssetsHandler(assets *service.AssetService) *AssetsHandler {
	return &AssetsHandler{assets: assets}
}

// CreateAsset POST /assets.
func (h *AssetsHandler) CreateAsset(c *fiber.Ctx) error {
	var req dto.CreateAssetRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}

	asset, err := h.assets.CreateAsset(c.UserContext(), service.AssetCreateInput{
		Tag:      req.Tag,
		Name:     req.Name,
		Category: req.Category,
		Building: req.Building,
		Location: req.Location,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewAssetResponse(asset)})
}

// ListAssets GET /assets.
func (h *AssetsHandler) ListAssets(c *fiber.Ctx) error {
	filter := repository.AssetFilter{
		Limit:  parseInt(c.Query("page_size"), 50),
		Offset: (parseInt(c.Query("page"), 1) - 1) * parseInt(c.Query("page_size"), 50),
	}
	if building := c.Query("building"); building != "" {
		filter.Building = &building
	}
	if category := c.Query("category"); category != "" {
		filter.Category = &category
	}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.AssetStatus(strings.TrimSpace(part)))
		}
	}

	assets, err := h.assets.ListAssets(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.AssetResponse, 0, len(assets))
	for i := range assets {
		items = append(items, dto.NewAssetResponse(&assets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetAsset GET /assets/:id.
func (h *AssetsHandler) GetAsset(c *fiber.Ctx) error {
	asset, err := h.assets.GetAsset(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewAssetResponse(asset)})
}

// ChangeStatus POST /assets/:id/status. The response carries the reference of
// any ticket auto-opened by the transition.
func (h *AssetsHandler) ChangeStatus(c *fiber.Ctx) error {
	var req dto.ChangeAssetStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}

	result, err := h.assets.ChangeStatus(c.UserContext(), operatorID(c), c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewAssetStatusChangeResponse(result.Asset, result.Ticket)})
}
