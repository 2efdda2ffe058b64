package handlers

import (
	"time"

	"auctionhub/internal/services"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
)

type AuctionHandler struct {
	auctions *services.AuctionService
}

func NewAuctionHandler(auctions *services.AuctionService) *AuctionHandler {
	return &AuctionHandler{auctions: auctions}
}

type createAuctionRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartingBid float64   `json:"startingBid"`
	EndsAt      time.Time `json:"endsAt"`
}

// Validate rejects missing fields. validation.Required treats a zero
// startingBid as missing, so zero-value auctions are not accepted.
func (r createAuctionRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required),
		validation.Field(&r.Description, validation.Required),
		validation.Field(&r.StartingBid, validation.Required, validation.Min(0.0)),
		validation.Field(&r.EndsAt, validation.Required),
	)
}

type updateAuctionRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	EndsAt      time.Time `json:"endsAt"`
}

type placeBidRequest struct {
	Amount float64 `json:"amount"`
}

// Create handles POST /api/auctions
func (h *AuctionHandler) Create(c *fiber.Ctx) error {
	var req createAuctionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "All fields are required"})
	}

	ownerID := c.Locals("user_id").(string)
	auction, err := h.auctions.Create(c.Context(), services.CreateAuctionInput{
		Title:       req.Title,
		Description: req.Description,
		StartingBid: req.StartingBid,
		EndsAt:      req.EndsAt,
	}, ownerID)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(auction)
}

// List handles GET /api/auctions
func (h *AuctionHandler) List(c *fiber.Ctx) error {
	auctions, err := h.auctions.List(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(auctions)
}

// GetByID handles GET /api/auctions/:id
func (h *AuctionHandler) GetByID(c *fiber.Ctx) error {
	auction, err := h.auctions.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(auction)
}

// PlaceBid handles POST /api/auctions/:id/bid
func (h *AuctionHandler) PlaceBid(c *fiber.Ctx) error {
	var req placeBidRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	callerID := c.Locals("user_id").(string)
	auction, err := h.auctions.PlaceBid(c.Context(), c.Params("id"), callerID, req.Amount)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Bid placed successfully",
		"auction": auction,
	})
}

// Update handles PUT /api/auctions/:id
func (h *AuctionHandler) Update(c *fiber.Ctx) error {
	var req updateAuctionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	callerID := c.Locals("user_id").(string)
	auction, err := h.auctions.Update(c.Context(), c.Params("id"), callerID, services.UpdateAuctionInput{
		Title:       req.Title,
		Description: req.Description,
		EndsAt:      req.EndsAt,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(auction)
}

// Delete handles DELETE /api/auctions/:id
func (h *AuctionHandler) Delete(c *fiber.Ctx) error {
	callerID := c.Locals("user_id").(string)
	if err := h.auctions.Delete(c.Context(), c.Params("id"), callerID); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Auction deleted"})
}
