package controllers

import (
	"strconv"

	"github.com/clinova/clinic-booking/models"
	"github.com/clinova/clinic-booking/services"
	"github.com/clinova/clinic-booking/utils"
	"github.com/gofiber/fiber/v2"
)

type WalletController struct {
	Wallets *services.WalletService
}

func NewWalletController(wallets *services.WalletService) *WalletController {
	return &WalletController{Wallets: wallets}
}

// GetMyWallet godoc
// @Summary Get the current user's wallet
// @Tags wallets
// @Produce json
// @Success 200 {object} models.Wallet
// @Failure 404 {object} utils.ErrorResponse
// @Router /wallets/me [get]
func (ctl *WalletController) GetMyWallet(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}
	wallet, err := ctl.Wallets.GetWalletByUser(userID)
	if err != nil {
		return respondServiceError(c, "Wallet not found", err)
	}
	return c.JSON(wallet)
}

type applyTransactionRequest struct {
	Type        models.TransactionType `json:"type"`
	Amount      float64                `json:"amount"`
	OrderCode   *string                `json:"order_code,omitempty"`
	Description string                 `json:"description"`
}

// ApplyTransaction godoc
// @Summary Apply a ledger entry to a wallet
// @Description Apply a signed balance delta; an order_code makes the call idempotent
// @Tags wallets
// @Accept json
// @Produce json
// @Success 201 {object} models.WalletTransaction
// @Failure 402 {object} utils.ErrorResponse
// @Router /wallets/{id}/transactions [post]
func (ctl *WalletController) ApplyTransaction(c *fiber.Ctx) error {
	walletID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Invalid wallet ID",
		})
	}

	var req applyTransactionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Failed to parse request body",
			Error:   err.Error(),
		})
	}

	txn, err := ctl.Wallets.ApplyTransaction(services.ApplyTransactionInput{
		WalletID:    uint(walletID),
		Type:        req.Type,
		Amount:      req.Amount,
		OrderCode:   req.OrderCode,
		Description: req.Description,
	})
	if err != nil {
		return respondServiceError(c, "Failed to apply transaction", err)
	}
	return c.Status(fiber.StatusCreated).JSON(txn)
}

// ListTransactions godoc
// @Summary List a wallet's ledger entries
// @Tags wallets
// @Produce json
// @Success 200 {array} models.WalletTransaction
// @Router /wallets/{id}/transactions [get]
func (ctl *WalletController) ListTransactions(c *fiber.Ctx) error {
	walletID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Invalid wallet ID",
		})
	}
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))

	txns, err := ctl.Wallets.ListTransactions(uint(walletID), limit, offset)
	if err != nil {
		return respondServiceError(c, "Failed to fetch transactions", err)
	}
	return c.JSON(txns)
}
