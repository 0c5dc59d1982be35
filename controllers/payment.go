package controllers

import (
	"encoding/json"
	"log"
	"os"

	"github.com/clinova/clinic-booking/models"
	"github.com/clinova/clinic-booking/services"
	"github.com/clinova/clinic-booking/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/paymentintent"
)

// PaymentController handles gateway deposits and the asynchronous settlement
// callback. Retried callbacks are deduplicated by order code.
type PaymentController struct {
	Wallets      *services.WalletService
	Appointments *services.AppointmentService
}

func NewPaymentController(wallets *services.WalletService, appointments *services.AppointmentService) *PaymentController {
	stripe.Key = os.Getenv("STRIPE_SECRET_KEY")
	return &PaymentController{Wallets: wallets, Appointments: appointments}
}

type depositRequest struct {
	Amount float64 `json:"amount"`
}

// CreateDeposit godoc
// @Summary Top up the current user's wallet through the payment gateway
// @Description Creates a gateway payment intent and a pending ledger entry keyed by order code
// @Tags payments
// @Accept json
// @Produce json
// @Failure 400 {object} utils.ErrorResponse
// @Router /payments/deposit [post]
func (ctl *PaymentController) CreateDeposit(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	var req depositRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Failed to parse request body",
			Error:   err.Error(),
		})
	}
	if req.Amount <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Amount must be positive",
		})
	}

	wallet, err := ctl.Wallets.GetWalletByUser(userID)
	if err != nil {
		return respondServiceError(c, "Wallet not found", err)
	}

	orderCode := utils.GenerateOrderCode()
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(int64(req.Amount)),
		Currency: stripe.String(string(stripe.CurrencyVND)),
	}
	params.AddMetadata("order_code", orderCode)
	intent, err := paymentintent.New(params)
	if err != nil {
		log.Printf("Failed to create payment intent: %v", err)
		return c.Status(fiber.StatusBadGateway).JSON(utils.ErrorResponse{
			Message: "Payment gateway unavailable",
			Error:   err.Error(),
		})
	}

	txn, err := ctl.Wallets.ApplyTransaction(services.ApplyTransactionInput{
		WalletID:    wallet.ID,
		Type:        models.TransactionDeposit,
		Amount:      req.Amount,
		Status:      models.TransactionPending,
		OrderCode:   &orderCode,
		Description: "Gateway deposit",
	})
	if err != nil {
		return respondServiceError(c, "Failed to record deposit", err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"order_code":    orderCode,
		"client_secret": intent.ClientSecret,
		"transaction":   txn,
	})
}

// HandleWebhook settles pending transactions when the gateway confirms or
// fails a payment. The order code in the intent metadata locates the ledger
// row; unknown codes are rejected so misrouted events surface.
func (ctl *PaymentController) HandleWebhook(c *fiber.Ctx) error {
	var event stripe.Event
	if err := json.Unmarshal(c.Body(), &event); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Failed to parse webhook payload",
			Error:   err.Error(),
		})
	}

	switch event.Type {
	case "payment_intent.succeeded", "payment_intent.payment_failed":
	default:
		return c.SendStatus(fiber.StatusOK)
	}

	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Failed to parse payment intent",
			Error:   err.Error(),
		})
	}
	orderCode := intent.Metadata["order_code"]
	if orderCode == "" {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Missing order code in payment intent metadata",
		})
	}

	if event.Type == "payment_intent.payment_failed" {
		if _, err := ctl.Wallets.UpdateTransactionStatusByOrderCode(orderCode, models.TransactionFailed, nil, nil); err != nil {
			return respondServiceError(c, "Failed to mark transaction failed", err)
		}
		return c.SendStatus(fiber.StatusOK)
	}

	txn, err := ctl.Wallets.GetTransactionByOrderCode(orderCode)
	if err != nil {
		return respondServiceError(c, "Unknown order code", err)
	}

	if txn.AppointmentID != nil {
		if _, err := ctl.Appointments.ConfirmPayment(orderCode); err != nil {
			return respondServiceError(c, "Failed to confirm appointment payment", err)
		}
	} else {
		if _, err := ctl.Wallets.UpdateTransactionStatusByOrderCode(orderCode, models.TransactionCompleted, nil, nil); err != nil {
			return respondServiceError(c, "Failed to settle transaction", err)
		}
	}

	return c.SendStatus(fiber.StatusOK)
}
