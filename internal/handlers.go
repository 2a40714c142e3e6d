package internal

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
)

type Handlers struct {
	machine       IMachine
	ownerPassword string
	jwtSecret     string
	logger        *zap.SugaredLogger
}

func NewHandlers(machine IMachine, ownerPassword, jwtSecret string, logger *zap.SugaredLogger) *Handlers {
	return &Handlers{machine: machine, ownerPassword: ownerPassword, jwtSecret: jwtSecret, logger: logger}
}

type loginInput struct {
	Password string `json:"password"`
}

type resetInput struct {
	Confirm string `json:"confirm"`
}

func (h *Handlers) Login(c *fiber.Ctx) error {
	var i loginInput

	if err := c.BodyParser(&i); err != nil {
		h.logger.Errorf("Error on login request: %s", err.Error())
		return c.SendStatus(fiber.StatusBadRequest)
	}

	if i.Password != h.ownerPassword {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	t, err := h.ownerToken()
	if err != nil {
		h.logger.Errorf("Error on login request: %s", err.Error())
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	setAuthCookie(c, t)
	return c.SendStatus(fiber.StatusOK)
}

func (h *Handlers) GetOrder(c *fiber.Ctx) error {
	if !h.isOwner(c) {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	snap, err := h.machine.GetOrderSnapshot(c.Params("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.SendStatus(fiber.StatusNotFound)
		}
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	return c.Status(fiber.StatusOK).JSON(snap)
}

func (h *Handlers) GetIncompleteOrders(c *fiber.Ctx) error {
	if !h.isOwner(c) {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	snaps := h.machine.ListIncompleteOrders()
	if len(snaps) == 0 {
		return c.SendStatus(fiber.StatusNoContent)
	}

	return c.Status(fiber.StatusOK).JSON(snaps)
}

func (h *Handlers) GetSupplierReport(c *fiber.Ctx) error {
	if !h.isOwner(c) {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	supplierID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.SendStatus(fiber.StatusBadRequest)
	}

	snaps, err := h.machine.ListOrdersBySupplier(supplierID)
	if err != nil {
		if errors.Is(err, ErrNoRecords) {
			return c.SendStatus(fiber.StatusNoContent)
		}
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	return c.Status(fiber.StatusOK).JSON(snaps)
}

func (h *Handlers) GetProfit(c *fiber.Ctx) error {
	if !h.isOwner(c) {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"profit": h.machine.ProfitTotal()})
}

func (h *Handlers) ResetSupplierWindow(c *fiber.Ctx) error {
	if !h.isOwner(c) {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	supplierID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.SendStatus(fiber.StatusBadRequest)
	}

	h.machine.ResetSupplierWindow(supplierID)
	return c.SendStatus(fiber.StatusOK)
}

func (h *Handlers) Reset(c *fiber.Ctx) error {
	if !h.isOwner(c) {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	var i resetInput
	if err := c.BodyParser(&i); err != nil || i.Confirm != "yes" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"status": "error", "message": "reset needs confirm=yes"})
	}

	if err := h.machine.ResetAll(); err != nil {
		h.logger.Errorf("Error on reset request: %s", err.Error())
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *Handlers) ownerToken() (string, error) {
	claims := jwt.MapClaims{
		"sub": "owner",
		"exp": time.Now().Add(time.Hour * 72).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.jwtSecret))
}

func (h *Handlers) isOwner(c *fiber.Ctx) bool {
	tokenString := c.Cookies("token")
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(h.jwtSecret), nil
	})
	if err != nil {
		return false
	}

	sub, _ := claims["sub"].(string)
	return sub == "owner"
}

func setAuthCookie(c *fiber.Ctx, token string) {
	cookie := &fiber.Cookie{
		Name:    "token",
		Value:   token,
		Path:    "/",
		Expires: time.Now().Add(24 * time.Hour),
	}

	c.Cookie(cookie)
}
