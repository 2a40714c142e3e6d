package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	. "github.com/abualakbar/deliverybot/internal"
)

func main() {
	//decimals at json as string
	//https://github.com/shopspring/decimal/issues/21
	decimal.MarshalJSONWithoutQuotes = true

	cfg := NewConfig()
	z, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	sugaredLogger := z.Sugar()

	store, err := NewStore(cfg.DataDir, sugaredLogger)
	if err != nil {
		sugaredLogger.Fatal(err)
	}

	saver := NewSaver(store, SaveInterval, sugaredLogger)
	go saver.Run()

	zones := NewZones(cfg.ZonesFile, sugaredLogger)
	sequencer := NewSequencer(store, saver)
	sessions := NewSessions()
	uiRefs := NewUIRefs(store, saver)
	machine := NewMachine(store, saver, sequencer, zones, uiRefs, sugaredLogger)

	bot, err := NewBot(cfg.BotToken, machine, sessions, uiRefs, cfg.OwnerChatID, sugaredLogger)
	if err != nil {
		sugaredLogger.Fatal(err)
	}
	go bot.Run()

	handlers := NewHandlers(machine, cfg.OwnerPassword, cfg.JWTSecret, sugaredLogger)

	app := fiber.New()
	app.Use(logger.New())

	api := app.Group("/api")

	owner := api.Group("/owner")
	owner.Post("/login", handlers.Login)
	owner.Post("/reset", handlers.Reset)

	api.Get("/profit", handlers.GetProfit)

	api.Get("/orders/incomplete", handlers.GetIncompleteOrders)
	api.Get("/orders/:id", handlers.GetOrder)

	api.Get("/suppliers/:id/report", handlers.GetSupplierReport)
	api.Post("/suppliers/:id/report/reset", handlers.ResetSupplierWindow)

	go func() {
		if err := app.Listen(cfg.AdminAddress); err != nil {
			sugaredLogger.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	sugaredLogger.Info("Shutting down service...")
	saver.Stop()
}
