package internal

import (
	"flag"
	"os"
	"strconv"
	"time"
)

var c *config

const (
	BotToken      = "BOT_TOKEN"
	DataDir       = "DATA_DIR"
	ZonesFile     = "ZONES_FILE"
	AdminAddress  = "ADMIN_ADDRESS"
	OwnerChatID   = "OWNER_CHAT_ID"
	OwnerPassword = "OWNER_PASSWORD"
	JWTSecret     = "JWT_SECRET"
)

const (
	defaultDataDir      = "data"
	defaultZonesFile    = "data/delivery_zones.json"
	defaultAdminAddress = "localhost:8080"

	// SaveInterval is the debounce window of the background saver.
	SaveInterval = 300 * time.Millisecond
)

type config struct {
	BotToken      string
	DataDir       string
	ZonesFile     string
	AdminAddress  string
	OwnerChatID   int64
	OwnerPassword string
	JWTSecret     string
}

func NewConfig() *config {
	c = new(config)

	flag.StringVar(&c.BotToken, "t", setEnvOrDefault(BotToken, ""), "telegram bot token")
	flag.StringVar(&c.DataDir, "d", setEnvOrDefault(DataDir, defaultDataDir), "directory with the persisted collections")
	flag.StringVar(&c.ZonesFile, "z", setEnvOrDefault(ZonesFile, defaultZonesFile), "delivery zones file")
	flag.StringVar(&c.AdminAddress, "a", setEnvOrDefault(AdminAddress, defaultAdminAddress), "admin api host to listen on")
	flag.Int64Var(&c.OwnerChatID, "o", setEnvOrDefaultInt64(OwnerChatID, 0), "owner telegram chat id")
	flag.StringVar(&c.OwnerPassword, "p", setEnvOrDefault(OwnerPassword, "secret"), "admin api owner password")
	flag.StringVar(&c.JWTSecret, "s", setEnvOrDefault(JWTSecret, "secret"), "admin api jwt secret")

	flag.Parse()
	return c
}

func setEnvOrDefault(env, def string) string {
	res, e := os.LookupEnv(env)
	if !e {
		res = def
	}
	return res
}

func setEnvOrDefaultInt64(env string, def int64) int64 {
	res, e := os.LookupEnv(env)
	if !e {
		return def
	}
	v, err := strconv.ParseInt(res, 10, 64)
	if err != nil {
		return def
	}
	return v
}
