package model

import "github.com/shopspring/decimal"

type SessionStage int

const (
	StageIdle SessionStage = iota
	StageAwaitBuy
	StageAwaitSell
)

// Session is the per-participant conversation context. In-memory only,
// lost on restart; the durable order state is enough to resume.
type Session struct {
	Stage        SessionStage
	OrderID      string
	ProductIndex int
	PendingBuy   *decimal.Decimal
	Cleanup      []UIMessageRef
}
