package internal

import (
	"strconv"

	"github.com/abualakbar/deliverybot/internal/model"
)

// UIRefs owns the message bookkeeping of the store: which rendered picker
// message is authoritative per order, and which submission message an
// order came from. Both survive restarts together with the orders they
// point at.
type UIRefs struct {
	store *Store
	saver *Saver
}

func NewUIRefs(store *Store, saver *Saver) *UIRefs {
	return &UIRefs{store: store, saver: saver}
}

// Record stores the new picker reference and hands back the superseded one
// so the caller can delete the stale message. Deletion over there is
// best-effort; here only the bookkeeping matters.
func (u *UIRefs) Record(orderID string, ref model.UIMessageRef) (prev model.UIMessageRef, hadPrev bool) {
	u.store.mu.Lock()
	prev, hadPrev = u.store.uiRefs.Pickers[orderID]
	u.store.uiRefs.Pickers[orderID] = ref
	u.store.mu.Unlock()

	u.saver.MarkDirty()
	return prev, hadPrev
}

// recordSourceLocked remembers which inbound message created the order, so
// a later edit of that message is classified as an update of the same
// order. The caller holds the store lock and schedules persistence.
func (u *UIRefs) recordSourceLocked(orderID string, ref model.UIMessageRef) {
	u.store.uiRefs.Sources[sourceKey(ref)] = orderID
}

func (u *UIRefs) orderForSourceLocked(ref model.UIMessageRef) (string, bool) {
	id, ok := u.store.uiRefs.Sources[sourceKey(ref)]
	return id, ok
}

func sourceKey(ref model.UIMessageRef) string {
	return strconv.FormatInt(ref.ChatID, 10) + ":" + strconv.Itoa(ref.MessageID)
}
