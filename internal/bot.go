package internal

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/abualakbar/deliverybot/internal/model"
)

const (
	cbPick   = "pick"
	cbPlaces = "places"
	cbReset  = "reset"
)

// waEscape builds the wa.me payload the way WhatsApp expects it.
var waEscape = strings.NewReplacer(" ", "%20", "\n", "%0A")

// Bot maps telegram updates onto state machine intents and renders the
// results back. It holds no order state of its own; everything durable
// lives behind the machine.
type Bot struct {
	api         *tgbotapi.BotAPI
	machine     IMachine
	sessions    *Sessions
	uiRefs      *UIRefs
	ownerChatID int64
	logger      *zap.SugaredLogger
}

func NewBot(token string, machine IMachine, sessions *Sessions, uiRefs *UIRefs, ownerChatID int64, logger *zap.SugaredLogger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	return &Bot{
		api:         api,
		machine:     machine,
		sessions:    sessions,
		uiRefs:      uiRefs,
		ownerChatID: ownerChatID,
		logger:      logger,
	}, nil
}

func (b *Bot) Run() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	for update := range b.api.GetUpdatesChan(u) {
		switch {
		case update.CallbackQuery != nil:
			b.handleCallback(update.CallbackQuery)
		case update.EditedMessage != nil:
			b.handleSubmission(update.EditedMessage)
		case update.Message != nil:
			b.handleMessage(update.Message)
		}
	}
}

func (b *Bot) handleMessage(msg *tgbotapi.Message) {
	if msg.IsCommand() {
		b.handleCommand(msg)
		return
	}

	sess := b.sessions.Get(msg.From.ID)
	switch sess.Stage {
	case model.StageAwaitBuy:
		b.handleBuyAnswer(msg, sess)
	case model.StageAwaitSell:
		b.handleSellAnswer(msg, sess)
	default:
		b.handleSubmission(msg)
	}
}

func (b *Bot) handleCommand(msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		b.sessions.Clear(msg.From.ID)
		b.send(msg.Chat.ID, "أرسل عنوان الطلب في السطر الأول، ورقم الهاتف في الثاني، ثم المنتجات كل واحدة في سطر.")
	case "reset":
		if msg.From.ID != b.ownerChatID {
			return
		}
		prompt := tgbotapi.NewMessage(msg.Chat.ID, "سيتم حذف كل الطلبات والأسعار وتصفير العداد. متأكد؟")
		prompt.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("نعم، احذف كل شيء", cbReset+"|yes"),
				tgbotapi.NewInlineKeyboardButtonData("إلغاء", cbReset+"|no"),
			),
		)
		if _, err := b.api.Send(prompt); err != nil {
			b.logger.Errorf("send reset prompt: %s", err.Error())
		}
	}
}

// handleSubmission covers both a fresh order text and an edit of one; the
// machine decides which by the source message reference.
func (b *Bot) handleSubmission(msg *tgbotapi.Message) {
	lines := strings.Split(strings.TrimSpace(msg.Text), "\n")
	if len(lines) < 3 {
		b.send(msg.Chat.ID, "أرسل العنوان في السطر الأول، ورقم الهاتف في الثاني، وكل منتج في سطر جديد.")
		return
	}

	source := model.UIMessageRef{ChatID: msg.Chat.ID, MessageID: msg.MessageID}
	orderID, created, err := b.machine.CreateOrUpdateOrder(msg.From.ID, source, lines[0], lines[1], lines[2:])
	if err != nil {
		b.send(msg.Chat.ID, "أرسل العنوان في السطر الأول، ورقم الهاتف في الثاني، وكل منتج في سطر جديد.")
		return
	}

	snap, err := b.machine.GetOrderSnapshot(orderID)
	if err != nil {
		b.logger.Errorf("snapshot after submission: %s", err.Error())
		return
	}

	if created {
		b.send(msg.Chat.ID, fmt.Sprintf("تم استلام الطلب بعنوان: %s\nرقم الفاتورة: %d\nعدد المنتجات: %d", snap.Order.Title, snap.Order.InvoiceNumber, len(snap.Order.Products)))
	} else {
		b.send(msg.Chat.ID, fmt.Sprintf("تم تحديث الطلب بعنوان: %s\nعدد المنتجات: %d", snap.Order.Title, len(snap.Order.Products)))
	}
	b.renderPicker(msg.Chat.ID, orderID)
}

func (b *Bot) handleBuyAnswer(msg *tgbotapi.Message, sess *model.Session) {
	value, err := decimal.NewFromString(strings.TrimSpace(msg.Text))
	if err != nil {
		b.send(msg.Chat.ID, "رجاءً أرسل رقم صحيح لسعر الشراء.")
		return
	}

	if err = b.machine.RecordBuyPrice(sess.OrderID, sess.ProductIndex, value); err != nil {
		if errors.Is(err, ErrInvalidInput) {
			b.send(msg.Chat.ID, "رجاءً أرسل رقم صحيح لسعر الشراء.")
			return
		}
		b.send(msg.Chat.ID, "الطلب لم يعد موجوداً، ابدأ من جديد.")
		b.sessions.Clear(msg.From.ID)
		return
	}

	sess.PendingBuy = &value
	sess.Stage = model.StageAwaitSell

	prompt, err := b.machine.SelectProduct(sess.OrderID, sess.ProductIndex)
	if err != nil {
		b.send(msg.Chat.ID, "الطلب لم يعد موجوداً، ابدأ من جديد.")
		b.sessions.Clear(msg.From.ID)
		return
	}
	if sent, ok := b.send(msg.Chat.ID, fmt.Sprintf("بيش راح تبيع '%s'؟", prompt.Name)); ok {
		b.sessions.QueueCleanup(msg.From.ID, sent)
	}
}

func (b *Bot) handleSellAnswer(msg *tgbotapi.Message, sess *model.Session) {
	value, err := decimal.NewFromString(strings.TrimSpace(msg.Text))
	if err != nil || sess.PendingBuy == nil {
		b.send(msg.Chat.ID, "رجاءً أرسل رقم صحيح لسعر البيع.")
		return
	}

	next, err := b.machine.RecordSellPrice(msg.From.ID, sess.OrderID, sess.ProductIndex, *sess.PendingBuy, value)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			b.send(msg.Chat.ID, "رجاءً أرسل رقم صحيح لسعر البيع.")
			return
		}
		b.send(msg.Chat.ID, "الطلب لم يعد موجوداً، ابدأ من جديد.")
		b.sessions.Clear(msg.From.ID)
		return
	}

	orderID := sess.OrderID
	prompt, _ := b.machine.SelectProduct(orderID, sess.ProductIndex)
	b.send(msg.Chat.ID, fmt.Sprintf("تم حفظ السعر لـ '%s'.", prompt.Name))

	for _, ref := range b.sessions.TakeCleanup(msg.From.ID) {
		b.deleteRef(ref)
	}
	b.sessions.Clear(msg.From.ID)

	b.renderPicker(msg.Chat.ID, orderID)

	if next.AllPriced {
		b.sendPricingSummary(msg.Chat.ID, orderID)
		b.sendPlacesPrompt(msg.Chat.ID, orderID)
	}
}

func (b *Bot) handleCallback(cq *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		b.logger.Errorf("answer callback: %s", err.Error())
	}
	if cq.Message == nil {
		return
	}
	chatID := cq.Message.Chat.ID

	parts := strings.Split(cq.Data, "|")
	switch parts[0] {
	case cbPick:
		if len(parts) != 3 {
			return
		}
		index, err := strconv.Atoi(parts[2])
		if err != nil {
			return
		}
		b.handlePick(chatID, cq.From.ID, parts[1], index)
	case cbPlaces:
		if len(parts) != 3 {
			return
		}
		count, err := strconv.Atoi(parts[2])
		if err != nil {
			return
		}
		b.handlePlaces(chatID, parts[1], count)
	case cbReset:
		if cq.From.ID != b.ownerChatID || len(parts) != 2 {
			return
		}
		if parts[1] != "yes" {
			b.send(chatID, "تم الإلغاء.")
			return
		}
		if err := b.machine.ResetAll(); err != nil {
			b.logger.Errorf("reset all: %s", err.Error())
			b.send(chatID, "فشل الحذف، حاول مرة أخرى.")
			return
		}
		b.send(chatID, "تم حذف كل شيء وتصفير العداد.")
	}
}

func (b *Bot) handlePick(chatID, userID int64, orderID string, index int) {
	prompt, err := b.machine.SelectProduct(orderID, index)
	if err != nil {
		b.send(chatID, "الطلب لم يعد موجوداً، ابدأ من جديد.")
		return
	}

	sess := b.sessions.Get(userID)
	sess.Stage = model.StageAwaitBuy
	sess.OrderID = orderID
	sess.ProductIndex = index
	sess.PendingBuy = nil

	text := fmt.Sprintf("بيش اشتريت '%s'؟", prompt.Name)
	if prompt.Buy != nil && prompt.Sell != nil {
		text = fmt.Sprintf("السعر الحالي لـ '%s': شراء %s، بيع %s.\nبيش اشتريت؟", prompt.Name, prompt.Buy.String(), prompt.Sell.String())
	}
	if sent, ok := b.send(chatID, text); ok {
		b.sessions.QueueCleanup(userID, sent)
	}
}

func (b *Bot) handlePlaces(chatID int64, orderID string, count int) {
	inv, err := b.machine.SetPlacesCount(orderID, count)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			b.send(chatID, "الطلب لم يعد موجوداً، ابدأ من جديد.")
			return
		}
		b.send(chatID, "عدد الأماكن غير صالح.")
		return
	}
	b.sendInvoice(chatID, inv)
}

// renderPicker sends the product keyboard and supersedes the previous one.
func (b *Bot) renderPicker(chatID int64, orderID string) {
	snap, err := b.machine.GetOrderSnapshot(orderID)
	if err != nil {
		b.send(chatID, "الطلب لم يعد موجوداً، ابدأ من جديد.")
		return
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for i, name := range snap.Order.Products {
		label := name
		if i < len(snap.Pricing) && snap.Pricing[i].Priced() {
			label = "✅ " + name
		}
		data := fmt.Sprintf("%s|%s|%d", cbPick, orderID, i)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(label, data)))
	}

	out := tgbotapi.NewMessage(chatID, fmt.Sprintf("اضغط على منتج لتحديد السعر من %s:", snap.Order.Title))
	out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)

	sent, err := b.api.Send(out)
	if err != nil {
		b.logger.Errorf("send picker: %s", err.Error())
		return
	}

	prev, hadPrev := b.uiRefs.Record(orderID, model.UIMessageRef{ChatID: chatID, MessageID: sent.MessageID})
	if hadPrev {
		b.deleteRef(prev)
	}
}

func (b *Bot) sendPricingSummary(chatID int64, orderID string) {
	snap, err := b.machine.GetOrderSnapshot(orderID)
	if err != nil {
		return
	}

	summary := []string{fmt.Sprintf("عنوان الزبون: %s", snap.Order.Title)}
	totalBuy, totalSell, _ := ProductTotals(&snap.Order, snap.Pricing)
	for i, name := range snap.Order.Products {
		p := snap.Pricing[i]
		summary = append(summary, fmt.Sprintf("%s - شراء: %s, بيع: %s, ربح: %s", name, p.Buy.String(), p.Sell.String(), p.Sell.Sub(*p.Buy).String()))
	}
	summary = append(summary, "", fmt.Sprintf("المجموع شراء: %s\nالمجموع بيع: %s\nالربح الكلي: %s", totalBuy.String(), totalSell.String(), totalSell.Sub(totalBuy).String()))

	b.send(chatID, strings.Join(summary, "\n"))
}

func (b *Bot) sendPlacesPrompt(chatID int64, orderID string) {
	var rows [][]tgbotapi.InlineKeyboardButton
	for low := 1; low <= 10; low += 5 {
		var row []tgbotapi.InlineKeyboardButton
		for n := low; n < low+5; n++ {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(strconv.Itoa(n), fmt.Sprintf("%s|%s|%d", cbPlaces, orderID, n)))
		}
		rows = append(rows, row)
	}

	out := tgbotapi.NewMessage(chatID, "من كم مكان جمعت الطلب؟")
	out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	if _, err := b.api.Send(out); err != nil {
		b.logger.Errorf("send places prompt: %s", err.Error())
	}
}

func (b *Bot) sendInvoice(chatID int64, inv model.Invoice) {
	lines := []string{
		"أبو الأكبر للتوصيل",
		fmt.Sprintf("رقم الفاتورة: %d", inv.Number),
		fmt.Sprintf("عنوان الزبون: %s", inv.Title),
		fmt.Sprintf("الهاتف: %s", inv.Phone),
		"",
		"المواد:",
	}

	running := decimal.Zero
	for _, line := range inv.Lines {
		running = running.Add(line.Sell)
		lines = append(lines, fmt.Sprintf("%s - %s = %s", line.Name, line.Sell.String(), running.String()))
	}

	lines = append(lines, "",
		fmt.Sprintf("أجرة التجميع: %s", inv.HandlingFee.String()),
		fmt.Sprintf("كلفة التوصيل: %s", inv.DeliveryFee.String()),
		fmt.Sprintf("مجموع القائمة الكلي: %s", inv.GrandTotal.String()),
	)
	customerText := strings.Join(lines, "\n")

	b.send(chatID, "نسخة الزبون:\n"+customerText)
	b.send(chatID, "رابط إرسال الفاتورة بالواتساب:\nhttps://wa.me/?text="+waEscape.Replace(customerText))
}

func (b *Bot) send(chatID int64, text string) (model.UIMessageRef, bool) {
	sent, err := b.api.Send(tgbotapi.NewMessage(chatID, text))
	if err != nil {
		b.logger.Errorf("send message: %s", err.Error())
		return model.UIMessageRef{}, false
	}
	return model.UIMessageRef{ChatID: chatID, MessageID: sent.MessageID}, true
}

// deleteRef is cosmetic cleanup; failures are logged and swallowed.
func (b *Bot) deleteRef(ref model.UIMessageRef) {
	if _, err := b.api.Request(tgbotapi.NewDeleteMessage(ref.ChatID, ref.MessageID)); err != nil {
		b.logger.Infof("delete superseded message %d: %s", ref.MessageID, err.Error())
	}
}
