package test

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/abualakbar/deliverybot/internal"
	mock_internal "github.com/abualakbar/deliverybot/internal/mock"
	"github.com/abualakbar/deliverybot/internal/model"
)

var _ = Describe("Store", func() {
	var (
		dir     string
		logger  *zap.SugaredLogger
		store   *internal.Store
		saver   *internal.Saver
		machine *internal.Machine
	)

	// reopen loads a fresh store from the same directory and wraps it in a
	// read-only machine, the way a restarted process would see the data.
	reopen := func() *internal.Machine {
		st, err := internal.NewStore(dir, logger)
		Expect(err).ShouldNot(HaveOccurred())

		sv := internal.NewSaver(st, time.Hour, logger)
		sq := internal.NewSequencer(st, sv)
		return internal.NewMachine(st, sv, sq, internal.NewZones(filepath.Join(dir, "zones.json"), logger), internal.NewUIRefs(st, sv), logger)
	}

	BeforeEach(func() {
		ctrl := gomock.NewController(GinkgoT())

		var err error
		dir, err = os.MkdirTemp("", "deliverybot")
		Expect(err).ShouldNot(HaveOccurred())

		z, err := zap.NewDevelopment()
		Expect(err).ShouldNot(HaveOccurred())
		logger = z.Sugar()

		store, err = internal.NewStore(dir, logger)
		Expect(err).ShouldNot(HaveOccurred())

		saver = internal.NewSaver(store, 10*time.Millisecond, logger)
		go saver.Run()

		zones := mock_internal.NewMockIZones(ctrl)
		zones.EXPECT().DeliveryFeeFor(gomock.Any()).Return(decimal.Zero).AnyTimes()

		seq := internal.NewSequencer(store, saver)
		machine = internal.NewMachine(store, saver, seq, zones, internal.NewUIRefs(store, saver), logger)
	})

	AfterEach(func() {
		saver.Stop()
		os.RemoveAll(dir)
	})

	It("round-trips the full collection set through disk", func() {
		source := model.UIMessageRef{ChatID: 1, MessageID: 42}
		id, _, err := machine.CreateOrUpdateOrder(1, source, "بغداد الجديدة", "07700000000", []string{"Pepsi", "Chips"})
		Expect(err).ShouldNot(HaveOccurred())

		_, err = machine.RecordSellPrice(7, id, 0, dec(500), dec(750))
		Expect(err).ShouldNot(HaveOccurred())
		_, err = machine.RecordSellPrice(7, id, 1, dec(250), dec(400))
		Expect(err).ShouldNot(HaveOccurred())
		_, err = machine.SetPlacesCount(id, 3)
		Expect(err).ShouldNot(HaveOccurred())

		saver.Stop()

		restarted := reopen()

		snap, err := restarted.GetOrderSnapshot(id)
		Expect(err).ShouldNot(HaveOccurred())

		before, err := machine.GetOrderSnapshot(id)
		Expect(err).ShouldNot(HaveOccurred())

		Expect(snap.Order.Products).To(Equal(before.Order.Products))
		Expect(snap.Order.InvoiceNumber).To(Equal(before.Order.InvoiceNumber))
		Expect(snap.Order.PlacesCount).To(Equal(before.Order.PlacesCount))
		Expect(snap.Status).To(Equal(model.OrderStatusFinalized))
		Expect(snap.Pricing[0].Buy.String()).To(Equal("500"))
		Expect(snap.Pricing[1].Sell.String()).To(Equal("400"))
		Expect(restarted.ProfitTotal().String()).To(Equal(machine.ProfitTotal().String()))
	})

	It("loads the healthy collections when one file is corrupt", func() {
		source := model.UIMessageRef{ChatID: 1, MessageID: 43}
		id, _, err := machine.CreateOrUpdateOrder(1, source, "الكرادة", "07700000001", []string{"Pepsi"})
		Expect(err).ShouldNot(HaveOccurred())

		saver.Stop()

		Expect(os.WriteFile(filepath.Join(dir, "pricing.json"), []byte("{not json"), 0o644)).To(Succeed())

		restarted := reopen()

		snap, err := restarted.GetOrderSnapshot(id)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(snap.Order.Title).To(Equal("الكرادة"))
		Expect(snap.Status).To(Equal(model.OrderStatusDraft), "corrupt pricing loads as empty")
	})

	It("discards a half-decoded collection instead of keeping partial entries", func() {
		saver.Stop()

		// valid JSON up to the entry, then a type mismatch: Unmarshal has
		// already inserted the partial order when it reports the error
		bad := []byte(`{"ord1": {"id": "ord1", "title": "الكرادة", "products": 5}}`)
		Expect(os.WriteFile(filepath.Join(dir, "orders.json"), bad, 0o644)).To(Succeed())

		restarted := reopen()

		Expect(restarted.ListIncompleteOrders()).To(BeEmpty(), "a type error must load as the empty default")
		_, err := restarted.GetOrderSnapshot("ord1")
		Expect(err).Should(Equal(internal.ErrNotFound))
	})

	It("keeps the reset durable when a stale flush lands after it", func() {
		source := model.UIMessageRef{ChatID: 1, MessageID: 44}
		_, _, err := machine.CreateOrUpdateOrder(1, source, "المنصور", "07700000002", []string{"Pepsi"})
		Expect(err).ShouldNot(HaveOccurred())

		// snapshot taken before the reset, written after it: the ordering a
		// concurrent flush can produce
		stale, err := store.Snapshot()
		Expect(err).ShouldNot(HaveOccurred())

		Expect(machine.ResetAll()).To(Succeed())
		Expect(store.WriteSnapshot(stale)).To(Succeed())

		Eventually(func() int {
			return len(reopen().ListIncompleteOrders())
		}, time.Second, 20*time.Millisecond).Should(BeZero(), "the reset must win over the stale write")
	})

	It("captures every mutation across concurrent dirty marks", func() {
		const n = 20

		errs := make(chan error, n)
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				source := model.UIMessageRef{ChatID: int64(i), MessageID: i + 1}
				_, _, err := machine.CreateOrUpdateOrder(int64(i), source, "المنصور", "07700000002", []string{"Pepsi"})
				errs <- err
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			Expect(err).ShouldNot(HaveOccurred())
		}

		Eventually(func() int {
			return len(reopen().ListIncompleteOrders())
		}, time.Second, 20*time.Millisecond).Should(Equal(n))
	})
})
