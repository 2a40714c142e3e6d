package test

import (
	"os"
	"time"

	"go.uber.org/zap"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/abualakbar/deliverybot/internal"
	"github.com/abualakbar/deliverybot/internal/model"
)

var _ = Describe("UIRefs", func() {
	var (
		dir    string
		saver  *internal.Saver
		uiRefs *internal.UIRefs
	)

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "deliverybot")
		Expect(err).ShouldNot(HaveOccurred())

		logger, err := zap.NewDevelopment()
		Expect(err).ShouldNot(HaveOccurred())

		store, err := internal.NewStore(dir, logger.Sugar())
		Expect(err).ShouldNot(HaveOccurred())

		saver = internal.NewSaver(store, 10*time.Millisecond, logger.Sugar())
		go saver.Run()

		uiRefs = internal.NewUIRefs(store, saver)
	})

	AfterEach(func() {
		saver.Stop()
		os.RemoveAll(dir)
	})

	It("hands back the superseded picker exactly once", func() {
		first := model.UIMessageRef{ChatID: 1, MessageID: 10}
		second := model.UIMessageRef{ChatID: 1, MessageID: 11}
		third := model.UIMessageRef{ChatID: 1, MessageID: 12}

		_, hadPrev := uiRefs.Record("order-1", first)
		Expect(hadPrev).To(BeFalse())

		prev, hadPrev := uiRefs.Record("order-1", second)
		Expect(hadPrev).To(BeTrue())
		Expect(prev).To(Equal(first))

		prev, hadPrev = uiRefs.Record("order-1", third)
		Expect(hadPrev).To(BeTrue())
		Expect(prev).To(Equal(second), "only the latest picker stays tracked")
	})

	It("keeps pickers of different orders independent", func() {
		uiRefs.Record("order-1", model.UIMessageRef{ChatID: 1, MessageID: 10})

		_, hadPrev := uiRefs.Record("order-2", model.UIMessageRef{ChatID: 1, MessageID: 11})
		Expect(hadPrev).To(BeFalse())
	})
})
