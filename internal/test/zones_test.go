package test

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/abualakbar/deliverybot/internal"
)

var _ = Describe("Zones", func() {
	var (
		dir    string
		logger *zap.SugaredLogger
	)

	writeZones := func(content string) string {
		path := filepath.Join(dir, "delivery_zones.json")
		Expect(os.WriteFile(path, []byte(content), 0o644)).To(Succeed())
		return path
	}

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "deliverybot")
		Expect(err).ShouldNot(HaveOccurred())

		z, err := zap.NewDevelopment()
		Expect(err).ShouldNot(HaveOccurred())
		logger = z.Sugar()
	})

	AfterEach(func() {
		os.RemoveAll(dir)
	})

	It("prefers the longest matching zone name", func() {
		path := writeZones(`{"الجديدة": 2, "بغداد الجديدة": 5}`)
		zones := internal.NewZones(path, logger)

		fee := zones.DeliveryFeeFor("بغداد الجديدة قرب السوق")
		Expect(fee.String()).To(Equal("5"), "the longer zone must shadow the shorter one")

		fee = zones.DeliveryFeeFor("الجديدة شارع 12")
		Expect(fee.String()).To(Equal("2"))
	})

	It("returns zero when no zone matches", func() {
		path := writeZones(`{"الكرادة": 3}`)
		zones := internal.NewZones(path, logger)

		Expect(zones.DeliveryFeeFor("المنصور").String()).To(Equal("0"))
	})

	It("treats a missing or corrupt file as an empty table", func() {
		zones := internal.NewZones(filepath.Join(dir, "nope.json"), logger)
		Expect(zones.DeliveryFeeFor("الكرادة").String()).To(Equal("0"))

		path := writeZones(`{broken`)
		zones = internal.NewZones(path, logger)
		Expect(zones.DeliveryFeeFor("الكرادة").String()).To(Equal("0"))
	})
})
