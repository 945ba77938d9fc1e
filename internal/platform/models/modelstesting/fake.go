package modelstesting

import (
	"math/rand"
	"strconv"
	"time"

	"github.com/MichalMitros/vendor-feed-reconciler/internal/platform/models"
	"github.com/go-faker/faker/v4"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// FakeProduct returns models.CanonicalProduct with fake data.
func FakeProduct(ops ...func(p *models.CanonicalProduct)) models.CanonicalProduct {
	product := models.CanonicalProduct{
		SKU:           faker.Word() + "-" + strconv.Itoa(rand.Intn(100000)),
		Brand:         faker.Word(),
		SearchableKey: strconv.Itoa(rand.Intn(1000000)),
		VendorCodes:   map[string]string{},
	}

	for _, op := range ops {
		op(&product)
	}

	return product
}

// FakeRawRecord returns models.RawRecord with sku, brand, price and quantity.
func FakeRawRecord(ops ...func(r models.RawRecord)) models.RawRecord {
	record := models.RawRecord{
		models.FieldSKU:      strconv.Itoa(rand.Intn(1000000)),
		models.FieldBrand:    faker.Word(),
		models.FieldPrice:    strconv.Itoa(rand.Intn(1000)) + ".50",
		models.FieldQuantity: strconv.Itoa(rand.Intn(50)),
	}

	for _, op := range ops {
		op(record)
	}

	return record
}

// FakeOffer returns models.NormalizedOffer with fake data and random number of fake shippings.
func FakeOffer(ops ...func(o *models.NormalizedOffer)) models.NormalizedOffer {
	key := strconv.Itoa(rand.Intn(1000000))
	offer := models.NormalizedOffer{
		VendorID:          faker.Word(),
		VendorKey:         key,
		ManufacturerKey:   key,
		Brand:             faker.Word(),
		Cost:              lo.ToPtr(decimal.New(rand.Int63n(100000), -2)),
		InventoryQuantity: lo.ToPtr(rand.Int31n(100)),
		SourceTimestamp:   time.Date(2024, time.April, 1, 1, 1, 1, 0, time.UTC),
		Shippings:         fakeShippings(),
	}

	for _, op := range ops {
		op(&offer)
	}

	return offer
}

// FakeShipping returns models.Shipping with fake data.
func FakeShipping(ops ...func(s *models.Shipping)) models.Shipping {
	shipping := models.Shipping{
		Destination: faker.Word(),
		Service:     faker.Word(),
		Price:       decimal.New(rand.Int63n(10000), -2),
	}

	for _, op := range ops {
		op(&shipping)
	}

	return shipping
}

func fakeShippings() []models.Shipping {
	shippingsLen := rand.Intn(3)
	shippings := make([]models.Shipping, 0, shippingsLen)
	for range shippingsLen {
		shippings = append(shippings, FakeShipping())
	}

	return shippings
}
