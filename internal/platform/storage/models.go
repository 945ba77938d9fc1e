package storage

import (
	"github.com/MichalMitros/vendor-feed-reconciler/internal/platform/models"
	"github.com/shopspring/decimal"

	pgmodels "github.com/MichalMitros/vendor-feed-reconciler/internal/platform/storage/gen/postgres/public/model"
)

//go:generate make -C ../../../ generate-db

func toDBRun(run *models.Run) *pgmodels.Run {
	return &pgmodels.Run{
		ID:               int32(run.ID),
		VendorID:         run.VendorID,
		Version:          run.Version,
		FinishedAt:       run.FinishedAt,
		Success:          run.IsSuccess,
		StatusMessage:    run.StatusMessage,
		CreatedOffers:    run.Created,
		UpdatedOffers:    run.Updated,
		UnmatchedRecords: run.Unmatched,
		SkippedRecords:   run.Skipped,
		FailedRecords:    run.Failed,
	}
}

// ToRun converts postgres run model into models.Run.
func ToRun(run *pgmodels.Run) *models.Run {
	return &models.Run{
		ID:            int(run.ID),
		VendorID:      run.VendorID,
		CreatedAt:     run.CreatedAt,
		FinishedAt:    run.FinishedAt,
		IsSuccess:     run.Success,
		StatusMessage: run.StatusMessage,
		Created:       run.CreatedOffers,
		Updated:       run.UpdatedOffers,
		Unmatched:     run.UnmatchedRecords,
		Skipped:       run.SkippedRecords,
		Failed:        run.FailedRecords,
		Version:       run.Version,
	}
}

// ToDBProduct converts models.CanonicalProduct into postgres product model and its vendor codes.
func ToDBProduct(product *models.CanonicalProduct) (pgmodels.Product, []pgmodels.ProductVendorCode) {
	codes := make([]pgmodels.ProductVendorCode, 0, len(product.VendorCodes))
	for vendorID, code := range product.VendorCodes {
		codes = append(codes, pgmodels.ProductVendorCode{
			ProductSku: product.SKU,
			VendorID:   vendorID,
			Code:       code,
		})
	}

	return pgmodels.Product{
		Sku:           product.SKU,
		Brand:         product.Brand,
		SearchableKey: product.SearchableKey,
		CreatedAt:     product.CreatedAt,
	}, codes
}

func toProduct(product *pgmodels.Product, codes []pgmodels.ProductVendorCode) models.CanonicalProduct {
	vendorCodes := make(map[string]string, len(codes))
	for ix := range codes {
		vendorCodes[codes[ix].VendorID] = codes[ix].Code
	}

	return models.CanonicalProduct{
		SKU:           product.Sku,
		Brand:         product.Brand,
		SearchableKey: product.SearchableKey,
		VendorCodes:   vendorCodes,
		CreatedAt:     product.CreatedAt,
	}
}

// ToDBOffer converts models.VendorOffer into postgres offer model.
func ToDBOffer(offer *models.VendorOffer) *pgmodels.Offer {
	return &pgmodels.Offer{
		ID:                  int32(offer.ID),
		VendorID:            offer.VendorID,
		ProductSku:          offer.ProductSKU,
		VendorKey:           offer.VendorKey,
		ManufacturerKey:     offer.ManufacturerKey,
		Cost:                toDBDecimal(offer.Cost),
		InventoryQuantity:   offer.InventoryQuantity,
		InventoryDescriptor: offer.InventoryDescriptor,
		SourceTimestamp:     offer.SourceTimestamp,
		LastSeen:            offer.LastSeen,
		CreatedAt:           offer.CreatedAt,
	}
}

func toOffer(offer *pgmodels.Offer, shippings []pgmodels.OfferShipping) *models.VendorOffer {
	result := &models.VendorOffer{
		ID:                  int(offer.ID),
		VendorID:            offer.VendorID,
		ProductSKU:          offer.ProductSku,
		VendorKey:           offer.VendorKey,
		ManufacturerKey:     offer.ManufacturerKey,
		InventoryQuantity:   offer.InventoryQuantity,
		InventoryDescriptor: offer.InventoryDescriptor,
		SourceTimestamp:     offer.SourceTimestamp,
		LastSeen:            offer.LastSeen,
		CreatedAt:           offer.CreatedAt,
		Shippings:           make([]models.Shipping, 0, len(shippings)),
	}

	if offer.Cost != nil {
		cost := fromDBDecimal(*offer.Cost)
		result.Cost = &cost
	}

	for ix := range shippings {
		result.Shippings = append(result.Shippings, models.Shipping{
			Destination: shippings[ix].Destination,
			Service:     shippings[ix].Service,
			Price:       fromDBDecimal(shippings[ix].Price),
		})
	}

	return result
}

// ToDBShippings converts models.Shipping slice into postgres offer shipping slice.
func ToDBShippings(offerID int32, shippings []models.Shipping) []pgmodels.OfferShipping {
	if len(shippings) == 0 {
		return []pgmodels.OfferShipping{}
	}

	dbShippings := make([]pgmodels.OfferShipping, 0, len(shippings))
	for ix := range shippings {
		dbShippings = append(dbShippings, pgmodels.OfferShipping{
			OfferID:     offerID,
			Destination: shippings[ix].Destination,
			Service:     shippings[ix].Service,
			Price:       shippings[ix].Price.InexactFloat64(),
		})
	}
	return dbShippings
}

func toDBUnmatched(record *models.UnmatchedRecord) *pgmodels.UnmatchedRecord {
	return &pgmodels.UnmatchedRecord{
		VendorID:   record.VendorID,
		VendorKey:  record.VendorKey,
		RawPayload: record.RawPayload,
		Reason:     record.Reason,
		FirstSeen:  record.FirstSeen,
	}
}

func toUnmatched(record *pgmodels.UnmatchedRecord) models.UnmatchedRecord {
	return models.UnmatchedRecord{
		ID:         int(record.ID),
		VendorID:   record.VendorID,
		VendorKey:  record.VendorKey,
		RawPayload: record.RawPayload,
		Reason:     record.Reason,
		FirstSeen:  record.FirstSeen,
	}
}

// numeric(14,4) columns are generated as float64, values are rounded back to column scale.
func toDBDecimal(value *decimal.Decimal) *float64 {
	if value == nil {
		return nil
	}
	f := value.Round(4).InexactFloat64()
	return &f
}

func fromDBDecimal(value float64) decimal.Decimal {
	return decimal.NewFromFloat(value).Round(4)
}
