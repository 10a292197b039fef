package normalize

import "github.com/krishnx/vestigas/internal/domain/model"

// Built-in partner identifiers.
const (
	PartnerA = "partner_a"
	PartnerB = "partner_b"
)

// Partner A reports flat records:
//
//	{"order_id": "...", "site_id": "...", "deliveryStatus": "DELIVERED",
//	 "podSigned": true, "deliveryTime": "2024-05-01T10:15:00Z"}
func partnerAMapping() Mapping {
	return Mapping{
		PartnerID:       PartnerA,
		ExternalIDPath:  "order_id",
		SiteIDPath:      "site_id",
		RawStatusPath:   "deliveryStatus",
		SignedPath:      "podSigned",
		DeliveredAtPath: "deliveryTime",
		Timestamp:       TimestampRFC3339,
		StatusTable: map[string]model.DeliveryStatus{
			"delivered":  model.DeliveryStatusDelivered,
			"done":       model.DeliveryStatusDelivered,
			"completed":  model.DeliveryStatusDelivered,
			"cancelled":  model.DeliveryStatusCancelled,
			"rejected":   model.DeliveryStatusCancelled,
			"failed":     model.DeliveryStatusCancelled,
			"in_transit": model.DeliveryStatusPending,
			"shipped":    model.DeliveryStatusPending,
			"pending":    model.DeliveryStatusPending,
			"scheduled":  model.DeliveryStatusPending,
		},
	}
}

// Partner B nests everything and uses unix-second timestamps:
//
//	{"reference_id": "...", "location": {"site_ref": "..."},
//	 "status": {"code": "complete"}, "proof": {"signed": true},
//	 "timestamps": {"delivery_completion": 1714558500}}
func partnerBMapping() Mapping {
	return Mapping{
		PartnerID:       PartnerB,
		ExternalIDPath:  "reference_id",
		SiteIDPath:      "location.site_ref",
		RawStatusPath:   "status.code",
		SignedPath:      "proof.signed",
		DeliveredAtPath: "timestamps.delivery_completion",
		Timestamp:       TimestampUnixSeconds,
		StatusTable: map[string]model.DeliveryStatus{
			"delivered":  model.DeliveryStatusDelivered,
			"done":       model.DeliveryStatusDelivered,
			"complete":   model.DeliveryStatusDelivered,
			"cancel":     model.DeliveryStatusCancelled,
			"cancelled":  model.DeliveryStatusCancelled,
			"rejected":   model.DeliveryStatusCancelled,
			"fail":       model.DeliveryStatusCancelled,
			"in_transit": model.DeliveryStatusPending,
			"transit":    model.DeliveryStatusPending,
			"shipped":    model.DeliveryStatusPending,
			"pending":    model.DeliveryStatusPending,
			"scheduled":  model.DeliveryStatusPending,
		},
	}
}

// DefaultMappings returns the mappings for the built-in logistics partners.
func DefaultMappings() []Mapping {
	return []Mapping{partnerAMapping(), partnerBMapping()}
}

// DefaultEngine builds an engine over the built-in partner mappings.
func DefaultEngine() *Engine {
	return MustNewEngine(DefaultMappings()...)
}
