package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// DeliveryStatus is the canonical domain status of a delivery event. It is
// distinct from JobStatus.
type DeliveryStatus string

const (
	// DeliveryStatusDelivered indicates the goods arrived.
	DeliveryStatusDelivered DeliveryStatus = "delivered"
	// DeliveryStatusPending indicates the delivery is scheduled or in transit.
	DeliveryStatusPending DeliveryStatus = "pending"
	// DeliveryStatusCancelled indicates the delivery was cancelled or rejected.
	DeliveryStatusCancelled DeliveryStatus = "cancelled"
)

// Valid returns true if the DeliveryStatus is one of the canonical values.
func (s DeliveryStatus) Valid() bool {
	return s == DeliveryStatusDelivered || s == DeliveryStatusPending || s == DeliveryStatusCancelled
}

// deliveryNamespace seeds deterministic delivery IDs. Fixed forever so that
// re-ingesting the same partner record always yields the same ID.
var deliveryNamespace = uuid.MustParse("9f2c1f96-4d6b-4b62-9e6a-6d1a3a70c7d4")

// DeliveryID derives the stable identifier for a delivery from its business
// key (siteID, partnerID, externalID).
func DeliveryID(siteID, partnerID, externalID string) string {
	key := siteID + "\x00" + partnerID + "\x00" + externalID
	return uuid.NewSHA1(deliveryNamespace, []byte(key)).String()
}

// Delivery is the canonical, scored representation of one real-world delivery
// event, deduplicated by (siteID, partnerID, externalID).
type Delivery struct {
	// ID is derived from the business key and stable across re-ingestion.
	ID         string         `json:"id"          db:"id"`
	SiteID     string         `json:"site_id"     db:"site_id"`
	PartnerID  string         `json:"partner_id"  db:"partner_id"`
	ExternalID string         `json:"external_id" db:"external_id"`
	Date       string         `json:"date"        db:"date"`
	Status     DeliveryStatus `json:"status"      db:"status"`
	// Score is the quality/confidence score in [0.0, 5.0].
	Score float64 `json:"score" db:"score"`
	// Signed reports whether a proof of delivery was recorded.
	Signed      bool      `json:"signed"       db:"signed"`
	DeliveredAt time.Time `json:"delivered_at" db:"delivered_at"`
	// Payload carries the normalized partner attributes not lifted into columns.
	Payload json.RawMessage `json:"payload,omitempty" db:"payload"`
	// Raw is the source record exactly as the partner returned it.
	Raw json.RawMessage `json:"raw,omitempty" db:"raw"`
	// Warnings lists non-fatal normalization notes (e.g. defaulted optional fields).
	Warnings   []string  `json:"warnings,omitempty" db:"warnings"`
	IngestedAt time.Time `json:"ingested_at"        db:"ingested_at"`
	// LastJobID is the most recent job that wrote or confirmed this record.
	LastJobID string `json:"last_job_id" db:"last_job_id"`
}

// Key returns the business key that identifies this delivery across job runs.
func (d *Delivery) Key() string {
	return d.SiteID + "/" + d.PartnerID + "/" + d.ExternalID
}

// DeliveryListOptions groups filter and pagination parameters for delivery queries.
type DeliveryListOptions struct {
	SiteID   *string         // exact match
	Status   *DeliveryStatus // exact match on domain status
	MinScore *float64        // inclusive lower bound
	JobID    *string         // restrict to deliveries last written by this job
	Limit    int
	Offset   int
}

// DeliveryPage is one page of a delivery query along with the total match count.
type DeliveryPage struct {
	TotalCount int        `json:"total_count"`
	Limit      int        `json:"limit"`
	Offset     int        `json:"offset"`
	Data       []Delivery `json:"data"`
}
