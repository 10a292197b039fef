// Package normalize maps raw partner payloads into the canonical Delivery
// shape. Every partner is described by a declarative Mapping of JMESPath
// expressions plus an enumerated status table; adding a partner means adding
// a Mapping, not branching on ad hoc field probing.
package normalize

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	jmespath "github.com/jmespath-community/go-jmespath"
	"github.com/krishnx/vestigas/internal/domain/model"
	apperrors "github.com/krishnx/vestigas/internal/errors"
)

// TimestampFormat selects how a partner encodes the delivery timestamp.
type TimestampFormat string

const (
	// TimestampRFC3339 decodes ISO-8601/RFC3339 strings, bare "Z" suffix included.
	TimestampRFC3339 TimestampFormat = "rfc3339"
	// TimestampUnixSeconds decodes integer (or numeric string) unix seconds.
	TimestampUnixSeconds TimestampFormat = "unix_seconds"
)

// Mapping declares how one partner's raw records map onto the canonical
// Delivery. All path fields are JMESPath expressions evaluated against the
// decoded JSON record.
type Mapping struct {
	PartnerID string

	// Required field paths. A record missing any of these fails normalization.
	ExternalIDPath  string
	SiteIDPath      string
	RawStatusPath   string
	DeliveredAtPath string

	// SignedPath is optional; a missing value defaults to false with a warning.
	SignedPath string

	Timestamp TimestampFormat

	// StatusTable enumerates the partner's raw status vocabulary. Lookup is
	// case-insensitive; raw values outside the table fail normalization.
	StatusTable map[string]model.DeliveryStatus
}

type compiledMapping struct {
	Mapping
	externalID  jmespath.JMESPath
	siteID      jmespath.JMESPath
	rawStatus   jmespath.JMESPath
	deliveredAt jmespath.JMESPath
	signed      jmespath.JMESPath
	statuses    map[string]model.DeliveryStatus
}

// Engine normalizes raw partner records. It is a pure function holder: no
// I/O, no clock, deterministic output for identical input.
type Engine struct {
	mappings map[string]*compiledMapping
}

// NewEngine compiles the given partner mappings. It fails fast on an invalid
// JMESPath expression or an empty status table.
func NewEngine(mappings ...Mapping) (*Engine, error) {
	e := &Engine{mappings: make(map[string]*compiledMapping, len(mappings))}
	for _, m := range mappings {
		cm, err := compileMapping(m)
		if err != nil {
			return nil, fmt.Errorf("compile mapping for partner %q: %w", m.PartnerID, err)
		}
		e.mappings[m.PartnerID] = cm
	}
	return e, nil
}

// MustNewEngine is like NewEngine but panics on error. Intended for the
// built-in mappings, which are validated by tests.
func MustNewEngine(mappings ...Mapping) *Engine {
	e, err := NewEngine(mappings...)
	if err != nil {
		panic(err)
	}
	return e
}

// Partners returns the partner IDs this engine can normalize.
func (e *Engine) Partners() []string {
	out := make([]string, 0, len(e.mappings))
	for id := range e.mappings {
		out = append(out, id)
	}
	return out
}

// Normalize maps one raw partner record into a canonical Delivery. The
// returned Delivery has its deterministic ID set but no score; scoring is a
// separate stage. Errors are always normalization errors.
func (e *Engine) Normalize(partnerID string, raw json.RawMessage) (*model.Delivery, error) {
	cm, ok := e.mappings[partnerID]
	if !ok {
		return nil, apperrors.Normalizationf("no mapping registered for partner %q", partnerID)
	}

	var record any
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeNormalization, "record is not valid JSON")
	}

	var warnings []string

	externalID, err := requiredString(cm.externalID, record, "externalId")
	if err != nil {
		return nil, err
	}
	siteID, err := requiredString(cm.siteID, record, "siteId")
	if err != nil {
		return nil, err
	}
	rawStatus, err := requiredString(cm.rawStatus, record, "status")
	if err != nil {
		return nil, err
	}

	status, ok := cm.statuses[strings.ToLower(rawStatus)]
	if !ok {
		return nil, apperrors.Normalization("status", fmt.Sprintf("unmapped raw status %q for partner %q", rawStatus, partnerID))
	}

	deliveredAt, err := decodeTimestamp(cm.deliveredAt, record, cm.Timestamp)
	if err != nil {
		return nil, err
	}

	signed := false
	if cm.signed != nil {
		v, serr := cm.signed.Search(record)
		if serr != nil || v == nil {
			warnings = append(warnings, "signed flag missing; defaulted to false")
		} else if b, isBool := v.(bool); isBool {
			signed = b
		} else {
			warnings = append(warnings, "signed flag has non-boolean value; defaulted to false")
		}
	}

	payload, err := json.Marshal(map[string]any{
		"status_raw":   rawStatus,
		"delivered_at": deliveredAt.UTC().Format(time.RFC3339),
		"signed":       signed,
	})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeNormalization, "encode normalized payload")
	}

	return &model.Delivery{
		ID:          model.DeliveryID(siteID, partnerID, externalID),
		SiteID:      siteID,
		PartnerID:   partnerID,
		ExternalID:  externalID,
		Date:        deliveredAt.UTC().Format(model.DateLayout),
		Status:      status,
		Signed:      signed,
		DeliveredAt: deliveredAt.UTC(),
		Payload:     payload,
		Raw:         raw,
		Warnings:    warnings,
	}, nil
}

func compileMapping(m Mapping) (*compiledMapping, error) {
	if strings.TrimSpace(m.PartnerID) == "" {
		return nil, fmt.Errorf("partner id is required")
	}
	if len(m.StatusTable) == 0 {
		return nil, fmt.Errorf("status table is required")
	}
	cm := &compiledMapping{Mapping: m}

	var err error
	if cm.externalID, err = jmespath.Compile(m.ExternalIDPath); err != nil {
		return nil, fmt.Errorf("external id path: %w", err)
	}
	if cm.siteID, err = jmespath.Compile(m.SiteIDPath); err != nil {
		return nil, fmt.Errorf("site id path: %w", err)
	}
	if cm.rawStatus, err = jmespath.Compile(m.RawStatusPath); err != nil {
		return nil, fmt.Errorf("raw status path: %w", err)
	}
	if cm.deliveredAt, err = jmespath.Compile(m.DeliveredAtPath); err != nil {
		return nil, fmt.Errorf("delivered at path: %w", err)
	}
	if m.SignedPath != "" {
		if cm.signed, err = jmespath.Compile(m.SignedPath); err != nil {
			return nil, fmt.Errorf("signed path: %w", err)
		}
	}

	cm.statuses = make(map[string]model.DeliveryStatus, len(m.StatusTable))
	for rawValue, canonical := range m.StatusTable {
		if !canonical.Valid() {
			return nil, fmt.Errorf("status table maps %q to unknown canonical status %q", rawValue, canonical)
		}
		cm.statuses[strings.ToLower(rawValue)] = canonical
	}
	return cm, nil
}

func requiredString(jp jmespath.JMESPath, record any, field string) (string, error) {
	v, err := jp.Search(record)
	if err != nil {
		return "", apperrors.Normalization(field, fmt.Sprintf("evaluate %s path: %v", field, err))
	}
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", apperrors.Normalization(field, field+" is missing or empty")
	}
	return s, nil
}

func decodeTimestamp(jp jmespath.JMESPath, record any, format TimestampFormat) (time.Time, error) {
	v, err := jp.Search(record)
	if err != nil || v == nil {
		return time.Time{}, apperrors.Normalization("deliveredAt", "delivery timestamp is missing")
	}

	switch format {
	case TimestampRFC3339:
		s, ok := v.(string)
		if !ok || s == "" {
			return time.Time{}, apperrors.Normalization("deliveredAt", "delivery timestamp is not a string")
		}
		t, perr := time.Parse(time.RFC3339, s)
		if perr != nil {
			return time.Time{}, apperrors.Normalization("deliveredAt", fmt.Sprintf("unparseable timestamp %q", s))
		}
		return t, nil
	case TimestampUnixSeconds:
		switch tv := v.(type) {
		case float64:
			return time.Unix(int64(tv), 0), nil
		case string:
			secs, perr := strconv.ParseInt(strings.TrimSpace(tv), 10, 64)
			if perr != nil {
				return time.Time{}, apperrors.Normalization("deliveredAt", fmt.Sprintf("unparseable unix timestamp %q", tv))
			}
			return time.Unix(secs, 0), nil
		default:
			return time.Time{}, apperrors.Normalization("deliveredAt", "delivery timestamp has unsupported type")
		}
	default:
		return time.Time{}, apperrors.Normalizationf("unknown timestamp format %q", format)
	}
}
