// Package normalize turns vendor-shaped payloads into canonical records with
// stable field names and types. Normalisation never fails: missing or oddly
// shaped vendor data simply leaves the corresponding field unset.
package normalize

import (
	"regexp"

	"github.com/OpenCHAMI/mercator/pkg/record"
	"github.com/OpenCHAMI/mercator/pkg/vendors"
)

// DellModelPrefix matches the product line Dell prepends to system models.
const DellModelPrefix = `(?i)^PowerEdge `

// Promotion copies a vendor OEM value into a canonical field when the primary
// location did not provide it.
type Promotion struct {
	Field string
	Path  []string
}

// Normalizer holds the per-vendor knobs used while flattening records.
type Normalizer struct {
	// Vendor is reported as the record make when the payload lacks one.
	Vendor string
	// Native marks system records coming from the vendor's own management stack.
	Native bool
	// ModelPrefix is removed from system model strings.
	ModelPrefix *regexp.Regexp

	ControllerPromotions []Promotion
	DrivePromotions      []Promotion
}

// New builds a normaliser. An empty prefix disables model prefix stripping.
func New(vendorName string, native bool, modelPrefix string) *Normalizer {
	n := &Normalizer{Vendor: vendorName, Native: native}
	if modelPrefix != "" {
		n.ModelPrefix = regexp.MustCompile(modelPrefix)
	}
	return n
}

// Dell returns the normaliser for iDRAC payloads.
func Dell() *Normalizer {
	n := New("Dell", true, DellModelPrefix)
	n.ControllerPromotions = []Promotion{
		{Field: "battery_status", Path: []string{"Oem", "Dell", "DellControllerBattery", "PrimaryStatus"}},
		{Field: "cache_size_mib", Path: []string{"Oem", "Dell", "DellController", "CacheSizeInMB"}},
	}
	n.DrivePromotions = []Promotion{
		{Field: "raid_status", Path: []string{"Oem", "Dell", "DellPhysicalDisk", "RaidStatus"}},
		{Field: "predicted_life_left_percent", Path: []string{"Oem", "Dell", "DellPhysicalDisk", "PredictedMediaLifeLeftPercent"}},
	}
	return n
}

// StripModelPrefix removes the vendor product-line prefix from a model string
// and leaves everything else untouched.
func (n *Normalizer) StripModelPrefix(model string) string {
	if n == nil || n.ModelPrefix == nil {
		return model
	}
	return n.ModelPrefix.ReplaceAllString(model, "")
}

func promote(r *record.Record, raw vendor.Raw, promotions []Promotion) {
	for _, p := range promotions {
		if v, ok := record.Dig(raw, p.Path...); ok {
			r.SetDefault(p.Field, scalar(v))
		}
	}
}

// base starts a record with the identity and status fields every component has.
func base(raw vendor.Raw) *record.Record {
	r := record.New(raw)
	r.ID = record.FirstString(raw, "Id", "ID", "id")
	r.Set("id", r.ID)
	r.Set("name", record.FirstString(raw, "Name", "name"))
	r.Set("odata_id", record.Reference(raw))
	r.Set("health", record.FirstString(raw, "Health", "health"))
	r.SetDefault("health", record.DigString(raw, "Status", "Health"))
	r.Set("state", record.DigString(raw, "Status", "State"))
	return r
}

func setString(r *record.Record, field string, raw vendor.Raw, keys ...string) {
	r.Set(field, record.FirstString(raw, keys...))
}

func setInt(r *record.Record, field string, raw vendor.Raw, keys ...string) {
	if n, ok := record.FirstInt(raw, keys...); ok {
		r.Set(field, n)
	}
}

func setBool(r *record.Record, field string, raw vendor.Raw, keys ...string) {
	for _, k := range keys {
		if b, ok := record.DigBool(raw, k); ok {
			r.Set(field, b)
			return
		}
	}
}

func scalar(v any) any {
	switch v.(type) {
	case map[string]any, []any:
		return nil
	}
	return v
}

func each(raws []vendor.Raw, fn func(vendor.Raw) *record.Record) []*record.Record {
	out := make([]*record.Record, 0, len(raws))
	for _, raw := range raws {
		if raw == nil {
			continue
		}
		out = append(out, fn(raw))
	}
	return out
}

// maps converts a decoded JSON list into vendor payloads, skipping non-objects.
func maps(list []any) []vendor.Raw {
	out := make([]vendor.Raw, 0, len(list))
	for _, v := range list {
		if m, ok := v.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func stringList(list []any) []string {
	out := []string{}
	for _, v := range list {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}
