// Package model defines the tabular address records that flow through the
// harvest, enrich, and verify stages.
package model

import "strings"

// Canonical column names shared by every stage. Column identity is
// name-based; position is owned by the Table's field order.
const (
	FieldStreet    = "Street Address"
	FieldCity      = "City"
	FieldState     = "State Abbreviation"
	FieldZip       = "Zip Code"
	FieldDetailURL = "Detail Url"
	FieldUnit      = "Suite/Apartment"
	FieldRDI       = "RDI"
	FieldCMRA      = "CMRA"
)

// Record is one mailbox address with its evolving field set. Values are
// always strings; an absent field reads as "".
type Record map[string]string

// Get returns the trimmed value for name, or "" when absent.
func (r Record) Get(name string) string {
	return strings.TrimSpace(r[name])
}

// Set stores value under name.
func (r Record) Set(name, value string) {
	r[name] = value
}

// Clone returns an independent copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
