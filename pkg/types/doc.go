// Package types defines the canonical data model shared by every upowerd
// component: the per-device property set, its enums and sentinel values,
// the history/statistics records, and the sentinel error taxonomy returned
// across package boundaries.
package types
