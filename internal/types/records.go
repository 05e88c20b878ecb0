package types

import "fmt"

// Records is what a record reader produces for one input file.
type Records struct {
	// Header is the declaration-level record. Zero when the group was
	// missing or unreadable.
	Header Header

	// Items are the line items in input order.
	Items []Item

	// Warnings lists the groups that could not be read. Each entry is a
	// *SourceReadError; the affected group is empty.
	Warnings []error

	// UnknownColumns are source columns that map to no known field.
	UnknownColumns []string
}

// IsEmpty reports whether neither group produced anything useful.
func (r Records) IsEmpty() bool {
	return r.Header.IsEmpty() && len(r.Items) == 0
}

// SourceReadError reports a record group that could not be parsed.
// Readers recover from it by substituting an empty group.
type SourceReadError struct {
	Group string
	Err   error
}

func (e *SourceReadError) Error() string {
	return fmt.Sprintf("reading %s: %v", e.Group, e.Err)
}

func (e *SourceReadError) Unwrap() error {
	return e.Err
}
