// =============================================================================
// recordmove - Move Transform
// =============================================================================
//
// This module moves one record from a source dataset to a destination
// dataset. The moved copy is adjusted to the destination's semantics:
//
//   Input  (source):      id=dt733250_dragshowsa  type=day trips       name=...
//   Output (destination): id=sp733250_dragshowsa  type=special events  name=...
//
// Only the leading prefix of the id is swapped; every other field is copied
// verbatim. The transform works on copies and never mutates its inputs, so a
// failure leaves the caller's datasets exactly as they were loaded.
//
// =============================================================================

package mover

import (
	"sort"
	"strings"

	"gitlab.com/tozd/go/errors"

	"github.com/ginjaninja78/recordmove/internal/types"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrRecordNotFound is returned when no source record has the id.
	ErrRecordNotFound = errors.Base("record not found")

	// ErrDuplicateRecord is returned when the id matches more than one
	// source record, or the rewritten id already exists in the destination.
	ErrDuplicateRecord = errors.Base("duplicate record")

	// ErrPrefixMismatch is returned when the id does not start with the
	// expected source prefix.
	ErrPrefixMismatch = errors.Base("record id prefix mismatch")

	// ErrFieldMismatch is returned when the record carries a field the
	// destination header does not have.
	ErrFieldMismatch = errors.Base("record fields do not fit destination header")
)

// =============================================================================
// RULE
// =============================================================================

// Rule describes which record moves and how it is rewritten.
type Rule struct {
	// RecordID is matched exactly against IDField in the source.
	RecordID string

	// IDField and TypeField name the two fields the move rewrites.
	IDField   string
	TypeField string

	// FromPrefix is replaced by ToPrefix at the start of the id.
	FromPrefix string
	ToPrefix   string

	// DestinationType overwrites TypeField on the moved record.
	DestinationType string
}

// NewID returns the identifier the record carries after the move.
func (r Rule) NewID() (string, error) {
	if !strings.HasPrefix(r.RecordID, r.FromPrefix) {
		return "", errors.Errorf("%w: %q does not start with %q", ErrPrefixMismatch, r.RecordID, r.FromPrefix)
	}
	return r.ToPrefix + strings.TrimPrefix(r.RecordID, r.FromPrefix), nil
}

// =============================================================================
// RESULT
// =============================================================================

// Result holds the updated datasets and the record before and after the move.
type Result struct {
	// Source is the source dataset without the moved record.
	Source *types.Dataset

	// Destination is the destination dataset with the moved record last.
	Destination *types.Dataset

	// Original is the record as it was found in the source.
	Original types.Record

	// Moved is the rewritten record appended to the destination.
	Moved types.Record

	// SourceIndex is the position the record held in the source.
	SourceIndex int
}

// =============================================================================
// MOVE
// =============================================================================

// Move relocates the record named by rule from source to destination.
//
// RETURNS:
//   - A Result holding new copies of both datasets.
//   - ErrRecordNotFound if the source has no matching record.
//   - ErrDuplicateRecord if the id matches several source records or the new
//     id is already present in the destination.
//   - ErrPrefixMismatch if the id does not carry rule.FromPrefix.
//   - ErrFieldMismatch if the record has fields the destination lacks.
func Move(source, destination *types.Dataset, rule Rule) (*Result, error) {
	matches := source.IndexesOf(rule.IDField, rule.RecordID)
	switch len(matches) {
	case 0:
		return nil, errors.Errorf("%w: %s=%q in %s", ErrRecordNotFound, rule.IDField, rule.RecordID, source.Path)
	case 1:
	default:
		return nil, errors.Errorf("%w: %s=%q appears %d times in %s", ErrDuplicateRecord, rule.IDField, rule.RecordID, len(matches), source.Path)
	}

	newID, err := rule.NewID()
	if err != nil {
		return nil, err
	}

	if len(destination.IndexesOf(rule.IDField, newID)) > 0 {
		return nil, errors.Errorf("%w: %s=%q already exists in %s", ErrDuplicateRecord, rule.IDField, newID, destination.Path)
	}

	index := matches[0]
	original := source.Records[index]

	moved := original.Clone()
	moved[rule.IDField] = newID
	moved[rule.TypeField] = rule.DestinationType

	if missing := fieldsNotIn(moved, destination); len(missing) > 0 {
		return nil, errors.Errorf("%w: %s missing from %s", ErrFieldMismatch, strings.Join(missing, ", "), destination.Path)
	}

	updatedSource := source.Clone()
	updatedSource.Records = append(updatedSource.Records[:index], updatedSource.Records[index+1:]...)

	updatedDestination := destination.Clone()
	updatedDestination.Records = append(updatedDestination.Records, moved)

	return &Result{
		Source:      updatedSource,
		Destination: updatedDestination,
		Original:    original.Clone(),
		Moved:       moved.Clone(),
		SourceIndex: index,
	}, nil
}

// fieldsNotIn lists, sorted, the record's fields absent from the header.
func fieldsNotIn(record types.Record, ds *types.Dataset) []string {
	var missing []string
	for field := range record {
		if !ds.HasField(field) {
			missing = append(missing, field)
		}
	}
	sort.Strings(missing)
	return missing
}
