// =============================================================================
// recordmove - Shared Types
// =============================================================================
//
// This package contains the record and dataset types shared by the loader,
// the move transform, the migration pipeline and the report writer. Keeping
// them here avoids import cycles between those packages.
//
// =============================================================================

package types

// =============================================================================
// RECORD
// =============================================================================

// Record is one row of a delimited file, keyed by header field name.
// Every value is kept as the raw string read from the file.
type Record map[string]string

// Clone returns an independent copy of the record.
func (r Record) Clone() Record {
	clone := make(Record, len(r))
	for field, value := range r {
		clone[field] = value
	}
	return clone
}

// =============================================================================
// DATASET
// =============================================================================

// Dataset is the ordered set of records backed by one file.
//
// The header is carried explicitly rather than derived from a row, so a
// dataset with no records still knows its field order and can be written.
type Dataset struct {
	// Path is the file the dataset was loaded from and is written back to.
	Path string

	// Header is the ordered list of field names from the first line.
	Header []string

	// Records holds the data rows in file order.
	Records []Record
}

// Len returns the number of data rows.
func (d *Dataset) Len() int {
	return len(d.Records)
}

// HasField reports whether the header contains the named field.
func (d *Dataset) HasField(field string) bool {
	for _, name := range d.Header {
		if name == field {
			return true
		}
	}
	return false
}

// IndexesOf returns the positions of every record whose field equals value.
func (d *Dataset) IndexesOf(field, value string) []int {
	var indexes []int
	for i, record := range d.Records {
		if record[field] == value {
			indexes = append(indexes, i)
		}
	}
	return indexes
}

// Clone returns a deep copy of the dataset. Records are cloned individually
// so that changes to the copy never leak into the original.
func (d *Dataset) Clone() *Dataset {
	clone := &Dataset{
		Path:    d.Path,
		Header:  append([]string(nil), d.Header...),
		Records: make([]Record, len(d.Records)),
	}
	for i, record := range d.Records {
		clone.Records[i] = record.Clone()
	}
	return clone
}
