// =============================================================================
// recordmove - Dataset Loader and Writer
// =============================================================================
//
// This module reads and writes the delimited text files that back each
// dataset. The format is:
//   - UTF-8 text, one record per line
//   - The first line is the header
//   - Every line has exactly as many fields as the header
//   - Fields are separated by a single delimiter character (normally '|')
//
// Values are never coerced; every field stays a string. Quoting follows
// encoding/csv, so a value containing the delimiter round-trips. A stray
// quote is rejected as malformed rather than guessed at.
//
// =============================================================================

package dataset

import (
	"bufio"
	"encoding/csv"
	"io"
	"os"

	"gitlab.com/tozd/go/errors"

	"github.com/ginjaninja78/recordmove/internal/types"
)

var (
	// ErrEmptyDataset is returned when a file has no header line.
	ErrEmptyDataset = errors.Base("dataset has no header")

	// ErrMalformedDataset is returned when a row does not match the header.
	ErrMalformedDataset = errors.Base("malformed dataset")
)

// utf8BOM is stripped from the start of the file if present.
const utf8BOM = "\uFEFF"

// =============================================================================
// LOADING
// =============================================================================

// Load reads the dataset stored at path.
//
// PARAMETERS:
//   - path: The file to read.
//   - delimiter: The field separator.
//
// RETURNS:
//   - The parsed dataset, with Path set.
//   - ErrEmptyDataset if the file has no header line.
//   - ErrMalformedDataset if any row has a different field count than the
//     header, or the file is otherwise not valid delimited text.
func Load(path string, delimiter rune) (*types.Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Errorf("failed to open dataset: %w", err)
	}
	defer file.Close()

	ds, err := Decode(file, delimiter)
	if err != nil {
		return nil, errors.Errorf("%s: %w", path, err)
	}
	ds.Path = path

	return ds, nil
}

// Decode parses a dataset from r. The returned dataset has no Path.
func Decode(r io.Reader, delimiter rune) (*types.Dataset, error) {
	reader := bufio.NewReader(r)
	if err := skipBOM(reader); err != nil {
		return nil, errors.Errorf("failed to read dataset: %w", err)
	}

	csvReader := newReader(reader, delimiter)

	header, err := csvReader.Read()
	if err == io.EOF {
		return nil, errors.WithStack(ErrEmptyDataset)
	}
	if err != nil {
		return nil, malformed(err)
	}

	seen := make(map[string]bool, len(header))
	for _, field := range header {
		if seen[field] {
			return nil, errors.Errorf("%w: duplicate header field %q", ErrMalformedDataset, field)
		}
		seen[field] = true
	}

	ds := &types.Dataset{
		Header:  header,
		Records: []types.Record{},
	}

	for {
		row, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, malformed(err)
		}

		record := make(types.Record, len(header))
		for i, field := range header {
			record[field] = row[i]
		}
		ds.Records = append(ds.Records, record)
	}

	return ds, nil
}

// newReader configures a csv.Reader for the dataset format. FieldsPerRecord
// is left at zero, so the header fixes the field count for every row.
//
// Quotes are strict. A lazy reader lets a field such as "Best" Hike run on
// past its line and fold the following rows into it without any error.
func newReader(r io.Reader, delimiter rune) *csv.Reader {
	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.FieldsPerRecord = 0
	reader.LazyQuotes = false
	reader.ReuseRecord = false
	return reader
}

func skipBOM(reader *bufio.Reader) error {
	prefix, err := reader.Peek(len(utf8BOM))
	if err == io.EOF || err == bufio.ErrBufferFull {
		return nil
	}
	if err != nil {
		return err
	}
	if string(prefix) == utf8BOM {
		_, err = reader.Discard(len(utf8BOM))
	}
	return err
}

// malformed wraps a csv parse error with ErrMalformedDataset and the line.
func malformed(err error) error {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return errors.Errorf("%w: line %d: %s", ErrMalformedDataset, parseErr.StartLine, parseErr.Err.Error())
	}
	return errors.Errorf("%w: %s", ErrMalformedDataset, err.Error())
}

// =============================================================================
// WRITING
// =============================================================================

// Write overwrites the file at path with the dataset.
//
// The header line is always written, even when the dataset has no records.
func Write(path string, ds *types.Dataset, delimiter rune) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Errorf("failed to create dataset file: %w", err)
	}

	if err := Encode(file, ds, delimiter); err != nil {
		file.Close()
		return errors.Errorf("%s: %w", path, err)
	}

	if err := file.Close(); err != nil {
		return errors.Errorf("failed to close dataset file: %w", err)
	}

	return nil
}

// Encode writes the header line followed by one line per record, each
// field emitted in header order. Fields a record lacks are written empty.
func Encode(w io.Writer, ds *types.Dataset, delimiter rune) error {
	if len(ds.Header) == 0 {
		return errors.WithStack(ErrEmptyDataset)
	}

	writer := csv.NewWriter(w)
	writer.Comma = delimiter

	if err := writer.Write(ds.Header); err != nil {
		return errors.Errorf("failed to write header: %w", err)
	}

	row := make([]string, len(ds.Header))
	for i, record := range ds.Records {
		for j, field := range ds.Header {
			row[j] = record[field]
		}
		if err := writer.Write(row); err != nil {
			return errors.Errorf("failed to write record %d: %w", i+1, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return errors.Errorf("failed to flush dataset: %w", err)
	}

	return nil
}
