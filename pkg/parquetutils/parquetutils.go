package parquetutils

import (
	"github.com/cockroachdb/errors"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"
)

// ReaderConcurrency parallel number of file readers.
var ReaderConcurrency int64 = 8

// WriterConcurrency parallel number of row group marshalers.
var WriterConcurrency int64 = 4

// ReadAll reads all records from the parquet file.
func ReadAll[T any](sourceFile source.ParquetFile) ([]T, error) {
	r, err := reader.NewParquetReader(sourceFile, new(T), ReaderConcurrency)
	if err != nil {
		return nil, errors.Wrap(err, "can't create parquet reader")
	}
	defer r.ReadStop()

	data := make([]T, r.GetNumRows())
	if err = r.Read(&data); err != nil {
		return nil, errors.Wrap(err, "failed to read parquet data")
	}

	return data, nil
}

// WriteAll writes records to the parquet file with snappy compression and finalizes the footer.
// The schema is taken from the `parquet` struct tags of T.
func WriteAll[T any](targetFile source.ParquetFile, records []T) error {
	w, err := writer.NewParquetWriter(targetFile, new(T), WriterConcurrency)
	if err != nil {
		return errors.Wrap(err, "can't create parquet writer")
	}
	w.CompressionType = parquet.CompressionCodec_SNAPPY

	for i := range records {
		if err := w.Write(records[i]); err != nil {
			return errors.Wrapf(err, "failed to write record %d", i)
		}
	}
	if err := w.WriteStop(); err != nil {
		return errors.Wrap(err, "failed to finalize parquet file")
	}
	return nil
}
