package csv

import (
	"bufio"
	"encoding/csv"
	"os"
	"strconv"

	"github.com/ajitpratap0/colpir/pkg/compression"
	"github.com/ajitpratap0/colpir/pkg/pirerrors"
)

// WriteColumn writes values as a single-column CSV file with a header,
// compressed when path ends in a compression suffix.
func WriteColumn(path, header string, values []uint64) error {
	file, err := os.Create(path) //nolint:gosec // path is chosen by the caller
	if err != nil {
		return pirerrors.Wrap(err, pirerrors.ErrorTypeInput, "unable to create output").
			WithDetail("path", path)
	}
	defer file.Close()

	_, alg := compression.Split(path)
	stream, err := compression.NewWriter(file, alg, compression.Default)
	if err != nil {
		return err
	}

	buf := bufio.NewWriter(stream)
	w := csv.NewWriter(buf)
	if err := w.Write([]string{header}); err != nil {
		return err
	}

	record := make([]string, 1)
	for _, v := range values {
		record[0] = strconv.FormatUint(v, 10)
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	if err := buf.Flush(); err != nil {
		return err
	}
	if err := stream.Close(); err != nil {
		return err
	}
	return file.Close()
}
