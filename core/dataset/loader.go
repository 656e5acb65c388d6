package dataset

import (
	"context"
	"io"
	"os"

	"github.com/sbinet/npyio"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/mtboost/pkg/errors"
)

// ReadNpy decodes a 1-D or 2-D float64 .npy array. A 1-D array of length N
// becomes an N×1 matrix.
func ReadNpy(r io.Reader) (*mat.Dense, error) {
	nr, err := npyio.NewReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "npy header")
	}

	shape := nr.Header.Descr.Shape
	switch len(shape) {
	case 1:
		var data []float64
		if err := nr.Read(&data); err != nil {
			return nil, errors.Wrap(err, "npy data")
		}
		if len(data) == 0 {
			return nil, errors.NewInsufficientDataError("dataset.ReadNpy", "array is empty")
		}
		return mat.NewDense(len(data), 1, data), nil
	case 2:
		if shape[0] == 0 || shape[1] == 0 {
			return nil, errors.NewInsufficientDataError("dataset.ReadNpy", "array is empty")
		}
		m := &mat.Dense{}
		if err := nr.Read(m); err != nil {
			return nil, errors.Wrap(err, "npy data")
		}
		return m, nil
	default:
		return nil, errors.NewValueError("dataset.ReadNpy", "only 1-D and 2-D arrays are supported")
	}
}

// LoadNpy reads a .npy file from path.
func LoadNpy(path string) (m *mat.Dense, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "close %s", path)
		}
	}()
	m, err = ReadNpy(f)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return m, nil
}

// LoadNpyPair loads a features file and a labels file concurrently and
// combines them into a dataset.
func LoadNpyPair(ctx context.Context, featuresPath, labelsPath string) (*Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var X, Y *mat.Dense
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		X, err = LoadNpy(featuresPath)
		return err
	})
	g.Go(func() error {
		var err error
		Y, err = LoadNpy(labelsPath)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return FromMatrix(X, Y)
}

// SaveNpy writes m as a 2-D float64 .npy file.
func SaveNpy(path string, m *mat.Dense) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "close %s", path)
		}
	}()
	if err := npyio.Write(f, m); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return nil
}

// ToDense converts row vectors into an N×K matrix.
func ToDense(rows [][]float64) *mat.Dense {
	if len(rows) == 0 {
		return &mat.Dense{}
	}
	m := mat.NewDense(len(rows), len(rows[0]), nil)
	for i, row := range rows {
		m.SetRow(i, row)
	}
	return m
}
