package pointcloud

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// PCDType is the format of a pcd file.
type PCDType int

const (
	// PCDAscii ascii format for pcd.
	PCDAscii PCDType = 0
	// PCDBinary binary format for pcd.
	PCDBinary PCDType = 1
)

func colorToPCDInt(p Point) int {
	r, g, b := p.RGB255()
	return int(r)<<16 | int(g)<<8 | int(b)
}

// ToPCD writes the cloud as an organized PCD file: WIDTH and HEIGHT match the cloud and
// invalid points are kept as NaN so row-major positions survive.
func ToPCD(cloud *PointCloud, out io.Writer, outputType PCDType) error {
	if outputType != PCDAscii && outputType != PCDBinary {
		return errors.Errorf("unsupported pcd output type %d", outputType)
	}
	w := bufio.NewWriter(out)

	if _, err := fmt.Fprintf(w, "VERSION .7\n"); err != nil {
		return err
	}
	var err error
	if cloud.HasColor() {
		_, err = fmt.Fprintf(w, "FIELDS x y z rgb\n"+
			"SIZE 4 4 4 4\n"+
			"TYPE F F F I\n"+
			"COUNT 1 1 1 1\n")
	} else {
		_, err = fmt.Fprintf(w, "FIELDS x y z\n"+
			"SIZE 4 4 4\n"+
			"TYPE F F F\n"+
			"COUNT 1 1 1\n")
	}
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "WIDTH %d\n"+
		"HEIGHT %d\n"+
		"VIEWPOINT 0 0 0 1 0 0 0\n"+
		"POINTS %d\n",
		cloud.Width,
		cloud.Height,
		cloud.Size()); err != nil {
		return err
	}

	switch outputType {
	case PCDBinary:
		_, err = fmt.Fprintf(w, "DATA binary\n")
	case PCDAscii:
		_, err = fmt.Fprintf(w, "DATA ascii\n")
	}
	if err != nil {
		return err
	}
	if err := writePCDData(cloud, w, outputType); err != nil {
		return err
	}
	return w.Flush()
}

func writePCDData(cloud *PointCloud, out io.Writer, pcdtype PCDType) error {
	var err error
	buf := make([]byte, 16)
	cloud.Iterate(func(_ int, p Point) bool {
		switch pcdtype {
		case PCDBinary:
			binary.LittleEndian.PutUint32(buf, math.Float32bits(p.X))
			binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(p.Y))
			binary.LittleEndian.PutUint32(buf[8:], math.Float32bits(p.Z))
			n := 12
			if cloud.HasColor() {
				binary.LittleEndian.PutUint32(buf[12:], uint32(colorToPCDInt(p)))
				n = 16
			}
			_, err = out.Write(buf[:n])
		case PCDAscii:
			if cloud.HasColor() {
				_, err = fmt.Fprintf(out, "%s %s %s %d\n", pcdFloat(p.X), pcdFloat(p.Y), pcdFloat(p.Z), colorToPCDInt(p))
			} else {
				_, err = fmt.Fprintf(out, "%s %s %s\n", pcdFloat(p.X), pcdFloat(p.Y), pcdFloat(p.Z))
			}
		}
		return err == nil
	})
	return err
}

func pcdFloat(f float32) string {
	if math.IsNaN(float64(f)) {
		return "nan"
	}
	return fmt.Sprintf("%f", f)
}

// WriteToPCDFile writes the cloud to the named file.
func WriteToPCDFile(cloud *PointCloud, fn string, outputType PCDType) (err error) {
	//nolint:gosec
	f, err := os.Create(fn)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	return ToPCD(cloud, f, outputType)
}
