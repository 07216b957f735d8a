package cli

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/depthsim/components/camera/realsense"
	"go.viam.com/depthsim/pointcloud"
	"go.viam.com/depthsim/rimage"
	"go.viam.com/depthsim/rimage/transform"
	"go.viam.com/depthsim/utils"
)

// IntrinsicsAction prints the camera info derived for a frame size and field of view, or read
// from an intrinsics file.
func IntrinsicsAction(c *cli.Context) error {
	var intrinsics *transform.PinholeCameraIntrinsics
	var err error
	if path := c.String(flagFromFile); path != "" {
		intrinsics, err = transform.NewPinholeCameraIntrinsicsFromJSONFile(path)
	} else {
		intrinsics, err = transform.DeriveIntrinsics(c.Int(flagWidth), c.Int(flagHeight), c.Float64(flagHFOV))
	}
	if err != nil {
		return err
	}
	info := transform.NewCameraInfo(utils.Header{FrameID: c.String(flagFrameID)}, intrinsics)
	return printJSON(c.App.Writer, info)
}

// CloudAction builds a point cloud from a depth dump, writes it as PCD and prints its summary.
func CloudAction(c *cli.Context) error {
	logger := newLogger(c)
	width, height := c.Int(flagWidth), c.Int(flagHeight)
	depth, err := readDepthFile(c.String(flagDepth), height, width)
	if err != nil {
		return errors.Wrap(err, "reading depth dump")
	}

	var color *rimage.ColorFrame
	if path := c.String(flagColor); path != "" {
		//nolint:gosec
		data, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrap(err, "reading color dump")
		}
		color = colorFrameFromBytes(width, height, data)
		if !c.Bool(flagColorCloud) {
			warningf(c.App.ErrWriter, "--%s given without --%s, the cloud will have no color", flagColor, flagColorCloud)
		}
	}

	focal, err := cloudFocal(c, width, height)
	if err != nil {
		return err
	}
	cloud, err := pointcloud.Build(depth, color, pointcloud.Params{
		Range:     pointcloud.ValidityRange{Min: c.Float64(flagMinDepth), Max: c.Float64(flagMaxDepth)},
		Focal:     focal,
		FuseColor: c.Bool(flagColorCloud),
	})
	if err != nil {
		return err
	}

	pcdType := pointcloud.PCDAscii
	if c.Bool(flagBinary) {
		pcdType = pointcloud.PCDBinary
	}
	if err := pointcloud.WriteToPCDFile(cloud, c.String(flagOut), pcdType); err != nil {
		return err
	}
	summary, err := pointcloud.Summarize(cloud)
	if err != nil {
		return err
	}
	logger.Debugw("wrote point cloud", "path", c.String(flagOut), "dense", cloud.IsDense, "bounds", summary.Bounds)
	return printJSON(c.App.Writer, summary)
}

// cloudFocal returns the depth camera focal length, from a replayed camera info when one is
// given and derived from the field of view otherwise.
func cloudFocal(c *cli.Context, width, height int) (float64, error) {
	path := c.String(flagCameraInfo)
	if path == "" {
		intrinsics, err := transform.DeriveIntrinsics(width, height, c.Float64(flagHFOV))
		if err != nil {
			return 0, err
		}
		return intrinsics.Fx, nil
	}
	//nolint:gosec
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, errors.Wrap(err, "reading camera info")
	}
	var info transform.CameraInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return 0, errors.Wrapf(err, "parsing camera info %q", path)
	}
	intrinsics := info.Intrinsics()
	if err := intrinsics.CheckValid(); err != nil {
		return 0, err
	}
	if intrinsics.Width != width || intrinsics.Height != height {
		return 0, errors.Errorf("camera info is for %dx%d frames, not %dx%d",
			intrinsics.Width, intrinsics.Height, width, height)
	}
	return intrinsics.Fx, nil
}

// colorFrameFromBytes wraps a raw color dump. Its format follows from its size; the builder
// renders a size it cannot read as black.
func colorFrameFromBytes(width, height int, data []byte) *rimage.ColorFrame {
	format := rimage.PixelFormatRGB8
	if len(data) == width*height {
		format = rimage.PixelFormatL8
	}
	return &rimage.ColorFrame{Width: width, Height: height, Format: format, Data: data}
}

// DepthImageAction converts a depth dump to a 16 bit millimeter image.
func DepthImageAction(c *cli.Context) error {
	logger := newLogger(c)
	out := c.String(flagOut)
	mimeType := utils.MimeTypeFromPath(out)
	if mimeType == "" || mimeType == utils.MimeTypePCD {
		return errors.Errorf("cannot tell image format from %q", out)
	}
	depth, err := readDepthFile(c.String(flagDepth), c.Int(flagHeight), c.Int(flagWidth))
	if err != nil {
		return errors.Wrap(err, "reading depth dump")
	}
	dm, err := rimage.NewDepthMapFromFrame(depth, c.Float64(flagMinDepth), c.Float64(flagMaxDepth))
	if err != nil {
		return err
	}
	data, err := rimage.EncodeImage(c.Context, dm.ToGray16(), mimeType)
	if err != nil {
		return err
	}
	lo, hi := dm.MinMax()
	logger.Debugw("converted depth", "min_mm", lo, "max_mm", hi)
	if err := utils.WriteFileAtomic(out, data); err != nil {
		return err
	}
	printf(c.App.Writer, "wrote %s", out)
	return nil
}

// SchemaAction prints the JSON schema of the rig configuration.
func SchemaAction(c *cli.Context) error {
	return printJSON(c.App.Writer, realsense.ConfigSchema())
}
