// Package cli contains the depthsim command line tool.
package cli

import (
	"io"

	"github.com/urfave/cli/v2"

	"go.viam.com/depthsim/components/camera/realsense"
	"go.viam.com/depthsim/rimage"
)

const (
	debugFlag = "debug"

	flagWidth       = "width"
	flagHeight      = "height"
	flagHFOV        = "hfov"
	flagFrameID     = "frame-id"
	flagDepth       = "depth"
	flagColor       = "color"
	flagColorFormat = "color-format"
	flagMinDepth    = "min"
	flagMaxDepth    = "max"
	flagColorCloud  = "color-cloud"
	flagBinary      = "binary"
	flagOut         = "out"
	flagConfig      = "config"
	flagDir         = "dir"
	flagWatch       = "watch"
	flagImageFormat = "image-format"
	flagFromFile    = "from-file"
	flagCameraInfo  = "camera-info"
)

func sizeFlags(required bool) []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:     flagWidth,
			Usage:    "width of the frames in pixels",
			Required: required,
		},
		&cli.IntFlag{
			Name:     flagHeight,
			Usage:    "height of the frames in pixels",
			Required: required,
		},
	}
}

func rangeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.Float64Flag{
			Name:  flagMinDepth,
			Usage: "closest valid depth in meters",
			Value: realsense.DefaultRangeMinDepth,
		},
		&cli.Float64Flag{
			Name:  flagMaxDepth,
			Usage: "furthest valid depth in meters",
			Value: realsense.DefaultRangeMaxDepth,
		},
	}
}

func withFlags(groups ...[]cli.Flag) []cli.Flag {
	var out []cli.Flag
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// NewApp returns a new app with the depthsim commands, Writer set to out, and ErrWriter
// set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	return &cli.App{
		Name:            "depthsim",
		Usage:           "turn simulated RealSense frame dumps into images, calibrations and point clouds",
		HideHelpCommand: true,
		Writer:          out,
		ErrWriter:       errOut,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    debugFlag,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "intrinsics",
				Usage: "print the camera info of a simulated pinhole camera",
				Flags: withFlags(sizeFlags(false), []cli.Flag{
					&cli.Float64Flag{
						Name:  flagHFOV,
						Usage: "horizontal field of view in radians",
					},
					&cli.StringFlag{
						Name:      flagFromFile,
						Usage:     "read pinhole intrinsics from a JSON `FILE` instead of deriving them",
						TakesFile: true,
					},
					&cli.StringFlag{
						Name:  flagFrameID,
						Usage: "frame id of the camera info header",
						Value: "camera_depth_optical_frame",
					},
				}),
				Action: IntrinsicsAction,
			},
			{
				Name:  "cloud",
				Usage: "build an organized point cloud from a raw depth dump",
				Flags: withFlags(sizeFlags(true), rangeFlags(), []cli.Flag{
					&cli.StringFlag{
						Name:      flagDepth,
						Usage:     "raw little-endian float32 depth dump `FILE`",
						Required:  true,
						TakesFile: true,
					},
					&cli.Float64Flag{
						Name:  flagHFOV,
						Usage: "horizontal field of view of the depth camera in radians",
					},
					&cli.StringFlag{
						Name:      flagCameraInfo,
						Usage:     "take the focal length from a camera info JSON `FILE` written by replay instead of --hfov",
						TakesFile: true,
					},
					&cli.StringFlag{
						Name:      flagColor,
						Usage:     "raw interleaved color dump `FILE` to color the cloud with",
						TakesFile: true,
					},
					&cli.BoolFlag{
						Name:  flagColorCloud,
						Usage: "add an rgb field to the cloud",
					},
					&cli.BoolFlag{
						Name:  flagBinary,
						Usage: "write binary instead of ascii pcd",
					},
					&cli.StringFlag{
						Name:     flagOut,
						Usage:    "output pcd `FILE`",
						Required: true,
					},
				}),
				Action: CloudAction,
			},
			{
				Name:  "depth-image",
				Usage: "convert a raw depth dump to a 16 bit millimeter image",
				Flags: withFlags(sizeFlags(true), rangeFlags(), []cli.Flag{
					&cli.StringFlag{
						Name:      flagDepth,
						Usage:     "raw little-endian float32 depth dump `FILE`",
						Required:  true,
						TakesFile: true,
					},
					&cli.StringFlag{
						Name:     flagOut,
						Usage:    "output image `FILE`; the extension picks the format (png, tiff, qoi, ppm, jpg)",
						Required: true,
					},
				}),
				Action: DepthImageAction,
			},
			{
				Name:  "replay",
				Usage: "run a rig over a directory of frame dumps",
				Description: `Each dump is named <seq>.<camera> where camera is one of color, ired1, ired2 or
depth. Every sequence is ticked through the rig in order and what it publishes is written to
the output directory. Dumps of other cameras are dropped unless the rig config sets
unknown_camera_fallback, which publishes them on the color topic in the color format.`,
				Flags: withFlags(sizeFlags(true), []cli.Flag{
					&cli.StringFlag{
						Name:      flagConfig,
						Aliases:   []string{"c"},
						Usage:     "load rig configuration from `FILE`",
						TakesFile: true,
					},
					&cli.StringFlag{
						Name:     flagDir,
						Usage:    "directory of frame dumps",
						Required: true,
					},
					&cli.StringFlag{
						Name:     flagOut,
						Usage:    "output directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:  flagColorFormat,
						Usage: "pixel format of the color dumps",
						Value: string(rimage.PixelFormatRGB8),
					},
					&cli.StringFlag{
						Name:  flagImageFormat,
						Usage: "extension of the written images",
						Value: "png",
					},
					&cli.BoolFlag{
						Name:  flagBinary,
						Usage: "write binary instead of ascii pcd",
					},
					&cli.BoolFlag{
						Name:  flagWatch,
						Usage: "keep running and replay dumps as they appear",
					},
				}),
				Action: ReplayAction,
			},
			{
				Name:   "schema",
				Usage:  "print the JSON schema of the rig configuration",
				Action: SchemaAction,
			},
		},
	}
}
