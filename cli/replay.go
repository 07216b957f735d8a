package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	goutils "go.viam.com/utils"

	"go.viam.com/depthsim/components/camera/realsense"
	"go.viam.com/depthsim/config"
	"go.viam.com/depthsim/logging"
	"go.viam.com/depthsim/pointcloud"
	"go.viam.com/depthsim/rimage"
	"go.viam.com/depthsim/rimage/transform"
	"go.viam.com/depthsim/spatialmath"
	"go.viam.com/depthsim/utils"
)

const depthExt = ".depth"

// dirEngine serves the frames of one sequence of a dump directory at a time.
type dirEngine struct {
	dir         string
	width       int
	height      int
	colorFormat rimage.PixelFormat
	seq         string
}

func (e *dirEngine) path(name string) string {
	return filepath.Join(e.dir, e.seq+"."+name)
}

func (e *dirEngine) DepthFrame(ctx context.Context) (*rimage.DepthFrame, error) {
	return readDepthFile(e.path(realsense.DepthCamera.String()), e.height, e.width)
}

// ColorFrame returns nil when the sequence has no dump for the camera.
func (e *dirEngine) ColorFrame(ctx context.Context, id realsense.CameraID) (*rimage.ColorFrame, error) {
	format := e.colorFormat
	if id != realsense.ColorCamera {
		format = rimage.PixelFormatL8
	}
	return e.readFrame(id.String(), format)
}

// NamedColorFrame reads the dump of an unrecognized camera in the color camera's format.
func (e *dirEngine) NamedColorFrame(ctx context.Context, name string) (*rimage.ColorFrame, error) {
	return e.readFrame(name, e.colorFormat)
}

func (e *dirEngine) readFrame(name string, format rimage.PixelFormat) (*rimage.ColorFrame, error) {
	//nolint:gosec
	f, err := os.Open(e.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer goutils.UncheckedErrorFunc(f.Close)
	return rimage.ReadColorFrame(f, e.width, e.height, format)
}

// fileSink writes every message to a directory and claims one subscriber on every topic.
type fileSink struct {
	dir       string
	imageMime string
	pcdType   pointcloud.PCDType
	logger    logging.Logger
}

func (s *fileSink) Subscribers(topic string) int {
	return 1
}

func (s *fileSink) fileName(topic string, stamp utils.Stamp, ext string) (string, error) {
	name := strings.ReplaceAll(strings.Trim(topic, "/"), "/", "_") + "_" + stamp.String() + ext
	return utils.SafeJoinDir(s.dir, name)
}

func (s *fileSink) writeJSON(topic string, stamp utils.Stamp, v interface{}) error {
	path, err := s.fileName(topic, stamp, ".json")
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return utils.WriteFileAtomic(path, data)
}

func (s *fileSink) PublishImage(
	ctx context.Context,
	topic string,
	img *rimage.ImageBuffer,
	info *transform.CameraInfo,
) error {
	data, err := rimage.EncodeImageBuffer(ctx, img, s.imageMime)
	if err != nil {
		return err
	}
	path, err := s.fileName(topic, img.Header.Stamp, utils.ExtensionForMimeType(s.imageMime))
	if err != nil {
		return err
	}
	if err := utils.WriteFileAtomic(path, data); err != nil {
		return err
	}
	return s.writeJSON(topic, img.Header.Stamp, info)
}

func (s *fileSink) PublishPointCloud(ctx context.Context, topic string, cloud *pointcloud.PointCloud) error {
	var buf bytes.Buffer
	if err := pointcloud.ToPCD(cloud, &buf, s.pcdType); err != nil {
		return err
	}
	path, err := s.fileName(topic, cloud.Header.Stamp, ".pcd")
	if err != nil {
		return err
	}
	if err := utils.WriteFileAtomic(path, buf.Bytes()); err != nil {
		return err
	}
	summary, err := pointcloud.Summarize(cloud)
	if err != nil {
		return err
	}
	s.logger.Infow("wrote point cloud",
		"path", path,
		"valid", summary.Valid,
		"points", summary.Points,
		"mean_depth", summary.MeanDepth,
		"bounds", summary.Bounds,
	)
	return nil
}

func (s *fileSink) PublishPose(ctx context.Context, topic string, pose *spatialmath.PoseStamped) error {
	return s.writeJSON(topic, pose.Header.Stamp, pose)
}

// replayer ticks dumped sequences through an adapter, advancing simulation time by one depth
// period per sequence.
type replayer struct {
	engine  *dirEngine
	adapter *realsense.Adapter
	clock   *clock.Mock
	period  time.Duration
	logger  logging.Logger
}

// sequences groups the dumps of dir by sequence name, in sequence order.
func sequences(dir string) ([]string, map[string][]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}
	names := map[string][]string{}
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext == "" {
			continue
		}
		seq := strings.TrimSuffix(entry.Name(), ext)
		names[seq] = append(names[seq], strings.TrimPrefix(ext, "."))
	}
	seqs := make([]string, 0, len(names))
	for seq := range names {
		seqs = append(seqs, seq)
		sort.Strings(names[seq])
	}
	sort.Slice(seqs, func(i, j int) bool {
		return sequenceLess(seqs[i], seqs[j])
	})
	return seqs, names, nil
}

// sequenceLess orders numeric names numerically and everything else lexically after them.
func sequenceLess(a, b string) bool {
	ai, aErr := strconv.Atoi(a)
	bi, bErr := strconv.Atoi(b)
	switch {
	case aErr == nil && bErr == nil:
		return ai < bi
	case aErr == nil:
		return true
	case bErr == nil:
		return false
	default:
		return a < b
	}
}

// replay runs one sequence. Depth goes last so a color cloud sees the sequence's color dump.
// The adapter skips dumps of disabled cameras.
func (r *replayer) replay(ctx context.Context, seq string, names []string) {
	r.engine.seq = seq
	var hasDepth bool
	for _, name := range names {
		if id, err := realsense.CameraIDFromName(name); err == nil && id == realsense.DepthCamera {
			hasDepth = true
			continue
		}
		//nolint:errcheck
		r.adapter.NamedTick(ctx, name)
	}
	if hasDepth {
		//nolint:errcheck
		r.adapter.Tick(ctx, realsense.DepthCamera)
	}
	r.logger.Debugw("replayed sequence", "seq", seq, "dumps", len(names))
	r.clock.Add(r.period)
}

func (r *replayer) replayDir(ctx context.Context) error {
	seqs, names, err := sequences(r.engine.dir)
	if err != nil {
		return err
	}
	for _, seq := range seqs {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.replay(ctx, seq, names[seq])
	}
	r.logger.Infow("replayed directory", "dir", r.engine.dir, "sequences", len(seqs))
	return nil
}

// watch replays every sequence whose depth dump is created or rewritten until ctx is done.
func (r *replayer) watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer goutils.UncheckedErrorFunc(watcher.Close)
	if err := watcher.Add(r.engine.dir); err != nil {
		return err
	}
	r.logger.Infow("watching for dumps", "dir", r.engine.dir)
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.Warnw("watch error", "error", err)
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if filepath.Ext(event.Name) != depthExt {
				continue
			}
			seq := strings.TrimSuffix(filepath.Base(event.Name), depthExt)
			_, names, err := sequences(r.engine.dir)
			if err != nil {
				return err
			}
			r.replay(ctx, seq, names[seq])
		}
	}
}

func readReplayConfig(c *cli.Context, logger logging.Logger) (*config.Config, error) {
	if path := c.String(flagConfig); path != "" {
		return config.Read(c.Context, path, logger)
	}
	cfg := &config.Config{}
	if err := cfg.Ensure(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ReplayAction runs a rig over a directory of frame dumps.
func ReplayAction(c *cli.Context) error {
	logger := newLogger(c)
	cfg, err := readReplayConfig(c, logger)
	if err != nil {
		return err
	}
	if cfg.Debug {
		logger.SetLevel(logging.DEBUG)
	}

	colorFormat := rimage.PixelFormat(c.String(flagColorFormat))
	if colorFormat.Channels() == 0 {
		return rimage.NewUnsupportedFormatError(string(colorFormat))
	}
	imageMime := utils.MimeTypeFromPath("x." + c.String(flagImageFormat))
	if imageMime == "" || imageMime == utils.MimeTypePCD {
		return errors.Errorf("unsupported image format %q", c.String(flagImageFormat))
	}
	out := c.String(flagOut)
	if filepath.Clean(out) == filepath.Clean(c.String(flagDir)) {
		return errors.New("output directory must differ from the dump directory")
	}
	if err := os.MkdirAll(out, 0o750); err != nil {
		return err
	}
	pcdType := pointcloud.PCDAscii
	if c.Bool(flagBinary) {
		pcdType = pointcloud.PCDBinary
	}

	engine := &dirEngine{
		dir:         c.String(flagDir),
		width:       c.Int(flagWidth),
		height:      c.Int(flagHeight),
		colorFormat: colorFormat,
	}
	mock := clock.NewMock()
	sink := &fileSink{dir: out, imageMime: imageMime, pcdType: pcdType, logger: logger}
	adapter, err := realsense.NewAdapter(
		cfg.Rig, engine, realsense.NewClockTimeSource(mock), sink, logger, realsense.WithClock(mock))
	if err != nil {
		return err
	}
	r := &replayer{
		engine:  engine,
		adapter: adapter,
		clock:   mock,
		period:  cfg.Rig.Depth.Period(),
		logger:  logger,
	}
	if err := r.replayDir(c.Context); err != nil {
		return err
	}
	if !c.Bool(flagWatch) {
		return nil
	}
	return r.watch(c.Context)
}
