package cli

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"go.viam.com/test"
	"go.viam.com/utils/testutils"

	"go.viam.com/depthsim/rimage"
	"go.viam.com/depthsim/utils"
)

const replayConfig = `{
	"rig": {
		"point_cloud": true,
		"color_cloud": true,
		"pose": true,
		"depth": {"update_rate_hz": 10}
	}
}`

func listDir(t testing.TB, dir string) []string {
	entries, err := os.ReadDir(dir)
	test.That(t, err, test.ShouldBeNil)
	var names []string
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names
}

func writeDumps(t *testing.T, dir, seq string, cameras ...string) {
	t.Helper()
	for _, cam := range cameras {
		path := filepath.Join(dir, seq+"."+cam)
		switch cam {
		case "depth":
			writeDepthDump(t, path, 2, 3, 1)
		case "color":
			test.That(t, os.WriteFile(path, make([]byte, 18), 0o600), test.ShouldBeNil)
		default:
			test.That(t, os.WriteFile(path, make([]byte, 6), 0o600), test.ShouldBeNil)
		}
	}
}

func TestSequences(t *testing.T) {
	dir := t.TempDir()
	writeDumps(t, dir, "10", "depth")
	writeDumps(t, dir, "2", "depth", "color")
	writeDumps(t, dir, "a", "ired1")
	test.That(t, os.WriteFile(filepath.Join(dir, ".hidden"), nil, 0o600), test.ShouldBeNil)
	test.That(t, os.WriteFile(filepath.Join(dir, "noext"), nil, 0o600), test.ShouldBeNil)

	seqs, names, err := sequences(dir)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, seqs, test.ShouldResemble, []string{"2", "10", "a"})
	test.That(t, names["2"], test.ShouldResemble, []string{"color", "depth"})
	test.That(t, names["a"], test.ShouldResemble, []string{"ired1"})

	_, _, err = sequences(filepath.Join(dir, "missing"))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestReplayAction(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in")
	out := filepath.Join(dir, "out")
	test.That(t, os.Mkdir(in, 0o750), test.ShouldBeNil)
	writeDumps(t, in, "0", "depth", "color", "ired1", "txt")
	writeDumps(t, in, "1", "depth", "color")
	confPath := filepath.Join(dir, "rig.json")
	test.That(t, os.WriteFile(confPath, []byte(replayConfig), 0o600), test.ShouldBeNil)

	_, errOut, err := runApp(t, "replay",
		"--config", confPath, "--width", "3", "--height", "2", "--dir", in, "--out", out)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, listDir(t, out), test.ShouldResemble, []string{
		"camera_color_image_raw_0.000000000.json",
		"camera_color_image_raw_0.000000000.png",
		"camera_color_image_raw_0.100000000.json",
		"camera_color_image_raw_0.100000000.png",
		"camera_depth_image_raw_0.000000000.json",
		"camera_depth_image_raw_0.000000000.png",
		"camera_depth_image_raw_0.100000000.json",
		"camera_depth_image_raw_0.100000000.png",
		"camera_depth_points_0.000000000.pcd",
		"camera_depth_points_0.100000000.pcd",
		"camera_infra1_image_raw_0.000000000.json",
		"camera_infra1_image_raw_0.000000000.png",
		"camera_pose_0.000000000.json",
		"camera_pose_0.100000000.json",
	})

	pcd, err := os.ReadFile(filepath.Join(out, "camera_depth_points_0.100000000.pcd"))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(pcd), test.ShouldContainSubstring, "FIELDS x y z rgb\n")

	pose, err := os.ReadFile(filepath.Join(out, "camera_pose_0.000000000.json"))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(pose), test.ShouldContainSubstring, `"frame_id": "odom"`)

	// the unknown dump is dropped with an error
	test.That(t, strings.Join(errOut.messages, ""), test.ShouldContainSubstring, "dropping frame")
}

func TestReplayUnknownCameraFallback(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in")
	out := filepath.Join(dir, "out")
	test.That(t, os.Mkdir(in, 0o750), test.ShouldBeNil)
	writeDumps(t, in, "0", "depth")
	thermal := make([]byte, 18)
	for i := range thermal {
		thermal[i] = 9
	}
	test.That(t, os.WriteFile(filepath.Join(in, "0.thermal"), thermal, 0o600), test.ShouldBeNil)
	confPath := filepath.Join(dir, "rig.json")
	conf := `{"rig": {"unknown_camera_fallback": true}}`
	test.That(t, os.WriteFile(confPath, []byte(conf), 0o600), test.ShouldBeNil)

	_, _, err := runApp(t, "replay",
		"--config", confPath, "--width", "3", "--height", "2", "--dir", in, "--out", out)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, listDir(t, out), test.ShouldContain, "camera_color_image_raw_0.000000000.png")

	data, err := os.ReadFile(filepath.Join(out, "camera_color_image_raw_0.000000000.png"))
	test.That(t, err, test.ShouldBeNil)
	img, err := rimage.DecodeImage(context.Background(), data, utils.MimeTypePNG)
	test.That(t, err, test.ShouldBeNil)
	r, g, b, _ := img.At(2, 1).RGBA()
	test.That(t, []uint32{r >> 8, g >> 8, b >> 8}, test.ShouldResemble, []uint32{9, 9, 9})
}

func TestReplayActionErrors(t *testing.T) {
	dir := t.TempDir()

	_, _, err := runApp(t, "replay", "--width", "3", "--height", "2", "--dir", dir, "--out", dir)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "must differ")

	_, _, err = runApp(t, "replay", "--width", "3", "--height", "2", "--dir", dir,
		"--out", filepath.Join(dir, "out"), "--color-format", "BGR_INT8")
	test.That(t, err, test.ShouldNotBeNil)

	_, _, err = runApp(t, "replay", "--width", "3", "--height", "2", "--dir", dir,
		"--out", filepath.Join(dir, "out"), "--image-format", "gif")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "unsupported image format")

	_, _, err = runApp(t, "replay", "--width", "3", "--height", "2",
		"--dir", filepath.Join(dir, "missing"), "--out", filepath.Join(dir, "out"))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestReplayWatch(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in")
	out := filepath.Join(dir, "out")
	test.That(t, os.Mkdir(in, 0o750), test.ShouldBeNil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		app := NewApp(&testWriter{}, &testWriter{})
		done <- app.RunContext(ctx, []string{
			"depthsim", "replay", "--width", "3", "--height", "2", "--dir", in, "--out", out, "--watch",
		})
	}()

	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		// rewrite until the watcher is up and sees it
		writeDepthDump(t, filepath.Join(in, "7.depth"), 2, 3, 1)
		entries, err := os.ReadDir(out)
		test.That(tb, err, test.ShouldBeNil)
		var found bool
		for _, entry := range entries {
			if strings.HasPrefix(entry.Name(), "camera_depth_image_raw_") {
				found = true
			}
		}
		test.That(tb, found, test.ShouldBeTrue)
	})

	cancel()
	test.That(t, <-done, test.ShouldBeNil)
}
