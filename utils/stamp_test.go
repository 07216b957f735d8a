package utils

import (
	"testing"
	"time"

	"go.viam.com/test"
)

func TestStampFromDuration(t *testing.T) {
	s := StampFromDuration(3*time.Second + 250*time.Millisecond)
	test.That(t, s.Sec, test.ShouldEqual, 3)
	test.That(t, s.Nanosec, test.ShouldEqual, 250000000)
	test.That(t, s.Duration(), test.ShouldEqual, 3*time.Second+250*time.Millisecond)
	test.That(t, s.String(), test.ShouldEqual, "3.250000000")

	test.That(t, StampFromDuration(-time.Second).IsZero(), test.ShouldBeTrue)
}

func TestMimeTypeFromPath(t *testing.T) {
	test.That(t, MimeTypeFromPath("out/depth.PNG"), test.ShouldEqual, MimeTypePNG)
	test.That(t, MimeTypeFromPath("cloud.pcd"), test.ShouldEqual, MimeTypePCD)
	test.That(t, MimeTypeFromPath("frame.bin"), test.ShouldEqual, "")
	test.That(t, ExtensionForMimeType(MimeTypeQOI), test.ShouldEqual, ".qoi")
}

func TestSafeJoinDir(t *testing.T) {
	p, err := SafeJoinDir("/tmp/out", "color/1.png")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p, test.ShouldEqual, "/tmp/out/color/1.png")

	_, err = SafeJoinDir("/tmp/out", "../etc/passwd")
	test.That(t, err, test.ShouldNotBeNil)
}
