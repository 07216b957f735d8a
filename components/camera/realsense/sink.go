package realsense

import (
	"context"
	"sync"

	"go.viam.com/depthsim/pointcloud"
	"go.viam.com/depthsim/rimage"
	"go.viam.com/depthsim/rimage/transform"
	"go.viam.com/depthsim/spatialmath"
)

// A Sink publishes the rig's messages to subscribers.
type Sink interface {
	// PublishImage publishes an image with its calibration.
	PublishImage(ctx context.Context, topic string, img *rimage.ImageBuffer, info *transform.CameraInfo) error
	// PublishPointCloud publishes a cloud. The cloud is lent for the duration of the call and
	// is overwritten by the next depth tick, so it must be copied or fully consumed before
	// returning.
	PublishPointCloud(ctx context.Context, topic string, cloud *pointcloud.PointCloud) error
	// PublishPose publishes the pose of the rig.
	PublishPose(ctx context.Context, topic string, pose *spatialmath.PoseStamped) error
	// Subscribers returns how many consumers listen on topic.
	Subscribers(topic string) int
}

// ImageMessage is an image published to a Recorder.
type ImageMessage struct {
	Topic string
	Image *rimage.ImageBuffer
	Info  *transform.CameraInfo
}

// CloudMessage is a point cloud published to a Recorder.
type CloudMessage struct {
	Topic string
	Cloud *pointcloud.PointCloud
}

// PoseMessage is a pose published to a Recorder.
type PoseMessage struct {
	Topic string
	Pose  spatialmath.PoseStamped
}

// Recorder is a Sink that keeps everything published to it in memory.
type Recorder struct {
	mu          sync.Mutex
	subscribers map[string]int
	images      []ImageMessage
	clouds      []CloudMessage
	poses       []PoseMessage
}

// NewRecorder returns an empty recorder with no subscribers.
func NewRecorder() *Recorder {
	return &Recorder{subscribers: map[string]int{}}
}

// SetSubscribers sets the subscriber count reported for topic.
func (r *Recorder) SetSubscribers(topic string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subscribers[topic] = n
}

// Subscribers returns the subscriber count set for topic.
func (r *Recorder) Subscribers(topic string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.subscribers[topic]
}

// PublishImage records the image.
func (r *Recorder) PublishImage(ctx context.Context, topic string, img *rimage.ImageBuffer, info *transform.CameraInfo) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.images = append(r.images, ImageMessage{Topic: topic, Image: img, Info: info})
	return nil
}

// PublishPointCloud records a copy of the cloud.
func (r *Recorder) PublishPointCloud(ctx context.Context, topic string, cloud *pointcloud.PointCloud) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	clone := cloud.Clone()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clouds = append(r.clouds, CloudMessage{Topic: topic, Cloud: clone})
	return nil
}

// PublishPose records the pose.
func (r *Recorder) PublishPose(ctx context.Context, topic string, pose *spatialmath.PoseStamped) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.poses = append(r.poses, PoseMessage{Topic: topic, Pose: *pose})
	return nil
}

// Images returns the recorded images, optionally only those published on topic.
func (r *Recorder) Images(topic string) []ImageMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ImageMessage
	for _, m := range r.images {
		if topic == "" || m.Topic == topic {
			out = append(out, m)
		}
	}
	return out
}

// Clouds returns the recorded clouds.
func (r *Recorder) Clouds() []CloudMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]CloudMessage(nil), r.clouds...)
}

// Poses returns the recorded poses.
func (r *Recorder) Poses() []PoseMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]PoseMessage(nil), r.poses...)
}
