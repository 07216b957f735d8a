package logging

import (
	"testing"

	"go.viam.com/test"
)

func TestObservedLogger(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	logger.Infow("frame dropped", "camera", "color", "reason", "unknown id")
	logger.Debugf("tick %d", 3)

	test.That(t, logs.Len(), test.ShouldEqual, 2)
	entries := logs.All()
	test.That(t, entries[0].Message, test.ShouldEqual, "frame dropped")
	test.That(t, entries[0].ContextMap()["camera"], test.ShouldEqual, "color")
	test.That(t, entries[1].Message, test.ShouldEqual, "tick 3")
	test.That(t, entries[1].Caller.Defined, test.ShouldBeTrue)
	test.That(t, entries[1].Caller.File, test.ShouldEndWith, "logging_test.go")
}

func TestLevelFiltering(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	logger.SetLevel(WARN)
	logger.Info("hidden")
	logger.Debug("hidden")
	logger.Warn("shown")
	logger.Errorw("shown too", "err", "boom")
	test.That(t, logs.Len(), test.ShouldEqual, 2)
	test.That(t, logger.GetLevel(), test.ShouldEqual, WARN)
}

func TestSubloggerSharesAppenders(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	sub := logger.Sublogger("depth")
	sub.Info("hello")
	test.That(t, logs.Len(), test.ShouldEqual, 1)
	test.That(t, logs.All()[0].LoggerName, test.ShouldEqual, "depth")

	subsub := sub.Sublogger("cloud")
	subsub.Info("again")
	test.That(t, logs.All()[1].LoggerName, test.ShouldEqual, "depth.cloud")
}

func TestUnpairedKey(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	logger.Warnw("odd", "lonely")
	test.That(t, logs.Len(), test.ShouldEqual, 1)
	_, ok := logs.All()[0].ContextMap()["lonely"]
	test.That(t, ok, test.ShouldBeTrue)
}
