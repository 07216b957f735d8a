package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap/zapcore"
	goutils "go.viam.com/utils"

	"go.viam.com/depthsim/logging"
	"go.viam.com/depthsim/rimage"
)

// printf prints a message to the writer with no prefix.
func printf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(w, format+"\n", a...)
}

// warningf prints a message to the writer prefixed with "Warning: ".
func warningf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(w, "Warning: "+format+"\n", a...)
}

func printJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	printf(w, "%s", data)
	return nil
}

// newLogger logs to the app's error writer so command output stays parseable.
func newLogger(c *cli.Context) logging.Logger {
	logger := logging.NewBlankLogger("depthsim")
	logger.AddAppender(logging.NewWriterAppender(zapcore.AddSync(c.App.ErrWriter)))
	if !c.Bool(debugFlag) {
		logger.SetLevel(logging.INFO)
	}
	return logger
}

func readDepthFile(path string, rows, cols int) (df *rimage.DepthFrame, err error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer goutils.UncheckedErrorFunc(f.Close)
	return rimage.ReadDepthFrame(f, rows, cols)
}
