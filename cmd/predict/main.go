// Command predict runs a single metadata-described prediction and prints the result as JSON.
//
//	predict [-verbose] <meta.json> <features_json>
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"healthrisk/classify"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("predict", flag.ContinueOnError)
	flags.SetOutput(stderr)
	verbose := flags.Bool("verbose", false, "log model loading to stderr")
	if err := flags.Parse(args); err != nil {
		return 2
	}
	if flags.NArg() != 2 {
		return fail(stdout, errors.New("usage: predict <meta.json> <features_json>"))
	}

	logger := zap.NewNop()
	if *verbose {
		core := zapcore.NewCore(
			zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
			zapcore.AddSync(stderr),
			zapcore.DebugLevel,
		)
		logger = zap.New(core)
	}
	out, err := predict(flags.Arg(0), []byte(flags.Arg(1)), logger)
	if err != nil {
		return fail(stdout, err)
	}
	if err := json.NewEncoder(stdout).Encode(out); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}

func predict(metaPath string, features []byte, logger *zap.Logger) (map[string]float64, error) {
	records, err := classify.ParseRecords(features)
	if err != nil {
		return nil, err
	}
	if len(records) != 1 {
		return nil, errors.New("features must be a single JSON object")
	}
	targets, err := classify.NewTargetPredictor(1, logger)
	if err != nil {
		return nil, err
	}
	return targets.Predict(metaPath, records[0])
}

func fail(w io.Writer, err error) int {
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
	return 1
}
