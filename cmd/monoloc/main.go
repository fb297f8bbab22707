// Command monoloc localizes the persons of one frame from the command line,
// either in-process or against a running monoloc-server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/handle999/YOLO-MonoPed-Depth/internal/api"
	"github.com/handle999/YOLO-MonoPed-Depth/internal/config"
	"github.com/handle999/YOLO-MonoPed-Depth/internal/localize"
	"github.com/handle999/YOLO-MonoPed-Depth/internal/logging"
	"github.com/handle999/YOLO-MonoPed-Depth/pkg/core"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func main() {
	pflag.String("config", ".", "directory containing "+config.FileName)
	pflag.StringP("input", "i", "", "request JSON file; the built-in sample frame when empty")
	pflag.StringP("terrain", "t", "", "flat or mount, overrides the request")
	pflag.Float64("cam-height", 0, "camera height above ground in metres, overrides the request")
	pflag.Float64("cam-pitch", 0, "camera pitch in degrees, negative is down, overrides the request")
	pflag.String("remote", "", "server base URL; localize in-process when empty")
	pflag.StringP("output", "o", "", "write the response JSON to this file")
	pflag.Parse()

	if err := viper.BindPFlags(pflag.CommandLine); err != nil {
		fmt.Fprintf(os.Stderr, "binding flags: %v\n", err)
		os.Exit(2)
	}
	if err := config.LoadOptional(viper.GetString("config")); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(2)
	}

	if err := run(context.Background(), os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "monoloc: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, out io.Writer) error {
	body, err := loadRequest(viper.GetString("input"))
	if err != nil {
		return err
	}
	applyOverrides(&body)

	var data *api.ResponseData
	if remote := viper.GetString("remote"); remote != "" {
		data, err = api.New(remote).Localize(ctx, body)
	} else {
		data, err = localizeLocal(ctx, body)
	}
	if err != nil {
		return err
	}

	printResults(out, data)

	if path := viper.GetString("output"); path != "" {
		b, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding response: %w", err)
		}
		if err := os.WriteFile(path, b, 0644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	return nil
}

func loadRequest(path string) (api.LocalizationRequest, error) {
	if path == "" {
		return sampleRequest(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return api.LocalizationRequest{}, fmt.Errorf("reading request: %w", err)
	}
	var body api.LocalizationRequest
	if err := json.Unmarshal(b, &body); err != nil {
		return api.LocalizationRequest{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return body, nil
}

func applyOverrides(body *api.LocalizationRequest) {
	if t := viper.GetString("terrain"); t != "" {
		body.Terrain = t
	}
	if pflag.CommandLine.Changed("cam-height") {
		body.CameraInfo.Extrinsics.HeightAboveGround = viper.GetFloat64("cam-height")
	}
	if pflag.CommandLine.Changed("cam-pitch") {
		body.CameraInfo.Extrinsics.Pose.Pitch = viper.GetFloat64("cam-pitch")
	}
}

func localizeLocal(ctx context.Context, body api.LocalizationRequest) (*api.ResponseData, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	if viper.GetString("logLevel") == "debug" {
		m := logging.NewSlogManager()
		m.Setup(logging.Options{File: os.Stderr, Level: "debug"})
		logger = m.Logger()
	}

	opts, err := localize.OptionsFromConfig(config.GetRangingConfig(), config.GetServerConfig().Workers, logger)
	if err != nil {
		return nil, err
	}
	svc, err := localize.New(opts)
	if err != nil {
		return nil, err
	}

	req, err := body.ToRequest(time.Now())
	if err != nil {
		return nil, err
	}
	loc, err := svc.Localize(ctx, req)
	if err != nil {
		return nil, err
	}
	if n := loc.Omitted(); n > 0 {
		logger.Warn("targets omitted", "count", n)
	}
	return api.NewResponseData(loc), nil
}

func printResults(out io.Writer, data *api.ResponseData) {
	fmt.Fprintf(out, "request %s: %d target(s)\n", data.ReqID, len(data.Results))
	for _, r := range data.Results {
		d := r.ComputationDetails
		fmt.Fprintf(out, "%-10s %-11s D=%7.2fm [%.2f, %.2f] bearing=%6.2f lat=%.7f lng=%.7f",
			r.TargetID, r.ReferenceMode, d.CalculatedDepth, d.DistanceMin, d.DistanceMax,
			d.BearingAngle, r.SuspectGeoLocation.Lat, r.SuspectGeoLocation.Lng)
		if r.SuspectGeoLocation.Alt != 0 {
			fmt.Fprintf(out, " alt=%.2f", r.SuspectGeoLocation.Alt)
		}
		fmt.Fprintln(out)
	}
}

// sampleRequest is a rooftop camera looking north-east at two people.
func sampleRequest() api.LocalizationRequest {
	return api.LocalizationRequest{
		ReqID:   "sample",
		Terrain: core.TerrainFlat.String(),
		CameraInfo: api.CameraInfo{
			DeviceID: "cam_sample",
			Extrinsics: api.Extrinsics{
				GPS:               core.GPS{Lat: 22.54321, Lng: 114.05755, Alt: 15.0},
				HeightAboveGround: 3.5,
				Pose:              core.Pose{Pitch: -15, Yaw: 36},
			},
			Intrinsics: api.Intrinsics{
				ImageResolution: core.Resolution{Width: 1920, Height: 1080},
				HardwareSpecs:   core.Hardware{FocalLengthMM: 6.0, SensorWidthMM: 5.37},
			},
		},
		Targets: []api.TargetInput{
			{BBox: &api.BBoxXYWH{X: 900, Y: 500, W: 60, H: 200}, Confidence: 0.9},
			{BBoxXYXY: []float64{1200, 600, 1250, 780}, Confidence: 0.75},
		},
	}
}
