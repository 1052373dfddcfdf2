// detlite is a diagnostic command line tool for the go-detlite bindings:
// enumerating Edge TPU accelerators, probing USB topology paths and running
// one-off detections.
package main

import (
	"fmt"
	"os"

	"github.com/edaniels/golog"
	"github.com/urfave/cli/v2"

	detlite "github.com/detlite/go-detlite"
	"github.com/detlite/go-detlite/preprocess"
)

var logger = golog.NewDevelopmentLogger("detlite")

func main() {
	app := &cli.App{
		Name:  "detlite",
		Usage: "Edge TPU detector diagnostics",
		Commands: []*cli.Command{
			devicesCommand,
			pokeCommand,
			probeCommand,
			detectCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Fatal(err)
	}
}

var devicesCommand = &cli.Command{
	Name:  "devices",
	Usage: "List attached Edge TPU accelerators",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:  "verbosity",
			Usage: "driver log verbosity, 0 (silent) to 10",
		},
	},
	Action: func(ctx *cli.Context) error {
		factory := detlite.EdgeTPU{}
		factory.Verbosity(ctx.Int("verbosity"))
		return detlite.QueryDevices(os.Stdout, factory)
	},
}

var pokeCommand = &cli.Command{
	Name:  "poke",
	Usage: "Verify each accelerator is reachable by creating a delegate on it",
	Action: func(ctx *cli.Context) error {
		detlite.PokeDevices(detlite.EdgeTPU{}, logger)
		return nil
	},
}

var probeCommand = &cli.Command{
	Name:      "probe",
	Usage:     "Check that a USB device exists at the given sysfs topology path",
	ArgsUsage: "/sys/bus/usb/devices/BUS-PORT.PORT...",
	Action: func(ctx *cli.Context) error {
		path := ctx.Args().First()
		if path == "" {
			return fmt.Errorf("missing device path argument")
		}

		if err := detlite.ProbeDevicePath(detlite.GousbHost{}, path); err != nil {
			return err
		}

		fmt.Println("device found and openable")
		return nil
	},
}

var detectCommand = &cli.Command{
	Name:  "detect",
	Usage: "Run one detection on an image file and print the results",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "model",
			Usage:    "path to the .tflite model file",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "image",
			Usage:    "path to the input image",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "labels",
			Usage: "path to the label file, one label per line",
		},
		&cli.StringFlag{
			Name:  "format",
			Usage: "model tensor layout, odapi or nolo",
			Value: "odapi",
		},
		&cli.StringFlag{
			Name:  "device",
			Usage: "accelerator device path, empty to run on the CPU",
		},
		&cli.StringFlag{
			Name:  "device-type",
			Usage: "accelerator attachment, usb or pci",
			Value: "usb",
		},
		&cli.IntFlag{
			Name:  "width",
			Usage: "model input width",
			Value: 300,
		},
		&cli.IntFlag{
			Name:  "height",
			Usage: "model input height",
			Value: 300,
		},
		&cli.Float64Flag{
			Name:  "score",
			Usage: "minimum score to report",
			Value: 0.3,
		},
	},
	Action: runDetect,
}

func runDetect(ctx *cli.Context) error {

	rt := &detlite.TFLiteRuntime{Logger: logger}
	factory := detlite.EdgeTPU{}

	format, err := detlite.ParseModelFormat(ctx.String("format"))

	if err != nil {
		return err
	}

	var device *detlite.Device

	if path := ctx.String("device"); path != "" {
		typ, err := detlite.ParseDeviceType(ctx.String("device-type"))

		if err != nil {
			return err
		}

		device = &detlite.Device{Type: typ, Path: path}
	}

	detector, err := detlite.NewDetector(rt, ctx.String("model"), device,
		factory, detlite.Params{Contract: format.Contract(), Logger: logger})

	if err != nil {
		return err
	}

	defer detector.Close()

	var labels detlite.Labels

	if file := ctx.String("labels"); file != "" {
		labels, err = detlite.LoadLabels(file)

		if err != nil {
			return err
		}
	}

	resizer := preprocess.NewResizer(ctx.Int("width"), ctx.Int("height"))
	defer resizer.Close()

	buf, err := resizer.ReadFrame(ctx.String("image"))

	if err != nil {
		return err
	}

	outputs, err := detector.Detect(buf)

	if err != nil {
		return err
	}

	var detections []detlite.Detection

	if format == detlite.FormatNolo {
		detections, err = detlite.ParseNoloDetections(outputs)
	} else {
		if detections, err = detlite.ParseDetections(outputs); err == nil {
			detections = detlite.NonMaxSuppression(detections, 0.6)
		}
	}

	if err != nil {
		return err
	}

	minScore := float32(ctx.Float64("score"))

	for _, d := range detections {
		if d.Score < minScore {
			continue
		}
		fmt.Printf("%s %s\n", labels.Name(d.Class), d)
	}

	return nil
}
