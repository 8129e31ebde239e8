package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"syscall"

	influxdb2 "github.com/influxdata/influxdb-client-go"
	"github.com/influxdata/influxdb-client-go/api"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/samuel/go-hackrf/hackrf"
	"golang.org/x/sync/errgroup"

	"github.com/norasector/iqcapture/pkg/capture"
	"github.com/norasector/iqcapture/pkg/capture/config"
	"github.com/norasector/iqcapture/pkg/capture/consumer"
	"github.com/norasector/iqcapture/pkg/capture/device"
	"github.com/norasector/iqcapture/pkg/capture/device/file"
	hackrfDevice "github.com/norasector/iqcapture/pkg/capture/device/hackrf"
	"github.com/norasector/iqcapture/pkg/capture/device/rtlsdr"
	"github.com/norasector/iqcapture/pkg/capture/status"
	"github.com/norasector/iqcapture/pkg/util"
)

func main() {
	os.Exit(run())
}

func run() int {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.InfoLevel)
	configFile := flag.String("config", "iqcapture.yaml", "YAML config file, or key=value file ending in .txt")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	if *debug {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	}

	fmt.Printf("\n### KSA LIVE! ###\n\n")

	opts, err := config.Load(*configFile)
	if err != nil {
		log.Error().Err(err).Msg("error reading config file")
		return 1
	}
	if err := opts.Validate(); err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		return 1
	}
	fmt.Printf("IP-Address: %s\n", opts.Address)
	fmt.Printf("Frequency: %s\n", util.MHzToString(opts.CenterFreqMHz))
	fmt.Printf("Multicast-Address: %s\n", opts.Multicast)

	address := opts.Address
	if opts.PlaybackLocation != "" {
		opts.Device = "file"
		address = opts.PlaybackLocation
	}

	policy, err := capture.ParseTimeoutPolicy(opts.TimeoutPolicy)
	if err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		return 1
	}

	var dev device.Device
	switch opts.Device {
	case "rtlsdr":
		log.Info().Str("device", "rtlsdr").Msg("initializing device...")
		dev = rtlsdr.NewRTLSDRDevice(opts.RTLSDRDeviceIndex, log.Logger)
	case "file":
		log.Info().Str("device", "file").Msg("initializing device...")
		dev = file.NewFileDevice(opts.PlaybackRealtime)
	default:
		log.Info().Str("device", "hackrf").Msg("initializing device...")
		if err := hackrf.Init(); err != nil {
			log.Error().Str("device", "hackrf").Err(err).Msg("failed to initialize hackRF")
			return 1
		}
		defer hackrf.Exit()
		dev = hackrfDevice.NewHackRFDevice(log.Logger)
	}

	var writeAPI api.WriteAPI = &util.MockWriteAPI{}
	if opts.InfluxDB.Host != "" {
		client := influxdb2.NewClient(opts.InfluxDB.Host, "")
		defer client.Close()
		writeAPI = client.WriteAPI(opts.InfluxDB.Organization, opts.InfluxDB.Bucket)
	}

	controller := capture.NewController(os.Stdout)

	capt, err := capture.NewCapture(dev,
		capture.Options{
			Address:              address,
			CenterFreqMHz:        opts.CenterFreqMHz,
			SamplingClock:        opts.SamplingClock,
			AcquisitionSize:      opts.AcquisitionSize,
			BlockSize:            opts.BlockSize,
			OutputFile:           opts.OutputFile,
			TimeoutPolicy:        policy,
			MaxConsecutiveMisses: opts.MaxConsecutiveMisses,
		},
		capture.WithCanceller(controller),
		capture.WithInfluxDB(writeAPI),
		capture.WithLogger(log.Logger))
	if err != nil {
		log.Error().Err(err).Msg("failed to create capture")
		return 1
	}

	if err := capt.Init(); err != nil {
		fmt.Println("Initialization failed!")
		log.Error().Err(err).Msg("exited program")
		return 1
	}
	fmt.Println("Init complete")

	handles := launchConsumers(opts)
	if opts.StopConsumers {
		defer func() {
			for _, h := range handles {
				if err := h.Stop(); err != nil {
					log.Warn().Str("consumer", h.Name()).Err(err).Msg("could not stop consumer")
				}
			}
		}()
	}

	controller.Watch(os.Interrupt, syscall.SIGTERM)
	defer controller.Release()

	eg, ctx := errgroup.WithContext(context.Background())
	ctx, stopServer := context.WithCancel(ctx)

	if opts.StatusServer.Port > 0 {
		srv := status.NewServer(opts.StatusServer.Port, capt.Session().String(), capt.Stats())
		eg.Go(func() error {
			return srv.Run(ctx)
		})
	}

	eg.Go(func() error {
		defer stopServer()
		return capt.Run(context.Background())
	})

	err = eg.Wait()
	controller.Release()

	var devErr *capture.DeviceError
	switch {
	case errors.As(err, &devErr) && devErr.Op == "start stream":
		fmt.Println("Start stream failed!")
	case errors.As(err, &devErr) && devErr.Op == "stop stream":
		fmt.Println("Stop stream failed!")
	}
	if err != nil {
		log.Error().Err(err).Msg("exited program")
		return 1
	}

	fmt.Println("Terminated successfully")
	return 0
}

func launchConsumers(opts config.Config) []consumer.Handle {
	descriptors := make([]consumer.Descriptor, 0, len(opts.Consumers))
	for _, c := range opts.Consumers {
		d, err := consumer.Expand(c.Name, c.Command, c.Args, opts)
		if err != nil {
			log.Error().Err(err).Msg("skipping consumer")
			continue
		}
		descriptors = append(descriptors, d)
	}
	return consumer.LaunchAll(&consumer.ExecLauncher{Logger: log.Logger}, descriptors, log.Logger)
}
