package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"time"

	"fmtuner/display"
	"fmtuner/radio"

	"gobot.io/x/gobot"
	"gobot.io/x/gobot/drivers/i2c"
	"gobot.io/x/gobot/platforms/raspi"
	"gopkg.in/natefinch/lumberjack.v2"
)

// consoleLogFile receives the log while the console owns the terminal.
const consoleLogFile = "fmtuner.log"

func main() {
	configPath := flag.String("config", "", "path to the YAML configuration file")
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := Load(*configPath)
	if err != nil {
		log.Fatalln(err)
	}
	setupLogging(cfg)

	radioConfig, err := cfg.DriverConfig(log.Printf, log.Printf)
	if err != nil {
		log.Fatalln(err)
	}

	info := radio.Info()
	log.Printf("%s driver %s, tuning %s\n", info.ChipName, info.Version(), radioConfig.Frequency)

	switch cfg.Transport {
	case "gobot":
		err = runGobot(cfg, radioConfig)
	case "periph":
		err = runPeriph(cfg, radioConfig)
	}
	if err != nil {
		log.Fatalln(err)
	}
}

func setupLogging(cfg *Config) {
	file := cfg.Log.File
	if file == "" && cfg.Console {
		file = consoleLogFile
	}
	if file == "" {
		return
	}

	log.SetOutput(&lumberjack.Logger{
		Filename:   file,
		MaxSize:    cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
}

func runGobot(cfg *Config, radioConfig radio.TEA5767Config) error {
	adaptor := raspi.NewAdaptor()

	options := []func(i2c.Config){i2c.WithAddress(cfg.Bus.Address)}
	if cfg.Bus.Number >= 0 {
		options = append(options, i2c.WithBus(cfg.Bus.Number))
	}
	rdio, err := radio.NewTEA5767Driver(adaptor, radioConfig, options...)
	if err != nil {
		return err
	}
	tnr := newTuner(rdio)

	devices := []gobot.Device{rdio}
	var lcd *display.LCD1602Driver
	if cfg.Display.Enabled {
		lcd = display.NewLCD1602Driver(adaptor, i2c.WithAddress(cfg.Display.Address))
		devices = append(devices, lcd)
	}

	work := func() {
		gobot.Every(1*time.Second, func() {
			st, err := tnr.status()
			if err != nil {
				log.Println(err)
				return
			}
			if cfg.Log.Debug {
				log.Println(st)
			}
			if lcd == nil {
				return
			}
			if err = lcd.ShowStatus(st); err != nil {
				log.Println(err)
			}
		})
	}

	robot := gobot.NewRobot("FM Receiver demo",
		[]gobot.Connection{adaptor},
		devices,
		work,
	)

	if !cfg.Console {
		return robot.Start()
	}

	robot.AutoRun = false
	if err = robot.Start(); err != nil {
		return err
	}
	err = runConsole(tnr, 500*time.Millisecond)
	if serr := robot.Stop(); serr != nil && err == nil {
		err = serr
	}
	return err
}

func runPeriph(cfg *Config, radioConfig radio.TEA5767Config) error {
	transport := radio.NewPeriphTransport(cfg.Bus.Name, uint16(cfg.Bus.Address))
	rdio, err := radio.New(transport, radioConfig)
	if err != nil {
		return err
	}
	if err = rdio.Start(); err != nil {
		return err
	}
	log.Printf("%s on %s\n", rdio.Name(), transport)
	tnr := newTuner(rdio)

	if cfg.Console {
		err = runConsole(tnr, 500*time.Millisecond)
	} else {
		err = pollUntilInterrupt(tnr, time.Second)
	}
	if herr := rdio.Halt(); herr != nil && err == nil {
		err = herr
	}
	return err
}

func pollUntilInterrupt(tnr *tuner, every time.Duration) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	defer signal.Stop(stop)

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return nil
		case <-ticker.C:
			st, err := tnr.status()
			if err != nil {
				return err
			}
			log.Println(st)
		}
	}
}
