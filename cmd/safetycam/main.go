package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/ayusman/safetycam/internal/alarm"
	"github.com/ayusman/safetycam/internal/app"
	"github.com/ayusman/safetycam/internal/capture"
	"github.com/ayusman/safetycam/internal/config"
	"github.com/ayusman/safetycam/internal/detector"
	"github.com/ayusman/safetycam/internal/server"
	"github.com/ayusman/safetycam/internal/session"
	"github.com/ayusman/safetycam/internal/sink"
	"github.com/ayusman/safetycam/internal/store"
	"github.com/ayusman/safetycam/internal/tray"
)

// OpenCV windows and the tray both need the process main thread.
func init() {
	runtime.LockOSThread()
}

func main() {
	fmt.Println("SafetyCam - Distress Signal Monitor")

	defaultPath, err := config.DefaultPath()
	if err != nil {
		log.Fatalf("Failed to resolve config path: %v", err)
	}

	configPath := flag.String("config", defaultPath, "path to the JSON config file")
	video := flag.String("video", "", "path to an optional video file instead of the camera")
	device := flag.Int("device", 0, "camera device id")
	buffer := flag.Int("buffer", 0, "max track buffer size")
	broker := flag.String("broker", "", "MQTT broker URL, or \"off\" to disable publishing")
	dbPath := flag.String("db", "", "path to the alert database")
	addr := flag.String("addr", "", "HTTP listen address, or \"off\" to disable the server")
	display := flag.Bool("display", true, "show the annotated video window")
	useTray := flag.Bool("tray", false, "show the system tray menu")
	saveConfig := flag.Bool("save-config", false, "write the effective config to -config and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Flags override the file only when given.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "video":
			cfg.Capture.VideoPath = *video
		case "device":
			cfg.Capture.DeviceID = *device
		case "buffer":
			cfg.Session.BufferCapacity = *buffer
		case "broker":
			if *broker == "off" {
				cfg.MQTT.Enabled = false
			} else {
				cfg.MQTT.Enabled = true
				cfg.MQTT.Broker = *broker
			}
		case "db":
			cfg.StorePath = *dbPath
		case "addr":
			cfg.ServerAddr = *addr
		case "display":
			cfg.Display = *display
		case "tray":
			cfg.Tray = *useTray
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if *saveConfig {
		if err := cfg.Save(*configPath); err != nil {
			log.Fatalf("Failed to save config: %v", err)
		}
		fmt.Printf("Config written to %s\n", *configPath)
		return
	}

	// Initialize the store
	if cfg.StorePath == "" {
		cfg.StorePath = filepath.Join(filepath.Dir(defaultPath), "safetycam.db")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.StorePath), 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}
	st, err := store.New(cfg.StorePath)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	// The dispatcher drains before the broker connection closes.
	dispatcher, publisher := newDispatcher(cfg, st)
	if publisher != nil {
		defer publisher.Close()
	}
	defer dispatcher.Close()

	serve := cfg.ServerAddr != "" && cfg.ServerAddr != "off"

	if cfg.Tray && cfg.Display {
		log.Println("Video window disabled: the tray owns the main thread")
		cfg.Display = false
	}

	var window app.Display
	if cfg.Display {
		window = capture.NewWindow("Frame")
	}

	a, err := app.New(app.Config{
		Session:      cfg.Session,
		Alert:        cfg.Alert,
		Sink:         dispatcher,
		Store:        st,
		Camera:       capture.NewCamera(cfg.Capture),
		Detector:     detector.NewColorDetector(cfg.Detector),
		Display:      window,
		DrawRadius:   cfg.Detector.MinRadius,
		StreamFrames: serve,
	})
	if err != nil {
		log.Fatalf("Failed to create app: %v", err)
	}
	defer a.Stop()

	if serve {
		srv := server.New(server.Config{
			Store:  st,
			Status: a,
			Frames: a,
		})
		defer srv.Close()

		go func() {
			fmt.Printf("Starting server on %s\n", cfg.ServerAddr)
			if err := srv.ListenAndServe(cfg.ServerAddr); err != nil {
				log.Printf("Server stopped: %v", err)
			}
		}()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if !cfg.Tray {
		// The window was created here, so frames are shown from here too.
		if err := a.Run(ctx); err != nil {
			log.Printf("Failed to start capture: %v", err)
		}
		if ctx.Err() != nil {
			log.Println("Signal received, shutting down")
		}
		return
	}

	if err := a.Start(); err != nil {
		log.Fatalf("Failed to start capture: %v", err)
	}

	t := tray.New()
	t.OnToggle(a.SetEnabled)
	if serve {
		url := dashboardURL(cfg.ServerAddr)
		t.OnOpen(func() {
			if err := openBrowser(url); err != nil {
				log.Printf("Failed to open %s: %v", url, err)
			}
		})
	}
	a.OnAlert(func(r session.Result) {
		t.SetState(r.State)
		t.SetLastAlert(r.Alert)
	})
	go trackState(a, t)
	go func() {
		select {
		case <-a.Done():
		case <-ctx.Done():
			log.Println("Signal received, shutting down")
		}
		t.Quit()
	}()

	// systray.Run must own the main goroutine.
	t.Run()
}

// newDispatcher wires the MQTT publisher and speech announcer behind an
// asynchronous dispatcher. A broker that cannot be reached disables
// publishing instead of stopping the monitor.
func newDispatcher(cfg *config.Config, failures sink.FailureRecorder) (*sink.Dispatcher, *sink.MQTTPublisher) {
	dc := sink.DispatcherConfig{
		Failures:  failures,
		QueueSize: cfg.QueueSize,
		Timeout:   cfg.DispatchTimeout(),
	}

	var publisher *sink.MQTTPublisher
	if cfg.MQTT.Enabled {
		pub, err := sink.NewMQTTPublisher(cfg.MQTTConfig())
		if err != nil {
			log.Printf("MQTT unavailable (%v), alerts will not be published", err)
		} else {
			log.Printf("Publishing alerts to %s", cfg.MQTT.Broker)
			publisher = pub
			dc.Publisher = pub
		}
	}

	if cfg.Speech.Enabled {
		dc.Announcer = sink.NewSpeechAnnouncer(cfg.Speech.Command, cfg.Speech.Args...)
	}

	return sink.NewDispatcher(dc), publisher
}

// trackState mirrors the alarm state into the tray until the app stops.
func trackState(a *app.App, t *tray.Tray) {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	last := alarm.Idle
	done := a.Done()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
		}
		if st := a.Status().Last.State; st != last {
			last = st
			t.SetState(st)
		}
	}
}

// dashboardURL turns a listen address into the status page URL. An
// unspecified host means the local machine.
func dashboardURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr + "/api/status"
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port) + "/api/status"
}

// browserCommand returns the command that opens url on goos.
func browserCommand(goos, url string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{url}
	case "windows":
		return "cmd", []string{"/c", "start", url}
	default:
		return "xdg-open", []string{url}
	}
}

func openBrowser(url string) error {
	name, args := browserCommand(runtime.GOOS, url)
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	// Reap the launcher without blocking the menu.
	go cmd.Wait()
	return nil
}
