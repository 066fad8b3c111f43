// Package app runs the safetycam detection loop: frames from a camera are
// reduced to an object position, classified, and turned into alerts.
package app

import (
	"context"
	"errors"
	"log"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/safetycam/internal/alarm"
	"github.com/ayusman/safetycam/internal/capture"
	"github.com/ayusman/safetycam/internal/detector"
	"github.com/ayusman/safetycam/internal/gesture"
	"github.com/ayusman/safetycam/internal/session"
	"github.com/ayusman/safetycam/internal/store"
)

// ErrNoCamera is returned by New when no camera is configured.
var ErrNoCamera = errors.New("no camera configured")

// ErrRunning is returned by Run when the pipeline is already running.
var ErrRunning = errors.New("pipeline already running")

// Display shows annotated frames. Show returns true when the user asked
// to quit.
type Display interface {
	Show(frame *gocv.Mat) bool
	Close() error
}

// Config holds the parts the application is assembled from.
type Config struct {
	Session gesture.Config
	Alert   alarm.Alert
	// Sink receives alarm deliveries. It may be nil.
	Sink     alarm.Sink
	Store    *store.Store
	Camera   capture.Camera
	Detector detector.Detector
	// Display is optional. Without it frames are not rendered.
	Display Display
	// DrawRadius is the enclosing radius above which a detection is drawn.
	DrawRadius float64
	// StreamFrames keeps a JPEG copy of the latest annotated frame.
	StreamFrames bool
}

// Status is the application state exposed to the operator surfaces.
type Status struct {
	session.Status
	Enabled bool   `json:"enabled"`
	Running bool   `json:"running"`
	Frames  uint64 `json:"frames"`
}

// AlertCallback is called after an alert has fired and been logged.
type AlertCallback func(r session.Result)

// App orchestrates capture, detection, classification and alert logging.
type App struct {
	config   Config
	camera   capture.Camera
	detector detector.Detector
	display  Display

	// smu guards the session, which is not safe for concurrent use.
	smu     sync.Mutex
	session *session.Session
	frames  uint64

	fmu    sync.RWMutex
	latest []byte

	mu        sync.RWMutex
	enabled   bool
	stopCh    chan struct{}
	done      chan struct{}
	callbacks []AlertCallback
}

// New creates an App. Detection starts enabled.
func New(config Config) (*App, error) {
	if config.Camera == nil {
		return nil, ErrNoCamera
	}

	sess, err := session.New(config.Session, config.Sink, config.Alert)
	if err != nil {
		return nil, err
	}

	det := config.Detector
	if det == nil {
		det = detector.NewColorDetector(detector.DefaultConfig())
		log.Println("Using default color detector")
	}

	return &App{
		config:   config,
		camera:   config.Camera,
		detector: det,
		display:  config.Display,
		session:  sess,
		enabled:  true,
	}, nil
}

// SetEnabled enables or disables classification. While disabled frames are
// still read and shown but no samples are recorded.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	changed := a.enabled != enabled
	a.enabled = enabled
	a.mu.Unlock()

	if changed {
		log.Printf("Detection enabled = %t", enabled)
	}
}

// IsEnabled returns whether classification is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// OnAlert registers a callback for fired alerts.
func (a *App) OnAlert(cb AlertCallback) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.callbacks = append(a.callbacks, cb)
}

// Start opens the camera and runs the detection pipeline in the background.
// Starting a running App is a no-op.
func (a *App) Start() error {
	stopCh, done, err := a.begin()
	if err != nil || stopCh == nil {
		return err
	}
	go a.runPipeline(stopCh, done)
	return nil
}

// Run opens the camera and runs the detection pipeline on the calling
// goroutine until ctx is cancelled, the video ends or the user quits.
// OpenCV windows must be serviced from the thread that created them, so a
// Display created on the main goroutine is driven through Run. Stop must
// still be called to release resources.
func (a *App) Run(ctx context.Context) error {
	stopCh, done, err := a.begin()
	if err != nil {
		return err
	}
	if stopCh == nil {
		return ErrRunning
	}

	go func() {
		select {
		case <-ctx.Done():
			a.halt()
		case <-done:
		}
	}()

	a.runPipeline(stopCh, done)
	return nil
}

// begin opens the camera and allocates the pipeline channels. It returns
// nil channels when the pipeline is already running.
func (a *App) begin() (chan struct{}, chan struct{}, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil, nil, nil
	}

	if err := a.camera.Open(); err != nil {
		return nil, nil, err
	}

	a.stopCh = make(chan struct{})
	a.done = make(chan struct{})

	log.Println("Detection pipeline started")
	return a.stopCh, a.done, nil
}

// halt signals the pipeline to stop and returns its done channel, or nil
// when it is not running.
func (a *App) halt() <-chan struct{} {
	a.mu.Lock()
	stopCh, done := a.stopCh, a.done
	a.stopCh = nil
	a.mu.Unlock()

	if stopCh == nil {
		return nil
	}
	close(stopCh)
	return done
}

// Done returns a channel closed when the pipeline ends, either because
// Stop was called, the video ended or the user quit. It is nil before Start.
func (a *App) Done() <-chan struct{} {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.done
}

// Stop halts the pipeline and releases the camera, detector and display.
func (a *App) Stop() {
	if done := a.halt(); done != nil {
		<-done
	}

	if err := a.camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}
	if err := a.detector.Close(); err != nil {
		log.Printf("Error closing detector: %v", err)
	}
	if a.display != nil {
		if err := a.display.Close(); err != nil {
			log.Printf("Error closing display: %v", err)
		}
	}

	log.Println("Detection pipeline stopped")
}

// Status returns a snapshot of the session and pipeline state.
func (a *App) Status() Status {
	a.smu.Lock()
	st := Status{Status: a.session.Status(), Frames: a.frames}
	a.smu.Unlock()

	a.mu.RLock()
	st.Enabled = a.enabled
	st.Running = a.stopCh != nil
	a.mu.RUnlock()

	select {
	case <-a.Done():
		st.Running = false
	default:
	}
	return st
}

// Trail returns the buffered samples, newest first.
func (a *App) Trail() []gesture.Sample {
	a.smu.Lock()
	defer a.smu.Unlock()
	return a.session.Snapshot()
}

// LatestFrame returns the last annotated frame as JPEG, or nil when frame
// streaming is off or no frame has been read yet.
func (a *App) LatestFrame() []byte {
	a.fmu.RLock()
	defer a.fmu.RUnlock()
	return a.latest
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	return a.camera
}

// Detector returns the object detector.
func (a *App) Detector() detector.Detector {
	return a.detector
}
