// Command pipedalengine is a reference driver binary: it wires an
// in-process Driver to pkg/engine.Engine and drives it at a fixed tick
// rate, loading a pedalboard from a YAML session file. A real ALSA/JACK
// backend is explicitly out of scope (spec.md §1); this binary exists to
// exercise the command/event protocol and the per-block host loop the way
// a real frontend process would, talking to the engine over the same
// proto.Pipe a service process would use.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/rerdavies/pipedal-go/pkg/engine"
	"github.com/rerdavies/pipedal-go/pkg/pedalboard"
	"github.com/rerdavies/pipedal-go/pkg/plugin"
	"github.com/rerdavies/pipedal-go/pkg/pplog"
	"github.com/rerdavies/pipedal-go/pkg/proto"
	"github.com/rerdavies/pipedal-go/pkg/urid"
	"github.com/spf13/pflag"
	"golang.org/x/sys/unix"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "Session config YAML file. Empty uses a built-in default.")
	priority := pflag.IntP("priority", "P", 0, "SCHED_RR priority for the audio callback thread. 0 leaves the default scheduler.")
	verbose := pflag.BoolP("verbose", "v", false, "Enable debug-level logging.")
	pflag.Parse()

	log := pplog.New("pipedalengine")
	log.SetDebug(*verbose)

	cfg, err := loadSessionConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pipedalengine: %v\n", err)
		os.Exit(1)
	}

	pipe, err := proto.NewPipe(4096, 4096, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pipedalengine: opening command/event pipe: %v\n", err)
		os.Exit(1)
	}
	defer pipe.Close()

	handles := proto.NewHandleTable()
	driver := newNullDriver(cfg.InputChannels, cfg.OutputChannels, cfg.BufferSize, cfg.SampleRate)
	eng := engine.NewEngine(driver, pipe, handles, log)

	host := &pedalboard.Host{
		Loader:         demoLoader{},
		Features:       plugin.Features{SampleRate: cfg.SampleRate, NominalBlockLength: cfg.BufferSize},
		Log:            log,
		UridMap:        urid.New(),
		InputChannels:  cfg.InputChannels,
		OutputChannels: cfg.OutputChannels,
		MaxBlockSize:   cfg.BufferSize,
	}
	rt, errs := pedalboard.Compile(cfg.toPedalboard(), host)
	for _, e := range errs {
		log.Warningf("compile: %v", e)
	}

	runtimeHandle := handles.Register(rt)
	eng.OnReplacePedalboard(runtimeHandle)

	if err := eng.Activate(); err != nil {
		fmt.Fprintf(os.Stderr, "pipedalengine: activating driver: %v\n", err)
		os.Exit(1)
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	stopped := make(chan struct{})
	go runAudioLoop(eng, driver, cfg, *priority, log, done, stopped)

	<-interrupt
	log.Info("shutting down")
	eng.HandleAudioStopped()
	close(done)
	<-stopped

	if err := eng.Deactivate(); err != nil {
		log.Errorf("deactivating driver: %v", err)
	}
	if err := eng.Close(); err != nil {
		log.Errorf("closing driver: %v", err)
	}
}

// runAudioLoop stands in for the real driver's own callback thread: it
// locks itself to one OS thread (Linux schedules SCHED_RR per-thread, not
// per-goroutine — matching pkg/worker.SetRealtimePriority's own note) and
// ticks OnProcess at the configured buffer period.
func runAudioLoop(eng *engine.Engine, driver *nullDriver, cfg sessionConfig, priority int, log *pplog.Logger, done <-chan struct{}, stopped chan<- struct{}) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(stopped)

	if priority > 0 {
		if err := unix.SchedSetscheduler(0, unix.SCHED_RR, &unix.SchedParam{Priority: int32(priority)}); err != nil {
			log.Warningf("SCHED_RR priority %d unavailable, running at default priority: %v", priority, err)
		}
	}

	period := time.Duration(float64(cfg.BufferSize) / cfg.SampleRate * float64(time.Second))
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			driver.fillTestTone(cfg.BufferSize)
			eng.OnProcess(cfg.BufferSize)
		}
	}
}
