// Package session supervises the kiosk's single client process. The child
// inherits the write end of a pipe; when the child exits, every copy of that
// end closes and the read end reports the hangup, which is the compositor's
// normal shutdown trigger.
package session

import (
	"fmt"
	"os"
	"os/exec"
	"sync"
	"syscall"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// ExitStatus classifies how the child terminated.
type ExitStatus struct {
	Code     int
	Signal   syscall.Signal
	Signaled bool
}

func (st ExitStatus) String() string {
	if st.Signaled {
		return fmt.Sprintf("terminated by signal %d", st.Signal)
	}
	return fmt.Sprintf("exited with code %d", st.Code)
}

// A Supervisor owns the spawned client and its monitoring pipe.
type Supervisor struct {
	cmd    *exec.Cmd
	read   *os.File
	reaped bool
	status ExitStatus

	// mu serializes the monitor's exit callback against StopMonitor, so
	// that once StopMonitor returns no callback is running or pending.
	mu      sync.Mutex
	stopped bool
}

// Spawn starts the client with the given extra environment on top of the
// compositor's own. The returned supervisor has not started monitoring yet;
// call Monitor once the event loop is ready to be terminated.
func Spawn(command []string, extraEnv []string) (*Supervisor, error) {
	if len(command) == 0 {
		return nil, fmt.Errorf("no command to spawn")
	}

	r, w, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("create monitor pipe: %w", err)
	}

	cmd := exec.Command(command[0], command[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(), extraEnv...)
	// The write end rides along in the child and closes when it exits. The
	// parent-death signal keeps a crashed compositor from stranding the
	// client on a dead display.
	cmd.ExtraFiles = []*os.File{w}
	cmd.SysProcAttr = &syscall.SysProcAttr{Pdeathsig: unix.SIGTERM}

	if err := cmd.Start(); err != nil {
		r.Close()
		w.Close()
		return nil, fmt.Errorf("start %s: %w", command[0], err)
	}
	w.Close()

	logrus.WithFields(logrus.Fields{
		"command": command[0],
		"pid":     cmd.Process.Pid,
	}).Debugln("child process created")

	return &Supervisor{cmd: cmd, read: r}, nil
}

// Pid returns the child's process ID.
func (s *Supervisor) Pid() int {
	return s.cmd.Process.Pid
}

// Monitor watches the pipe on its own goroutine and calls exit once the
// child's end has closed. exit must be safe to call from that goroutine;
// the display's terminate request is.
func (s *Supervisor) Monitor(exit func()) {
	go func() {
		buf := make([]byte, 16)
		for {
			if _, err := s.read.Read(buf); err != nil {
				break
			}
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.stopped {
			return
		}
		s.read.Close()
		logrus.Debugln("child process closed its end of the monitor pipe")
		exit()
	}()
}

// StopMonitor deregisters the monitor. Once it returns, the exit callback is
// neither running nor going to run, so teardown of whatever the callback
// touches may proceed. Stopping twice is a no-op.
func (s *Supervisor) StopMonitor() {
	s.mu.Lock()
	stopped := s.stopped
	s.stopped = true
	s.mu.Unlock()

	if !stopped {
		// Unblocks the monitor's pending read.
		s.read.Close()
	}
}

// Reap waits for the child and classifies its termination. It runs exactly
// once; later calls return the recorded status.
func (s *Supervisor) Reap() ExitStatus {
	if s.reaped {
		return s.status
	}
	s.reaped = true

	err := s.cmd.Wait()
	switch err := err.(type) {
	case nil:
		s.status = ExitStatus{Code: 0}
	case *exec.ExitError:
		ws, ok := err.Sys().(syscall.WaitStatus)
		if ok && ws.Signaled() {
			s.status = ExitStatus{Signaled: true, Signal: ws.Signal()}
		} else {
			s.status = ExitStatus{Code: err.ExitCode()}
		}
	default:
		logrus.WithError(err).Errorln("wait for child process")
		s.status = ExitStatus{Code: -1}
	}

	logrus.Debugf("child %s", s.status)
	return s.status
}
