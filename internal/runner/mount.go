package runner

import (
	"fmt"
	"os"
	"os/exec"
)

// Mount mounts a squashfs image for one trial and tears it down afterwards.
type Mount interface {
	Name() string
	Mount(source, dest string) error
	Unmount() error
}

// Squashfuse drives an external squashfuse-compatible binary. The binary is
// kept in the foreground (-f) so unmounting is stopping the process.
type Squashfuse struct {
	Command string
	cmd     *exec.Cmd
}

func NewSquashfuse(command string) *Squashfuse {
	return &Squashfuse{Command: command}
}

func (s *Squashfuse) Name() string {
	return s.Command
}

func (s *Squashfuse) Mount(source, dest string) error {
	if s.cmd != nil {
		return fmt.Errorf("%s already mounted", s.Command)
	}
	cmd := exec.Command(s.Command, "-f", source, dest)
	cmd.Stdout = nil
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", s.Command, err)
	}
	s.cmd = cmd
	return nil
}

// Unmount interrupts the mount process and waits for it to exit cleanly.
// A nonzero exit means the unmount failed and the trial must not be trusted.
func (s *Squashfuse) Unmount() error {
	if s.cmd == nil || s.cmd.Process == nil {
		return fmt.Errorf("%s not mounted", s.Command)
	}
	cmd := s.cmd
	s.cmd = nil
	if err := cmd.Process.Signal(os.Interrupt); err != nil {
		return fmt.Errorf("interrupt %s: %w", s.Command, err)
	}
	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("%s exited: %w", s.Command, err)
	}
	return nil
}
