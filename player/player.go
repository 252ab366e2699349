// Package player owns the local playback and transcode subprocesses.
package player

import (
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fctx"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/darkhz/bluestream/api/errorkinds"
	"github.com/rs/xid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultPlayerBin is the default playback subprocess binary.
	DefaultPlayerBin = "mpg123"

	// DefaultConverterBin is the default transcoder binary.
	DefaultConverterBin = "ffmpeg"

	// stopGracePeriod is how long a playback process is given to exit
	// after a termination signal before it is killed.
	stopGracePeriod = 3 * time.Second
)

// nativeExtensions lists the file extensions the default playback
// subprocess consumes directly; anything else is transcoded first.
var nativeExtensions = map[string]struct{}{
	".mp3": {},
	".mp2": {},
}

// Manager starts and stops the playback subprocess and invokes the
// transcoder.
type Manager struct {
	log *zap.SugaredLogger

	playerBin    string
	converterBin string
}

// Process is a handle to a running playback subprocess.
type Process struct {
	cmd  *exec.Cmd
	path string

	done chan struct{}
	err  error
}

// NewManager returns a subprocess manager. Empty binary names select the
// defaults.
func NewManager(logger *zap.SugaredLogger, playerBin, converterBin string) *Manager {
	if playerBin == "" {
		playerBin = DefaultPlayerBin
	}
	if converterBin == "" {
		converterBin = DefaultConverterBin
	}

	return &Manager{
		log:          logger.Named("player"),
		playerBin:    playerBin,
		converterBin: converterBin,
	}
}

// Start spawns the playback subprocess for the given file. The process
// runs concurrently with the caller; its output and error streams are
// drained in the background so the subprocess can never stall on
// backpressure.
func (m *Manager) Start(path string) (*Process, error) {
	cmd := exec.Command(m.playerBin, path)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, m.wrapSubprocessError(err, "player-stdout", path)
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, m.wrapSubprocessError(err, "player-stderr", path)
	}

	if err := cmd.Start(); err != nil {
		return nil, m.wrapSubprocessError(err, "player-start", path)
	}

	m.log.Infow("Playback started", "binary", m.playerBin, "path", path, "pid", cmd.Process.Pid)

	proc := &Process{
		cmd:  cmd,
		path: path,
		done: make(chan struct{}),
	}

	var drain errgroup.Group

	drain.Go(func() error {
		_, err := io.Copy(io.Discard, stdout)
		return err
	})
	drain.Go(func() error {
		_, err := io.Copy(io.Discard, stderr)
		return err
	})

	go func() {
		_ = drain.Wait()
		proc.err = cmd.Wait()
		close(proc.done)
	}()

	return proc, nil
}

// Stop terminates the playback subprocess. Stopping an already exited
// process reports success.
func (m *Manager) Stop(proc *Process) error {
	select {
	case <-proc.done:
		return nil

	default:
	}

	if err := proc.cmd.Process.Signal(os.Interrupt); err != nil {
		_ = proc.cmd.Process.Kill()
	}

	select {
	case <-proc.done:

	case <-time.After(stopGracePeriod):
		_ = proc.cmd.Process.Kill()
		<-proc.done
	}

	m.log.Infow("Playback stopped", "path", proc.path)

	return nil
}

// Running reports whether the playback subprocess is still alive.
func (p *Process) Running() bool {
	select {
	case <-p.done:
		return false

	default:
		return true
	}
}

// Path returns the file the subprocess is playing.
func (p *Process) Path() string {
	return p.path
}

// Convert transcodes the source file into the destination file. A
// non-zero exit from the transcoder is a hard failure.
func (m *Manager) Convert(ctx context.Context, src, dst string) error {
	cmd := exec.CommandContext(ctx, m.converterBin, "-y", "-i", src, dst)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fault.Wrap(errorkinds.ErrConvertMedia,
			fctx.With(ctx,
				"error_at", "player-convert",
				"source", src,
				"destination", dst,
				"cause", err.Error(),
				"output", string(output),
			),
			ftag.With(ftag.Internal),
			fmsg.With("The media file could not be converted"),
		)
	}

	return nil
}

// EnsurePlayable returns a path to a file in a format the playback
// subprocess consumes natively, transcoding into a temporary file when
// needed. A transcode failure aborts; the original file is never handed
// to the player in that case.
func (m *Manager) EnsurePlayable(ctx context.Context, path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := nativeExtensions[ext]; ok {
		return path, nil
	}

	dst := filepath.Join(os.TempDir(), "bluestream-"+xid.New().String()+".mp3")

	m.log.Infow("Converting media file", "source", path, "destination", dst)

	if err := m.Convert(ctx, path, dst); err != nil {
		return "", err
	}

	return dst, nil
}

// wrapSubprocessError wraps a playback subprocess related error.
func (m *Manager) wrapSubprocessError(err error, at, path string) error {
	return fault.Wrap(errorkinds.ErrSubprocess,
		fctx.With(context.Background(),
			"error_at", at,
			"binary", m.playerBin,
			"path", path,
			"cause", err.Error(),
		),
		ftag.With(ftag.Internal),
		fmsg.With("Cannot spawn the playback subprocess"),
	)
}
