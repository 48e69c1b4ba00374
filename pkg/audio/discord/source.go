package discord

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"sync/atomic"
)

// ffmpegBinary is the decoder executable looked up on PATH.
const ffmpegBinary = "ffmpeg"

// ffmpegArgs builds the decoder invocation for a media URL: reconnect-tolerant
// network input, video stripped, raw 48 kHz stereo s16le PCM on stdout.
func ffmpegArgs(mediaURL string) []string {
	return []string{
		"-reconnect", "1",
		"-reconnect_streamed", "1",
		"-reconnect_delay_max", "5",
		"-i", mediaURL,
		"-vn",
		"-f", "s16le",
		"-ar", fmt.Sprint(opusSampleRate),
		"-ac", fmt.Sprint(opusChannels),
		"-loglevel", "warning",
		"pipe:1",
	}
}

// source is one active media stream: an ffmpeg subprocess decoding to PCM,
// a volume stage, and an Opus encoder feeding the voice connection.
// It implements [audio.Source].
type source struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser

	volume atomic.Int32

	mu      sync.Mutex
	cond    *sync.Cond
	paused  bool
	stopped bool

	doneOnce sync.Once
	onDone   func(error)
}

// newSource creates a source for mediaURL with its decoder process prepared
// but not yet started.
func newSource(mediaURL string) (*source, error) {
	cmd := exec.Command(ffmpegBinary, ffmpegArgs(mediaURL)...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("discord: ffmpeg stdout pipe: %w", err)
	}
	s := &source{
		cmd:    cmd,
		stdout: stdout,
	}
	s.cond = sync.NewCond(&s.mu)
	s.volume.Store(100)
	return s, nil
}

// start launches the decoder subprocess.
func (s *source) start() error {
	if err := s.cmd.Start(); err != nil {
		return fmt.Errorf("discord: start ffmpeg: %w", err)
	}
	return nil
}

// SetVolume implements [audio.Source]. Out-of-range values are clamped.
func (s *source) SetVolume(percent int) {
	if percent < 0 {
		percent = 0
	} else if percent > 200 {
		percent = 200
	}
	s.volume.Store(int32(percent))
}

// Volume implements [audio.Source].
func (s *source) Volume() int {
	return int(s.volume.Load())
}

// pause suspends the stream loop before its next frame.
func (s *source) pause() {
	s.mu.Lock()
	s.paused = true
	s.mu.Unlock()
}

// resume releases a paused stream loop.
func (s *source) resume() {
	s.mu.Lock()
	s.paused = false
	s.cond.Broadcast()
	s.mu.Unlock()
}

// isPaused reports whether the stream is currently paused.
func (s *source) isPaused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// stop terminates the stream. The decoder is killed and the stream loop
// finishes with a nil error, so stop is indistinguishable from natural
// completion to the onDone callback.
func (s *source) stop() {
	s.mu.Lock()
	s.stopped = true
	s.paused = false
	s.cond.Broadcast()
	s.mu.Unlock()

	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
}

// wasStopped reports whether stop has been requested.
func (s *source) wasStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// waitResumed blocks while the stream is paused. Returns false if the stream
// was stopped while waiting.
func (s *source) waitResumed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.paused && !s.stopped {
		s.cond.Wait()
	}
	return !s.stopped
}

// finish invokes the onDone callback exactly once.
func (s *source) finish(err error) {
	s.doneOnce.Do(func() {
		if s.onDone != nil {
			s.onDone(err)
		}
	})
}

// run reads PCM frames from the decoder, applies the volume stage, encodes to
// Opus, and hands packets to send. send returns false when the connection is
// closing, which ends the stream. run always terminates by calling finish.
func (s *source) run(send func([]byte) bool) {
	enc, err := newOpusEncoder()
	if err != nil {
		s.stop()
		_ = s.cmd.Wait()
		s.finish(err)
		return
	}

	reader := bufio.NewReaderSize(s.stdout, pcmFrameBytes*4)
	buf := make([]byte, pcmFrameBytes)

	for {
		if !s.waitResumed() {
			_ = s.cmd.Wait()
			s.finish(nil)
			return
		}

		if _, err := io.ReadFull(reader, buf); err != nil {
			waitErr := s.cmd.Wait()
			switch {
			case s.wasStopped():
				s.finish(nil)
			case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
				// Decoder drained. A non-zero exit here means the stream
				// failed partway rather than completing.
				if waitErr != nil {
					s.finish(fmt.Errorf("discord: ffmpeg exited: %w", waitErr))
				} else {
					s.finish(nil)
				}
			default:
				s.finish(fmt.Errorf("discord: read pcm: %w", err))
			}
			return
		}

		pcm := bytesToInt16s(buf)
		scaleVolume(pcm, s.Volume())

		pkt, err := enc.encode(pcm)
		if err != nil {
			// Skip the frame; a single bad encode is not worth killing the track.
			continue
		}
		if !send(pkt) {
			s.stop()
			_ = s.cmd.Wait()
			s.finish(nil)
			return
		}
	}
}
