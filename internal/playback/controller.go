// Package playback implements the audio player state machine shared by every
// playback surface: one chapter-level player, one per verse.
//
// A Controller starts Unloaded and opens its media lazily on the first play
// request:
//
//	unloaded -> loading -> ready -> playing <-> paused -> ended
//	                \________________________________/
//	                               error
//
// Error is terminal for the loaded resource; the next play request opens a
// fresh one.
package playback

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tilawahapp/tilawah-server/internal/domain"
	domainerrors "github.com/tilawahapp/tilawah-server/internal/errors"
)

// State is a controller state.
type State string

const (
	StateUnloaded State = "unloaded"
	StateLoading  State = "loading"
	StateReady    State = "ready"
	StatePlaying  State = "playing"
	StatePaused   State = "paused"
	StateEnded    State = "ended"
	StateError    State = "error"
)

// StepSize is the distance covered by StepBackward and StepForward.
const StepSize = 5 * time.Second

var (
	// ErrNotReady is returned by seeks before media has loaded.
	ErrNotReady = domainerrors.Playback("audio is not loaded")
	// ErrLoading is returned by TogglePlay while media is still loading.
	ErrLoading = domainerrors.Playback("audio is still loading")
	// ErrClosed is returned by every operation after Close.
	ErrClosed = domainerrors.Playback("player closed")
	// ErrInvalidReciter is returned by SwitchReciter for an empty id.
	ErrInvalidReciter = domainerrors.Validation("reciter id is required")
)

// Status is a snapshot of a controller.
type Status struct {
	State    State         `json:"state"`
	Position time.Duration `json:"position"`
	Duration time.Duration `json:"duration"`
	Volume   float64       `json:"volume"`
	Muted    bool          `json:"muted"`
	Reciter  string        `json:"reciter"`
	URL      string        `json:"url,omitempty"`
}

// EffectiveVolume is what the resource actually plays at.
func (s Status) EffectiveVolume() float64 {
	if s.Muted {
		return 0
	}
	return s.Volume
}

// Options configures a Controller. Opener is required.
type Options struct {
	Source  Source
	Reciter string
	// Volume is the initial level, clamped into [0, 1].
	Volume float64
	// OnEnded runs after the controller moves to StateEnded.
	OnEnded func()
	// OnChange runs after every transition and setting change.
	OnChange func(Status)
	Notifier domain.Notifier
	Opener   Opener
	// UserID targets notifications at one reader.
	UserID string
	Logger *slog.Logger
}

// Controller drives one media resource.
type Controller struct {
	source   Source
	opener   Opener
	notifier domain.Notifier
	userID   string
	logger   *slog.Logger

	mu       sync.Mutex
	state    State
	res      Resource
	stop     chan struct{}
	epoch    uint64
	position time.Duration
	duration time.Duration
	volume   float64
	muted    bool
	reciter  string
	url      string
	closed   bool
	onEnded  func()
	onChange func(Status)
}

// New creates an Unloaded controller. No media is touched until TogglePlay.
func New(opts Options) *Controller {
	if opts.Notifier == nil {
		opts.Notifier = domain.NopNotifier{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Reciter == "" {
		opts.Reciter = domain.DefaultReciterID
	}
	return &Controller{
		source:   opts.Source,
		opener:   opts.Opener,
		notifier: opts.Notifier,
		userID:   opts.UserID,
		logger:   opts.Logger.With("component", "playback"),
		state:    StateUnloaded,
		volume:   clampVolume(opts.Volume),
		reciter:  opts.Reciter,
		onEnded:  opts.OnEnded,
		onChange: opts.OnChange,
	}
}

// TogglePlay starts, pauses or resumes playback, opening media first when
// nothing usable is loaded.
func (c *Controller) TogglePlay(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}

	var err error
	switch c.state {
	case StateLoading:
		c.mu.Unlock()
		return ErrLoading
	case StateUnloaded, StateError:
		return c.acquireAndPlay(ctx)
	case StatePlaying:
		c.position = c.res.Position()
		if err = c.res.Pause(); err == nil {
			c.state = StatePaused
		}
	case StateEnded:
		c.position = 0
		if err = c.res.Seek(0); err == nil {
			err = c.res.Play()
		}
		if err == nil {
			c.state = StatePlaying
		}
	default: // ready, paused
		if err = c.res.Play(); err == nil {
			c.state = StatePlaying
		}
	}

	if err != nil {
		c.failLocked(err)
		c.mu.Unlock()
		c.notifyAudioFailed()
		c.emit()
		return domainerrors.Wrap(err, domainerrors.CodePlayback, "playback failed")
	}
	c.mu.Unlock()
	c.emit()
	return nil
}

// acquireAndPlay is entered with c.mu held and releases it.
func (c *Controller) acquireAndPlay(ctx context.Context) error {
	c.releaseLocked()
	c.state = StateUnloaded

	requested := c.reciter
	res, err := c.source.Resolve(requested)
	if err != nil {
		c.mu.Unlock()
		c.logger.Warn("no audio source to play", "reciter", requested)
		c.notify(domain.VariantDestructive, domain.MsgAudioFailedTitle, domain.MsgAudioNoSourceDesc)
		return err
	}

	c.epoch++
	epoch := c.epoch
	c.state = StateLoading
	c.url = res.URL
	c.position = 0
	c.duration = 0
	c.mu.Unlock()

	if res.FellBack {
		c.logger.Warn("reciter has no audio, using fallback",
			"requested", requested, "used", res.Reciter)
		c.notify(domain.VariantWarning, domain.MsgAudioMissingReciter,
			fmt.Sprintf("Audio %s tidak tersedia, memutar %s",
				domain.ReciterName(requested), domain.ReciterName(res.Reciter)))
	}
	c.emit()

	media, err := c.opener.Open(ctx, res.URL)

	c.mu.Lock()
	if c.closed || epoch != c.epoch {
		c.mu.Unlock()
		if media != nil {
			_ = media.Close()
		}
		if c.isClosed() {
			return ErrClosed
		}
		return nil
	}
	if err != nil {
		c.state = StateError
		c.mu.Unlock()
		c.logger.Error("failed to load audio", "url", res.URL, "error", err)
		c.notifyAudioFailed()
		c.emit()
		return domainerrors.Wrap(err, domainerrors.CodePlayback, "failed to load audio")
	}

	c.res = media
	c.stop = make(chan struct{})
	c.duration = media.Duration()
	c.state = StateReady
	_ = media.SetVolume(c.effectiveVolumeLocked())
	go c.watch(epoch, media.Finished(), c.stop)

	if err := media.Play(); err != nil {
		c.failLocked(err)
		c.mu.Unlock()
		c.notifyAudioFailed()
		c.emit()
		return domainerrors.Wrap(err, domainerrors.CodePlayback, "playback failed")
	}
	c.state = StatePlaying
	c.mu.Unlock()

	c.logger.Debug("playback started", "url", res.URL, "duration", c.duration)
	c.emit()
	return nil
}

func (c *Controller) watch(epoch uint64, finished <-chan error, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case err, ok := <-finished:
			if !ok {
				return
			}
			c.handleFinished(epoch, err)
		}
	}
}

func (c *Controller) handleFinished(epoch uint64, err error) {
	c.mu.Lock()
	if c.closed || epoch != c.epoch {
		c.mu.Unlock()
		return
	}
	if err != nil {
		c.state = StateError
		c.mu.Unlock()
		c.logger.Error("playback stopped", "error", err)
		c.notifyAudioFailed()
		c.emit()
		return
	}
	c.state = StateEnded
	c.position = 0
	onEnded := c.onEnded
	c.mu.Unlock()

	if onEnded != nil {
		onEnded()
	}
	c.emit()
}

// Seek moves to pos, clamped into [0, duration]. The reported position
// changes before the resource is instructed.
func (c *Controller) Seek(pos time.Duration) error {
	c.mu.Lock()
	if err := c.seekableLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	err := c.seekLocked(pos)
	c.mu.Unlock()
	if err != nil {
		c.notifyAudioFailed()
	}
	c.emit()
	return err
}

// StepBackward seeks StepSize back.
func (c *Controller) StepBackward() error { return c.step(-StepSize) }

// StepForward seeks StepSize ahead.
func (c *Controller) StepForward() error { return c.step(StepSize) }

func (c *Controller) step(delta time.Duration) error {
	c.mu.Lock()
	if err := c.seekableLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	err := c.seekLocked(c.currentPositionLocked() + delta)
	c.mu.Unlock()
	if err != nil {
		c.notifyAudioFailed()
	}
	c.emit()
	return err
}

func (c *Controller) seekableLocked() error {
	if c.closed {
		return ErrClosed
	}
	switch c.state {
	case StateReady, StatePlaying, StatePaused, StateEnded:
		return nil
	default:
		return ErrNotReady
	}
}

func (c *Controller) seekLocked(pos time.Duration) error {
	pos = max(0, min(pos, c.duration))
	c.position = pos
	if err := c.res.Seek(pos); err != nil {
		c.failLocked(err)
		return domainerrors.Wrap(err, domainerrors.CodePlayback, "seek failed")
	}
	if c.state == StateEnded {
		c.state = StatePaused
	}
	return nil
}

// SetVolume stores level clamped into [0, 1] and returns it. While muted
// the resource stays silent.
func (c *Controller) SetVolume(level float64) float64 {
	c.mu.Lock()
	c.volume = clampVolume(level)
	v := c.volume
	c.applyVolumeLocked()
	c.mu.Unlock()
	c.emit()
	return v
}

// ToggleMute flips the mute overlay and returns the new value.
func (c *Controller) ToggleMute() bool {
	c.mu.Lock()
	c.muted = !c.muted
	muted := c.muted
	c.applyVolumeLocked()
	c.mu.Unlock()
	c.emit()
	return muted
}

func (c *Controller) applyVolumeLocked() {
	if c.res == nil || c.state == StateError {
		return
	}
	if err := c.res.SetVolume(c.effectiveVolumeLocked()); err != nil {
		c.logger.Warn("failed to apply volume", "error", err)
	}
}

func (c *Controller) effectiveVolumeLocked() float64 {
	if c.muted {
		return 0
	}
	return c.volume
}

// SwitchReciter selects another reciter. Loaded media is released and the
// controller returns to Unloaded without resuming.
func (c *Controller) SwitchReciter(id string) error {
	if id == "" {
		return ErrInvalidReciter
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	changed := c.reciter != id
	c.reciter = id
	loaded := c.state != StateUnloaded
	if loaded {
		c.epoch++
		c.releaseLocked()
		c.state = StateUnloaded
		c.position = 0
		c.duration = 0
		c.url = ""
	}
	c.mu.Unlock()

	if loaded && changed {
		c.notify(domain.VariantDefault, domain.MsgReciterChangedTitle, domain.ReciterName(id))
	}
	c.emit()
	return nil
}

// Status returns the current snapshot.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusLocked()
}

func (c *Controller) statusLocked() Status {
	return Status{
		State:    c.state,
		Position: c.currentPositionLocked(),
		Duration: c.duration,
		Volume:   c.volume,
		Muted:    c.muted,
		Reciter:  c.reciter,
		URL:      c.url,
	}
}

func (c *Controller) currentPositionLocked() time.Duration {
	if c.state == StatePlaying && c.res != nil {
		c.position = c.res.Position()
	}
	return c.position
}

// Close stops playback and releases the resource and callbacks. It is safe
// to call more than once.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.epoch++
	err := c.releaseLocked()
	c.state = StateUnloaded
	c.onEnded = nil
	c.onChange = nil
	return err
}

func (c *Controller) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// failLocked moves to Error; the resource stays attached until the next
// acquisition releases it.
func (c *Controller) failLocked(err error) {
	c.logger.Error("playback failed", "state", c.state, "error", err)
	c.state = StateError
}

func (c *Controller) releaseLocked() error {
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
	if c.res == nil {
		return nil
	}
	res := c.res
	c.res = nil
	_ = res.Pause()
	return res.Close()
}

func (c *Controller) notify(variant domain.NotificationVariant, title, description string) {
	c.notifier.Notify(domain.NewNotification(variant, title, description).ForUser(c.userID))
}

func (c *Controller) notifyAudioFailed() {
	c.notify(domain.VariantDestructive, domain.MsgAudioFailedTitle, domain.MsgAudioFailedDescription)
}

func (c *Controller) emit() {
	c.mu.Lock()
	fn := c.onChange
	s := c.statusLocked()
	c.mu.Unlock()
	if fn != nil {
		fn(s)
	}
}

func clampVolume(v float64) float64 {
	return max(0, min(v, 1))
}
