package playback

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/tilawahapp/tilawah-server/internal/domain"
	domainerrors "github.com/tilawahapp/tilawah-server/internal/errors"
	"github.com/tilawahapp/tilawah-server/internal/id"
)

var (
	// ErrPlayerNotFound is returned for unknown ids and for players owned by someone else.
	ErrPlayerNotFound = domainerrors.NotFoundf("player not found")
	// ErrTooManyPlayers is returned when the registry is full.
	ErrTooManyPlayers = &domainerrors.Error{Code: domainerrors.CodeRateLimited, Message: "too many open players"}
)

// RegistryOptions configures a Registry.
type RegistryOptions struct {
	Opener        Opener
	Notifier      domain.Notifier
	Logger        *slog.Logger
	DefaultVolume float64
	MaxPlayers    int
	// OnChange receives every status change of every player.
	OnChange func(playerID, owner string, status Status)
}

// Player is a registered controller.
type Player struct {
	*Controller
	ID    string
	Owner string
}

// Registry keeps the live controllers of all readers.
type Registry struct {
	opts    RegistryOptions
	logger  *slog.Logger
	mu      sync.RWMutex
	players map[string]*Player
	closed  bool
}

// NewRegistry creates an empty registry.
func NewRegistry(opts RegistryOptions) *Registry {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Registry{
		opts:    opts,
		logger:  opts.Logger,
		players: make(map[string]*Player),
	}
}

// Create registers a new Unloaded player for owner. An empty owner is an
// anonymous reader.
func (r *Registry) Create(owner string, source Source, reciter string) (*Player, error) {
	playerID, err := id.Generate(id.PrefixPlayer)
	if err != nil {
		return nil, err
	}

	p := &Player{ID: playerID, Owner: owner}
	p.Controller = New(Options{
		Source:   source,
		Reciter:  reciter,
		Volume:   r.opts.DefaultVolume,
		Notifier: r.opts.Notifier,
		Opener:   r.opts.Opener,
		UserID:   owner,
		Logger:   r.logger.With("player_id", playerID),
		OnChange: func(s Status) {
			if r.opts.OnChange != nil {
				r.opts.OnChange(playerID, owner, s)
			}
		},
	})

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrClosed
	}
	if r.opts.MaxPlayers > 0 && len(r.players) >= r.opts.MaxPlayers {
		return nil, ErrTooManyPlayers
	}
	r.players[playerID] = p
	return p, nil
}

// Get returns owner's player.
func (r *Registry) Get(owner, playerID string) (*Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.players[playerID]
	if !ok || p.Owner != owner {
		return nil, ErrPlayerNotFound
	}
	return p, nil
}

// Remove closes and forgets owner's player.
func (r *Registry) Remove(owner, playerID string) error {
	r.mu.Lock()
	p, ok := r.players[playerID]
	if !ok || p.Owner != owner {
		r.mu.Unlock()
		return ErrPlayerNotFound
	}
	delete(r.players, playerID)
	r.mu.Unlock()
	return p.Close()
}

// RemoveOwner closes every player belonging to owner.
func (r *Registry) RemoveOwner(owner string) int {
	r.mu.Lock()
	var victims []*Player
	for pid, p := range r.players {
		if p.Owner == owner {
			victims = append(victims, p)
			delete(r.players, pid)
		}
	}
	r.mu.Unlock()

	for _, p := range victims {
		_ = p.Close()
	}
	return len(victims)
}

// Len returns the number of live players.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players)
}

// Shutdown closes every player. Later Create calls fail.
func (r *Registry) Shutdown() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	players := r.players
	r.players = make(map[string]*Player)
	r.mu.Unlock()

	var errs []error
	for _, p := range players {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	r.logger.Info("players closed", "count", len(players))
	return errors.Join(errs...)
}
