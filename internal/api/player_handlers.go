package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/tilawahapp/tilawah-server/internal/domain"
	domainerrors "github.com/tilawahapp/tilawah-server/internal/errors"
	"github.com/tilawahapp/tilawah-server/internal/playback"
)

const anonymousOwnerPrefix = "anon:"

func (s *Server) registerPlayerRoutes() {
	security := []map[string][]string{{"bearer": {}}}
	tags := []string{"Players"}

	huma.Register(s.api, huma.Operation{
		OperationID:   "createPlayer",
		Method:        http.MethodPost,
		Path:          "/api/v1/players",
		Summary:       "Create player",
		Description:   "Creates an unloaded player for a chapter or a single verse. Audio is fetched on the first toggle.",
		Tags:          tags,
		DefaultStatus: http.StatusCreated,
		Security:      security,
	}, s.handleCreatePlayer)

	huma.Register(s.api, huma.Operation{
		OperationID: "getPlayer",
		Method:      http.MethodGet,
		Path:        "/api/v1/players/{id}",
		Summary:     "Get player",
		Tags:        tags,
		Security:    security,
	}, s.handleGetPlayer)

	huma.Register(s.api, huma.Operation{
		OperationID: "togglePlayer",
		Method:      http.MethodPost,
		Path:        "/api/v1/players/{id}/toggle",
		Summary:     "Play or pause",
		Tags:        tags,
		Security:    security,
	}, s.handleTogglePlayer)

	huma.Register(s.api, huma.Operation{
		OperationID: "seekPlayer",
		Method:      http.MethodPost,
		Path:        "/api/v1/players/{id}/seek",
		Summary:     "Seek",
		Tags:        tags,
		Security:    security,
	}, s.handleSeekPlayer)

	huma.Register(s.api, huma.Operation{
		OperationID: "setPlayerVolume",
		Method:      http.MethodPost,
		Path:        "/api/v1/players/{id}/volume",
		Summary:     "Set volume",
		Tags:        tags,
		Security:    security,
	}, s.handleSetPlayerVolume)

	huma.Register(s.api, huma.Operation{
		OperationID: "mutePlayer",
		Method:      http.MethodPost,
		Path:        "/api/v1/players/{id}/mute",
		Summary:     "Toggle mute",
		Tags:        tags,
		Security:    security,
	}, s.handleMutePlayer)

	huma.Register(s.api, huma.Operation{
		OperationID: "stepPlayer",
		Method:      http.MethodPost,
		Path:        "/api/v1/players/{id}/step",
		Summary:     "Skip five seconds",
		Tags:        tags,
		Security:    security,
	}, s.handleStepPlayer)

	huma.Register(s.api, huma.Operation{
		OperationID: "switchPlayerReciter",
		Method:      http.MethodPost,
		Path:        "/api/v1/players/{id}/reciter",
		Summary:     "Switch reciter",
		Description: "Releases loaded audio; playback does not resume by itself",
		Tags:        tags,
		Security:    security,
	}, s.handleSwitchPlayerReciter)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deletePlayer",
		Method:        http.MethodDelete,
		Path:          "/api/v1/players/{id}",
		Summary:       "Close player",
		Tags:          tags,
		DefaultStatus: http.StatusNoContent,
		Security:      security,
	}, s.handleDeletePlayer)
}

// === DTOs ===

// PlayerResponse is a player's observable state.
type PlayerResponse struct {
	ID              string         `json:"id" doc:"Player ID"`
	State           playback.State `json:"state" doc:"unloaded, loading, ready, playing, paused, ended or error"`
	PositionMs      int64          `json:"position_ms" doc:"Playback position"`
	DurationMs      int64          `json:"duration_ms" doc:"Media duration, zero until loaded"`
	Volume          float64        `json:"volume" doc:"Volume level, 0 to 1"`
	Muted           bool           `json:"muted" doc:"Whether muted"`
	EffectiveVolume float64        `json:"effective_volume" doc:"Volume actually applied"`
	Reciter         string         `json:"reciter" doc:"Selected reciter ID"`
	ReciterName     string         `json:"reciter_name" doc:"Selected reciter name"`
	URL             string         `json:"url,omitempty" doc:"Audio being played"`
}

// NewPlayerResponse renders a player status.
func NewPlayerResponse(playerID string, st playback.Status) PlayerResponse {
	return PlayerResponse{
		ID:              playerID,
		State:           st.State,
		PositionMs:      st.Position.Milliseconds(),
		DurationMs:      st.Duration.Milliseconds(),
		Volume:          st.Volume,
		Muted:           st.Muted,
		EffectiveVolume: st.EffectiveVolume(),
		Reciter:         st.Reciter,
		ReciterName:     domain.ReciterName(st.Reciter),
		URL:             st.URL,
	}
}

// PlayerOutput wraps a player for Huma.
type PlayerOutput struct {
	Body PlayerResponse
}

// CreatePlayerRequest selects what to play.
type CreatePlayerRequest struct {
	Chapter int    `json:"chapter" validate:"chapter" doc:"Chapter number"`
	Verse   *int   `json:"verse,omitempty" validate:"omitempty,gte=1" doc:"Verse number; omit for the full chapter recitation"`
	Reciter string `json:"reciter,omitempty" validate:"omitempty,reciter" doc:"Reciter ID; defaults to the selected reciter"`
}

// CreatePlayerInput wraps the create request for Huma.
type CreatePlayerInput struct {
	ClientID string `header:"X-Client-ID" doc:"Identifies an anonymous client"`
	Body     CreatePlayerRequest
}

// PlayerInput names a player.
type PlayerInput struct {
	ClientID string `header:"X-Client-ID" doc:"Identifies an anonymous client"`
	ID       string `path:"id" doc:"Player ID"`
}

// SeekPlayerInput carries a target position.
type SeekPlayerInput struct {
	ClientID string `header:"X-Client-ID"`
	ID       string `path:"id" doc:"Player ID"`
	Body     struct {
		PositionMs int64 `json:"position_ms" minimum:"0" doc:"Target position"`
	}
}

// VolumePlayerInput carries a volume level.
type VolumePlayerInput struct {
	ClientID string `header:"X-Client-ID"`
	ID       string `path:"id" doc:"Player ID"`
	Body     struct {
		Level float64 `json:"level" doc:"Volume; values outside 0 to 1 are clamped"`
	}
}

// StepPlayerInput carries a skip direction.
type StepPlayerInput struct {
	ClientID string `header:"X-Client-ID"`
	ID       string `path:"id" doc:"Player ID"`
	Body     struct {
		Direction string `json:"direction" enum:"forward,backward" doc:"Skip direction"`
	}
}

// SwitchPlayerReciterInput carries the new reciter.
type SwitchPlayerReciterInput struct {
	ClientID string `header:"X-Client-ID"`
	ID       string `path:"id" doc:"Player ID"`
	Body     SelectReciterRequest
}

// === Handlers ===

// playerOwner returns the signed-in user's id, or an anonymous owner key
// derived from the client id.
func playerOwner(ctx context.Context, clientID string) (string, error) {
	if userID := userIDFrom(ctx); userID != "" {
		return userID, nil
	}
	if clientID == "" {
		return "", domainerrors.Validation("X-Client-ID header is required without a session")
	}
	return anonymousOwnerPrefix + clientID, nil
}

func (s *Server) player(ctx context.Context, clientID, playerID string) (*playback.Player, error) {
	owner, err := playerOwner(ctx, clientID)
	if err != nil {
		return nil, err
	}
	return s.players.Get(owner, playerID)
}

func (s *Server) handleCreatePlayer(ctx context.Context, input *CreatePlayerInput) (*PlayerOutput, error) {
	owner, err := playerOwner(ctx, input.ClientID)
	if err != nil {
		return nil, err
	}
	req := input.Body
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	source, err := s.playerSource(ctx, req.Chapter, req.Verse)
	if err != nil {
		return nil, err
	}
	reciter := req.Reciter
	if reciter == "" {
		reciter = s.quran.Preferences().Reciter
	}

	p, err := s.players.Create(owner, source, reciter)
	if err != nil {
		return nil, err
	}
	return &PlayerOutput{Body: NewPlayerResponse(p.ID, p.Status())}, nil
}

// playerSource finds the audio for a chapter or one of its verses.
func (s *Server) playerSource(ctx context.Context, chapter int, verse *int) (playback.Source, error) {
	if verse == nil {
		if c, ok := s.quran.Chapter(chapter); ok && len(c.Audio) > 0 {
			return playback.ReciterSource(c.Audio), nil
		}
	}

	detail, err := s.quran.FetchChapterDetail(ctx, chapter)
	if err != nil {
		return playback.Source{}, err
	}
	if verse == nil {
		return playback.ReciterSource(detail.Audio), nil
	}
	v, ok := detail.Verse(*verse)
	if !ok {
		return playback.Source{}, domainerrors.NotFoundf("verse %d:%d not found", chapter, *verse)
	}
	return playback.ReciterSource(v.Audio), nil
}

func (s *Server) handleGetPlayer(ctx context.Context, input *PlayerInput) (*PlayerOutput, error) {
	p, err := s.player(ctx, input.ClientID, input.ID)
	if err != nil {
		return nil, err
	}
	return &PlayerOutput{Body: NewPlayerResponse(p.ID, p.Status())}, nil
}

func (s *Server) handleTogglePlayer(ctx context.Context, input *PlayerInput) (*PlayerOutput, error) {
	p, err := s.player(ctx, input.ClientID, input.ID)
	if err != nil {
		return nil, err
	}
	if err := p.TogglePlay(ctx); err != nil {
		return nil, err
	}
	return &PlayerOutput{Body: NewPlayerResponse(p.ID, p.Status())}, nil
}

func (s *Server) handleSeekPlayer(ctx context.Context, input *SeekPlayerInput) (*PlayerOutput, error) {
	p, err := s.player(ctx, input.ClientID, input.ID)
	if err != nil {
		return nil, err
	}
	if err := p.Seek(time.Duration(input.Body.PositionMs) * time.Millisecond); err != nil {
		return nil, err
	}
	return &PlayerOutput{Body: NewPlayerResponse(p.ID, p.Status())}, nil
}

func (s *Server) handleSetPlayerVolume(ctx context.Context, input *VolumePlayerInput) (*PlayerOutput, error) {
	p, err := s.player(ctx, input.ClientID, input.ID)
	if err != nil {
		return nil, err
	}
	p.SetVolume(input.Body.Level)
	return &PlayerOutput{Body: NewPlayerResponse(p.ID, p.Status())}, nil
}

func (s *Server) handleMutePlayer(ctx context.Context, input *PlayerInput) (*PlayerOutput, error) {
	p, err := s.player(ctx, input.ClientID, input.ID)
	if err != nil {
		return nil, err
	}
	p.ToggleMute()
	return &PlayerOutput{Body: NewPlayerResponse(p.ID, p.Status())}, nil
}

func (s *Server) handleStepPlayer(ctx context.Context, input *StepPlayerInput) (*PlayerOutput, error) {
	p, err := s.player(ctx, input.ClientID, input.ID)
	if err != nil {
		return nil, err
	}
	step := p.StepForward
	if input.Body.Direction == "backward" {
		step = p.StepBackward
	}
	if err := step(); err != nil {
		return nil, err
	}
	return &PlayerOutput{Body: NewPlayerResponse(p.ID, p.Status())}, nil
}

func (s *Server) handleSwitchPlayerReciter(ctx context.Context, input *SwitchPlayerReciterInput) (*PlayerOutput, error) {
	p, err := s.player(ctx, input.ClientID, input.ID)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}
	if err := p.SwitchReciter(input.Body.Reciter); err != nil {
		return nil, err
	}
	return &PlayerOutput{Body: NewPlayerResponse(p.ID, p.Status())}, nil
}

func (s *Server) handleDeletePlayer(ctx context.Context, input *PlayerInput) (*struct{}, error) {
	owner, err := playerOwner(ctx, input.ClientID)
	if err != nil {
		return nil, err
	}
	if err := s.players.Remove(owner, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}
