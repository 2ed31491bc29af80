package game

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so callers can decide whether a retry makes sense.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error is the typed failure returned by every Service operation.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the kind-only sentinels (ErrValidation, ErrNotFound, ...).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Msg == "" && t.Err == nil && t.Kind == e.Kind
}

var (
	ErrValidation = &Error{Kind: KindValidation}
	ErrNotFound   = &Error{Kind: KindNotFound}
	ErrConflict   = &Error{Kind: KindConflict}
	ErrInternal   = &Error{Kind: KindInternal}
)

var (
	ErrRoomNotFound     = notFound("room not found")
	ErrRoundNotFound    = notFound("round not found")
	ErrPlayerNotFound   = notFound("player not found")
	ErrNoActiveRound    = notFound("no active round")
	ErrResultNotFound   = notFound("match result not found")
	ErrRoomFull         = conflict("room is full")
	ErrRoomNotWaiting   = conflict("room is not accepting players")
	ErrAlreadyStarted   = conflict("game already started")
	ErrGameNotStarted   = conflict("game has not started")
	ErrNotEnoughPlayers = conflict("at least 2 players are required to start")
	ErrNotPlaying       = conflict("room is not in the playing phase")
	ErrVotingClosed     = conflict("voting is not open")
	ErrRoundFinished    = conflict("round already finished")
	ErrRoundNotStarted  = conflict("round has not started")
	ErrRoundInProgress  = conflict("current round is not finished")
	ErrAlreadyScored    = conflict("round scores already calculated")
	ErrDuplicatePhoto   = conflict("photo already submitted for this round")
	ErrAlreadyVoted     = conflict("player already voted in this round")
	ErrRoomFinished     = conflict("room is already finished")
	ErrSelfVote         = validation("players cannot vote for themselves")
)

// Repository implementations report these; the service maps them to typed errors.
var (
	ErrRecordNotFound = errors.New("record not found")
	ErrDuplicate      = errors.New("duplicate record")
)

func validation(msg string) *Error {
	return &Error{Kind: KindValidation, Msg: msg}
}

func validationf(format string, args ...any) *Error {
	return validation(fmt.Sprintf(format, args...))
}

func notFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Msg: msg}
}

func conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Msg: msg}
}

func internal(err error) *Error {
	return &Error{Kind: KindInternal, Msg: "internal error", Err: err}
}

// KindOf reports the kind of err, treating untyped errors as internal.
func KindOf(err error) Kind {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind
	}
	return KindInternal
}

// PublicMessage returns the message safe to show to a client.
func PublicMessage(err error) string {
	var typed *Error
	if errors.As(err, &typed) && typed.Kind != KindInternal {
		return typed.Msg
	}
	return "internal error"
}

// lookupErr maps a repository lookup failure, using missing when the record does not exist.
func lookupErr(err error, missing *Error) error {
	if errors.Is(err, ErrRecordNotFound) {
		return missing
	}
	return internal(err)
}
