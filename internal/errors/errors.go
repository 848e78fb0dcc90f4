package errors

import (
	"fmt"
)

// Kind classifies an AppError. Transports map kinds to status codes.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindValidation
	KindInvalidActor
	KindDuplicateRating
	KindAlreadyMatched
	KindAlreadyInactive
	KindMatchNotActive
	KindNotParticipant
)

var kindCodes = map[Kind]string{
	KindInternal:        "INTERNAL_ERROR",
	KindNotFound:        "NOT_FOUND",
	KindValidation:      "VALIDATION_ERROR",
	KindInvalidActor:    "INVALID_ACTOR",
	KindDuplicateRating: "DUPLICATE_RATING",
	KindAlreadyMatched:  "ALREADY_MATCHED",
	KindAlreadyInactive: "ALREADY_INACTIVE",
	KindMatchNotActive:  "MATCH_NOT_ACTIVE",
	KindNotParticipant:  "NOT_PARTICIPANT",
}

// Code is the stable machine-readable name of the kind.
func (k Kind) Code() string {
	if c, ok := kindCodes[k]; ok {
		return c
	}
	return kindCodes[KindInternal]
}

// AppError is a business or store error carrying the entity it concerns.
type AppError struct {
	Kind    Kind
	Entity  string
	ID      any
	Message string
	Err     error
}

func (e *AppError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.Code()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *AppError) Unwrap() error { return e.Err }

// Is matches any AppError of the same kind, so the sentinels below work with errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrNotFound        = &AppError{Kind: KindNotFound}
	ErrValidation      = &AppError{Kind: KindValidation}
	ErrInvalidActor    = &AppError{Kind: KindInvalidActor}
	ErrDuplicateRating = &AppError{Kind: KindDuplicateRating}
	ErrAlreadyMatched  = &AppError{Kind: KindAlreadyMatched}
	ErrAlreadyInactive = &AppError{Kind: KindAlreadyInactive}
	ErrMatchNotActive  = &AppError{Kind: KindMatchNotActive}
	ErrNotParticipant  = &AppError{Kind: KindNotParticipant}
	ErrInternal        = &AppError{Kind: KindInternal}
)

func NotFound(entity string, id any) *AppError {
	return &AppError{
		Kind:    KindNotFound,
		Entity:  entity,
		ID:      id,
		Message: fmt.Sprintf("%s with ID %v not found", entity, id),
	}
}

func Validation(field, message string) *AppError {
	return &AppError{
		Kind:    KindValidation,
		Entity:  field,
		Message: fmt.Sprintf("invalid %s: %s", field, message),
	}
}

func InvalidActor(userID uint64) *AppError {
	return &AppError{
		Kind:    KindInvalidActor,
		Entity:  "User",
		ID:      userID,
		Message: fmt.Sprintf("user %d cannot rate themselves", userID),
	}
}

func DuplicateRating(raterID, ratedUserID uint64) *AppError {
	return &AppError{
		Kind:    KindDuplicateRating,
		Entity:  "Rating",
		ID:      fmt.Sprintf("%d->%d", raterID, ratedUserID),
		Message: fmt.Sprintf("user %d already rated user %d", raterID, ratedUserID),
	}
}

func AlreadyMatched(userA, userB uint64) *AppError {
	return &AppError{
		Kind:    KindAlreadyMatched,
		Entity:  "Match",
		ID:      fmt.Sprintf("%d:%d", userA, userB),
		Message: fmt.Sprintf("users %d and %d are already matched", userA, userB),
	}
}

func AlreadyInactive(matchID uint64) *AppError {
	return &AppError{
		Kind:    KindAlreadyInactive,
		Entity:  "Match",
		ID:      matchID,
		Message: fmt.Sprintf("match %d is already inactive", matchID),
	}
}

func MatchNotActive(matchID uint64) *AppError {
	return &AppError{
		Kind:    KindMatchNotActive,
		Entity:  "Match",
		ID:      matchID,
		Message: fmt.Sprintf("match %d is not active", matchID),
	}
}

func NotParticipant(matchID, userID uint64) *AppError {
	return &AppError{
		Kind:    KindNotParticipant,
		Entity:  "Match",
		ID:      matchID,
		Message: fmt.Sprintf("user %d is not a participant of match %d", userID, matchID),
	}
}

// Internal wraps a store failure with the operation that produced it.
func Internal(op string, err error) *AppError {
	return &AppError{
		Kind:    KindInternal,
		Message: op,
		Err:     err,
	}
}
