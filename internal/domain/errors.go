package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuestionNotFound indicates a submitted question ID is invalid.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrOptionNotFound indicates a submitted option index is invalid.
	ErrOptionNotFound = errors.New("option not found")
	// ErrPositionOutOfRange is returned for navigation outside intro..results.
	ErrPositionOutOfRange = errors.New("position out of range")
	// ErrSessionNotFound is returned when an attempt session is unknown or already closed.
	ErrSessionNotFound = errors.New("attempt session not found")
	// ErrSessionNotStarted is returned when operating on a session before Start.
	ErrSessionNotStarted = errors.New("attempt session not started")
	// ErrNotSignedIn is returned when no viewer identity is available.
	ErrNotSignedIn = errors.New("viewer not signed in")

	// ErrInvalidQuiz wraps validation failures of authored quizzes.
	ErrInvalidQuiz = errors.New("invalid quiz")
	// ErrSlugTaken indicates the creator already published a quiz under the slug.
	ErrSlugTaken = errors.New("slug already used by this creator")
	// ErrForbidden is returned when a user touches a quiz they do not own.
	ErrForbidden = errors.New("forbidden")

	// ErrUserNotFound indicates an unknown user.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists indicates the email is already registered.
	ErrUserExists = errors.New("user already exists")
	// ErrUsernameTaken indicates the username is already registered.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrInvalidCredentials is returned for a failed login.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
