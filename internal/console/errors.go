package console

import "errors"

var (
	// ErrUnknownCommand is returned for input that names no command.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrMissingArgument is returned when a command lacks a required argument.
	ErrMissingArgument = errors.New("missing argument")

	// ErrInvalidArgument is returned for arguments that cannot be parsed.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrSearchActive is returned when the region or type is changed while a
	// search is running.
	ErrSearchActive = errors.New("reset the search before changing region or type")

	// ErrNoStepper is returned by the step command when the memory source
	// cannot be stepped by hand.
	ErrNoStepper = errors.New("memory source cannot be stepped")

	// ErrRowOutOfView is returned by the ar command for rows that are not
	// displayable.
	ErrRowOutOfView = errors.New("row is not displayable")
)
