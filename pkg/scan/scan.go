// Package scan provides the public API for creating scan sessions.
// This package exposes the session factory while keeping the
// controller, store, and pipeline implementations internal.
package scan

import (
	"github.com/rs/zerolog"

	"github.com/sheafscan/sheaf/internal/session"
	"github.com/sheafscan/sheaf/pkg/types"
)

// Config carries everything a session needs: the device driver,
// session parameters, and a logger.
type Config struct {
	Driver  types.Driver
	Session types.Config
	Logger  zerolog.Logger
}

// NewSession creates a scan session backed by the given driver.
// Close the session when done; Close cancels any running capture.
//
// Example:
//
//	sess, err := scan.NewSession(scan.Config{
//	    Driver:  driver, // any types.Driver implementation
//	    Session: types.Config{PaperSize: "a4"},
//	})
//	if err != nil {
//	    return err
//	}
//	defer sess.Close()
func NewSession(cfg Config) (types.Session, error) {
	s, err := session.New(session.Config{
		Driver:  cfg.Driver,
		Session: cfg.Session,
		Logger:  cfg.Logger,
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}
