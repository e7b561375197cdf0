// Package logger gives every subsystem a tagged logger, the way the
// teacher's own logger package does, but backed by logrus.Entry instead of
// the teacher's in-house logs backend (not part of this retrieval — see
// DESIGN.md). Call SetOutput/SetLogLevels during startup; Get(tag) returns
// the per-subsystem entry everywhere else.
package logger

import (
	"os"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

var backend = logrus.New()

// SubsystemTags is an enum of all sub system tags used across this module.
var SubsystemTags = struct {
	SRVR,
	CHAN,
	MANR,
	STDB,
	EXEC,
	RSRC,
	RWRD,
	MAIN,
	SCHD,
	MPOL,
	PROD,
	CNFG string
}{
	SRVR: "SRVR",
	CHAN: "CHAN",
	MANR: "MANR",
	STDB: "STDB",
	EXEC: "EXEC",
	RSRC: "RSRC",
	RWRD: "RWRD",
	MAIN: "MAIN",
	SCHD: "SCHD",
	MPOL: "MPOL",
	PROD: "PROD",
	CNFG: "CNFG",
}

var subsystemLoggers = map[string]*logrus.Entry{
	SubsystemTags.SRVR: backend.WithField("subsystem", SubsystemTags.SRVR),
	SubsystemTags.CHAN: backend.WithField("subsystem", SubsystemTags.CHAN),
	SubsystemTags.MANR: backend.WithField("subsystem", SubsystemTags.MANR),
	SubsystemTags.STDB: backend.WithField("subsystem", SubsystemTags.STDB),
	SubsystemTags.EXEC: backend.WithField("subsystem", SubsystemTags.EXEC),
	SubsystemTags.RSRC: backend.WithField("subsystem", SubsystemTags.RSRC),
	SubsystemTags.RWRD: backend.WithField("subsystem", SubsystemTags.RWRD),
	SubsystemTags.MAIN: backend.WithField("subsystem", SubsystemTags.MAIN),
	SubsystemTags.SCHD: backend.WithField("subsystem", SubsystemTags.SCHD),
	SubsystemTags.MPOL: backend.WithField("subsystem", SubsystemTags.MPOL),
	SubsystemTags.PROD: backend.WithField("subsystem", SubsystemTags.PROD),
	SubsystemTags.CNFG: backend.WithField("subsystem", SubsystemTags.CNFG),
}

func init() {
	backend.SetOutput(os.Stdout)
}

// Get returns the logger for a specific subsystem tag, or ok=false if the
// tag is unknown.
func Get(tag string) (entry *logrus.Entry, ok bool) {
	entry, ok = subsystemLoggers[tag]
	return
}

// SetLogLevel sets the logging level for one subsystem. Invalid subsystems
// are ignored; invalid levels default to info.
func SetLogLevel(subsystemID string, logLevel string) {
	entry, ok := subsystemLoggers[subsystemID]
	if !ok {
		return
	}
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	entry.Logger.SetLevel(level)
}

// SetLogLevels sets every subsystem to the same level.
func SetLogLevels(logLevel string) {
	for subsysID := range subsystemLoggers {
		SetLogLevel(subsysID, logLevel)
	}
}

// SupportedSubsystems returns a sorted slice of the known subsystem tags.
func SupportedSubsystems() []string {
	tags := make([]string, 0, len(subsystemLoggers))
	for tag := range subsystemLoggers {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// ParseAndSetDebugLevels parses a level string ("info" or "TAG=level,...")
// and applies it, the way the teacher's kaspad.go --debuglevel flag does.
func ParseAndSetDebugLevels(debugLevel string) error {
	if !strings.Contains(debugLevel, ",") && !strings.Contains(debugLevel, "=") {
		if _, err := logrus.ParseLevel(debugLevel); err != nil {
			return err
		}
		SetLogLevels(debugLevel)
		return nil
	}
	for _, pair := range strings.Split(debugLevel, ",") {
		fields := strings.SplitN(pair, "=", 2)
		if len(fields) != 2 {
			return errInvalidDebugLevelPair(pair)
		}
		subsysID, level := fields[0], fields[1]
		if _, ok := Get(subsysID); !ok {
			return errUnknownSubsystem(subsysID)
		}
		if _, err := logrus.ParseLevel(level); err != nil {
			return err
		}
		SetLogLevel(subsysID, level)
	}
	return nil
}

type errInvalidDebugLevelPair string

func (e errInvalidDebugLevelPair) Error() string {
	return "invalid subsystem/level pair: " + string(e)
}

type errUnknownSubsystem string

func (e errUnknownSubsystem) Error() string {
	return "unknown subsystem: " + string(e)
}
