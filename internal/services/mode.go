package services

import (
	"strings"

	apperrors "github.com/flowfi/flowai/internal/errors"
)

// Mode selects which backends an analysis may use
type Mode string

const (
	ModeCoreOnly  Mode = "core_only"
	ModeLocalOnly Mode = "local_only"
	ModeCloudOnly Mode = "cloud_only"
	ModeHybrid    Mode = "hybrid"
	ModeAuto      Mode = "auto"
)

// Source names the backend that produced a result
type Source string

const (
	SourceCore     Source = "core"
	SourceLocal    Source = "local"
	SourceCloud    Source = "cloud"
	SourceFallback Source = "fallback"
)

// ParseMode parses a mode name; empty means auto
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeAuto, nil
	case ModeCoreOnly, ModeLocalOnly, ModeCloudOnly, ModeHybrid, ModeAuto:
		return m, nil
	default:
		return "", apperrors.InvalidInput("unknown analysis mode", nil).
			WithDetails("expected one of core_only, local_only, cloud_only, hybrid, auto")
	}
}

// UsesCore reports whether the core engine answers first in this mode
func (m Mode) UsesCore() bool {
	return m == ModeCoreOnly || m == ModeAuto || m == ModeHybrid
}

// UsesLocal reports whether the local model backend may be tried
func (m Mode) UsesLocal() bool {
	return m == ModeLocalOnly || m == ModeAuto
}

// UsesCloud reports whether the cloud model backend may be tried
func (m Mode) UsesCloud() bool {
	return m == ModeCloudOnly || m == ModeAuto || m == ModeHybrid
}
