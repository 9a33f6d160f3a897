// Package identity derives stable display identifiers. Backends differ
// in what they can offer, so resolution walks ordered tiers: a native
// UUID service first, then the display's EDID block, then a synthesized
// session-scoped fallback.
package identity

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/bryanchriswhite/ScreenGrab/internal/caperr"
	"github.com/bryanchriswhite/ScreenGrab/internal/edid"
	"github.com/bryanchriswhite/ScreenGrab/internal/logger"
	"github.com/bryanchriswhite/ScreenGrab/internal/native"
)

// Resolver resolves display UUIDs and serials against one backend.
type Resolver struct {
	svc native.DescriptorService
}

// NewResolver wraps the backend's descriptor service.
func NewResolver(svc native.DescriptorService) *Resolver {
	return &Resolver{svc: svc}
}

// UUID returns the best stable identifier available for the display.
// Never fails: when both the UUID service and the descriptor tier come
// up empty, the session handle is synthesized from the display id. Such
// handles do not survive replugs.
func (r *Resolver) UUID(id native.DisplayID) string {
	log := logger.WithComponent("identity")

	if uuid, err := r.svc.UUID(id); err == nil {
		return uuid
	} else if !errors.Is(err, caperr.ErrNotFound) {
		log.Debug().
			Err(err).
			Uint32("display_id", uint32(id)).
			Msg("UUID service failed, falling through to descriptor")
	}

	if info, _, err := r.descriptor(id); err == nil {
		return fmt.Sprintf("%s-%04X-%08X", info.ManufacturerID, info.ProductCode, info.SerialNumber)
	} else {
		log.Debug().
			Err(err).
			Uint32("display_id", uint32(id)).
			Msg("No descriptor, synthesizing session handle")
	}

	return fmt.Sprintf("DISPLAY-%X", uint32(id))
}

// Serial returns the display's serial number as a string. Tiers: the
// numeric serial from the descriptor, then a string serial descriptor
// block, then a manufacturer+product composite. When the display
// exposes no descriptor at all the error wraps
// caperr.ErrSerialUnavailable so callers can branch to UUID identity.
func (r *Resolver) Serial(id native.DisplayID) (string, error) {
	info, raw, err := r.descriptor(id)
	if err != nil {
		return "", fmt.Errorf("display %d: %w: %v", id, caperr.ErrSerialUnavailable, err)
	}

	if info.SerialNumber != 0 {
		return strconv.FormatUint(uint64(info.SerialNumber), 10), nil
	}
	if s := edid.StringSerial(raw); s != "" {
		return s, nil
	}
	return fmt.Sprintf("%s-%04X", info.ManufacturerID, info.ProductCode), nil
}

func (r *Resolver) descriptor(id native.DisplayID) (edid.Info, []byte, error) {
	raw, err := r.svc.RawDescriptor(id)
	if err != nil {
		return edid.Info{}, nil, err
	}
	info, err := edid.Parse(raw)
	if err != nil {
		return edid.Info{}, nil, err
	}
	return info, raw, nil
}
