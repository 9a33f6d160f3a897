package x11

import (
	"fmt"
	"image"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/bryanchriswhite/ScreenGrab/internal/caperr"
	"github.com/bryanchriswhite/ScreenGrab/internal/native"
)

// Displays enumerates connected RandR outputs with an active CRTC.
func (b *Backend) Displays() ([]native.Display, error) {
	res, err := randr.GetScreenResourcesCurrent(b.conn, b.root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	primaryReply, err := randr.GetOutputPrimary(b.conn, b.root).Reply()
	var primary randr.Output
	if err == nil {
		primary = primaryReply.Output
	}

	var displays []native.Display
	for _, output := range res.Outputs {
		info, err := randr.GetOutputInfo(b.conn, output, res.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}
		if info.Connection != randr.ConnectionConnected || info.Crtc == 0 {
			continue
		}
		crtc, err := randr.GetCrtcInfo(b.conn, info.Crtc, res.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}

		displays = append(displays, native.Display{
			ID:   native.DisplayID(output),
			Name: string(info.Name),
			Bounds: image.Rect(
				int(crtc.X), int(crtc.Y),
				int(crtc.X)+int(crtc.Width), int(crtc.Y)+int(crtc.Height),
			),
			Primary:     output == primary,
			ScaleFactor: 1.0,
		})
	}

	if len(displays) == 0 {
		return nil, fmt.Errorf("no connected outputs: %w", caperr.ErrNotFound)
	}
	return displays, nil
}

// PrimaryDisplay returns the primary output, or the first connected one
// when the server designates no primary.
func (b *Backend) PrimaryDisplay() (native.Display, error) {
	displays, err := b.Displays()
	if err != nil {
		return native.Display{}, err
	}
	for _, d := range displays {
		if d.Primary {
			return d, nil
		}
	}
	return displays[0], nil
}

// RawDescriptor reads the output's EDID property.
func (b *Backend) RawDescriptor(id native.DisplayID) ([]byte, error) {
	edidAtom, err := b.atom("EDID")
	if err != nil {
		return nil, err
	}

	reply, err := randr.GetOutputProperty(
		b.conn,
		randr.Output(id),
		edidAtom,
		xproto.GetPropertyTypeAny,
		0,
		256,
		false,
		false,
	).Reply()
	if err != nil {
		return nil, fmt.Errorf("EDID property read failed: %w", err)
	}
	if len(reply.Data) == 0 {
		return nil, fmt.Errorf("output %d exposes no EDID: %w", id, caperr.ErrNotFound)
	}
	return reply.Data, nil
}

// UUID reports that X11 has no display UUID service, sending resolvers
// to the descriptor tier.
func (b *Backend) UUID(id native.DisplayID) (string, error) {
	return "", fmt.Errorf("no UUID service for output %d: %w", id, caperr.ErrNotFound)
}
