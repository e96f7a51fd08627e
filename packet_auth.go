package mqttv5

import (
	"bytes"
	"io"
)

// AuthPacket represents an MQTT AUTH packet, used to carry additional
// exchanges for enhanced (SASL-style) authentication and re-authentication.
// MQTT v5.0 spec: Section 3.15
type AuthPacket struct {
	ReasonCode ReasonCode
	Props      Properties
}

// Type returns the packet type.
func (p *AuthPacket) Type() PacketType { return PacketAUTH }

// Properties returns a pointer to the packet's properties.
func (p *AuthPacket) Properties() *Properties { return &p.Props }

// Encode writes the packet to the writer.
func (p *AuthPacket) Encode(w io.Writer) (int, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	if err := p.Props.ValidateFor(PropCtxAUTH); err != nil {
		return 0, err
	}

	var buf bytes.Buffer

	// Reason Code and Properties (optional if success with no properties)
	if p.ReasonCode != ReasonSuccess || p.Props.Len() > 0 {
		if err := buf.WriteByte(byte(p.ReasonCode)); err != nil {
			return 0, err
		}

		if p.Props.Len() > 0 {
			if _, err := p.Props.Encode(&buf); err != nil {
				return 0, err
			}
		}
	}

	header := FixedHeader{
		PacketType:      PacketAUTH,
		Flags:           0x00,
		RemainingLength: uint32(buf.Len()),
	}

	total, err := header.Encode(w)
	if err != nil {
		return total, err
	}

	n, err := w.Write(buf.Bytes())
	return total + n, err
}

// Decode parses the packet body from buf.
func (p *AuthPacket) Decode(buf []byte, header FixedHeader) (int, error) {
	if header.PacketType != PacketAUTH {
		return 0, ErrInvalidPacketType
	}
	if header.Flags != 0x00 {
		return 0, ErrInvalidPacketFlags
	}

	// A Remaining Length of 0 means Success with no properties.
	if header.RemainingLength == 0 {
		p.ReasonCode = ReasonSuccess
		return 0, nil
	}

	if len(buf) < 1 {
		return 0, ErrBufferTooShort
	}
	p.ReasonCode = ReasonCode(buf[0])
	totalRead := 1

	if header.RemainingLength > 1 {
		n, err := p.Props.Decode(buf[totalRead:])
		totalRead += n
		if err != nil {
			return totalRead, err
		}
		if err := p.Props.ValidateFor(PropCtxAUTH); err != nil {
			return totalRead, err
		}
	}

	return totalRead, nil
}

// Validate validates the packet contents.
func (p *AuthPacket) Validate() error {
	if !p.ReasonCode.ValidForAUTH() {
		return ErrInvalidReasonCode
	}
	// Continue authentication and Re-authenticate both require an
	// authentication method to be present.
	if (p.ReasonCode == ReasonContinueAuth || p.ReasonCode == ReasonReAuth) &&
		!p.Props.Has(PropAuthenticationMethod) {
		return ErrProtocolViolation
	}
	return nil
}
