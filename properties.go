package mqttv5

import (
	"errors"
	"io"
)

// PropertyID represents an MQTT v5.0 property identifier.
type PropertyID byte

// Property identifiers as defined in MQTT v5.0 specification.
const (
	PropPayloadFormatIndicator   PropertyID = 0x01
	PropMessageExpiryInterval    PropertyID = 0x02
	PropContentType              PropertyID = 0x03
	PropResponseTopic            PropertyID = 0x08
	PropCorrelationData          PropertyID = 0x09
	PropSubscriptionIdentifier   PropertyID = 0x0B
	PropSessionExpiryInterval    PropertyID = 0x11
	PropAssignedClientIdentifier PropertyID = 0x12
	PropServerKeepAlive          PropertyID = 0x13
	PropAuthenticationMethod     PropertyID = 0x15
	PropAuthenticationData       PropertyID = 0x16
	PropRequestProblemInfo       PropertyID = 0x17
	PropWillDelayInterval        PropertyID = 0x18
	PropRequestResponseInfo      PropertyID = 0x19
	PropResponseInformation      PropertyID = 0x1A
	PropServerReference          PropertyID = 0x1C
	PropReasonString             PropertyID = 0x1F
	PropReceiveMaximum           PropertyID = 0x21
	PropTopicAliasMaximum        PropertyID = 0x22
	PropTopicAlias               PropertyID = 0x23
	PropMaximumQoS               PropertyID = 0x24
	PropRetainAvailable          PropertyID = 0x25
	PropUserProperty             PropertyID = 0x26
	PropMaximumPacketSize        PropertyID = 0x27
	PropWildcardSubAvailable     PropertyID = 0x28
	PropSubscriptionIDAvailable  PropertyID = 0x29
	PropSharedSubAvailable       PropertyID = 0x2A
)

// PropertyType represents the data type of a property value.
type PropertyType byte

const (
	PropTypeByte        PropertyType = 0 // Single byte
	PropTypeTwoByteInt  PropertyType = 1 // Two byte integer (uint16)
	PropTypeFourByteInt PropertyType = 2 // Four byte integer (uint32)
	PropTypeVarInt      PropertyType = 3 // Variable byte integer
	PropTypeString      PropertyType = 4 // UTF-8 encoded string
	PropTypeBinary      PropertyType = 5 // Binary data
	PropTypeStringPair  PropertyType = 6 // UTF-8 string pair
)

// propertyTypeMap maps property IDs to their data types.
var propertyTypeMap = map[PropertyID]PropertyType{
	PropPayloadFormatIndicator:   PropTypeByte,
	PropMessageExpiryInterval:    PropTypeFourByteInt,
	PropContentType:              PropTypeString,
	PropResponseTopic:            PropTypeString,
	PropCorrelationData:          PropTypeBinary,
	PropSubscriptionIdentifier:   PropTypeVarInt,
	PropSessionExpiryInterval:    PropTypeFourByteInt,
	PropAssignedClientIdentifier: PropTypeString,
	PropServerKeepAlive:          PropTypeTwoByteInt,
	PropAuthenticationMethod:     PropTypeString,
	PropAuthenticationData:       PropTypeBinary,
	PropRequestProblemInfo:       PropTypeByte,
	PropWillDelayInterval:        PropTypeFourByteInt,
	PropRequestResponseInfo:      PropTypeByte,
	PropResponseInformation:      PropTypeString,
	PropServerReference:          PropTypeString,
	PropReasonString:             PropTypeString,
	PropReceiveMaximum:           PropTypeTwoByteInt,
	PropTopicAliasMaximum:        PropTypeTwoByteInt,
	PropTopicAlias:               PropTypeTwoByteInt,
	PropMaximumQoS:               PropTypeByte,
	PropRetainAvailable:          PropTypeByte,
	PropUserProperty:             PropTypeStringPair,
	PropMaximumPacketSize:        PropTypeFourByteInt,
	PropWildcardSubAvailable:     PropTypeByte,
	PropSubscriptionIDAvailable:  PropTypeByte,
	PropSharedSubAvailable:       PropTypeByte,
}

// PropertyType returns the data type for this property ID.
func (p PropertyID) PropertyType() PropertyType {
	if t, ok := propertyTypeMap[p]; ok {
		return t
	}
	return PropTypeByte // default
}

// PropertyContext identifies which packet (or sub-structure, for the
// CONNECT payload's Will properties) a property was decoded from. It is a
// bitmask so a single table entry can list every context a property is
// legal in.
type PropertyContext uint16

const (
	PropCtxCONNECT PropertyContext = 1 << iota
	PropCtxCONNACK
	PropCtxPUBLISH
	PropCtxPUBACK
	PropCtxPUBREC
	PropCtxPUBREL
	PropCtxPUBCOMP
	PropCtxSUBSCRIBE
	PropCtxSUBACK
	PropCtxUNSUBSCRIBE
	PropCtxUNSUBACK
	PropCtxDISCONNECT
	PropCtxAUTH
	PropCtxWill

	propCtxAck = PropCtxPUBACK | PropCtxPUBREC | PropCtxPUBREL | PropCtxPUBCOMP | PropCtxSUBACK | PropCtxUNSUBACK
	propCtxAll = PropCtxCONNECT | PropCtxCONNACK | PropCtxPUBLISH | propCtxAck |
		PropCtxSUBSCRIBE | PropCtxUNSUBSCRIBE | PropCtxDISCONNECT | PropCtxAUTH | PropCtxWill
)

// propertyAllowedContexts maps each property ID to the packets (and the
// CONNECT payload's Will properties) it may legally appear on, per the
// MQTT v5.0 property/packet matrix (spec section 2.2.2.2).
var propertyAllowedContexts = map[PropertyID]PropertyContext{
	PropPayloadFormatIndicator:   PropCtxPUBLISH | PropCtxWill,
	PropMessageExpiryInterval:    PropCtxPUBLISH | PropCtxWill,
	PropContentType:              PropCtxPUBLISH | PropCtxWill,
	PropResponseTopic:            PropCtxPUBLISH | PropCtxWill,
	PropCorrelationData:          PropCtxPUBLISH | PropCtxWill,
	PropSubscriptionIdentifier:   PropCtxPUBLISH | PropCtxSUBSCRIBE,
	PropSessionExpiryInterval:    PropCtxCONNECT | PropCtxCONNACK | PropCtxDISCONNECT,
	PropAssignedClientIdentifier: PropCtxCONNACK,
	PropServerKeepAlive:          PropCtxCONNACK,
	PropAuthenticationMethod:     PropCtxCONNECT | PropCtxCONNACK | PropCtxAUTH,
	PropAuthenticationData:       PropCtxCONNECT | PropCtxCONNACK | PropCtxAUTH,
	PropRequestProblemInfo:       PropCtxCONNECT,
	PropWillDelayInterval:        PropCtxWill,
	PropRequestResponseInfo:      PropCtxCONNECT,
	PropResponseInformation:      PropCtxCONNACK,
	PropServerReference:          PropCtxCONNACK | PropCtxDISCONNECT,
	PropReasonString:             propCtxAck | PropCtxCONNACK | PropCtxDISCONNECT | PropCtxAUTH,
	PropReceiveMaximum:           PropCtxCONNECT | PropCtxCONNACK,
	PropTopicAliasMaximum:        PropCtxCONNECT | PropCtxCONNACK,
	PropTopicAlias:               PropCtxPUBLISH,
	PropMaximumQoS:               PropCtxCONNACK,
	PropRetainAvailable:          PropCtxCONNACK,
	PropUserProperty:             propCtxAll,
	PropMaximumPacketSize:        PropCtxCONNECT | PropCtxCONNACK,
	PropWildcardSubAvailable:     PropCtxCONNACK,
	PropSubscriptionIDAvailable:  PropCtxCONNACK,
	PropSharedSubAvailable:       PropCtxCONNACK,
}

// allowsDuplicates reports whether a property ID may legally appear more
// than once in a single property list.
func (p PropertyID) allowsDuplicates() bool {
	return p == PropUserProperty || p == PropSubscriptionIdentifier
}

// Property errors.
var (
	ErrUnknownPropertyID   = errors.New("unknown property identifier")
	ErrInvalidPropertyType = errors.New("invalid property type for identifier")
	ErrDuplicateProperty   = errors.New("duplicate property not allowed")
	ErrPropertyNotAllowed  = errors.New("property not allowed for this packet type")
)

// Properties represents a collection of MQTT v5.0 properties.
type Properties struct {
	props []property
}

type property struct {
	id    PropertyID
	value any
}

// Len returns the number of properties in the collection.
func (p *Properties) Len() int {
	if p == nil {
		return 0
	}
	return len(p.props)
}

// Has returns true if the property with the given ID exists.
func (p *Properties) Has(id PropertyID) bool {
	if p == nil {
		return false
	}
	for i := range p.props {
		if p.props[i].id == id {
			return true
		}
	}
	return false
}

// Get returns the value of the property with the given ID.
// Returns nil if the property does not exist.
func (p *Properties) Get(id PropertyID) any {
	if p == nil {
		return nil
	}
	for i := range p.props {
		if p.props[i].id == id {
			return p.props[i].value
		}
	}
	return nil
}

// GetAll returns all values for properties with the given ID.
// Useful for properties that can appear multiple times (e.g., UserProperty, SubscriptionIdentifier).
func (p *Properties) GetAll(id PropertyID) []any {
	if p == nil {
		return nil
	}
	var result []any
	for i := range p.props {
		if p.props[i].id == id {
			result = append(result, p.props[i].value)
		}
	}
	return result
}

// Set sets a property value. For properties that can only appear once,
// this replaces any existing value.
func (p *Properties) Set(id PropertyID, value any) {
	if p == nil {
		return
	}
	for i := range p.props {
		if p.props[i].id == id {
			p.props[i].value = value
			return
		}
	}
	p.props = append(p.props, property{id: id, value: value})
}

// Add adds a property value. Use this for properties that can appear multiple times.
func (p *Properties) Add(id PropertyID, value any) {
	if p == nil {
		return
	}
	p.props = append(p.props, property{id: id, value: value})
}

// Delete removes all properties with the given ID.
func (p *Properties) Delete(id PropertyID) {
	if p == nil {
		return
	}
	n := 0
	for i := range p.props {
		if p.props[i].id != id {
			p.props[n] = p.props[i]
			n++
		}
	}
	p.props = p.props[:n]
}

// ValidateFor reports whether every property in the collection is legal
// for the given packet context.
func (p *Properties) ValidateFor(ctx PropertyContext) error {
	if p == nil {
		return nil
	}
	for i := range p.props {
		allowed, ok := propertyAllowedContexts[p.props[i].id]
		if !ok || allowed&ctx == 0 {
			return ErrPropertyNotAllowed
		}
	}
	return nil
}

// Typed getters

// GetByte returns the byte value of a property, or 0 if not found.
func (p *Properties) GetByte(id PropertyID) byte {
	v := p.Get(id)
	if v == nil {
		return 0
	}
	if b, ok := v.(byte); ok {
		return b
	}
	return 0
}

// GetUint16 returns the uint16 value of a property, or 0 if not found.
func (p *Properties) GetUint16(id PropertyID) uint16 {
	v := p.Get(id)
	if v == nil {
		return 0
	}
	if u, ok := v.(uint16); ok {
		return u
	}
	return 0
}

// GetUint32 returns the uint32 value of a property, or 0 if not found.
func (p *Properties) GetUint32(id PropertyID) uint32 {
	v := p.Get(id)
	if v == nil {
		return 0
	}
	if u, ok := v.(uint32); ok {
		return u
	}
	return 0
}

// GetString returns the string value of a property, or empty string if not found.
func (p *Properties) GetString(id PropertyID) string {
	v := p.Get(id)
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// GetBinary returns the binary value of a property, or nil if not found.
func (p *Properties) GetBinary(id PropertyID) []byte {
	v := p.Get(id)
	if v == nil {
		return nil
	}
	if b, ok := v.([]byte); ok {
		return b
	}
	return nil
}

// GetStringPair returns the string pair value of a property, or zero value if not found.
func (p *Properties) GetStringPair(id PropertyID) StringPair {
	v := p.Get(id)
	if v == nil {
		return StringPair{}
	}
	if sp, ok := v.(StringPair); ok {
		return sp
	}
	return StringPair{}
}

// GetAllStringPairs returns all string pair values for the given property ID.
func (p *Properties) GetAllStringPairs(id PropertyID) []StringPair {
	all := p.GetAll(id)
	if all == nil {
		return nil
	}
	result := make([]StringPair, 0, len(all))
	for _, v := range all {
		if sp, ok := v.(StringPair); ok {
			result = append(result, sp)
		}
	}
	return result
}

// GetAllVarInts returns all variable integer values for the given property ID.
func (p *Properties) GetAllVarInts(id PropertyID) []uint32 {
	all := p.GetAll(id)
	if all == nil {
		return nil
	}
	result := make([]uint32, 0, len(all))
	for _, v := range all {
		if u, ok := v.(uint32); ok {
			result = append(result, u)
		}
	}
	return result
}

// Encode writes the properties to the writer.
// Returns the number of bytes written.
func (p *Properties) Encode(w io.Writer) (int, error) {
	if p == nil || len(p.props) == 0 {
		return encodeVarint(w, 0)
	}

	size := p.size()

	n, err := encodeVarint(w, uint32(size))
	if err != nil {
		return n, err
	}

	for i := range p.props {
		prop := &p.props[i]
		n2, err := p.encodeProperty(w, prop)
		n += n2
		if err != nil {
			return n, err
		}
	}

	return n, nil
}

func (p *Properties) encodeProperty(w io.Writer, prop *property) (int, error) {
	n, err := w.Write([]byte{byte(prop.id)})
	if err != nil {
		return n, err
	}

	propType := prop.id.PropertyType()
	var n2 int

	switch propType {
	case PropTypeByte:
		b, _ := prop.value.(byte)
		n2, err = w.Write([]byte{b})

	case PropTypeTwoByteInt:
		v, _ := prop.value.(uint16)
		n2, err = w.Write([]byte{byte(v >> 8), byte(v)})

	case PropTypeFourByteInt:
		v, _ := prop.value.(uint32)
		n2, err = w.Write([]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)})

	case PropTypeVarInt:
		v, _ := prop.value.(uint32)
		n2, err = encodeVarint(w, v)

	case PropTypeString:
		s, _ := prop.value.(string)
		n2, err = encodeString(w, s)

	case PropTypeBinary:
		b, _ := prop.value.([]byte)
		n2, err = encodeBinary(w, b)

	case PropTypeStringPair:
		sp, _ := prop.value.(StringPair)
		n2, err = encodeStringPair(w, sp)
	}

	return n + n2, err
}

func (p *Properties) size() int {
	if p == nil {
		return 0
	}

	size := 0
	for i := range p.props {
		prop := &p.props[i]
		size++ // property ID

		propType := prop.id.PropertyType()
		switch propType {
		case PropTypeByte:
			size++
		case PropTypeTwoByteInt:
			size += 2
		case PropTypeFourByteInt:
			size += 4
		case PropTypeVarInt:
			v, _ := prop.value.(uint32)
			size += varintSize(v)
		case PropTypeString:
			s, _ := prop.value.(string)
			size += 2 + len(s)
		case PropTypeBinary:
			b, _ := prop.value.([]byte)
			size += 2 + len(b)
		case PropTypeStringPair:
			sp, _ := prop.value.(StringPair)
			size += 2 + len(sp.Key) + 2 + len(sp.Value)
		}
	}
	return size
}

// Decode reads properties from buf, which must hold at least the encoded
// property list (it may hold more; the returned byte count tells the
// caller how much was consumed). Values read as strings or string pairs
// are copied out of buf; binary values borrow buf directly.
//
// Per-identifier duplicates are rejected with ErrDuplicateProperty except
// for User Property and Subscription Identifier, which MQTT v5.0 permits
// to repeat.
func (p *Properties) Decode(buf []byte) (int, error) {
	length, n, err := decodeVarintBytes(buf)
	if err != nil {
		return n, err
	}

	if length == 0 {
		return n, nil
	}

	if len(buf) < n+int(length) {
		return n, ErrBufferTooShort
	}

	end := n + int(length)
	seen := make(map[PropertyID]bool)

	for n < end {
		id := PropertyID(buf[n])
		n++

		propType, ok := propertyTypeMap[id]
		if !ok {
			return n, ErrUnknownPropertyID
		}

		if seen[id] && !id.allowsDuplicates() {
			return n, ErrDuplicateProperty
		}
		seen[id] = true

		var value any
		var n3 int

		switch propType {
		case PropTypeByte:
			if n >= len(buf) {
				return n, ErrBufferTooShort
			}
			value = buf[n]
			n3 = 1

		case PropTypeTwoByteInt:
			if n+2 > len(buf) {
				return n, ErrBufferTooShort
			}
			value = uint16(buf[n])<<8 | uint16(buf[n+1])
			n3 = 2

		case PropTypeFourByteInt:
			if n+4 > len(buf) {
				return n, ErrBufferTooShort
			}
			value = uint32(buf[n])<<24 | uint32(buf[n+1])<<16 | uint32(buf[n+2])<<8 | uint32(buf[n+3])
			n3 = 4

		case PropTypeVarInt:
			var v uint32
			v, n3, err = decodeVarintBytes(buf[n:])
			value = v

		case PropTypeString:
			var s string
			s, n3, err = decodeString(buf[n:])
			value = s

		case PropTypeBinary:
			var b []byte
			b, n3, err = decodeBinary(buf[n:])
			value = b

		case PropTypeStringPair:
			var sp StringPair
			sp, n3, err = decodeStringPair(buf[n:])
			value = sp
		}

		n += n3
		if err != nil {
			return n, err
		}

		p.props = append(p.props, property{id: id, value: value})
	}

	return n, nil
}
