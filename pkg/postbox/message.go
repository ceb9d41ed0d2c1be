package postbox

// Message flag bits stored in the t7 value's flags word. Only Incoming is
// meaningful to readers; the rest describe delivery state.
const (
	flagUnsent            = 1 << 0
	flagFailed            = 1 << 1
	flagIncoming          = 1 << 2
	flagTopIndexable      = 1 << 4
	flagSending           = 1 << 5
	flagWasScheduled      = 1 << 7
	flagCountedAsIncoming = 1 << 8
)

// Presence bits for the optional fields that follow the stable id/version
// pair, read in this exact order when set.
const (
	dataGloballyUniqueID = 1 << 0
	dataGlobalTags       = 1 << 1
	dataGroupingKey      = 1 << 2
	dataGroupInfo        = 1 << 3
	dataLocalTags        = 1 << 4
	dataThreadID         = 1 << 5
)

// Forward-info flag bits. A zero flag byte means no forward block at all.
const (
	fwdSourceID      = 1 << 1
	fwdSourceMessage = 1 << 2
	fwdSignature     = 1 << 3
	fwdPsaType       = 1 << 4
	fwdFlags         = 1 << 5
)

// Message is the part of a t7 value blob that readers care about.
type Message struct {
	Text      string
	AuthorID  int64
	HasAuthor bool
	Incoming  bool
}

// ForwardInfo records the original author and date of a forwarded message.
type ForwardInfo struct {
	AuthorID int64
	Date     int32
}

// ParseMessage walks a t7 value blob. Only discriminator 0 (a regular
// message) is understood; service messages and anything truncated come back
// as ok=false so a bulk scan can keep going.
func ParseMessage(data []byte) (Message, bool) {
	r := newReader(data)

	discriminator, err := r.readInt8()
	if err != nil || discriminator != 0 {
		return Message{}, false
	}

	// stable id, stable version
	if err := r.skip(8); err != nil {
		return Message{}, false
	}

	dataFlags, err := r.readUint8()
	if err != nil {
		return Message{}, false
	}
	for _, opt := range []struct {
		bit   uint8
		width int
	}{
		{dataGloballyUniqueID, 8},
		{dataGlobalTags, 4},
		{dataGroupingKey, 8},
		{dataGroupInfo, 4},
		{dataLocalTags, 4},
		{dataThreadID, 8},
	} {
		if dataFlags&opt.bit == 0 {
			continue
		}
		if err := r.skip(opt.width); err != nil {
			return Message{}, false
		}
	}

	flags, err := r.readUint32()
	if err != nil {
		return Message{}, false
	}
	// tags word
	if err := r.skip(4); err != nil {
		return Message{}, false
	}

	if _, err := parseForwardInfo(r); err != nil {
		return Message{}, false
	}

	msg := Message{Incoming: flags&flagIncoming != 0}

	hasAuthor, err := r.readInt8()
	if err != nil {
		return Message{}, false
	}
	if hasAuthor == 1 {
		msg.AuthorID, err = r.readInt64()
		if err != nil {
			return Message{}, false
		}
		msg.HasAuthor = true
	}

	msg.Text, err = r.readString()
	if err != nil {
		return Message{}, false
	}
	return msg, true
}

// parseForwardInfo consumes an optional forward block. A zero flag byte means
// the block is absent and nothing further is consumed.
func parseForwardInfo(r *reader) (*ForwardInfo, error) {
	infoFlags, err := r.readInt8()
	if err != nil {
		return nil, err
	}
	if infoFlags == 0 {
		return nil, nil
	}

	info := &ForwardInfo{}
	if info.AuthorID, err = r.readInt64(); err != nil {
		return nil, err
	}
	if info.Date, err = r.readInt32(); err != nil {
		return nil, err
	}

	if infoFlags&fwdSourceID != 0 {
		if err := r.skip(8); err != nil {
			return nil, err
		}
	}
	if infoFlags&fwdSourceMessage != 0 {
		// source peer id, namespace, message id
		if err := r.skip(16); err != nil {
			return nil, err
		}
	}
	if infoFlags&fwdSignature != 0 {
		if _, err := r.readString(); err != nil {
			return nil, err
		}
	}
	if infoFlags&fwdPsaType != 0 {
		if _, err := r.readString(); err != nil {
			return nil, err
		}
	}
	if infoFlags&fwdFlags != 0 {
		if err := r.skip(4); err != nil {
			return nil, err
		}
	}
	return info, nil
}
