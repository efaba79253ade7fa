package decoder

import (
	"evtrace/internal/errcode"
	"evtrace/internal/evtio"
)

// ensureIndex builds positionTable/timestampTable for the current chunk on
// first backward-read use, by replaying the chunk from its start and
// recording the stream position before every physical record (both
// AttributeList and event records occupy a slot, since the peek in
// StepBack needs to see attribute-list prefixes too).
func (d *EventDecoder) ensureIndex() error {
	if d.positionTable != nil {
		return nil
	}
	savedPos := d.stream.GetPosition()
	savedTsPos := d.stream.GetPositionTimestamp()
	firstEvent, _ := d.stream.GetNumberEvents()

	if err := d.stream.ReadSeekChunk(firstEvent); err != nil {
		return err
	}

	var positions []evtio.Position
	var timestamps []uint64
	for {
		pos := d.stream.GetPosition()
		ts, err := d.stream.ReadTimestamp()
		if err != nil {
			break
		}
		if err := d.stream.GuaranteeRead(1); err != nil {
			break
		}
		tagByte, err := d.stream.ReadU8()
		if err != nil {
			break
		}
		tag := Kind(tagByte)
		if tag == KindEndOfChunk || tag == KindEndOfFile {
			break
		}
		positions = append(positions, pos)
		timestamps = append(timestamps, ts)

		if tag == KindAttributeList {
			if err := d.decodeAttributeList(d.scratch); err != nil {
				return err
			}
			d.scratch.RemoveAll()
			continue
		}
		if _, err := d.decodePayload(tag, ts); err != nil {
			return err
		}
	}
	d.positionTable = positions
	d.timestampTable = timestamps

	if err := d.stream.ReadSeekChunk(firstEvent); err != nil {
		return err
	}
	d.stream.SetPosition(savedPos)
	d.stream.SetPositionTimestamp(savedTsPos)
	return nil
}

// StepBack moves the decoder back over the most recently read event and
// redelivers it, then leaves the stream and chunkLocalRecordPos/
// globalEventPos in front of that event again, so a following ReadNext
// delivers the same event and a further StepBack moves one event earlier.
func (d *EventDecoder) StepBack() error {
	if err := d.ensureIndex(); err != nil {
		return err
	}
	if d.chunkLocalRecordPos == 0 {
		if err := d.stream.ReadGetPreviousChunk(); err != nil {
			return err
		}
		d.positionTable = nil
		d.timestampTable = nil
		if err := d.ensureIndex(); err != nil {
			return err
		}
		d.chunkLocalRecordPos = uint64(len(d.positionTable))
	}
	if d.chunkLocalRecordPos == 0 {
		return errcode.ErrIndexOutOfBounds
	}

	step := uint64(1)
	if d.chunkLocalRecordPos >= 2 {
		precedingTag, err := d.peekTag(d.positionTable[d.chunkLocalRecordPos-2])
		if err != nil {
			return err
		}
		if precedingTag == KindAttributeList {
			step = 2
		}
	}

	target := d.chunkLocalRecordPos - step
	d.chunkLocalRecordPos = target
	d.globalEventPos--
	d.stream.SetPosition(d.positionTable[target])
	d.stream.SetPositionTimestamp(d.positionTable[target])
	d.clock.Reset()

	err := d.ReadNext()
	if err != nil && errcode.Classify(err) != errcode.InterruptedByCallback {
		return err
	}
	d.chunkLocalRecordPos = target
	d.globalEventPos--
	d.stream.SetPosition(d.positionTable[target])
	d.stream.SetPositionTimestamp(d.positionTable[target])
	d.clock.Reset()
	return err
}

func (d *EventDecoder) peekTag(pos evtio.Position) (Kind, error) {
	saved := d.stream.GetPosition()
	d.stream.SetPosition(pos)
	if _, err := d.stream.ReadTimestamp(); err != nil {
		return 0, err
	}
	tagByte, err := d.stream.ReadU8()
	d.stream.SetPosition(saved)
	if err != nil {
		return 0, err
	}
	return Kind(tagByte), nil
}
