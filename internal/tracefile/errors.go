package tracefile

import "errors"

var (
	errEmptyChunk  = errors.New("tracefile: chunk file is empty")
	errChunkEOF    = errors.New("tracefile: read past end of mapped chunk")
	errNoChunks    = errors.New("tracefile: location directory has no chunk files")
	errUnknownKind = errors.New("tracefile: unrecognized reference kind")
)
